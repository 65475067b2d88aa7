package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Sort orders for search results.
const (
	SortRelevance = "relevance"
	SortNewest    = "newest"
	SortMostLiked = "mostLiked"
)

// Params configures a search query.
type Params struct {
	Query    string
	AgeRange string // Exact age band filter, empty for all
	Sort     string // SortRelevance (default), SortNewest or SortMostLiked
	Limit    int
	Offset   int
}

// Result holds one page of search hits.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"tookMs"`
	Hits   []Hit  `json:"hits"`
}

// Hit is a single matching tale.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Topic      string            `json:"topic"`
	AgeRange   string            `json:"ageRange"`
	AuthorName string            `json:"authorName,omitempty"`
	Likes      int               `json:"likes"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search runs a full-text query over indexed tales.
func (s *TaleIndex) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 {
		limit = 20
	}

	req := bleve.NewSearchRequestOptions(buildQuery(params), limit, max(params.Offset, 0), false)
	switch params.Sort {
	case SortNewest:
		req.SortBy([]string{"-created_at", "-_id"})
	case SortMostLiked:
		req.SortBy([]string{"-likes", "-created_at"})
	default:
		req.SortBy([]string{"-_score", "-created_at"})
	}

	if params.Query != "" {
		req.Highlight = bleve.NewHighlight()
		req.Highlight.AddField("title")
		req.Highlight.AddField("topic")
	}
	req.Fields = []string{"title", "topic", "age_range", "author_name", "likes"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  res.Total,
		TookMs: res.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(res.Hits)),
	}
	for _, h := range res.Hits {
		doc := documentFromFields(h.ID, h.Fields)
		hit := Hit{
			ID:         h.ID,
			Score:      h.Score,
			Title:      doc.Title,
			Topic:      doc.Topic,
			AgeRange:   doc.AgeRange,
			AuthorName: doc.AuthorName,
			Likes:      doc.Likes,
		}
		if len(h.Fragments) > 0 {
			hit.Highlights = make(map[string]string, len(h.Fragments))
			for field, fragments := range h.Fragments {
				if len(fragments) > 0 {
					hit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, hit)
	}
	return result, nil
}

// buildQuery matches the title hardest, then the topic, then the body.
// Fuzzy and prefix clauses on the title tolerate typos and partial input.
func buildQuery(params Params) query.Query {
	var clauses []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		title := bleve.NewMatchQuery(q)
		title.SetField("title")
		title.SetBoost(3.0)

		topic := bleve.NewMatchQuery(q)
		topic.SetField("topic")
		topic.SetBoost(1.5)

		content := bleve.NewMatchQuery(q)
		content.SetField("content")

		fuzzy := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzy.SetField("title")
		fuzzy.SetFuzziness(1)
		fuzzy.SetBoost(0.8)

		text := []query.Query{title, topic, content, fuzzy}
		if len(q) >= 2 {
			prefix := bleve.NewPrefixQuery(strings.ToLower(q))
			prefix.SetField("title")
			prefix.SetBoost(0.5)
			text = append(text, prefix)
		}
		clauses = append(clauses, bleve.NewDisjunctionQuery(text...))
	}

	if params.AgeRange != "" {
		age := bleve.NewTermQuery(params.AgeRange)
		age.SetField("age_range")
		clauses = append(clauses, age)
	}

	switch len(clauses) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return clauses[0]
	}
	return bleve.NewConjunctionQuery(clauses...)
}
