// Package search provides full-text search over public tales using Bleve.
package search

import (
	"github.com/talesmith/talesmith-server/internal/domain"
)

// TaleDocument is the indexed form of a public tale.
//
// Every field is stored so a like count change can re-index the document
// without going back to the store.
type TaleDocument struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Topic      string `json:"topic"`
	Content    string `json:"content"`
	AgeRange   string `json:"age_range"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name,omitempty"`
	Likes      int    `json:"likes"`
	CreatedAt  int64  `json:"created_at"` // Unix millis
}

// NewTaleDocument builds the index document for a tale.
func NewTaleDocument(t *domain.Tale) *TaleDocument {
	return &TaleDocument{
		ID:         t.ID,
		Title:      t.Title,
		Topic:      t.Topic,
		Content:    t.Content,
		AgeRange:   string(t.AgeRange),
		AuthorID:   t.AuthorID,
		AuthorName: t.AuthorName,
		Likes:      t.Likes,
		CreatedAt:  t.CreatedAt.UnixMilli(),
	}
}

// ToMap converts the document to a map keyed by the mapping's field names.
// Bleve would otherwise use the Go struct field names.
func (d *TaleDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":         d.ID,
		"title":      d.Title,
		"topic":      d.Topic,
		"content":    d.Content,
		"age_range":  d.AgeRange,
		"author_id":  d.AuthorID,
		"likes":      float64(d.Likes),
		"created_at": float64(d.CreatedAt),
	}
	if d.AuthorName != "" {
		m["author_name"] = d.AuthorName
	}
	return m
}

// documentFromFields rebuilds a document from the stored fields of a hit.
func documentFromFields(id string, fields map[string]any) *TaleDocument {
	d := &TaleDocument{ID: id}
	d.Title, _ = fields["title"].(string)
	d.Topic, _ = fields["topic"].(string)
	d.Content, _ = fields["content"].(string)
	d.AgeRange, _ = fields["age_range"].(string)
	d.AuthorID, _ = fields["author_id"].(string)
	d.AuthorName, _ = fields["author_name"].(string)
	if v, ok := fields["likes"].(float64); ok {
		d.Likes = int(v)
	}
	if v, ok := fields["created_at"].(float64); ok {
		d.CreatedAt = int64(v)
	}
	return d
}
