package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for tale documents.
//
// Title and topic get English stemming and term vectors for highlighting.
// Age range and author ID are exact keywords used as filters. Likes and
// created_at are numeric so results can be sorted by them.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	title := bleve.NewTextFieldMapping()
	title.Analyzer = en.AnalyzerName
	title.Store = true
	title.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("title", title)

	topic := bleve.NewTextFieldMapping()
	topic.Analyzer = en.AnalyzerName
	topic.Store = true
	topic.IncludeTermVectors = true
	docMapping.AddFieldMappingsAt("topic", topic)

	content := bleve.NewTextFieldMapping()
	content.Analyzer = en.AnalyzerName
	content.Store = true
	docMapping.AddFieldMappingsAt("content", content)

	// Names are not stemmed.
	author := bleve.NewTextFieldMapping()
	author.Analyzer = simple.Name
	author.Store = true
	docMapping.AddFieldMappingsAt("author_name", author)

	for _, field := range []string{"id", "age_range", "author_id"} {
		kw := bleve.NewTextFieldMapping()
		kw.Analyzer = keyword.Name
		kw.Store = true
		docMapping.AddFieldMappingsAt(field, kw)
	}

	likes := bleve.NewNumericFieldMapping()
	likes.Store = true
	docMapping.AddFieldMappingsAt("likes", likes)

	created := bleve.NewNumericFieldMapping()
	created.Store = true
	docMapping.AddFieldMappingsAt("created_at", created)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
