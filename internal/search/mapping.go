package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/simple"
	"github.com/blevesearch/bleve/v2/analysis/lang/en"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for store documents: English
// stemming on name and description, plain token matching on tags.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = en.AnalyzerName

	docMapping := bleve.NewDocumentMapping()

	nameField := bleve.NewTextFieldMapping()
	nameField.Analyzer = en.AnalyzerName
	nameField.Store = true
	docMapping.AddFieldMappingsAt("name", nameField)

	descField := bleve.NewTextFieldMapping()
	descField.Analyzer = en.AnalyzerName
	descField.Store = false
	docMapping.AddFieldMappingsAt("description", descField)

	tagsField := bleve.NewTextFieldMapping()
	tagsField.Analyzer = simple.Name
	tagsField.Store = false
	docMapping.AddFieldMappingsAt("tags", tagsField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
