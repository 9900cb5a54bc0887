// Package textindex maintains a bleve keyword index over vault chunks as a
// lexical complement to vector retrieval.
package textindex

import (
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
)

// Entry is one chunk as it goes into the keyword index. Text is searchable
// but not stored; path, title and preview come back with hits.
type Entry struct {
	Path    string `json:"path"`
	Title   string `json:"title"`
	Text    string `json:"text"`
	Preview string `json:"preview"`
	Chunk   int    `json:"chunk"`
}

// Index wraps a bleve index over chunk entries.
type Index struct {
	index bleve.Index
}

// Create makes a fresh index at dir, wiping whatever was there. Index runs
// are all-or-nothing, so a rebuild always starts clean.
func Create(dir string) (*Index, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("reset text index dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create text index dir: %w", err)
	}
	index, err := bleve.New(dir, buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// Open opens an existing index at dir.
func Open(dir string) (*Index, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open bleve index: %w", err)
	}
	return &Index{index: index}, nil
}

// Add indexes one entry under id.
func (ix *Index) Add(id string, entry Entry) error {
	return ix.index.Index(id, entry)
}

// DocCount returns the number of indexed chunks.
func (ix *Index) DocCount() (uint64, error) {
	return ix.index.DocCount()
}

func (ix *Index) Close() error {
	return ix.index.Close()
}

// Preview condenses chunk text into a single stored line for result listings.
func Preview(text string, max int) string {
	s := strings.Join(strings.Fields(text), " ")
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.DefaultField = "text"

	docMapping := bleve.NewDocumentMapping()

	textField := bleve.NewTextFieldMapping()
	textField.Store = false
	textField.Index = true
	docMapping.AddFieldMappingsAt("text", textField)

	pathField := bleve.NewTextFieldMapping()
	pathField.Store = true
	pathField.Index = true
	docMapping.AddFieldMappingsAt("path", pathField)

	titleField := bleve.NewTextFieldMapping()
	titleField.Store = true
	titleField.Index = true
	docMapping.AddFieldMappingsAt("title", titleField)

	previewField := bleve.NewTextFieldMapping()
	previewField.Store = true
	previewField.Index = false
	docMapping.AddFieldMappingsAt("preview", previewField)

	chunkField := bleve.NewNumericFieldMapping()
	chunkField.Store = true
	chunkField.Index = false
	docMapping.AddFieldMappingsAt("chunk", chunkField)

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}
