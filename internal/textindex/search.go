package textindex

import (
	"fmt"

	"github.com/blevesearch/bleve/v2"
)

// Hit is one keyword search result.
type Hit struct {
	ID      string  `json:"id"`
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Preview string  `json:"preview"`
	Score   float64 `json:"score"`
}

// Search runs a keyword query over the indexed chunks. Title matches
// outweigh body matches, path matches sit in between.
func (ix *Index) Search(query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		topK = 10
	}

	textQuery := bleve.NewMatchQuery(query)
	textQuery.SetField("text")
	textQuery.SetBoost(1.0)
	titleQuery := bleve.NewMatchQuery(query)
	titleQuery.SetField("title")
	titleQuery.SetBoost(2.0)
	pathQuery := bleve.NewMatchQuery(query)
	pathQuery.SetField("path")
	pathQuery.SetBoost(1.5)

	disjunction := bleve.NewDisjunctionQuery(textQuery, titleQuery, pathQuery)

	req := bleve.NewSearchRequestOptions(disjunction, topK, 0, false)
	req.Fields = []string{"path", "title", "preview"}

	res, err := ix.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search text index: %w", err)
	}

	var hits []Hit
	for _, hit := range res.Hits {
		pathVal, _ := hit.Fields["path"].(string)
		titleVal, _ := hit.Fields["title"].(string)
		previewVal, _ := hit.Fields["preview"].(string)
		hits = append(hits, Hit{
			ID:      hit.ID,
			Path:    pathVal,
			Title:   titleVal,
			Preview: previewVal,
			Score:   hit.Score,
		})
	}
	return hits, nil
}
