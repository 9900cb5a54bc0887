package chroma

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
)

// Chunk is one embedded window of document text headed for a collection.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
}

// ErrBadEmbedding reports a chunk whose vector cannot be stored.
var ErrBadEmbedding = errors.New("chunk has an unusable embedding")

// validateChunks rejects batches the server would store corrupted. It runs
// before any network traffic, so a bad batch costs no requests.
func validateChunks(chunks []Chunk) error {
	for _, ch := range chunks {
		if len(ch.Embedding) == 0 {
			return fmt.Errorf("%w: %s has no vector", ErrBadEmbedding, ch.ID)
		}
		for _, v := range ch.Embedding {
			if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
				return fmt.Errorf("%w: %s contains NaN or Inf", ErrBadEmbedding, ch.ID)
			}
		}
	}
	return nil
}

// Add uploads chunks to the collection in a single request. The whole batch
// is validated first; an invalid batch sends nothing.
func (c *Client) Add(ctx context.Context, tenant, database, collectionID string, chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := validateChunks(chunks); err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	documents := make([]string, len(chunks))
	embeddings := make([][]float32, len(chunks))
	for i, ch := range chunks {
		ids[i] = ch.ID
		documents[i] = ch.Text
		embeddings[i] = ch.Embedding
	}

	// The server wants metadatas and uris aligned with ids even when there
	// is nothing to put in them. Nil entries marshal to null placeholders.
	body := map[string]any{
		"ids":        ids,
		"documents":  documents,
		"embeddings": embeddings,
		"metadatas":  make([]map[string]any, len(chunks)),
		"uris":       make([]*string, len(chunks)),
	}

	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/add", tenant, database, collectionID)
	if _, err := c.doRequest(ctx, http.MethodPost, path, body); err != nil {
		return fmt.Errorf("failed to add %d chunks: %w", len(chunks), err)
	}
	return nil
}

// Query returns the stored texts of the chunks nearest to vector, best match
// first, at most k of them.
func (c *Client) Query(ctx context.Context, tenant, database, collectionID string, vector []float32, k int) ([]string, error) {
	body := map[string]any{
		"query_embeddings": [][]float32{vector},
		"n_results":        k,
	}

	path := fmt.Sprintf("/api/v2/tenants/%s/databases/%s/collections/%s/query", tenant, database, collectionID)
	respBody, err := c.doRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	var parsed struct {
		Documents [][]string `json:"documents"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode query response: %w", err)
	}
	if len(parsed.Documents) == 0 {
		return nil, nil
	}
	return parsed.Documents[0], nil
}
