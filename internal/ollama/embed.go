package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrEmptyEmbedding reports a well-formed embed response that carries no
// usable vector.
var ErrEmptyEmbedding = errors.New("embed response contained no vector")

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings json.RawMessage `json:"embeddings"`
}

// Embed returns the embedding vector for input using model.
func (c *Client) Embed(ctx context.Context, model, input string) ([]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	body, err := json.Marshal(embedRequest{Model: model, Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create embed request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.embedHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read embed response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("ollama embed status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to decode embed response: %w", err)
	}

	return normalizeEmbedding(parsed.Embeddings)
}

// normalizeEmbedding accepts the two shapes Ollama produces for a single
// input: a flat vector, and a list holding exactly that one vector. Deeper
// nesting is not unwrapped.
func normalizeEmbedding(raw json.RawMessage) ([]float32, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: missing embeddings field", ErrEmptyEmbedding)
	}

	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil {
		if len(flat) == 0 {
			return nil, fmt.Errorf("%w: empty vector", ErrEmptyEmbedding)
		}
		return flat, nil
	}

	var nested [][]float32
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("unexpected embeddings shape: %w", err)
	}
	if len(nested) == 0 || len(nested[0]) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmptyEmbedding)
	}
	return nested[0], nil
}
