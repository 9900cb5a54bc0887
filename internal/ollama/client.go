// Package ollama talks to an Ollama server for embeddings and streamed text
// generation.
package ollama

import (
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"vaultrag/internal/config"
)

// Client calls the Ollama HTTP API.
type Client struct {
	baseURL string

	// Embedding calls are short and get a hard timeout. Generation has
	// none: a token stream stays open for as long as the model keeps
	// writing, so cancellation is left to the caller's context.
	embedHTTP    *http.Client
	generateHTTP *http.Client

	limiter *rate.Limiter
}

// NewClient creates an Ollama client from configuration.
func NewClient(cfg *config.OllamaConfig) *Client {
	var limiter *rate.Limiter
	if cfg.EmbedRPS > 0 {
		burst := int(cfg.EmbedRPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.EmbedRPS), burst)
	}

	return &Client{
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		embedHTTP:    &http.Client{Timeout: 30 * time.Second},
		generateHTTP: &http.Client{},
		limiter:      limiter,
	}
}
