package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
)

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// Generate starts a streamed completion for prompt on model. Nothing is read
// from the connection until the caller pulls fragments via Stream.Recv. The
// caller must close the returned stream.
func (c *Client) Generate(ctx context.Context, model, prompt string) (*Stream, error) {
	body, err := json.Marshal(generateRequest{Model: model, Prompt: prompt, Stream: true})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.generateHTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("ollama generate status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return &Stream{body: resp.Body, r: bufio.NewReader(resp.Body)}, nil
}

// Stream yields answer fragments from a running generation. The response is
// consumed line by line as Recv is called; each line is decoded at most once.
type Stream struct {
	body    io.ReadCloser
	r       *bufio.Reader
	fin     bool
	skipped int
}

type generateLine struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Recv returns the next answer fragment. done reports end of stream. Lines
// that fail to decode are counted and skipped rather than ending the stream.
// A partial line cut off by EOF is discarded: without its tail there is no
// way to tell a truncated fragment from a complete one.
func (s *Stream) Recv() (fragment string, done bool, err error) {
	if s.fin {
		return "", true, nil
	}

	for {
		line, err := s.r.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if strings.TrimSpace(line) != "" {
					log.Printf("generate stream: discarding partial line at EOF (%d bytes)", len(line))
				}
				s.fin = true
				return "", true, nil
			}
			return "", false, fmt.Errorf("failed to read generate stream: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var parsed generateLine
		if err := json.Unmarshal([]byte(line), &parsed); err != nil {
			s.skipped++
			log.Printf("generate stream: skipping undecodable line: %v", err)
			continue
		}

		if parsed.Response != "" {
			s.fin = parsed.Done
			return parsed.Response, false, nil
		}
		if parsed.Done {
			s.fin = true
			return "", true, nil
		}
	}
}

// Skipped reports how many undecodable lines Recv has dropped so far.
func (s *Stream) Skipped() int {
	return s.skipped
}

// Close releases the underlying connection. Closing before the stream is
// drained abandons the rest of the generation.
func (s *Stream) Close() error {
	return s.body.Close()
}
