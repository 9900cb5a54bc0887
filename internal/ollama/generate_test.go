package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func drainStream(t *testing.T, s *Stream) []string {
	t.Helper()
	var fragments []string
	for {
		fragment, done, err := s.Recv()
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		if done {
			return fragments
		}
		fragments = append(fragments, fragment)
	}
}

func TestGenerateStream(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s, want /api/generate", r.URL.Path)
		}

		var req struct {
			Model  string `json:"model"`
			Prompt string `json:"prompt"`
			Stream bool   `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llama3.1" || !req.Stream {
			t.Errorf("request = %+v, want streamed llama3.1 call", req)
		}
		if !strings.Contains(req.Prompt, "what is a vault") {
			t.Errorf("prompt does not carry the question: %q", req.Prompt)
		}

		w.Write([]byte("{\"response\":\"Hel\"}\n{\"response\":\"lo\"}\n{\"response\":\"\",\"done\":true}\n"))
	})

	stream, err := client.Generate(context.Background(), "llama3.1", "what is a vault")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer stream.Close()

	fragments := drainStream(t, stream)
	if len(fragments) != 2 || fragments[0] != "Hel" || fragments[1] != "lo" {
		t.Errorf("fragments = %q, want [Hel lo]", fragments)
	}
}

func TestGenerateStreamDiscardsPartialTail(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\"response\":\"ab\"}\n{\"respon"))
	})

	stream, err := client.Generate(context.Background(), "m", "q")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer stream.Close()

	fragments := drainStream(t, stream)
	if len(fragments) != 1 || fragments[0] != "ab" {
		t.Errorf("fragments = %q, want exactly [ab]", fragments)
	}
	if stream.Skipped() != 0 {
		t.Errorf("Skipped = %d, want 0 for a truncated tail", stream.Skipped())
	}

	// Recv after end of stream keeps reporting done.
	if _, done, err := stream.Recv(); err != nil || !done {
		t.Errorf("Recv after end = (done=%v, err=%v), want done", done, err)
	}
}

func TestGenerateStreamSkipsMalformedLines(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("{\"response\":\"a\"}\nnot json at all\n\n{\"response\":\"b\"}\n{\"done\":true}\n"))
	})

	stream, err := client.Generate(context.Background(), "m", "q")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	defer stream.Close()

	fragments := drainStream(t, stream)
	if len(fragments) != 2 || fragments[0] != "a" || fragments[1] != "b" {
		t.Errorf("fragments = %q, want [a b]", fragments)
	}
	if stream.Skipped() != 1 {
		t.Errorf("Skipped = %d, want 1", stream.Skipped())
	}
}

func TestGenerateServerError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such model", http.StatusNotFound)
	})

	_, err := client.Generate(context.Background(), "missing", "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "status 404") || !strings.Contains(err.Error(), "no such model") {
		t.Errorf("error = %v, want status and body", err)
	}
}
