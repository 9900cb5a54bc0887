package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vaultrag.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromFileAppliesDefaults(t *testing.T) {
	t.Setenv("OLLAMA_BASE_URL", "")
	t.Setenv("CHROMA_BASE_URL", "")
	path := writeConfig(t, "vault:\n  path: /tmp/notes\n")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("ollama base_url = %q, want default", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("embed_model = %q, want default", cfg.Ollama.EmbedModel)
	}
	if cfg.Chroma.Tenant != "default_tenant" || cfg.Chroma.Database != "default_database" {
		t.Errorf("chroma defaults = %q/%q", cfg.Chroma.Tenant, cfg.Chroma.Database)
	}
	if cfg.Chunking.Size != 500 || cfg.Chunking.Overlap != 50 {
		t.Errorf("chunking defaults = %d/%d, want 500/50", cfg.Chunking.Size, cfg.Chunking.Overlap)
	}
	if cfg.Retrieval.TopK != 5 {
		t.Errorf("top_k = %d, want 5", cfg.Retrieval.TopK)
	}
	if cfg.Answers.Prefix != "answer" {
		t.Errorf("answers prefix = %q, want answer", cfg.Answers.Prefix)
	}
	if cfg.Indexing.Workers < 1 || cfg.Indexing.Workers > 8 {
		t.Errorf("workers = %d, want within [1, 8]", cfg.Indexing.Workers)
	}
}

func TestLoadFromFileEnvOverrides(t *testing.T) {
	path := writeConfig(t, "ollama:\n  base_url: http://configured:11434\n")
	t.Setenv("OLLAMA_BASE_URL", "http://elsewhere:11434")
	t.Setenv("CHROMA_BASE_URL", "http://elsewhere:8000")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Ollama.BaseURL != "http://elsewhere:11434" {
		t.Errorf("ollama base_url = %q, want env override", cfg.Ollama.BaseURL)
	}
	if cfg.Chroma.BaseURL != "http://elsewhere:8000" {
		t.Errorf("chroma base_url = %q, want env override", cfg.Chroma.BaseURL)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	_, err := LoadFromFile(missing)
	if err == nil {
		t.Fatal("expected error for missing config")
	}
	if !IsConfigNotFound(err) {
		t.Errorf("IsConfigNotFound = false for %v", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Errorf("error does not mention requested path: %v", err)
	}
}

func TestLoadFromFileRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{
			name:    "negative chunk size",
			content: "chunking:\n  size: -10\n",
			wantMsg: "chunking.size",
		},
		{
			name:    "overlap equals size",
			content: "chunking:\n  size: 100\n  overlap: 100\n",
			wantMsg: "chunking.overlap",
		},
		{
			name:    "overlap above size",
			content: "chunking:\n  size: 100\n  overlap: 150\n",
			wantMsg: "chunking.overlap",
		},
		{
			name:    "negative top_k",
			content: "retrieval:\n  top_k: -1\n",
			wantMsg: "retrieval.top_k",
		},
		{
			name:    "negative workers",
			content: "indexing:\n  workers: -2\n",
			wantMsg: "indexing.workers",
		},
		{
			name:    "negative embed rps",
			content: "ollama:\n  embed_rps: -1\n",
			wantMsg: "ollama.embed_rps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.content)
			_, err := LoadFromFile(path)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantMsg)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		in   string
		want string
	}{
		{"~", home},
		{"~/notes", filepath.Join(home, "notes")},
		{"$HOME", home},
		{"$HOME/notes", filepath.Join(home, "notes")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
	}

	for _, tt := range tests {
		if got := expandPath(tt.in); got != tt.want {
			t.Errorf("expandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveToFileRoundTrip(t *testing.T) {
	path := writeConfig(t, "vault:\n  path: /tmp/notes\n")

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	cfg.Chroma.CollectionID = "9c3f2a6e-0000-4000-8000-000000000000"
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile: %v", err)
	}

	reloaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Chroma.CollectionID != cfg.Chroma.CollectionID {
		t.Errorf("collection_id not persisted, got %q", reloaded.Chroma.CollectionID)
	}
}

func TestWriteDefaultTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "vaultrag.yaml")

	created, err := WriteDefaultTemplate(path)
	if err != nil {
		t.Fatalf("WriteDefaultTemplate: %v", err)
	}
	if !created {
		t.Error("expected template to be created")
	}

	created, err = WriteDefaultTemplate(path)
	if err != nil {
		t.Fatalf("second WriteDefaultTemplate: %v", err)
	}
	if created {
		t.Error("expected existing template to be left alone")
	}

	// The shipped template must itself load and validate.
	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("template does not load: %v", err)
	}
	if cfg.Chunking.Size != 500 {
		t.Errorf("template chunking.size = %d, want 500", cfg.Chunking.Size)
	}
}
