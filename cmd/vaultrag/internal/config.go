package internal

import (
	"fmt"
	"os"

	"vaultrag/internal/config"
)

// LoadConfig reads the YAML config from configPath, falling back to the
// default location when configPath is empty.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

// SaveConfig writes cfg back to configPath, or to the default location when
// configPath is empty.
func SaveConfig(cfg *config.Config, configPath string) error {
	if configPath != "" {
		return cfg.SaveToFile(configPath)
	}
	return cfg.Save()
}

// PrintConfigExample writes a complete YAML config example to stderr.
func PrintConfigExample() {
	configPath, _ := config.DefaultPath()

	fmt.Fprintf(os.Stderr, `Create a configuration file at %s:

# Vault configuration
vault:
  # Directory holding the notes; empty means the current directory
  path: ~/notes
  # Glob patterns excluded from indexing
  exclude:
    - "**/.obsidian/**"
    - "**/templates/**"

# Ollama configuration (required)
ollama:
  base_url: http://localhost:11434
  embed_model: nomic-embed-text
  generate_model: llama3.1

# Chroma configuration (required)
chroma:
  base_url: http://localhost:8000
  tenant: default_tenant
  database: default_database
  collection: vaultrag

# Chunking parameters
chunking:
  size: 500                     # window length in runes
  overlap: 50                   # runes shared between windows

# Retrieval parameters
retrieval:
  top_k: 5                      # context chunks per question

# Answer notes
answers:
  folder: answers               # vault-relative folder for answer notes
  prefix: answer

Usage:
  1. Create the config file (or run: vaultrag config -init)
  2. Index your vault: vaultrag index
  3. Ask a question: vaultrag ask "your question"
`, configPath)
}
