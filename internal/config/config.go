package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Vault     VaultConfig     `yaml:"vault"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Chroma    ChromaConfig    `yaml:"chroma"`
	Chunking  ChunkingConfig  `yaml:"chunking"`
	Retrieval RetrievalConfig `yaml:"retrieval,omitempty"`
	Answers   AnswersConfig   `yaml:"answers,omitempty"`
	Indexing  IndexingConfig  `yaml:"indexing,omitempty"`
}

// VaultConfig locates the document vault and what to leave out of it
type VaultConfig struct {
	// Path to the vault root; empty means the current working directory
	Path string `yaml:"path,omitempty"`
	// Exclude patterns (doublestar globs) matched against vault-relative paths
	Exclude []string `yaml:"exclude,omitempty"`
}

// OllamaConfig holds the inference service endpoints and model names
type OllamaConfig struct {
	BaseURL       string `yaml:"base_url"`
	EmbedModel    string `yaml:"embed_model"`
	GenerateModel string `yaml:"generate_model"`

	// EmbedRPS caps embedding requests per second; 0 disables the limiter
	EmbedRPS float64 `yaml:"embed_rps,omitempty"`
}

// ChromaConfig holds the vector store location and naming
type ChromaConfig struct {
	BaseURL    string `yaml:"base_url"`
	Tenant     string `yaml:"tenant"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`

	// CollectionID is resolved on the first index run and written back here
	// so later runs skip re-provisioning
	CollectionID string `yaml:"collection_id,omitempty"`
}

// ChunkingConfig holds the sliding-window parameters
type ChunkingConfig struct {
	Size    int `yaml:"size"`    // window length in runes
	Overlap int `yaml:"overlap"` // runes shared between consecutive windows
}

// RetrievalConfig holds similarity query parameters
type RetrievalConfig struct {
	TopK int `yaml:"top_k"` // number of context chunks per question
}

// AnswersConfig controls where generated answer notes land
type AnswersConfig struct {
	// Folder is a vault-relative directory for answer notes; empty means the
	// vault root
	Folder string `yaml:"folder,omitempty"`
	Prefix string `yaml:"prefix"`
	// Prompt overrides the built-in instruction prompt when set
	Prompt string `yaml:"prompt,omitempty"`
}

// IndexingConfig holds indexing-specific configuration
type IndexingConfig struct {
	Workers int `yaml:"workers,omitempty"` // parallel embedding calls
}

// Load loads configuration from the default config file
// Default location: ~/.vaultrag/config/vaultrag.yaml
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(configPath)
}

// DefaultPath returns the default config file location
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".vaultrag", "config", "vaultrag.yaml"), nil
}

// Default returns a configuration with every default applied and no file
// behind it.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file not found at: %s\n\nDefault location: %s\n\nYou can:\n"+
		"  1. Run `vaultrag config -init` to create a template\n"+
		"  2. Create the config file at the default location\n"+
		"  3. Specify a custom path with -config flag",
		e.RequestedPath, e.DefaultPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	_, ok := err.(*ConfigNotFoundError)
	return ok
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	if strings.HasPrefix(path, "$HOME/") || path == "$HOME" {
		homeDir := os.Getenv("HOME")
		if homeDir == "" {
			var err error
			homeDir, err = os.UserHomeDir()
			if err != nil {
				return path
			}
		}
		if path == "$HOME" {
			return homeDir
		}
		return filepath.Join(homeDir, path[6:])
	}

	if strings.HasPrefix(path, "~/") || path == "~" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		if path == "~" {
			return homeDir
		}
		return filepath.Join(homeDir, path[2:])
	}

	return path
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Vault.Path != "" {
		c.Vault.Path = expandPath(c.Vault.Path)
	}

	// Endpoint overrides from the environment (or a .env file) win over the
	// config file, so pointing at another host does not require editing it.
	if v := os.Getenv("OLLAMA_BASE_URL"); v != "" {
		c.Ollama.BaseURL = v
	}
	if v := os.Getenv("CHROMA_BASE_URL"); v != "" {
		c.Chroma.BaseURL = v
	}

	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.EmbedModel == "" {
		c.Ollama.EmbedModel = "nomic-embed-text"
	}
	if c.Ollama.GenerateModel == "" {
		c.Ollama.GenerateModel = "llama3.1"
	}

	if c.Chroma.BaseURL == "" {
		c.Chroma.BaseURL = "http://localhost:8000"
	}
	if c.Chroma.Tenant == "" {
		c.Chroma.Tenant = "default_tenant"
	}
	if c.Chroma.Database == "" {
		c.Chroma.Database = "default_database"
	}
	if c.Chroma.Collection == "" {
		c.Chroma.Collection = "vaultrag"
	}

	if c.Chunking.Size == 0 {
		c.Chunking.Size = 500
	}
	if c.Chunking.Overlap == 0 && c.Chunking.Size > 50 {
		c.Chunking.Overlap = 50
	}

	if c.Retrieval.TopK == 0 {
		c.Retrieval.TopK = 5
	}

	if c.Answers.Prefix == "" {
		c.Answers.Prefix = "answer"
	}

	if c.Indexing.Workers == 0 {
		c.Indexing.Workers = defaultWorkers()
	}
}

func defaultWorkers() int {
	workers := runtime.NumCPU()
	if workers > 8 {
		return 8
	}
	if workers < 1 {
		return 1
	}
	return workers
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Ollama.BaseURL == "" {
		return fmt.Errorf("ollama.base_url is required")
	}
	if c.Ollama.EmbedModel == "" {
		return fmt.Errorf("ollama.embed_model is required")
	}
	if c.Ollama.GenerateModel == "" {
		return fmt.Errorf("ollama.generate_model is required")
	}
	if c.Ollama.EmbedRPS < 0 {
		return fmt.Errorf("ollama.embed_rps must not be negative, got: %v", c.Ollama.EmbedRPS)
	}

	if c.Chroma.BaseURL == "" {
		return fmt.Errorf("chroma.base_url is required")
	}
	if c.Chroma.Tenant == "" || c.Chroma.Database == "" || c.Chroma.Collection == "" {
		return fmt.Errorf("chroma.tenant, chroma.database and chroma.collection are required")
	}

	if c.Chunking.Size <= 0 {
		return fmt.Errorf("chunking.size must be positive, got: %d", c.Chunking.Size)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.Size {
		return fmt.Errorf("chunking.overlap must be smaller than chunking.size, got size=%d overlap=%d",
			c.Chunking.Size, c.Chunking.Overlap)
	}

	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got: %d", c.Retrieval.TopK)
	}

	if c.Indexing.Workers <= 0 {
		return fmt.Errorf("indexing.workers must be positive, got: %d", c.Indexing.Workers)
	}

	return nil
}

// Save saves the configuration to the default location
func (c *Config) Save() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".vaultrag", "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath := filepath.Join(configDir, "vaultrag.yaml")
	return c.SaveToFile(configPath)
}

// SaveToFile saves the configuration to a specific file
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

const defaultConfigTemplate = `# vaultrag configuration
#
# Copy and edit this file for your environment.
# Default location: $HOME/.vaultrag/config/vaultrag.yaml

vault:
  # Directory holding the documents to index.
  # Empty means the current working directory.
  path: ~/notes
  # Glob patterns excluded from indexing (vault-relative).
  exclude:
    - "**/.obsidian/**"
    - "**/templates/**"

ollama:
  # OLLAMA_BASE_URL in the environment (or a .env file) overrides base_url.
  base_url: http://localhost:11434
  embed_model: nomic-embed-text
  generate_model: llama3.1
  # Embedding requests per second. 0 disables client-side rate limiting.
  embed_rps: 0

chroma:
  # CHROMA_BASE_URL in the environment overrides base_url.
  base_url: http://localhost:8000
  tenant: default_tenant
  database: default_database
  collection: vaultrag
  # collection_id is filled in automatically after the first index run.

chunking:
  size: 500
  overlap: 50

retrieval:
  top_k: 5

answers:
  # Vault-relative folder that receives generated answer notes.
  folder: answers
  prefix: answer
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
