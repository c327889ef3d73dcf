package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config is the environment configuration for the assistant. `.env`
// loading happens at the entrypoint (godotenv); this only parses the
// process environment.
type Config struct {
	// Completion provider: "openrouter" (default) or "anthropic".
	Provider string `env:"RECALL_PROVIDER" envDefault:"openrouter"`

	APIKey  string `env:"OPENROUTER_API_KEY"`
	BaseURL string `env:"RECALL_BASE_URL" envDefault:"https://openrouter.ai/api/v1"`
	Model   string `env:"RECALL_MODEL" envDefault:"arcee-ai/trinity-large-preview:free"`

	AnthropicKey   string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel string `env:"RECALL_ANTHROPIC_MODEL" envDefault:"claude-sonnet-4-20250514"`

	// Embedding provider: "openai" (default) or "mock" for offline use.
	// The embeddings key falls back to the completion key when unset.
	EmbeddingProvider   string `env:"RECALL_EMBEDDING_PROVIDER" envDefault:"openai"`
	EmbeddingAPIKey     string `env:"RECALL_EMBEDDING_API_KEY"`
	EmbeddingModel      string `env:"RECALL_EMBEDDING_MODEL" envDefault:"baai/bge-m3"`
	EmbeddingDimensions int    `env:"RECALL_EMBEDDING_DIMENSIONS" envDefault:"1024"`

	DataDir       string `env:"RECALL_DATA_DIR" envDefault:"~/.recall"`
	MaxRounds     int    `env:"RECALL_MAX_ROUNDS" envDefault:"10"`
	TopK          int    `env:"RECALL_SEARCH_TOP_K" envDefault:"3"`
	DisableMemory bool   `env:"RECALL_DISABLE_MEMORY"`

	// What to do when the stored collection's dimensionality does not
	// match the configured embedder: "reset" (recreate empty, the
	// historical behavior) or "fail".
	OnIncompatible string `env:"RECALL_ON_INCOMPATIBLE" envDefault:"reset"`
}

// LoadConfig parses the environment and expands the data directory.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if strings.HasPrefix(cfg.DataDir, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolve home directory: %w", err)
		}
		cfg.DataDir = filepath.Join(home, strings.TrimPrefix(cfg.DataDir, "~"))
	}

	return cfg, nil
}

// ContextFile is the conversation context path inside the data directory.
func (c *Config) ContextFile() string {
	return filepath.Join(c.DataDir, "context.json")
}

// VectorDir is the vector database path inside the data directory.
func (c *Config) VectorDir() string {
	return filepath.Join(c.DataDir, "vector_db")
}

// HistoryFile is the readline history path inside the data directory.
func (c *Config) HistoryFile() string {
	return filepath.Join(c.DataDir, "history")
}
