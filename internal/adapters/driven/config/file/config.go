// Package file loads Recall configuration from a TOML file.
//
// Every field has a working default, so an absent config file yields a
// usable local setup: embedded vector store, Ollama on localhost.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Store backend names accepted in [store].backend.
const (
	BackendChromem = "chromem"
	BackendQdrant  = "qdrant"
)

// Config is the full Recall configuration tree.
type Config struct {
	Store      StoreConfig      `toml:"store"`
	Ollama     OllamaConfig     `toml:"ollama"`
	Index      IndexConfig      `toml:"index"`
	Classifier ClassifierConfig `toml:"classifier"`
	Search     SearchConfig     `toml:"search"`
}

// StoreConfig selects and configures the vector store backend.
type StoreConfig struct {
	// Backend is "chromem" (embedded, default) or "qdrant".
	Backend string `toml:"backend"`

	// Path is the data directory for the embedded backend.
	Path string `toml:"path"`

	// QdrantURL is the Qdrant REST endpoint for the qdrant backend.
	QdrantURL string `toml:"qdrant_url"`

	// QdrantAPIKey is sent as the api-key header when set.
	QdrantAPIKey string `toml:"qdrant_api_key"`
}

// OllamaConfig configures the local model server.
type OllamaConfig struct {
	BaseURL        string `toml:"base_url"`
	EmbeddingModel string `toml:"embedding_model"`
	LLMModel       string `toml:"llm_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// IndexConfig configures namespace schema and routing.
type IndexConfig struct {
	// Dimension is the embedding vector size.
	Dimension int `toml:"dimension"`

	// Distance is the similarity metric for new collections.
	Distance string `toml:"distance"`

	// RawNamespaces are routed through classification instead of being
	// indexed directly.
	RawNamespaces []string `toml:"raw_namespaces"`

	// PersonalNamespace receives extracted personal facts.
	PersonalNamespace string `toml:"personal_namespace"`

	// WorldFactNamespace receives extracted world facts.
	WorldFactNamespace string `toml:"world_fact_namespace"`

	// VolatileNamespace receives volatile facts when extraction of
	// those is enabled.
	VolatileNamespace string `toml:"volatile_namespace"`

	// PreserveOnReset lists namespaces ResetAll leaves untouched.
	PreserveOnReset []string `toml:"preserve_on_reset"`
}

// ClassifierConfig configures the fact extraction gate and passes.
type ClassifierConfig struct {
	// MinContentLength is the minimum text length worth classifying.
	MinContentLength int `toml:"min_content_length"`

	// ExcludedKeywords reject ephemeral content. Empty means use the
	// built-in list.
	ExcludedKeywords []string `toml:"excluded_keywords"`

	MaxTokens      int     `toml:"max_tokens"`
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// SearchConfig configures retrieval defaults.
type SearchConfig struct {
	TopK     int     `toml:"top_k"`
	MinScore float64 `toml:"min_score"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:   BackendChromem,
			QdrantURL: "http://localhost:6333",
		},
		Ollama: OllamaConfig{
			BaseURL:        "http://localhost:11434",
			EmbeddingModel: "all-minilm",
			LLMModel:       "llama3.2",
			TimeoutSeconds: 60,
		},
		Index: IndexConfig{
			Dimension:          384,
			Distance:           "cosine",
			RawNamespaces:      []string{"memories"},
			PersonalNamespace:  "user_info",
			WorldFactNamespace: "world_facts",
			VolatileNamespace:  "volatile_info",
			PreserveOnReset:    []string{"llm_memories"},
		},
		Classifier: ClassifierConfig{
			MinContentLength: 100,
			MaxTokens:        256,
			Temperature:      0.1,
			TimeoutSeconds:   30,
		},
		Search: SearchConfig{
			TopK:     3,
			MinScore: 0.1,
		},
	}
}

// DefaultPath returns the standard config file location,
// ~/.recall/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".recall", "config.toml"), nil
}

// DefaultDataPath returns the standard embedded-store directory,
// ~/.recall/data.
func DefaultDataPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".recall", "data"), nil
}

// Load reads a config file and merges it over the defaults. A missing
// file returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %q: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Timeout converts the configured Ollama timeout to a duration.
func (c OllamaConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Timeout converts the configured classification timeout to a duration.
func (c ClassifierConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) validate() error {
	switch c.Store.Backend {
	case BackendChromem, BackendQdrant:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Index.Dimension <= 0 {
		return fmt.Errorf("index dimension must be positive, got %d", c.Index.Dimension)
	}
	if c.Search.TopK <= 0 {
		return fmt.Errorf("search top_k must be positive, got %d", c.Search.TopK)
	}
	return nil
}
