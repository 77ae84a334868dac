// Package cli implements the recall command line interface.
//
// Commands hold no domain logic: they parse flags, call the memory
// service through its driving port and render the result. Service
// wiring happens once, lazily, so commands that need no backend
// (version, help) start without one.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/recallkit/recall/internal/adapters/driven/config/file"
	embollama "github.com/recallkit/recall/internal/adapters/driven/embedding/ollama"
	llmollama "github.com/recallkit/recall/internal/adapters/driven/llm/ollama"
	"github.com/recallkit/recall/internal/adapters/driven/vectorstore/chromem"
	"github.com/recallkit/recall/internal/adapters/driven/vectorstore/qdrant"
	"github.com/recallkit/recall/internal/core/ports/driven"
	"github.com/recallkit/recall/internal/core/ports/driving"
	"github.com/recallkit/recall/internal/core/services"
	"github.com/recallkit/recall/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	flagConfig  string
	flagVerbose bool
)

// memoryService is the wired service surface. Tests inject a mock here;
// production wiring fills it on first use.
var memoryService driving.MemoryService

// closers collects adapters that need cleanup after Execute.
var closers []func() error

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Semantic memory indexing and retrieval",
	Long: `Recall maintains namespaced semantic memory on top of a vector store.
Incoming documents are classified into durable personal and world facts,
embedded and routed into per-category namespaces; searches fan out
across namespaces and merge into one ranked result set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		logger.SetVerbose(flagVerbose)
		switch cmd.Name() {
		case "version", "help", "completion":
			return nil
		}
		if memoryService != nil {
			return nil
		}
		return wireServices()
	},
}

// Execute runs the CLI and releases wired adapters afterwards.
func Execute() error {
	defer func() {
		for _, close := range closers {
			if err := close(); err != nil {
				logger.Warn("cleanup: %v", err)
			}
		}
	}()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default ~/.recall/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging to stderr")
}

// wireServices builds the adapter stack from configuration and composes
// the pipeline services behind the driving port.
func wireServices() error {
	path := flagConfig
	if path == "" {
		var err error
		path, err = file.DefaultPath()
		if err != nil {
			return fmt.Errorf("resolve config path: %w", err)
		}
	}

	cfg, err := file.Load(path)
	if err != nil {
		return err
	}
	logger.Debug("config loaded from %s (store backend: %s)", path, cfg.Store.Backend)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	closers = append(closers, store.Close)

	embedder := embollama.NewEmbeddingService(embollama.Config{
		BaseURL:    cfg.Ollama.BaseURL,
		Model:      cfg.Ollama.EmbeddingModel,
		Timeout:    cfg.Ollama.Timeout(),
		Dimensions: cfg.Index.Dimension,
	})
	closers = append(closers, embedder.Close)

	llm := llmollama.NewLLMService(llmollama.Config{
		BaseURL: cfg.Ollama.BaseURL,
		Model:   cfg.Ollama.LLMModel,
		Timeout: cfg.Ollama.Timeout(),
	})
	closers = append(closers, llm.Close)

	gate := services.NewModelGate()
	collections := services.NewCollectionService(store, cfg.Index.Dimension, cfg.Index.Distance)
	classifier := services.NewClassifier(llm, gate, services.ClassifierConfig{
		ExcludedKeywords: cfg.Classifier.ExcludedKeywords,
		MinContentLength: cfg.Classifier.MinContentLength,
		MaxTokens:        cfg.Classifier.MaxTokens,
		Temperature:      cfg.Classifier.Temperature,
		Timeout:          cfg.Classifier.Timeout(),
	})
	indexer := services.NewIndexerService(collections, classifier, embedder, store, gate, services.RoutingConfig{
		RawNamespaces:      cfg.Index.RawNamespaces,
		PersonalNamespace:  cfg.Index.PersonalNamespace,
		WorldFactNamespace: cfg.Index.WorldFactNamespace,
		VolatileNamespace:  cfg.Index.VolatileNamespace,
	})
	search := services.NewSearchService(embedder, store, gate, services.SearchConfig{
		DefaultTopK:     cfg.Search.TopK,
		DefaultMinScore: cfg.Search.MinScore,
	})

	memoryService = services.NewMemoryService(collections, indexer, search, cfg.Index.PreserveOnReset)
	return nil
}

// openStore selects the vector store backend from configuration.
func openStore(cfg file.Config) (driven.VectorStore, error) {
	switch cfg.Store.Backend {
	case file.BackendQdrant:
		return qdrant.New(qdrant.Config{
			BaseURL: cfg.Store.QdrantURL,
			APIKey:  cfg.Store.QdrantAPIKey,
		}), nil
	case file.BackendChromem:
		path := cfg.Store.Path
		if path == "" {
			var err error
			path, err = file.DefaultDataPath()
			if err != nil {
				return nil, fmt.Errorf("resolve data path: %w", err)
			}
		}
		return chromem.New(chromem.Config{Path: path})
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}
