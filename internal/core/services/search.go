package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
	"github.com/recallkit/recall/internal/logger"
)

// SearchConfig carries the aggregator defaults.
type SearchConfig struct {
	// DefaultTopK caps results when the caller passes topK <= 0.
	DefaultTopK int

	// DefaultMinScore filters results when the caller passes a negative
	// minScore.
	DefaultMinScore float64
}

// SearchService fans a single query across selected namespaces, merges
// the per-namespace results and re-ranks them globally.
type SearchService struct {
	embedder driven.EmbeddingService
	store    driven.VectorStore
	gate     *ModelGate
	cfg      SearchConfig
}

// NewSearchService creates the multi-namespace search aggregator.
func NewSearchService(embedder driven.EmbeddingService, store driven.VectorStore, gate *ModelGate, cfg SearchConfig) *SearchService {
	if cfg.DefaultTopK <= 0 {
		cfg.DefaultTopK = 3
	}
	if cfg.DefaultMinScore <= 0 {
		cfg.DefaultMinScore = 0.1
	}
	return &SearchService{embedder: embedder, store: store, gate: gate, cfg: cfg}
}

// Search embeds the query exactly once, queries each namespace
// concurrently with limit=topK and the score threshold, then merges,
// sorts by score descending and truncates to topK globally.
//
// A namespace that does not exist or errors contributes zero results and
// does not fail the search. Each namespace is capped at topK before the
// global merge; the true global top-k can differ only when the right
// answer needed more than topK candidates from a single namespace, an
// accepted approximation.
func (s *SearchService) Search(ctx context.Context, query string, namespaces []string, topK int, minScore float64) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.SearchResult{}, nil
	}
	if len(namespaces) == 0 {
		return []domain.SearchResult{}, nil
	}
	if topK <= 0 {
		topK = s.cfg.DefaultTopK
	}
	if minScore < 0 {
		minScore = s.cfg.DefaultMinScore
	}

	logger.Section("Search")
	logger.Info("Searching %d namespaces (top_k=%d, min_score=%.2f)", len(namespaces), topK, minScore)

	var vector []float32
	err := s.gate.Do(ctx, func() error {
		var embErr error
		vector, embErr = s.embedder.Embed(ctx, query)
		return embErr
	})
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %v", domain.ErrSearch, err)
	}

	// Fan out per namespace; results arrive in namespace order so that
	// tie-breaking by discovery order stays deterministic.
	perNamespace := make([][]domain.SearchResult, len(namespaces))
	var wg sync.WaitGroup
	for i, ns := range namespaces {
		wg.Add(1)
		go func(i int, ns string) {
			defer wg.Done()
			hits, err := s.store.Query(ctx, ns, vector, topK, minScore)
			if err != nil {
				// Partial-failure tolerant: this namespace just
				// contributes nothing.
				logger.Warn("Namespace %q query failed: %v", ns, err)
				return
			}
			results := make([]domain.SearchResult, 0, len(hits))
			for _, hit := range hits {
				id := hit.Payload.OriginalID
				if id == "" {
					id = hit.ID
				}
				results = append(results, domain.SearchResult{
					ID:        id,
					Text:      hit.Payload.Text,
					Score:     hit.Score,
					Context:   hit.Payload.Context,
					Namespace: ns,
				})
			}
			perNamespace[i] = results
		}(i, ns)
	}
	wg.Wait()

	var merged []domain.SearchResult
	for _, results := range perNamespace {
		merged = append(merged, results...)
	}

	domain.SortResultsByScore(merged)
	if len(merged) > topK {
		merged = merged[:topK]
	}

	logger.Info("Returning %d results", len(merged))
	return merged, nil
}
