package services

import (
	"context"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driving"
)

// Ensure MemoryService implements the driving port.
var _ driving.MemoryService = (*MemoryService)(nil)

// MemoryService composes the collection manager, the router/indexer and
// the search aggregator into the surface the transport wrapper exposes.
type MemoryService struct {
	collections *CollectionService
	indexer     *IndexerService
	search      *SearchService

	// defaultPreserve is used when ResetAll is called with nil; the
	// reference behaviour preserves the designated long-term namespace.
	defaultPreserve []string
}

// NewMemoryService wires the pipeline services together.
func NewMemoryService(collections *CollectionService, indexer *IndexerService, search *SearchService, defaultPreserve []string) *MemoryService {
	return &MemoryService{
		collections:     collections,
		indexer:         indexer,
		search:          search,
		defaultPreserve: defaultPreserve,
	}
}

// EnsureNamespace guarantees the namespace exists with the configured schema.
func (m *MemoryService) EnsureNamespace(ctx context.Context, name string) error {
	return m.collections.Ensure(ctx, name)
}

// Index routes, embeds and persists documents into a namespace.
func (m *MemoryService) Index(ctx context.Context, namespace string, documents []domain.Document) (int, error) {
	return m.indexer.Index(ctx, namespace, documents)
}

// Search fans the query across namespaces and merges globally.
func (m *MemoryService) Search(ctx context.Context, query string, namespaces []string, topK int, minScore float64) ([]domain.SearchResult, error) {
	return m.search.Search(ctx, query, namespaces, topK, minScore)
}

// ClearNamespace destroys and recreates the namespace's collection.
func (m *MemoryService) ClearNamespace(ctx context.Context, name string) error {
	return m.collections.Clear(ctx, name)
}

// ResetAll clears every known namespace except those in preserve. A nil
// preserve list falls back to the configured default.
func (m *MemoryService) ResetAll(ctx context.Context, preserve []string) error {
	if preserve == nil {
		preserve = m.defaultPreserve
	}
	return m.collections.ResetAll(ctx, preserve)
}

// Status reports schema and point counts for all known namespaces.
func (m *MemoryService) Status(ctx context.Context) ([]domain.NamespaceInfo, error) {
	return m.collections.Status(ctx)
}
