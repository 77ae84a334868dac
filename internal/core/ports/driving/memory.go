package driving

import (
	"context"

	"github.com/recallkit/recall/internal/core/domain"
)

// MemoryService is the surface a transport wrapper exposes to callers.
type MemoryService interface {
	// EnsureNamespace guarantees the namespace exists with the configured
	// schema, recreating it destructively on mismatch.
	EnsureNamespace(ctx context.Context, name string) error

	// Index routes, embeds and persists documents into a namespace.
	// The returned count is the number of points actually written, which
	// may be less than len(documents) - including zero - without error.
	Index(ctx context.Context, namespace string, documents []domain.Document) (int, error)

	// Search embeds the query once, fans it across the given namespaces
	// and returns a globally re-ranked result set of at most topK hits
	// scoring at least minScore.
	Search(ctx context.Context, query string, namespaces []string, topK int, minScore float64) ([]domain.SearchResult, error)

	// ClearNamespace destroys and recreates the namespace's collection.
	ClearNamespace(ctx context.Context, name string) error

	// ResetAll clears every known namespace except those in preserve.
	ResetAll(ctx context.Context, preserve []string) error

	// Status reports schema and point counts for all known namespaces.
	Status(ctx context.Context) ([]domain.NamespaceInfo, error)
}
