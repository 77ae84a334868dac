package driven

import (
	"context"

	"github.com/recallkit/recall/internal/core/domain"
)

// VectorStore provides namespace-scoped collections of embedded points
// with nearest-neighbour search.
//
// The contract is strictly typed: adapters decode store responses into
// these types or fail with an error, never skip fields silently.
// Implementations: Qdrant (REST), chromem (embedded, persisted locally).
type VectorStore interface {
	// GetCollection returns schema and size for a collection.
	// Returns domain.ErrNotFound if the collection does not exist.
	GetCollection(ctx context.Context, name string) (*domain.NamespaceInfo, error)

	// CreateCollection creates a collection with the given schema.
	// Creating a collection that already exists is not an error: a caller
	// losing a create race must be treated as having succeeded.
	CreateCollection(ctx context.Context, name string, dimension int, distance string) error

	// DeleteCollection removes a collection and all its points.
	// Deleting an absent collection is not an error.
	DeleteCollection(ctx context.Context, name string) error

	// ListCollections returns the names of all known collections.
	ListCollections(ctx context.Context) ([]string, error)

	// Upsert writes points into a collection in one batch. Points with
	// IDs already present are overwritten.
	Upsert(ctx context.Context, collection string, points []domain.IndexedPoint) error

	// Query returns up to limit nearest neighbours with score >= minScore,
	// ordered by score descending.
	Query(ctx context.Context, collection string, vector []float32, limit int, minScore float64) ([]ScoredPoint, error)

	// Close releases resources, flushing any locally-held state.
	Close() error
}

// ScoredPoint is a similarity search hit with its stored payload.
type ScoredPoint struct {
	// ID is the store point ID.
	ID string

	// Score is the similarity score, higher is better.
	Score float64

	// Payload is the metadata stored with the point.
	Payload domain.Payload
}
