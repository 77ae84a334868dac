// Package chromem provides an embedded VectorStore adapter backed by
// chromem-go, a pure Go vector database. It needs no external server,
// which makes it the default store for local setups.
package chromem

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const manifestFile = "manifest.json"

// Config holds configuration for the embedded store.
type Config struct {
	// Path is the directory for persisted collections. Empty means
	// in-memory only.
	Path string
}

// schema records the vector parameters of one collection. chromem-go
// itself has no schema, so the store keeps these in a manifest next to
// the data.
type schema struct {
	Dimension int    `json:"dimension"`
	Distance  string `json:"distance"`
}

// Store is an embedded vector store. Collections map one-to-one onto
// namespaces.
type Store struct {
	db   *chromem.DB
	path string

	mu       sync.Mutex
	cols     map[string]*chromem.Collection
	manifest map[string]schema
}

// New opens (or creates) an embedded store at cfg.Path.
func New(cfg Config) (*Store, error) {
	var (
		db  *chromem.DB
		err error
	)
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("open chromem db at %q: %w", cfg.Path, err)
		}
	}

	s := &Store{
		db:       db,
		path:     cfg.Path,
		cols:     make(map[string]*chromem.Collection),
		manifest: make(map[string]schema),
	}
	if err := s.loadManifest(); err != nil {
		return nil, err
	}

	// Reattach collections that survived a restart.
	for name, col := range db.ListCollections() {
		s.cols[name] = col
	}
	return s, nil
}

// GetCollection returns schema and size for a collection.
func (s *Store) GetCollection(ctx context.Context, name string) (*domain.NamespaceInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	col, ok := s.cols[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	sch, ok := s.manifest[name]
	if !ok {
		// Data without a manifest entry means the schema is unknown;
		// report it so the caller can recreate the collection.
		return nil, fmt.Errorf("collection %q has no recorded schema: %w", name, domain.ErrNotFound)
	}
	return &domain.NamespaceInfo{
		Name:      name,
		Dimension: sch.Dimension,
		Distance:  sch.Distance,
		Points:    col.Count(),
	}, nil
}

// CreateCollection creates a collection. Creating an existing
// collection with the same parameters is a no-op.
func (s *Store) CreateCollection(ctx context.Context, name string, dimension int, distance string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.cols[name]; ok {
		return s.writeSchema(name, dimension, distance)
	}

	col, err := s.db.CreateCollection(name, nil, nil)
	if err != nil {
		return fmt.Errorf("create collection %q: %w", name, err)
	}
	s.cols[name] = col
	return s.writeSchema(name, dimension, distance)
}

// DeleteCollection removes a collection and its manifest entry.
// Deleting an absent collection is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("delete collection %q: %w", name, err)
	}
	delete(s.cols, name)
	delete(s.manifest, name)
	return s.saveManifest()
}

// ListCollections returns the names of all collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.cols))
	for name := range s.cols {
		names = append(names, name)
	}
	return names, nil
}

// Upsert writes points into a collection. Writing an existing point id
// replaces the stored point.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.IndexedPoint) error {
	s.mu.Lock()
	col, ok := s.cols[collection]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("upsert into %q: %w", collection, domain.ErrNotFound)
	}

	for _, p := range points {
		content, err := json.Marshal(p.Payload)
		if err != nil {
			return fmt.Errorf("marshal payload for point %q: %w", p.PointID, err)
		}
		doc := chromem.Document{
			ID:        p.PointID,
			Embedding: p.Vector,
			Content:   string(content),
			Metadata: map[string]string{
				"namespace":   p.Payload.Namespace,
				"original_id": p.Payload.OriginalID,
			},
		}
		if err := col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add point %q to %q: %w", p.PointID, collection, err)
		}
	}
	return nil
}

// Query returns up to limit nearest neighbours above minScore.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, limit int, minScore float64) ([]driven.ScoredPoint, error) {
	s.mu.Lock()
	col, ok := s.cols[collection]
	s.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}

	// chromem-go rejects nResults above the document count.
	n := limit
	if count := col.Count(); count < n {
		n = count
	}
	if n == 0 {
		return nil, nil
	}

	results, err := col.QueryEmbedding(ctx, vector, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", collection, err)
	}

	hits := make([]driven.ScoredPoint, 0, len(results))
	for _, r := range results {
		score := float64(r.Similarity)
		if score < minScore {
			continue
		}
		var payload domain.Payload
		if err := json.Unmarshal([]byte(r.Content), &payload); err != nil {
			return nil, fmt.Errorf("decode payload of point %q: %w", r.ID, err)
		}
		hits = append(hits, driven.ScoredPoint{
			ID:      r.ID,
			Score:   score,
			Payload: payload,
		})
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// chromem-go persists on write, nothing to flush
	return nil
}

// writeSchema records a collection's parameters. Callers hold s.mu.
func (s *Store) writeSchema(name string, dimension int, distance string) error {
	s.manifest[name] = schema{Dimension: dimension, Distance: distance}
	return s.saveManifest()
}

func (s *Store) manifestPath() string {
	return filepath.Join(s.path, manifestFile)
}

func (s *Store) loadManifest() error {
	if s.path == "" {
		return nil
	}
	data, err := os.ReadFile(s.manifestPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &s.manifest); err != nil {
		return fmt.Errorf("parse manifest: %w", err)
	}
	return nil
}

func (s *Store) saveManifest() error {
	if s.path == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(s.manifestPath(), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
