package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
	"github.com/recallkit/recall/internal/logger"
)

// CollectionService guarantees each namespace has a vector collection with
// the configured dimensionality and metric.
//
// The repair strategy on schema mismatch is destructive: the collection is
// deleted and recreated, losing its points. There is a single global
// embedding model, therefore a single dimension for every namespace.
type CollectionService struct {
	store     driven.VectorStore
	dimension int
	distance  string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-namespace
}

// NewCollectionService creates a collection manager for the given schema.
func NewCollectionService(store driven.VectorStore, dimension int, distance string) *CollectionService {
	return &CollectionService{
		store:     store,
		dimension: dimension,
		distance:  distance,
		locks:     make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding one namespace's schema operations.
func (s *CollectionService) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Ensure makes sure the namespace exists with the expected schema.
//
// The check is an explicit tri-state: present with the right dimension is
// success; present with the wrong dimension is deleted and recreated;
// absent is created. Losing a create race to a concurrent caller counts
// as success. Only an unreachable store surfaces an error.
func (s *CollectionService) Ensure(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty namespace", domain.ErrInvalidInput)
	}

	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	info, err := s.store.GetCollection(ctx, name)
	switch {
	case err == nil:
		if info.Dimension == s.dimension {
			return nil
		}
		logger.Info("Namespace %q has dimension %d, want %d; recreating", name, info.Dimension, s.dimension)
		if err := s.store.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("%w: delete %q: %v", domain.ErrSchema, name, err)
		}
	case errors.Is(err, domain.ErrNotFound):
		logger.Debug("Namespace %q does not exist, creating", name)
	default:
		return fmt.Errorf("%w: get %q: %v", domain.ErrSchema, name, err)
	}

	// CreateCollection tolerates "already exists", so a caller that lost
	// the race to another process still succeeds here.
	if err := s.store.CreateCollection(ctx, name, s.dimension, s.distance); err != nil {
		return fmt.Errorf("%w: create %q: %v", domain.ErrSchema, name, err)
	}

	logger.Debug("Namespace %q ready (dim=%d, distance=%s)", name, s.dimension, s.distance)
	return nil
}

// Clear destroys the namespace's collection and recreates it empty.
func (s *CollectionService) Clear(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty namespace", domain.ErrInvalidInput)
	}

	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	if err := s.store.DeleteCollection(ctx, name); err != nil {
		return fmt.Errorf("%w: delete %q: %v", domain.ErrStore, name, err)
	}
	if err := s.store.CreateCollection(ctx, name, s.dimension, s.distance); err != nil {
		return fmt.Errorf("%w: recreate %q: %v", domain.ErrStore, name, err)
	}

	logger.Info("Cleared namespace %q", name)
	return nil
}

// ResetAll clears every known namespace except those in preserve.
func (s *CollectionService) ResetAll(ctx context.Context, preserve []string) error {
	names, err := s.store.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("%w: list collections: %v", domain.ErrStore, err)
	}

	preserved := make(map[string]bool, len(preserve))
	for _, p := range preserve {
		preserved[p] = true
	}

	cleared := 0
	for _, name := range names {
		if preserved[name] {
			logger.Debug("Preserving namespace %q", name)
			continue
		}
		if err := s.Clear(ctx, name); err != nil {
			return err
		}
		cleared++
	}

	logger.Info("Reset %d namespaces (%d preserved)", cleared, len(names)-cleared)
	return nil
}

// Status reports schema and point counts for all known namespaces.
func (s *CollectionService) Status(ctx context.Context) ([]domain.NamespaceInfo, error) {
	names, err := s.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list collections: %v", domain.ErrStore, err)
	}

	infos := make([]domain.NamespaceInfo, 0, len(names))
	for _, name := range names {
		info, err := s.store.GetCollection(ctx, name)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// Dropped between list and get; skip.
				continue
			}
			return nil, fmt.Errorf("%w: get %q: %v", domain.ErrStore, name, err)
		}
		infos = append(infos, *info)
	}
	return infos, nil
}
