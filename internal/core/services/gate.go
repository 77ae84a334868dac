package services

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// ModelGate serializes access to the process-wide model singletons.
//
// The embedding and generative models are compute-heavy, locally-hosted
// instances that are unsafe for concurrent invocation, so at most one
// embedding or generation call proceeds at a time system-wide. A
// single-slot weighted semaphore makes that explicit and keeps
// acquisition cancellable through the caller's context.
type ModelGate struct {
	sem *semaphore.Weighted
}

// NewModelGate creates a gate admitting one call at a time.
func NewModelGate() *ModelGate {
	return &ModelGate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the slot is free or the context is done.
func (g *ModelGate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release frees the slot.
func (g *ModelGate) Release() {
	g.sem.Release(1)
}

// Do runs fn while holding the slot.
func (g *ModelGate) Do(ctx context.Context, fn func() error) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer g.sem.Release(1)
	return fn()
}
