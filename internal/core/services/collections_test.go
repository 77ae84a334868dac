package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallkit/recall/internal/core/domain"
)

func TestCollectionService_EnsureCreatesMissing(t *testing.T) {
	store := newMockVectorStore()
	svc := NewCollectionService(store, 384, "cosine")

	err := svc.Ensure(context.Background(), "memories")
	require.NoError(t, err)

	info, err := store.GetCollection(context.Background(), "memories")
	require.NoError(t, err)
	assert.Equal(t, 384, info.Dimension)
	assert.Equal(t, "cosine", info.Distance)
}

func TestCollectionService_EnsureIdempotent(t *testing.T) {
	store := newMockVectorStore()
	svc := NewCollectionService(store, 384, "cosine")

	require.NoError(t, svc.Ensure(context.Background(), "memories"))
	require.NoError(t, svc.Ensure(context.Background(), "memories"))

	// The second ensure sees a matching schema and does not recreate.
	assert.Equal(t, 1, store.createCalls)
}

func TestCollectionService_EnsureRecreatesOnDimensionMismatch(t *testing.T) {
	store := newMockVectorStore()
	ctx := context.Background()

	// Existing collection with the wrong dimension and some points.
	require.NoError(t, store.CreateCollection(ctx, "memories", 768, "cosine"))
	require.NoError(t, store.Upsert(ctx, "memories", []domain.IndexedPoint{
		{PointID: "p1", Vector: make([]float32, 768)},
	}))

	svc := NewCollectionService(store, 384, "cosine")
	require.NoError(t, svc.Ensure(ctx, "memories"))

	info, err := store.GetCollection(ctx, "memories")
	require.NoError(t, err)
	assert.Equal(t, 384, info.Dimension)
	// Destructive repair: prior points are gone.
	assert.Equal(t, 0, info.Points)
}

func TestCollectionService_EnsureConcurrent(t *testing.T) {
	store := newMockVectorStore()
	svc := NewCollectionService(store, 384, "cosine")

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = svc.Ensure(context.Background(), "memories")
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	// Exactly one collection exists afterwards.
	names, err := store.ListCollections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"memories"}, names)
}

func TestCollectionService_EnsureUnreachableStore(t *testing.T) {
	store := newMockVectorStore()
	store.getErr = errors.New("connection refused")
	svc := NewCollectionService(store, 384, "cosine")

	err := svc.Ensure(context.Background(), "memories")
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestCollectionService_EnsureEmptyName(t *testing.T) {
	svc := NewCollectionService(newMockVectorStore(), 384, "cosine")
	err := svc.Ensure(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCollectionService_ClearEmptiesNamespace(t *testing.T) {
	store := newMockVectorStore()
	ctx := context.Background()
	svc := NewCollectionService(store, 384, "cosine")

	require.NoError(t, svc.Ensure(ctx, "tools"))
	require.NoError(t, store.Upsert(ctx, "tools", []domain.IndexedPoint{
		{PointID: "p1"}, {PointID: "p2"},
	}))

	require.NoError(t, svc.Clear(ctx, "tools"))

	info, err := store.GetCollection(ctx, "tools")
	require.NoError(t, err)
	assert.Equal(t, 0, info.Points)
}

func TestCollectionService_ResetAllPreserves(t *testing.T) {
	store := newMockVectorStore()
	ctx := context.Background()
	svc := NewCollectionService(store, 384, "cosine")

	for _, ns := range []string{"tools", "user_info", "llm_memories"} {
		require.NoError(t, svc.Ensure(ctx, ns))
		require.NoError(t, store.Upsert(ctx, ns, []domain.IndexedPoint{{PointID: ns + "-p1"}}))
	}

	require.NoError(t, svc.ResetAll(ctx, []string{"llm_memories"}))

	assert.Equal(t, 1, store.pointCount("llm_memories"))
	assert.Equal(t, 0, store.pointCount("tools"))
	assert.Equal(t, 0, store.pointCount("user_info"))
}

func TestCollectionService_Status(t *testing.T) {
	store := newMockVectorStore()
	ctx := context.Background()
	svc := NewCollectionService(store, 384, "cosine")

	require.NoError(t, svc.Ensure(ctx, "tools"))
	require.NoError(t, store.Upsert(ctx, "tools", []domain.IndexedPoint{{PointID: "p1"}}))

	infos, err := svc.Status(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "tools", infos[0].Name)
	assert.Equal(t, 1, infos[0].Points)
	assert.Equal(t, 384, infos[0].Dimension)
}
