package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallkit/recall/internal/core/domain"
)

func seedPoints(t *testing.T, store *mockVectorStore, collection string, scores map[string][]float32) {
	t.Helper()
	require.NoError(t, store.CreateCollection(context.Background(), collection, 8, "cosine"))
	points := make([]domain.IndexedPoint, 0, len(scores))
	for id, vec := range scores {
		points = append(points, domain.IndexedPoint{
			PointID: PointID(collection, id),
			Vector:  vec,
			Payload: domain.Payload{Text: "text " + id, OriginalID: id, Namespace: collection},
		})
	}
	require.NoError(t, store.Upsert(context.Background(), collection, points))
}

func TestSearch_GlobalMerge(t *testing.T) {
	store := newMockVectorStore()
	ctx := context.Background()

	// Vectors engineered against a fixed query vector so namespace A
	// returns scores [0.9, 0.5] and namespace B returns [0.8, 0.7].
	query := []float32{1, 0, 0, 0, 0, 0, 0, 0}
	vecFor := func(score float64) []float32 {
		return []float32{float32(score), float32(math.Sqrt(1 - score*score)), 0, 0, 0, 0, 0, 0}
	}

	seedPoints(t, store, "ns_a", map[string][]float32{
		"a-high": vecFor(0.9),
		"a-low":  vecFor(0.5),
	})
	seedPoints(t, store, "ns_b", map[string][]float32{
		"b-high": vecFor(0.8),
		"b-low":  vecFor(0.7),
	})

	embedder := &fixedEmbedder{vector: query}
	svc := NewSearchService(embedder, store, NewModelGate(), SearchConfig{})

	results, err := svc.Search(ctx, "anything", []string{"ns_a", "ns_b"}, 2, 0.1)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// Cross-namespace global re-rank, not per-namespace round-robin.
	assert.Equal(t, "a-high", results[0].ID)
	assert.InDelta(t, 0.9, results[0].Score, 0.01)
	assert.Equal(t, "b-high", results[1].ID)
	assert.InDelta(t, 0.8, results[1].Score, 0.01)
}

func TestSearch_MissingNamespaceTolerated(t *testing.T) {
	store := newMockVectorStore()
	seedPoints(t, store, "tools", map[string][]float32{
		"t1": {1, 0, 0, 0, 0, 0, 0, 0},
	})

	embedder := &fixedEmbedder{vector: []float32{1, 0, 0, 0, 0, 0, 0, 0}}
	svc := NewSearchService(embedder, store, NewModelGate(), SearchConfig{})

	results, err := svc.Search(context.Background(), "query", []string{"tools", "no_such_namespace"}, 5, 0.1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
	assert.Equal(t, "tools", results[0].Namespace)
}

func TestSearch_NamespaceErrorTolerated(t *testing.T) {
	store := newMockVectorStore()
	seedPoints(t, store, "tools", map[string][]float32{
		"t1": {1, 0, 0, 0, 0, 0, 0, 0},
	})
	seedPoints(t, store, "broken", map[string][]float32{
		"x": {0, 1, 0, 0, 0, 0, 0, 0},
	})
	store.queryErr["broken"] = errors.New("shard offline")

	embedder := &fixedEmbedder{vector: []float32{1, 0, 0, 0, 0, 0, 0, 0}}
	svc := NewSearchService(embedder, store, NewModelGate(), SearchConfig{})

	results, err := svc.Search(context.Background(), "query", []string{"tools", "broken"}, 5, 0.1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
}

func TestSearch_EmbedFailureIsFatal(t *testing.T) {
	store := newMockVectorStore()
	embedder := &fixedEmbedder{err: errors.New("model not loaded")}
	svc := NewSearchService(embedder, store, NewModelGate(), SearchConfig{})

	_, err := svc.Search(context.Background(), "query", []string{"tools"}, 5, 0.1)
	assert.ErrorIs(t, err, domain.ErrSearch)
}

func TestSearch_EmptyQuery(t *testing.T) {
	svc := NewSearchService(newMockEmbedder(), newMockVectorStore(), NewModelGate(), SearchConfig{})

	results, err := svc.Search(context.Background(), "   ", []string{"tools"}, 5, 0.1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_NoNamespaces(t *testing.T) {
	svc := NewSearchService(newMockEmbedder(), newMockVectorStore(), NewModelGate(), SearchConfig{})

	results, err := svc.Search(context.Background(), "query", nil, 5, 0.1)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_ScoreThresholdApplied(t *testing.T) {
	store := newMockVectorStore()
	seedPoints(t, store, "tools", map[string][]float32{
		"near": {1, 0, 0, 0, 0, 0, 0, 0},
		"far":  {0, 1, 0, 0, 0, 0, 0, 0},
	})

	embedder := &fixedEmbedder{vector: []float32{1, 0, 0, 0, 0, 0, 0, 0}}
	svc := NewSearchService(embedder, store, NewModelGate(), SearchConfig{})

	results, err := svc.Search(context.Background(), "query", []string{"tools"}, 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "near", results[0].ID)
}

// TestSearch_EndToEnd indexes through the pipeline and searches back.
func TestSearch_EndToEnd(t *testing.T) {
	store := newMockVectorStore()
	idx := newTestIndexer(store, &mockLLM{})
	ctx := context.Background()

	_, err := idx.Index(ctx, "tools", []domain.Document{
		{ID: "t1", Text: "open a web page"},
		{ID: "t2", Text: "resize the active window"},
	})
	require.NoError(t, err)

	svc := NewSearchService(newMockEmbedder(), store, NewModelGate(), SearchConfig{})
	results, err := svc.Search(ctx, "open a web page", []string{"tools"}, 1, 0.1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "t1", results[0].ID)
	assert.Equal(t, "open a web page", results[0].Text)
	assert.Greater(t, results[0].Score, 0.1)
}

// fixedEmbedder returns one preset vector for every input.
type fixedEmbedder struct {
	vector []float32
	err    error
}

func (f *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fixedEmbedder) Dimensions() int              { return len(f.vector) }
func (f *fixedEmbedder) ModelName() string            { return "fixed-embed" }
func (f *fixedEmbedder) Ping(_ context.Context) error { return nil }
func (f *fixedEmbedder) Close() error                 { return nil }
