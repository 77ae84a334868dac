package services

import (
	"context"
	"hash/fnv"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
)

// --- Mock vector store ---

type mockCollection struct {
	dimension int
	distance  string
	points    map[string]domain.IndexedPoint
}

// mockVectorStore implements driven.VectorStore with an in-memory map and
// a real cosine-similarity query, so service tests can run the pipeline
// end to end.
type mockVectorStore struct {
	mu          sync.Mutex
	collections map[string]*mockCollection

	getErr    error
	createErr error
	deleteErr error
	listErr   error
	upsertErr error
	queryErr  map[string]error // per-collection

	// upsertHook runs after each successful upsert, outside the lock.
	upsertHook func(collection string)

	createCalls int
}

func newMockVectorStore() *mockVectorStore {
	return &mockVectorStore{
		collections: make(map[string]*mockCollection),
		queryErr:    make(map[string]error),
	}
}

func (m *mockVectorStore) GetCollection(_ context.Context, name string) (*domain.NamespaceInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	col, ok := m.collections[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &domain.NamespaceInfo{
		Name:      name,
		Dimension: col.dimension,
		Distance:  col.distance,
		Points:    len(col.points),
	}, nil
}

func (m *mockVectorStore) CreateCollection(_ context.Context, name string, dimension int, distance string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.createCalls++
	if _, ok := m.collections[name]; ok {
		return nil // already exists is success
	}
	m.collections[name] = &mockCollection{
		dimension: dimension,
		distance:  distance,
		points:    make(map[string]domain.IndexedPoint),
	}
	return nil
}

func (m *mockVectorStore) DeleteCollection(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	delete(m.collections, name)
	return nil
}

func (m *mockVectorStore) ListCollections(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	names := make([]string, 0, len(m.collections))
	for name := range m.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *mockVectorStore) Upsert(ctx context.Context, collection string, points []domain.IndexedPoint) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.upsertErr != nil {
		m.mu.Unlock()
		return m.upsertErr
	}
	col, ok := m.collections[collection]
	if !ok {
		m.mu.Unlock()
		return domain.ErrNotFound
	}
	for _, p := range points {
		col.points[p.PointID] = p
	}
	m.mu.Unlock()

	if m.upsertHook != nil {
		m.upsertHook(collection)
	}
	return nil
}

func (m *mockVectorStore) Query(_ context.Context, collection string, vector []float32, limit int, minScore float64) ([]driven.ScoredPoint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.queryErr[collection]; err != nil {
		return nil, err
	}
	col, ok := m.collections[collection]
	if !ok {
		return nil, domain.ErrNotFound
	}

	ids := make([]string, 0, len(col.points))
	for id := range col.points {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var hits []driven.ScoredPoint
	for _, id := range ids {
		p := col.points[id]
		score := cosine(vector, p.Vector)
		if score >= minScore {
			hits = append(hits, driven.ScoredPoint{ID: p.PointID, Score: score, Payload: p.Payload})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *mockVectorStore) Close() error { return nil }

func (m *mockVectorStore) pointCount(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.collections[collection]
	if !ok {
		return 0
	}
	return len(col.points)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// --- Mock embedding service ---

// mockEmbedder produces deterministic hash-seeded unit vectors, so
// identical texts embed identically.
type mockEmbedder struct {
	dims     int
	embedErr error
	batchErr error
}

func newMockEmbedder() *mockEmbedder {
	return &mockEmbedder{dims: 8}
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return hashVector(text, m.dims), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = hashVector(t, m.dims)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dims }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return nil }
func (m *mockEmbedder) Close() error                 { return nil }

func hashVector(text string, dims int) []float32 {
	h := fnv.New64a()
	h.Write([]byte(text))
	seed := h.Sum64()

	vec := make([]float32, dims)
	var norm float64
	for i := range vec {
		seed = seed*6364136223846793005 + 1442695040888963407
		vec[i] = float32(int64(seed)) / float32(math.MaxInt64)
		norm += float64(vec[i]) * float64(vec[i])
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// --- Mock LLM service ---

// mockLLM answers prompts by substring match on the prompt text and
// records every prompt it sees.
type mockLLM struct {
	mu          sync.Mutex
	personal    string // response to the personal-facts prompt
	worldFacts  string // response to the world-facts prompt
	generateErr error
	block       chan struct{} // when set, Generate waits for ctx first

	prompts []string
}

func (m *mockLLM) Generate(ctx context.Context, prompt string, _ driven.GenerateOptions) (string, error) {
	m.mu.Lock()
	m.prompts = append(m.prompts, prompt)
	block := m.block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-block:
		}
	}
	if m.generateErr != nil {
		return "", m.generateErr
	}
	if strings.Contains(prompt, "personal facts") {
		return m.personal, nil
	}
	return m.worldFacts, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

func (m *mockLLM) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
