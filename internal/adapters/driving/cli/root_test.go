package cli

import (
	"context"

	"github.com/recallkit/recall/internal/core/domain"
)

// mockMemoryService records calls and returns canned data.
type mockMemoryService struct {
	ensured    []string
	indexed    map[string][]domain.Document
	cleared    []string
	resetWith  []string
	resetCalls int

	indexCount    int
	indexErr      error
	searchResults []domain.SearchResult
	searchErr     error
	statusInfos   []domain.NamespaceInfo

	lastQuery      string
	lastNamespaces []string
	lastTopK       int
	lastMinScore   float64
}

func newMockMemoryService() *mockMemoryService {
	return &mockMemoryService{indexed: make(map[string][]domain.Document)}
}

func (m *mockMemoryService) EnsureNamespace(_ context.Context, name string) error {
	m.ensured = append(m.ensured, name)
	return nil
}

func (m *mockMemoryService) Index(_ context.Context, namespace string, docs []domain.Document) (int, error) {
	if m.indexErr != nil {
		return 0, m.indexErr
	}
	m.indexed[namespace] = append(m.indexed[namespace], docs...)
	if m.indexCount > 0 {
		return m.indexCount, nil
	}
	return len(docs), nil
}

func (m *mockMemoryService) Search(_ context.Context, query string, namespaces []string, topK int, minScore float64) ([]domain.SearchResult, error) {
	m.lastQuery = query
	m.lastNamespaces = namespaces
	m.lastTopK = topK
	m.lastMinScore = minScore
	return m.searchResults, m.searchErr
}

func (m *mockMemoryService) ClearNamespace(_ context.Context, name string) error {
	m.cleared = append(m.cleared, name)
	return nil
}

func (m *mockMemoryService) ResetAll(_ context.Context, preserve []string) error {
	m.resetCalls++
	m.resetWith = preserve
	return nil
}

func (m *mockMemoryService) Status(_ context.Context) ([]domain.NamespaceInfo, error) {
	return m.statusInfos, nil
}

// setupTestServices installs a mock service and returns it with a
// cleanup that restores the unwired state.
func setupTestServices() (*mockMemoryService, func()) {
	mock := newMockMemoryService()
	memoryService = mock
	return mock, func() {
		memoryService = nil
		rootCmd.SetArgs(nil)

		// Flag variables outlive one Execute; restore their defaults.
		indexFile, indexText, indexID = "", "", ""
		searchNamespaces = []string{"user_info", "world_facts"}
		searchTopK, searchMinScore, searchJSON = 0, -1, false
		resetPreserve, resetForce, clearForce = nil, false, false
	}
}
