// Package qdrant provides a VectorStore adapter speaking the Qdrant REST API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:6333"
	DefaultTimeout = 15 * time.Second
)

// Config holds configuration for the Qdrant store.
type Config struct {
	// BaseURL is the Qdrant REST endpoint (default: http://localhost:6333).
	BaseURL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Store is a REST client to Qdrant. Collections map one-to-one onto
// namespaces.
type Store struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// New creates a Qdrant-backed vector store.
func New(cfg Config) *Store {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Store{
		client:  &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
	}
}

// collectionInfoResponse is the GET /collections/{name} response shape.
type collectionInfoResponse struct {
	Result struct {
		PointsCount int `json:"points_count"`
		Config      struct {
			Params struct {
				Vectors struct {
					Size     int    `json:"size"`
					Distance string `json:"distance"`
				} `json:"vectors"`
			} `json:"params"`
		} `json:"config"`
	} `json:"result"`
}

// GetCollection returns schema and size for a collection.
func (s *Store) GetCollection(ctx context.Context, name string) (*domain.NamespaceInfo, error) {
	var out collectionInfoResponse
	status, err := s.doJSON(ctx, http.MethodGet, "/collections/"+name, nil, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant: get collection %q: status %d", name, status)
	}
	return &domain.NamespaceInfo{
		Name:      name,
		Dimension: out.Result.Config.Params.Vectors.Size,
		Distance:  fromQdrantDistance(out.Result.Config.Params.Vectors.Distance),
		Points:    out.Result.PointsCount,
	}, nil
}

// CreateCollection creates a collection. A 409 from a lost create race
// counts as success.
func (s *Store) CreateCollection(ctx context.Context, name string, dimension int, distance string) error {
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": toQdrantDistance(distance),
		},
	}
	status, err := s.doJSON(ctx, http.MethodPut, "/collections/"+name, body, nil)
	if err != nil {
		return err
	}
	if status == http.StatusConflict {
		// Another caller created it first; that is the ensured state.
		return nil
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant: create collection %q: status %d", name, status)
	}
	return nil
}

// DeleteCollection removes a collection. Deleting an absent collection
// is not an error.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	status, err := s.doJSON(ctx, http.MethodDelete, "/collections/"+name, nil, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK && status != http.StatusNotFound {
		return fmt.Errorf("qdrant: delete collection %q: status %d", name, status)
	}
	return nil
}

// listResponse is the GET /collections response shape.
type listResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

// ListCollections returns the names of all collections.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	var out listResponse
	status, err := s.doJSON(ctx, http.MethodGet, "/collections", nil, &out)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant: list collections: status %d", status)
	}
	names := make([]string, 0, len(out.Result.Collections))
	for _, c := range out.Result.Collections {
		names = append(names, c.Name)
	}
	return names, nil
}

// Upsert writes points into a collection in one batch.
func (s *Store) Upsert(ctx context.Context, collection string, points []domain.IndexedPoint) error {
	if len(points) == 0 {
		return nil
	}
	payload := make([]map[string]any, len(points))
	for i, p := range points {
		payload[i] = map[string]any{
			"id":      p.PointID,
			"vector":  p.Vector,
			"payload": p.Payload,
		}
	}
	body := map[string]any{"points": payload}
	status, err := s.doJSON(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("qdrant: upsert %d points into %q: status %d", len(points), collection, status)
	}
	return nil
}

// searchResponse is the POST /collections/{name}/points/search response shape.
type searchResponse struct {
	Result []struct {
		ID      json.RawMessage `json:"id"`
		Score   float64         `json:"score"`
		Payload domain.Payload  `json:"payload"`
	} `json:"result"`
}

// Query returns up to limit nearest neighbours above minScore.
func (s *Store) Query(ctx context.Context, collection string, vector []float32, limit int, minScore float64) ([]driven.ScoredPoint, error) {
	body := map[string]any{
		"vector":          vector,
		"limit":           limit,
		"score_threshold": minScore,
		"with_payload":    true,
	}
	var out searchResponse
	status, err := s.doJSON(ctx, http.MethodPost, "/collections/"+collection+"/points/search", body, &out)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, domain.ErrNotFound
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("qdrant: search %q: status %d", collection, status)
	}

	hits := make([]driven.ScoredPoint, 0, len(out.Result))
	for _, r := range out.Result {
		hits = append(hits, driven.ScoredPoint{
			ID:      rawID(r.ID),
			Score:   r.Score,
			Payload: r.Payload,
		})
	}
	return hits, nil
}

// Close releases resources.
func (s *Store) Close() error {
	// HTTP client doesn't need explicit cleanup
	return nil
}

// doJSON sends one request and decodes the response when out is non-nil.
// It returns the HTTP status so callers can map 404/409 to their
// contract; transport failures return an error.
func (s *Store) doJSON(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// rawID renders a Qdrant point id, which may be a string or an integer.
func rawID(raw json.RawMessage) string {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return strings.TrimSpace(string(raw))
}

// toQdrantDistance maps config metric names onto Qdrant's enum.
func toQdrantDistance(distance string) string {
	switch strings.ToLower(distance) {
	case "cosine", "":
		return "Cosine"
	case "euclid", "euclidean", "l2":
		return "Euclid"
	case "dot":
		return "Dot"
	}
	return "Cosine"
}

// fromQdrantDistance maps Qdrant's enum back onto config metric names.
func fromQdrantDistance(distance string) string {
	switch distance {
	case "Cosine":
		return "cosine"
	case "Euclid":
		return "euclid"
	case "Dot":
		return "dot"
	}
	return strings.ToLower(distance)
}
