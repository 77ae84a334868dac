package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/recallkit/recall/internal/core/domain"
	"github.com/recallkit/recall/internal/core/ports/driven"
	"github.com/recallkit/recall/internal/logger"
)

// RoutingConfig names the raw-memory namespaces and where each memory
// category lands.
type RoutingConfig struct {
	// RawNamespaces are the namespaces whose incoming documents are
	// subject to classification before storage. All other namespaces
	// pass documents through unchanged.
	RawNamespaces []string

	// PersonalNamespace receives personal-fact fragments.
	PersonalNamespace string

	// WorldFactNamespace receives world-fact fragments.
	WorldFactNamespace string

	// VolatileNamespace receives time-bounded fragments (currently none
	// are produced; the route exists as the extension point).
	VolatileNamespace string
}

// DefaultRouting matches the reference deployment: "memories" is raw,
// fragments land in user_info / world_facts / volatile_info.
var DefaultRouting = RoutingConfig{
	RawNamespaces:      []string{"memories"},
	PersonalNamespace:  "user_info",
	WorldFactNamespace: "world_facts",
	VolatileNamespace:  "volatile_info",
}

// target returns the destination namespace for a memory category.
func (r RoutingConfig) target(mt domain.MemoryType) string {
	switch mt {
	case domain.MemoryTypePersonal:
		return r.PersonalNamespace
	case domain.MemoryTypeWorldFact:
		return r.WorldFactNamespace
	case domain.MemoryTypeVolatile:
		return r.VolatileNamespace
	}
	return ""
}

// isRaw reports whether a namespace's documents go through classification.
func (r RoutingConfig) isRaw(namespace string) bool {
	for _, ns := range r.RawNamespaces {
		if ns == namespace {
			return true
		}
	}
	return false
}

// IndexerService expands raw input into zero or more categorised derived
// documents, embeds them, and upserts them with deterministic identifiers.
type IndexerService struct {
	collections *CollectionService
	classifier  *Classifier
	embedder    driven.EmbeddingService
	store       driven.VectorStore
	gate        *ModelGate
	routing     RoutingConfig

	mu    sync.Mutex
	locks map[string]*sync.Mutex // serializes embed+upsert per source namespace
}

// NewIndexerService creates the document router/indexer.
func NewIndexerService(
	collections *CollectionService,
	classifier *Classifier,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	gate *ModelGate,
	routing RoutingConfig,
) *IndexerService {
	if routing.PersonalNamespace == "" {
		routing = DefaultRouting
	}
	return &IndexerService{
		collections: collections,
		classifier:  classifier,
		embedder:    embedder,
		store:       store,
		gate:        gate,
		routing:     routing,
		locks:       make(map[string]*sync.Mutex),
	}
}

// routedDocument is a document after routing, with its point-id strategy
// decided.
type routedDocument struct {
	doc       domain.Document
	processed bool // went through classification
	derived   bool // synthetic id, randomised point id
}

// Index routes, embeds and persists documents. The returned count is the
// number of points written; zero with a nil error means everything was
// filtered out, which is the null result, not a failure. When an upsert
// fails partway through the per-namespace batches, the count reports the
// points already committed alongside the error.
func (s *IndexerService) Index(ctx context.Context, namespace string, documents []domain.Document) (int, error) {
	if namespace == "" {
		return 0, fmt.Errorf("%w: empty namespace", domain.ErrInvalidInput)
	}
	if len(documents) == 0 {
		return 0, nil
	}

	logger.Section("Index")
	logger.Info("Indexing %d documents into %q", len(documents), namespace)

	if err := s.collections.Ensure(ctx, namespace); err != nil {
		return 0, err
	}

	// Indexing the same source namespace twice concurrently serializes
	// here; different namespaces proceed independently.
	l := s.lockFor(namespace)
	l.Lock()
	defer l.Unlock()

	routed := s.route(ctx, namespace, documents)
	if len(routed) == 0 {
		logger.Info("All documents filtered out, nothing to index")
		return 0, nil
	}

	// Ensure every distinct target namespace before writing anything.
	for _, target := range distinctNamespaces(routed) {
		if target == namespace {
			continue
		}
		if err := s.collections.Ensure(ctx, target); err != nil {
			return 0, err
		}
	}

	// One batch embedding call for the whole request. A failure here
	// aborts the operation; partial embeddings are never committed.
	texts := make([]string, len(routed))
	for i, rd := range routed {
		texts[i] = rd.doc.Text
	}
	var vectors [][]float32
	err := s.gate.Do(ctx, func() error {
		var embErr error
		vectors, embErr = s.embedder.EmbedBatch(ctx, texts)
		return embErr
	})
	if err != nil {
		return 0, fmt.Errorf("%w: embed batch: %v", domain.ErrIndex, err)
	}
	if len(vectors) != len(routed) {
		return 0, fmt.Errorf("%w: embedder returned %d vectors for %d texts",
			domain.ErrIndex, len(vectors), len(routed))
	}

	// Group points by destination namespace, one upsert batch each.
	batches := make(map[string][]domain.IndexedPoint)
	for i, rd := range routed {
		point := domain.IndexedPoint{
			PointID: s.pointID(rd),
			Vector:  vectors[i],
			Payload: domain.Payload{
				Text:       rd.doc.Text,
				OriginalID: rd.doc.ID,
				Namespace:  rd.doc.Namespace,
				Context:    rd.doc.Context,
				Processed:  rd.processed,
			},
		}
		batches[rd.doc.Namespace] = append(batches[rd.doc.Namespace], point)
	}

	// A document's fragments may span several target namespaces. Once the
	// first batch is written the rest must follow, or cancellation would
	// leave the document half-committed: check for cancellation here, then
	// detach the commit loop from the caller's context.
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrIndex, err)
	}
	commitCtx := context.WithoutCancel(ctx)

	count := 0
	for target, points := range batches {
		if err := s.store.Upsert(commitCtx, target, points); err != nil {
			return count, fmt.Errorf("%w: upsert %d points into %q (%d points already committed): %v",
				domain.ErrIndex, len(points), target, count, err)
		}
		logger.Debug("Upserted %d points into %q", len(points), target)
		count += len(points)
	}

	logger.Info("Indexed %d points across %d namespaces", count, len(batches))
	return count, nil
}

// route expands documents per the routing table. Documents in raw-memory
// namespaces become zero or more derived documents; a document yielding
// zero categories is dropped silently. All other documents pass through
// unchanged.
func (s *IndexerService) route(ctx context.Context, namespace string, documents []domain.Document) []routedDocument {
	if !s.routing.isRaw(namespace) {
		routed := make([]routedDocument, 0, len(documents))
		for _, doc := range documents {
			doc.Namespace = namespace
			routed = append(routed, routedDocument{doc: doc})
		}
		return routed
	}

	var routed []routedDocument
	for _, doc := range documents {
		result := s.classifier.Classify(ctx, doc.Text, doc.Context)
		if result.Empty() {
			// Silence is the null result: not stored, not an error.
			logger.Debug("Document %q yielded no categories, dropped", doc.ID)
			continue
		}
		routed = append(routed, s.derive(doc, domain.MemoryTypePersonal, result.Personal)...)
		routed = append(routed, s.derive(doc, domain.MemoryTypeWorldFact, result.WorldFacts)...)
		for _, v := range result.Volatile {
			routed = append(routed, s.derive(doc, domain.MemoryTypeVolatile, []string{v.Text})...)
		}
	}
	return routed
}

// derive materialises derived documents for one category.
func (s *IndexerService) derive(src domain.Document, mt domain.MemoryType, texts []string) []routedDocument {
	target := s.routing.target(mt)
	out := make([]routedDocument, 0, len(texts))
	for _, text := range texts {
		dd := domain.DerivedDocument{
			Document: domain.Document{
				ID:        deriveID(src.ID, mt),
				Text:      text,
				Namespace: target,
				Context:   src.Context.Clone(),
			},
			MemoryType: mt,
		}
		out = append(out, routedDocument{doc: dd.Document, processed: true, derived: true})
	}
	return out
}

// pointID picks the id strategy for a routed document. Pass-through
// documents get a stable UUID from (namespace, original id) so reindexing
// overwrites; derived documents get a fresh random id each run and
// accumulate instead.
func (s *IndexerService) pointID(rd routedDocument) string {
	if rd.derived {
		return uuid.NewString()
	}
	return PointID(rd.doc.Namespace, rd.doc.ID)
}

// PointID returns the deterministic store point ID for a pass-through
// document. Uniqueness is scoped to (namespace, id).
func PointID(namespace, id string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(namespace+"/"+id)).String()
}

// deriveID builds the synthetic {original_id}_{memory_type}_{suffix} id.
func deriveID(originalID string, mt domain.MemoryType) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s_%s_%s", originalID, mt, suffix)
}

func (s *IndexerService) lockFor(namespace string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[namespace]
	if !ok {
		l = &sync.Mutex{}
		s.locks[namespace] = l
	}
	return l
}

// distinctNamespaces collects the set of destination namespaces.
func distinctNamespaces(routed []routedDocument) []string {
	seen := make(map[string]bool)
	var out []string
	for _, rd := range routed {
		if !seen[rd.doc.Namespace] {
			seen[rd.doc.Namespace] = true
			out = append(out, rd.doc.Namespace)
		}
	}
	return out
}
