package domain

import "time"

// Context carries arbitrary caller-supplied metadata for a document.
// Keys are strings and values must be JSON-compatible (strings, numbers,
// booleans, nested maps/slices of the same). It travels with the document
// into the stored payload and back out in search results.
type Context map[string]any

// Clone returns a shallow copy of the context. A nil context clones to nil.
func (c Context) Clone() Context {
	if c == nil {
		return nil
	}
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Document is a caller-submitted unit of free text.
//
// ID is caller-supplied and unique only within (Namespace, ID); the same
// ID may appear in different namespaces for unrelated documents.
type Document struct {
	// ID is the caller-supplied identifier.
	ID string

	// Text is the free-text content.
	Text string

	// Namespace names the collection this document targets.
	Namespace string

	// Context holds arbitrary metadata stored alongside the text.
	Context Context
}

// MemoryType categorises a derived memory fragment.
type MemoryType string

const (
	// MemoryTypePersonal marks lasting personal facts about the user.
	MemoryTypePersonal MemoryType = "personal"

	// MemoryTypeWorldFact marks durable factual or educational content.
	MemoryTypeWorldFact MemoryType = "world_fact"

	// MemoryTypeVolatile marks time-bounded facts with an expiry.
	MemoryTypeVolatile MemoryType = "volatile"
)

// Valid reports whether the memory type is one of the known categories.
func (m MemoryType) Valid() bool {
	switch m {
	case MemoryTypePersonal, MemoryTypeWorldFact, MemoryTypeVolatile:
		return true
	}
	return false
}

// DerivedDocument is a memory fragment synthesised from a source document
// by classification. Its Namespace is the category's target namespace, not
// the source namespace, and its ID is synthetic:
// {original_id}_{memory_type}_{random_suffix}. Derived documents are never
// mutated after creation.
type DerivedDocument struct {
	Document

	// MemoryType is the category that produced this fragment.
	MemoryType MemoryType
}

// VolatileFact is a time-bounded extracted fact. The volatile category is
// currently disabled end-to-end; the type exists as the extension point.
type VolatileFact struct {
	Text      string
	ExpiresAt time.Time
}

// Classification is the outcome of running a document through the content
// classifier. Empty slices mean the content was not worth retaining in
// that category.
type Classification struct {
	Personal   []string
	WorldFacts []string
	Volatile   []VolatileFact
}

// Empty reports whether classification produced no fragments at all.
func (c Classification) Empty() bool {
	return len(c.Personal) == 0 && len(c.WorldFacts) == 0 && len(c.Volatile) == 0
}

// Payload is the metadata persisted with every point in the vector store.
type Payload struct {
	// Text is the indexed content.
	Text string `json:"text"`

	// OriginalID is the caller-supplied (or synthetic derived) document ID.
	OriginalID string `json:"original_id"`

	// Namespace is the collection the point was written to.
	Namespace string `json:"namespace"`

	// Context is the caller-supplied metadata.
	Context Context `json:"context,omitempty"`

	// Processed marks points that went through classification.
	Processed bool `json:"processed"`
}

// IndexedPoint pairs an embedding with its payload under a store point ID.
//
// For pass-through documents PointID is derived deterministically from
// (namespace, original ID), so re-indexing the same logical document
// overwrites rather than duplicates. Derived documents carry freshly
// randomised IDs each extraction run and accumulate instead.
type IndexedPoint struct {
	PointID string
	Vector  []float32
	Payload Payload
}

// NamespaceInfo describes a namespace's collection schema and size.
type NamespaceInfo struct {
	Name      string
	Dimension int
	Distance  string
	Points    int
}
