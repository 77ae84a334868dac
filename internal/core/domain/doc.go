// Package domain defines the core business entities for Recall.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A caller-submitted free-text document tagged with a namespace
//   - DerivedDocument: A memory fragment produced by classification
//   - IndexedPoint: The embedded, payload-carrying unit persisted to the store
//   - SearchResult: A scored match returned from a multi-namespace search
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
