// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Text to fixed-length vector (local or remote model)
//   - LLMService: Bounded text completion used for content classification
//   - VectorStore: Namespaced collections of embedded points with
//     nearest-neighbour search
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
