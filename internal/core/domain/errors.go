package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSchema indicates a collection schema operation failed because
	// the backing store is unreachable or rejected the operation.
	ErrSchema = errors.New("schema operation failed")

	// ErrIndex indicates an embedding or upsert failure during indexing.
	// The whole batch is aborted; nothing is partially committed.
	ErrIndex = errors.New("index operation failed")

	// ErrSearch indicates the query embedding failed. Per-namespace store
	// errors are not surfaced as ErrSearch; they merely reduce results.
	ErrSearch = errors.New("search failed")

	// ErrStore indicates a vector store operation failed outside the
	// schema/index/search paths (clear, reset, status).
	ErrStore = errors.New("store operation failed")
)
