package vectordb

import "errors"

var (
	// ErrConnection is returned when the vector database cannot be reached
	// or rejects the request.
	ErrConnection = errors.New("vector database connection failed")

	// ErrDimensionMismatch is returned when a vector does not match the
	// index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrNotCreated is returned by operations on an index that does not exist.
	ErrNotCreated = errors.New("vector index does not exist")
)
