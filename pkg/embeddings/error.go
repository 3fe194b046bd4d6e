package embeddings

import "errors"

var (
	// ErrEmbedding is wrapped by every embedding service failure.
	ErrEmbedding = errors.New("embedding failed")

	// ErrInvalidDimensions is returned for a non-positive target dimension.
	ErrInvalidDimensions = errors.New("embedding dimensions must be positive")
)
