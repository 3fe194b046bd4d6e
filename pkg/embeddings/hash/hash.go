// Package hash implements a deterministic, offline Embedder that hashes
// tokens into a fixed number of buckets.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
)

// DefaultDimensions is used when a non-positive dimension is given.
const DefaultDimensions = 256

// Embedder maps each token to a signed bucket. Texts sharing tokens land
// close to each other, which is enough for dev runs and tests.
type Embedder struct {
	dims int
}

// NewEmbedder creates a hash embedder producing dims components.
func NewEmbedder(dims int) *Embedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &Embedder{dims: dims}
}

// Embed converts text into a unit-length vector. Text without tokens
// yields the zero vector.
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	vec := make([]float32, e.dims)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, token := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		sum := h.Sum64()

		sign := float32(1)
		if sum&1 == 1 {
			sign = -1
		}
		vec[int(sum%uint64(e.dims))] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		scale := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= scale
		}
	}

	return vec, nil
}

// Close is a no-op.
func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
