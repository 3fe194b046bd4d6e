package embeddings

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/papercomputeco/keepsake/pkg/logger"
)

// Adapter pins an Embedder to a fixed vector length.
type Adapter struct {
	embedder   Embedder
	dimensions int
	logger     *slog.Logger
}

// NewAdapter wraps embedder so every vector it produces has exactly
// dimensions components.
func NewAdapter(embedder Embedder, dimensions int, log *slog.Logger) (*Adapter, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: nil embedder", ErrEmbedding)
	}
	if dimensions <= 0 {
		return nil, ErrInvalidDimensions
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Adapter{
		embedder:   embedder,
		dimensions: dimensions,
		logger:     log,
	}, nil
}

// Dimensions returns the target vector length.
func (a *Adapter) Dimensions() int {
	return a.dimensions
}

// Embed returns a vector of exactly Dimensions() components. When the
// service fails the zero vector is returned together with an error wrapping
// ErrEmbedding; callers may still use the vector and should treat it as
// carrying no signal.
func (a *Adapter) Embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := a.embedder.Embed(ctx, text)
	if err != nil {
		a.logger.Warn("embedding service failed, using zero vector",
			"dimensions", a.dimensions,
			"error", err,
		)
		return make([]float32, a.dimensions), fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	if len(vec) != a.dimensions {
		a.logger.Debug("reconciling embedding length",
			"got", len(vec),
			"want", a.dimensions,
		)
	}

	return Normalize(vec, a.dimensions), nil
}

// Close closes the wrapped embedder.
func (a *Adapter) Close() error {
	return a.embedder.Close()
}

// Normalize truncates vec to dims or right-pads it with zeros. The result
// is never re-scaled and never aliases vec.
func Normalize(vec []float32, dims int) []float32 {
	out := make([]float32, dims)
	copy(out, vec)
	return out
}

// IsZero reports whether every component of vec is zero.
func IsZero(vec []float32) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// Cosine returns the cosine similarity of a and b over their common prefix.
// Zero vectors have similarity 0.
func Cosine(a, b []float32) float32 {
	n := min(len(a), len(b))

	var dot, na, nb float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}

	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
