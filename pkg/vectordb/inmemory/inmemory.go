// Package inmemory provides a brute-force vectordb.Index held in process
// memory. It backs tests and single-process development runs.
package inmemory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	"github.com/papercomputeco/keepsake/pkg/embeddings"
	"github.com/papercomputeco/keepsake/pkg/vectordb"
)

type entry struct {
	point vectordb.Point
	seq   int
}

// Index implements vectordb.Index with cosine similarity.
type Index struct {
	mu         sync.RWMutex
	created    bool
	dimensions int
	seq        int
	namespaces map[string]map[string]entry
}

// New returns an index that has not been created yet.
func New() *Index {
	return &Index{
		namespaces: make(map[string]map[string]entry),
	}
}

func (i *Index) Exists(_ context.Context) (bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.created, nil
}

func (i *Index) Create(_ context.Context, dimensions int, metric vectordb.Metric) error {
	if dimensions <= 0 {
		return fmt.Errorf("creating index: dimensions must be positive, got %d", dimensions)
	}
	if metric != vectordb.MetricCosine {
		return fmt.Errorf("creating index: unsupported metric %q", metric)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	i.created = true
	i.dimensions = dimensions
	return nil
}

func (i *Index) Upsert(_ context.Context, namespace string, points []vectordb.Point) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if !i.created {
		return vectordb.ErrNotCreated
	}

	ns, ok := i.namespaces[namespace]
	if !ok {
		ns = make(map[string]entry)
		i.namespaces[namespace] = ns
	}

	for _, p := range points {
		if len(p.Vector) != i.dimensions {
			return fmt.Errorf("%w: point %s has %d, index has %d",
				vectordb.ErrDimensionMismatch, p.ID, len(p.Vector), i.dimensions)
		}
		i.seq++
		ns[p.ID] = entry{
			point: vectordb.Point{
				ID:       p.ID,
				Vector:   append([]float32(nil), p.Vector...),
				Metadata: maps.Clone(p.Metadata),
			},
			seq: i.seq,
		}
	}

	return nil
}

func (i *Index) Query(_ context.Context, namespace string, vector []float32, topK int) ([]vectordb.Match, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if !i.created {
		return nil, vectordb.ErrNotCreated
	}
	if topK <= 0 {
		return []vectordb.Match{}, nil
	}

	type scored struct {
		match vectordb.Match
		seq   int
	}

	ns := i.namespaces[namespace]
	hits := make([]scored, 0, len(ns))
	for _, e := range ns {
		hits = append(hits, scored{
			match: vectordb.Match{
				ID:       e.point.ID,
				Score:    embeddings.Cosine(vector, e.point.Vector),
				Metadata: maps.Clone(e.point.Metadata),
			},
			seq: e.seq,
		})
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].match.Score != hits[b].match.Score {
			return hits[a].match.Score > hits[b].match.Score
		}
		return hits[a].seq > hits[b].seq
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}

	out := make([]vectordb.Match, len(hits))
	for n, h := range hits {
		out[n] = h.match
	}
	return out, nil
}

func (i *Index) DeleteNamespace(_ context.Context, namespace string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.namespaces, namespace)
	return nil
}

func (i *Index) DescribeStats(_ context.Context, namespace string) (vectordb.Stats, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return vectordb.Stats{Count: len(i.namespaces[namespace])}, nil
}

func (i *Index) Close() error {
	return nil
}

var _ vectordb.Index = (*Index)(nil)
