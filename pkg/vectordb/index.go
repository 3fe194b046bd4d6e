// Package vectordb defines the narrow contract keepsake needs from a remote
// vector database: one fixed-dimension index partitioned into namespaces.
package vectordb

import "context"

// Metric is the similarity metric an index is created with.
type Metric string

const (
	MetricCosine Metric = "cosine"
	MetricDot    Metric = "dot"
)

// Point is a vector with its payload.
type Point struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Match is a query hit. Higher Score is more similar.
type Match struct {
	ID       string
	Score    float32
	Metadata map[string]any
}

// Stats describes a single namespace.
type Stats struct {
	Count int
}

// Index is a vector index partitioned by namespace.
type Index interface {
	// Exists reports whether the index has been created.
	Exists(ctx context.Context) (bool, error)

	// Create creates the index with a fixed dimension and metric.
	Create(ctx context.Context, dimensions int, metric Metric) error

	// Upsert inserts or replaces points in namespace.
	Upsert(ctx context.Context, namespace string, points []Point) error

	// Query returns up to topK matches in namespace, most similar first.
	Query(ctx context.Context, namespace string, vector []float32, topK int) ([]Match, error)

	// DeleteNamespace removes every point in namespace.
	DeleteNamespace(ctx context.Context, namespace string) error

	// DescribeStats returns namespace statistics.
	DescribeStats(ctx context.Context, namespace string) (Stats, error)

	// Close releases any resources held by the index.
	Close() error
}
