package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/keepsake/pkg/vectordb"
	"github.com/papercomputeco/keepsake/pkg/vectordb/inmemory"
)

// MockIndex wraps an in-memory index and lets tests inject failures.
type MockIndex struct {
	*inmemory.Index

	mu sync.Mutex

	// ExistsErr is returned by Exists, simulating a rejected credential.
	ExistsErr error

	// UpsertErr, QueryErr and DeleteErr are returned by their operations.
	UpsertErr error
	QueryErr  error
	DeleteErr error

	CreateCalls int
	Closed      bool
}

func NewMockIndex() *MockIndex {
	return &MockIndex{Index: inmemory.New()}
}

func (m *MockIndex) Exists(ctx context.Context) (bool, error) {
	if m.ExistsErr != nil {
		return false, m.ExistsErr
	}
	return m.Index.Exists(ctx)
}

func (m *MockIndex) Create(ctx context.Context, dimensions int, metric vectordb.Metric) error {
	m.mu.Lock()
	m.CreateCalls++
	m.mu.Unlock()
	return m.Index.Create(ctx, dimensions, metric)
}

func (m *MockIndex) Upsert(ctx context.Context, namespace string, points []vectordb.Point) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	return m.Index.Upsert(ctx, namespace, points)
}

func (m *MockIndex) Query(ctx context.Context, namespace string, vector []float32, topK int) ([]vectordb.Match, error) {
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	return m.Index.Query(ctx, namespace, vector, topK)
}

func (m *MockIndex) DeleteNamespace(ctx context.Context, namespace string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	return m.Index.DeleteNamespace(ctx, namespace)
}

func (m *MockIndex) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	return nil
}

var _ vectordb.Index = (*MockIndex)(nil)
