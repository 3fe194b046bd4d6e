package testutils

import (
	"context"
	"fmt"
	"sync"
)

// MockEmbedder returns canned vectors keyed by input text. Unknown text gets
// Default. It is safe for concurrent use once configured.
type MockEmbedder struct {
	Embeddings map[string][]float32

	// Default is returned for text missing from Embeddings.
	Default []float32

	// FailOn makes Embed fail for this exact text.
	FailOn string

	mu    sync.Mutex
	calls []string
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
		Default:    []float32{0.1, 0.2, 0.3},
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	m.mu.Unlock()

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for %q", text)
	}
	if v, ok := m.Embeddings[text]; ok {
		return append([]float32(nil), v...), nil
	}
	return append([]float32(nil), m.Default...), nil
}

// Calls returns the texts passed to Embed, in order.
func (m *MockEmbedder) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *MockEmbedder) Close() error {
	return nil
}
