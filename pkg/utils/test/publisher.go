package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/keepsake/pkg/eventstream"
)

// ErrMockPublish is returned by MockPublisher when Fail is set.
var ErrMockPublish = errors.New("mock publish failure")

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.InteractionRecordedEvent
	closed bool

	// Fail makes every publish return ErrMockPublish.
	Fail bool

	// Gate, when non-nil, blocks every publish until it is closed.
	Gate chan struct{}
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishInteraction(ctx context.Context, event *eventstream.InteractionRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}
	if m.Gate != nil {
		select {
		case <-m.Gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Fail {
		return ErrMockPublish
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MockPublisher) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Events returns a copy of the published events.
func (m *MockPublisher) Events() []*eventstream.InteractionRecordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*eventstream.InteractionRecordedEvent(nil), m.events...)
}

// Closed reports whether Close was called.
func (m *MockPublisher) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
