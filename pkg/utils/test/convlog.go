package testutils

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/papercomputeco/keepsake/pkg/convlog"
)

// ErrMockConvLog is returned by MockConvLog when Fail is set.
var ErrMockConvLog = errors.New("mock conversation log failure")

// MockConvLog keeps messages in memory.
type MockConvLog struct {
	mu      sync.Mutex
	entries []convlog.Entry

	// Fail makes every call return ErrMockConvLog.
	Fail bool
}

func NewMockConvLog() *MockConvLog {
	return &MockConvLog{}
}

func (m *MockConvLog) AppendMessage(_ context.Context, userID, role, text string, metadata map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return ErrMockConvLog
	}
	m.entries = append(m.entries, convlog.Entry{
		ID:        int64(len(m.entries) + 1),
		UserID:    userID,
		Role:      role,
		Text:      text,
		Metadata:  maps.Clone(metadata),
		CreatedAt: time.Now(),
	})
	return nil
}

func (m *MockConvLog) History(_ context.Context, userID string, limit int) ([]convlog.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Fail {
		return nil, ErrMockConvLog
	}

	out := []convlog.Entry{}
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Len reports the number of stored messages across users.
func (m *MockConvLog) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MockConvLog) Close() error {
	return nil
}

var _ convlog.Log = (*MockConvLog)(nil)
