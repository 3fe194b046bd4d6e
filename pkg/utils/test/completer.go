package testutils

import (
	"context"
	"errors"
	"strings"
	"sync"
)

// ErrMockCompletion is returned by MockCompleter when Fail is set.
var ErrMockCompletion = errors.New("mock completion failure")

// MockCompleter answers prompts from a list of substring rules and records
// every prompt it sees.
type MockCompleter struct {
	mu sync.Mutex

	// Responses maps a prompt substring to the reply. The first matching
	// rule in insertion order wins.
	Responses []Response

	// Default is returned when no rule matches.
	Default string

	// Fail makes every call return ErrMockCompletion.
	Fail bool

	Prompts []string
}

// Response is a single MockCompleter rule.
type Response struct {
	Contains string
	Reply    string
}

func NewMockCompleter() *MockCompleter {
	return &MockCompleter{}
}

// On adds a rule and returns the completer for chaining.
func (m *MockCompleter) On(contains, reply string) *MockCompleter {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = append(m.Responses, Response{Contains: contains, Reply: reply})
	return m
}

func (m *MockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Prompts = append(m.Prompts, prompt)
	if m.Fail {
		return "", ErrMockCompletion
	}

	for _, r := range m.Responses {
		if strings.Contains(prompt, r.Contains) {
			return r.Reply, nil
		}
	}
	return m.Default, nil
}

// Calls returns how many prompts have been seen.
func (m *MockCompleter) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Prompts)
}
