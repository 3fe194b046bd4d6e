// Package completion provides the text completion clients the memory
// subsystem uses for buffer summarization, episodic classification and
// affirmation generation.
package completion

import (
	"context"
	"errors"
)

// Completer turns a prompt into completion text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Func adapts a plain function into a Completer.
type Func func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f Func) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

var (
	// ErrCompletion wraps any provider failure.
	ErrCompletion = errors.New("completion failed")

	// ErrEmptyCompletion is returned when a provider answers with no text.
	ErrEmptyCompletion = errors.New("completion returned no text")

	// ErrMissingCredentials is returned by provider constructors that need an
	// API key and were not given one.
	ErrMissingCredentials = errors.New("missing completion credentials")
)
