// Package buffer provides the bounded short-term conversation window. When
// the window overflows, older messages are folded into a running summary
// through a completion service and evicted.
package buffer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/papercomputeco/keepsake/pkg/completion"
	"github.com/papercomputeco/keepsake/pkg/logger"
)

// DefaultMaxMessages is the window size used when Config.MaxMessages is unset.
const DefaultMaxMessages = 20

// Roles of buffered messages.
const (
	RoleHuman = "Human"
	RoleAgent = "Agent"
)

// ErrSummarize is wrapped when folding overflowed messages into the summary
// could not use the completion service.
var ErrSummarize = errors.New("summarizing conversation failed")

// Message is a single buffered turn.
type Message struct {
	Role     string `json:"role"`
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// Config holds configuration for a Buffer.
type Config struct {
	// MaxMessages bounds the window. Defaults to DefaultMaxMessages.
	MaxMessages int

	// Completer summarizes overflowed messages. When nil the deterministic
	// placeholder summary is used.
	Completer completion.Completer

	Logger *slog.Logger
}

// Buffer is safe for concurrent use.
type Buffer struct {
	max       int
	completer completion.Completer
	logger    *slog.Logger

	mu       sync.Mutex
	messages []Message
	summary  string
	next     int
}

// New creates an empty buffer.
func New(c Config) *Buffer {
	limit := c.MaxMessages
	if limit <= 0 {
		limit = DefaultMaxMessages
	}
	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Buffer{
		max:       limit,
		completer: c.Completer,
		logger:    log,
	}
}

// Append adds msgs in order and enforces the window bound. Position is
// assigned by the buffer. On overflow every message older than the newest
// MaxMessages/2 is folded into the summary with a single completion call.
// If that call fails the summary gains a placeholder line and the returned
// error wraps ErrSummarize; the window bound holds either way.
func (b *Buffer) Append(ctx context.Context, msgs ...Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, m := range msgs {
		m.Position = b.next
		b.next++
		b.messages = append(b.messages, m)
	}

	if len(b.messages) <= b.max {
		return nil
	}

	keep := b.max / 2
	folded := b.messages[:len(b.messages)-keep]

	summary, err := b.summarize(ctx, folded)
	b.summary = summary
	b.messages = append([]Message(nil), b.messages[len(b.messages)-keep:]...)

	b.logger.Debug("folded conversation into summary",
		"folded", len(folded),
		"kept", keep,
	)

	return err
}

func (b *Buffer) summarize(ctx context.Context, folded []Message) (string, error) {
	var cause error
	if b.completer == nil {
		cause = errors.New("no completer configured")
	} else {
		text, err := b.completer.Complete(ctx, b.prompt(folded))
		text = strings.TrimSpace(text)
		if err == nil && text != "" {
			return text, nil
		}
		cause = err
		if cause == nil {
			cause = completion.ErrEmptyCompletion
		}
	}

	b.logger.Warn("summarization failed, using placeholder", "error", cause)

	placeholder := Placeholder(len(folded))
	if b.summary != "" {
		placeholder = b.summary + "\n" + placeholder
	}
	return placeholder, fmt.Errorf("%w: %v", ErrSummarize, cause)
}

func (b *Buffer) prompt(folded []Message) string {
	var sb strings.Builder
	sb.WriteString("Summarize the conversation below in a few sentences. ")
	sb.WriteString("Keep the key facts, preferences, goals and commitments the human mentioned.\n\n")
	if b.summary != "" {
		sb.WriteString("Summary so far:\n")
		sb.WriteString(b.summary)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Conversation:\n")
	sb.WriteString(Transcript(folded))
	return sb.String()
}

// Placeholder is the summary line used when no completion is available.
func Placeholder(n int) string {
	return fmt.Sprintf("previous conversation included %d messages", n)
}

// Transcript renders msgs as "Role: text" lines.
func Transcript(msgs []Message) string {
	lines := make([]string, len(msgs))
	for i, m := range msgs {
		lines[i] = m.Role + ": " + m.Text
	}
	return strings.Join(lines, "\n")
}

// Summary returns the folded summary, or "" before the first overflow.
func (b *Buffer) Summary() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.summary
}

// Messages returns a copy of the resident messages, oldest first.
func (b *Buffer) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Message(nil), b.messages...)
}

// Last returns up to n of the newest resident messages, oldest first.
func (b *Buffer) Last(n int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	if n <= 0 {
		return []Message{}
	}
	if n > len(b.messages) {
		n = len(b.messages)
	}
	return append([]Message(nil), b.messages[len(b.messages)-n:]...)
}

// Len reports the number of resident messages.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Max reports the window bound.
func (b *Buffer) Max() int {
	return b.max
}

// Restore replaces the buffer state with a persisted snapshot. Only the
// newest MaxMessages of msgs are kept; positions are renumbered from zero.
func (b *Buffer) Restore(summary string, msgs []Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(msgs) > b.max {
		msgs = msgs[len(msgs)-b.max:]
	}

	b.summary = summary
	b.messages = make([]Message, len(msgs))
	for i, m := range msgs {
		m.Position = i
		b.messages[i] = m
	}
	b.next = len(msgs)
}

// Clear drops every message and the summary.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.messages = nil
	b.summary = ""
	b.next = 0
}
