// Package convlog is the conversation-log collaborator: a durable,
// append-only record of every raw message exchanged with a user.
package convlog

import (
	"context"
	"time"
)

// Log appends and lists raw conversation messages.
type Log interface {
	// AppendMessage records one message for userID.
	AppendMessage(ctx context.Context, userID, role, text string, metadata map[string]any) error

	// History returns up to limit of userID's newest messages, oldest
	// first. A non-positive limit returns every message.
	History(ctx context.Context, userID string, limit int) ([]Entry, error)

	// Close releases any resources held by the log.
	Close() error
}

// Entry is one logged message.
type Entry struct {
	ID        int64          `json:"id"`
	UserID    string         `json:"user_id"`
	Role      string         `json:"role"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}
