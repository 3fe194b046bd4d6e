// Package semantic defines the long-term memory store contract shared by the
// remote vector-database store and the local JSON fallback.
//
// Every record belongs to exactly one user namespace. Implementations must
// never return one user's records from another user's Search.
package semantic

import (
	"context"
	"time"
)

// Store is a per-user semantic memory.
type Store interface {
	// Store persists text with metadata for userID and returns the new
	// record's opaque id.
	Store(ctx context.Context, userID, text string, metadata map[string]any) (string, error)

	// Search returns up to topK records for userID, most relevant first.
	Search(ctx context.Context, userID, query string, topK int) ([]Result, error)

	// Stats describes the records held for userID.
	Stats(ctx context.Context, userID string) (Stats, error)

	// DeleteAll removes every record held for userID.
	DeleteAll(ctx context.Context, userID string) error

	// Close releases any resources held by the store.
	Close() error
}

// Result is a single search hit.
type Result struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Stats holds per-user store statistics.
type Stats struct {
	Count int `json:"count"`
}

// Record is the persisted form of a memory.
type Record struct {
	ID        string         `json:"id"`
	Namespace string         `json:"namespace"`
	Text      string         `json:"text"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Metadata keys every store adds to a record.
const (
	MetaText      = "text"
	MetaTimestamp = "timestamp"
	MetaUser      = "user"
	MetaType      = "type"
)

// Record types written by the orchestrator.
const (
	TypeConversation = "conversation"
	TypeEpisodic     = "episodic"
)

// Namespace derives the partition key for userID.
func Namespace(userID string) string {
	return "user-" + userID
}

// Validate checks the arguments every Store call shares.
func Validate(userID string) error {
	if userID == "" {
		return ErrEmptyUser
	}
	return nil
}
