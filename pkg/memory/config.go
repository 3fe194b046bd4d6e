package memory

import (
	"context"
	"log/slog"
	"time"

	"github.com/papercomputeco/keepsake/pkg/completion"
	"github.com/papercomputeco/keepsake/pkg/convlog"
	"github.com/papercomputeco/keepsake/pkg/episodic"
	"github.com/papercomputeco/keepsake/pkg/importance"
	"github.com/papercomputeco/keepsake/pkg/profile"
	"github.com/papercomputeco/keepsake/pkg/semantic"
	"github.com/papercomputeco/keepsake/pkg/worker"
)

// Defaults applied by New for zero-valued Config fields.
const (
	DefaultBufferSize          = 20
	DefaultEpisodicInterval    = 3
	DefaultConsolidateInterval = 10
	DefaultEpisodicCapacity    = episodic.DefaultCapacity
	DefaultRecentMessages      = 10
	DefaultContextMessages     = 6
	DefaultSemanticHits        = 3
	DefaultHitLength           = 200
	DefaultInsightWindow       = 10
	DefaultExportLimit         = 50

	DefaultSessionTTL = 300 * time.Second
	DefaultFastTTL    = 180 * time.Second
	DefaultProfileTTL = 600 * time.Second

	// FastKeyPrefix is the number of message characters hashed into a
	// fast-context cache key.
	FastKeyPrefix = 100
)

// EventQueue accepts interaction events for asynchronous delivery.
// *worker.Pool satisfies it.
type EventQueue interface {
	Enqueue(job worker.Job) bool
}

// ConsolidateFunc is invoked every ConsolidateInterval interactions.
type ConsolidateFunc func(ctx context.Context, userID string) error

// Config holds the collaborators and tunables of an Orchestrator.
type Config struct {
	// Store is the semantic memory selected at startup. Required.
	Store semantic.Store

	// UsingRemoteStore records whether Store is the remote vector store.
	UsingRemoteStore bool

	// Profiles persists profile and episodic files. Required.
	Profiles *profile.Store

	// Completer is used by buffers to summarize. Optional.
	Completer completion.Completer

	// ConversationLog receives every raw message. Defaults to a no-op log.
	ConversationLog convlog.Log

	// Events receives one event per recorded interaction. Optional.
	Events EventQueue

	Scorer    *importance.Scorer
	Extractor *episodic.Extractor

	BufferSize          int
	EpisodicInterval    int
	ConsolidateInterval int
	EpisodicCapacity    int
	RecentMessages      int
	ContextMessages     int
	SemanticHits        int
	HitLength           int
	InsightWindow       int
	ExportLimit         int

	// ExportQuery is the search used to collect semantic hits for an export.
	ExportQuery string

	SessionTTL time.Duration
	FastTTL    time.Duration
	ProfileTTL time.Duration

	// Consolidate defaults to a no-op.
	Consolidate ConsolidateFunc

	// Clock defaults to time.Now.
	Clock func() time.Time

	Logger *slog.Logger
}

// DefaultExportQuery is used when Config.ExportQuery is empty.
const DefaultExportQuery = "conversation memories preferences goals"

func intOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func durationOr(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}
