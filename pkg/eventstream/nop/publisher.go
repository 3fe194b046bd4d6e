// Package nop provides the publisher used when no event stream is configured.
package nop

import (
	"context"
	"log/slog"

	"github.com/papercomputeco/keepsake/pkg/eventstream"
	"github.com/papercomputeco/keepsake/pkg/logger"
)

// Publisher drops interaction events after validating them.
type Publisher struct {
	logger *slog.Logger
}

// NewPublisher returns a publisher that logs dropped events at debug level.
// A nil logger discards everything.
func NewPublisher(log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{logger: log}
}

func (p *Publisher) PublishInteraction(_ context.Context, event *eventstream.InteractionRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	p.logger.Debug("event stream disabled, dropping event",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"user", event.UserID,
	)
	return nil
}

func (p *Publisher) Close() error {
	return nil
}
