// Package eventstream publishes memory pipeline events to a stream backend.
package eventstream

import "context"

// Publisher publishes interaction events to an event stream backend.
type Publisher interface {
	PublishInteraction(ctx context.Context, event *InteractionRecordedEvent) error
	Close() error
}
