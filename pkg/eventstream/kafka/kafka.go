// Package kafka publishes interaction events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/keepsake/pkg/eventstream"
	"github.com/papercomputeco/keepsake/pkg/logger"
)

const (
	// DefaultTopic is used when no topic is configured.
	DefaultTopic = "keepsake.interactions"

	defaultWriteTimeout = 10 * time.Second

	headerEventType     = "event_type"
	headerSchemaVersion = "schema_version"
)

// ErrNoBrokers is returned when no broker address is configured.
var ErrNoBrokers = errors.New("kafka publisher requires at least one broker")

// Writer is the subset of *kafka.Writer used by the publisher.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config configures the Kafka publisher.
type Config struct {
	Brokers      []string
	Topic        string
	WriteTimeout time.Duration
}

// Publisher writes each event as one JSON message keyed by user id,
// so a user's events stay ordered within a partition.
type Publisher struct {
	writer Writer
	topic  string
	log    *slog.Logger
}

// NewPublisher creates a publisher backed by a kafka-go Writer.
func NewPublisher(c Config, log *slog.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if c.Topic == "" {
		c.Topic = DefaultTopic
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		WriteTimeout:           c.WriteTimeout,
	}

	return NewPublisherWithWriter(w, c.Topic, log), nil
}

// NewPublisherWithWriter wraps an existing Writer.
func NewPublisherWithWriter(w Writer, topic string, log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{writer: w, topic: topic, log: log}
}

// PublishInteraction serializes the event and writes it to the topic.
func (p *Publisher) PublishInteraction(ctx context.Context, event *eventstream.InteractionRecordedEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal interaction event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.UserID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: headerEventType, Value: []byte(event.EventType)},
			{Key: headerSchemaVersion, Value: []byte(fmt.Sprintf("%d", event.SchemaVersion))},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write interaction event to %s: %w", p.topic, err)
	}

	p.log.Debug("published interaction event", "topic", p.topic, "event_id", event.EventID, "user", event.UserID)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
