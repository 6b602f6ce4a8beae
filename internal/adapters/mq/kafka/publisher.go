// Package kafka publishes ingested radar events to a Kafka topic as JSON.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/okian/radar/internal/domain/model"
	"github.com/okian/radar/pkg/logger"
)

const (
	defaultWriteTimeout = 5 * time.Second
	defaultMaxAttempts  = 3
	retryBackoff        = 200 * time.Millisecond
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes one message per event, keyed by entity id so every
// event of an entity lands on the same partition.
type Publisher struct {
	w            MessageWriter
	writeTimeout time.Duration
	maxAttempts  int
	log          logger.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithWriteTimeout bounds a single write attempt.
func WithWriteTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		if d > 0 {
			p.writeTimeout = d
		}
	}
}

// WithMaxAttempts sets how many times a write is tried on leader errors.
func WithMaxAttempts(n int) Option {
	return func(p *Publisher) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithLogger sets the publisher logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Publisher) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPublisher connects a synchronous writer to topic on brokers.
func NewPublisher(brokers []string, topic string, opts ...Option) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireOne,
		Async:        false,
	}
	return NewPublisherWithWriter(w, opts...)
}

// NewPublisherWithWriter wraps an existing writer.
func NewPublisherWithWriter(w MessageWriter, opts ...Option) *Publisher {
	p := &Publisher{w: w, writeTimeout: defaultWriteTimeout, maxAttempts: defaultMaxAttempts, log: logger.Nop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Message builds the Kafka message for e.
func Message(e model.Event) (kafkago.Message, error) {
	body, err := json.Marshal(e)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("encode event %s: %w", e.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(e.EntityID),
		Value: body,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(e.Source)},
			{Key: "type", Value: []byte(e.Type)},
		},
		Time: e.CreatedAt,
	}, nil
}

// Publish writes e, retrying while the partition leader is unavailable.
func (p *Publisher) Publish(ctx context.Context, e model.Event) error {
	msg, err := Message(e)
	if err != nil {
		return err
	}

	var writeErr error
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * retryBackoff):
			}
			p.log.Debug(ctx, "retrying event publish", logger.Int("attempt", attempt), logger.String("event_id", e.ID))
		}
		writeCtx, cancel := context.WithTimeout(ctx, p.writeTimeout)
		writeErr = p.w.WriteMessages(writeCtx, msg)
		cancel()
		if writeErr == nil {
			return nil
		}
		if !retryable(writeErr) {
			break
		}
	}
	return fmt.Errorf("publish event %s: %w", e.ID, writeErr)
}

func retryable(err error) bool {
	return errors.Is(err, kafkago.NotLeaderForPartition) || errors.Is(err, kafkago.LeaderNotAvailable)
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error { return p.w.Close() }
