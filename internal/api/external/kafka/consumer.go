package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"ReelMarket/internal/api/messaging"
	"ReelMarket/pkg/correlation"

	"github.com/segmentio/kafka-go"
)

const (
	commitTimeout = 5 * time.Second

	redeliverBackoff    = 500 * time.Millisecond
	maxRedeliverBackoff = 30 * time.Second
)

// MessageReader is the subset of *kafka.Reader the consumer drives.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Config() kafka.ReaderConfig
	Close() error
}

// Consumer implements messaging.Worker on one consumer-group reader.
//
// Offsets are committed only after the handler accepts a message. A message
// the handler rejects is handed back to it with growing backoff: committing a
// later offset would skip it, and a skipped payment event leaves an order
// stuck in PENDING_PAYMENT.
type Consumer struct {
	reader MessageReader
}

var _ messaging.Worker = (*Consumer)(nil)

func NewConsumer(brokers []string, topic, groupID string) *Consumer {
	return NewConsumerWithReader(kafka.NewReader(kafka.ReaderConfig{
		Brokers:          brokers,
		Topic:            topic,
		GroupID:          groupID,
		MinBytes:         1,
		MaxBytes:         10e6,
		CommitInterval:   0,
		StartOffset:      kafka.FirstOffset,
		MaxWait:          500 * time.Millisecond,
		RebalanceTimeout: 5 * time.Second,
	}))
}

func NewConsumerWithReader(r MessageReader) *Consumer {
	return &Consumer{reader: r}
}

// Start blocks until ctx is cancelled or the reader fails.
func (c *Consumer) Start(ctx context.Context, handler messaging.MessageHandler) error {
	cfg := c.reader.Config()
	slog.InfoContext(ctx, "Consumer started", "topic", cfg.Topic, "group_id", cfg.GroupID)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				slog.Info("Consumer stopped", "topic", cfg.Topic)
				return nil
			}
			return fmt.Errorf("fetch message: %w", err)
		}

		msgCtx := extractCorrelationID(ctx, msg.Headers)
		if !c.handleUntilAccepted(msgCtx, handler, msg) {
			slog.Info("Consumer stopped with message in flight",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset)
			return nil
		}
		c.commit(msgCtx, msg)
	}
}

// handleUntilAccepted returns false when ctx ends before the handler accepts msg.
func (c *Consumer) handleUntilAccepted(ctx context.Context, handler messaging.MessageHandler, msg kafka.Message) bool {
	backoff := redeliverBackoff
	for attempt := 1; ; attempt++ {
		err := handler(ctx, msg.Key, msg.Value)
		if err == nil {
			return true
		}

		slog.ErrorContext(ctx, "Message rejected, redelivering",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"backoff", backoff,
			slog.Any("error", err))

		select {
		case <-ctx.Done():
			return false
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxRedeliverBackoff)
	}
}

// commit survives shutdown of the consume loop. A lost commit only means a
// redelivery, which payment events tolerate.
func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	if err := c.reader.CommitMessages(commitCtx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to commit message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			slog.Any("error", err))
		return
	}
	slog.DebugContext(ctx, "Message committed",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset)
}

func (c *Consumer) Close() error {
	cfg := c.reader.Config()
	slog.Info("Closing consumer", "topic", cfg.Topic, "group_id", cfg.GroupID)
	return c.reader.Close()
}

// extractCorrelationID continues the publisher's correlation id, minting one
// for messages produced without it.
func extractCorrelationID(ctx context.Context, headers []kafka.Header) context.Context {
	for _, h := range headers {
		if h.Key == correlation.KafkaHeaderName {
			return correlation.WithID(ctx, string(h.Value))
		}
	}
	return correlation.WithID(ctx, correlation.NewID())
}
