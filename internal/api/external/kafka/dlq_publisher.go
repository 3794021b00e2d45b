package kafka

import (
	"context"
	"log/slog"
	"time"

	"ReelMarket/internal/api/messaging"
	"ReelMarket/pkg/correlation"
	"ReelMarket/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// DLQPublisher publishes failed messages to a Dead Letter Queue topic.
type DLQPublisher struct {
	writer MessageWriter
	topic  string
	now    func() time.Time
}

var _ messaging.DLQPublisher = (*DLQPublisher)(nil)

// NewDLQPublisher creates a new DLQ publisher.
func NewDLQPublisher(brokers []string, dlqTopic string) *DLQPublisher {
	return NewDLQPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        dlqTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, dlqTopic)
}

func NewDLQPublisherWithWriter(w MessageWriter, dlqTopic string) *DLQPublisher {
	return &DLQPublisher{writer: w, topic: dlqTopic, now: time.Now}
}

// PublishToDLQ sends a failed message to DLQ with error information in headers.
func (p *DLQPublisher) PublishToDLQ(ctx context.Context, key, value []byte, err error) error {
	msg := kafka.Message{
		Key:   key,
		Value: value,
		Headers: []kafka.Header{
			{Key: "error", Value: []byte(err.Error())},
			{Key: "failed_at", Value: []byte(p.now().UTC().Format(time.RFC3339))},
		},
	}
	if corrID := correlation.FromContext(ctx); corrID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{Key: correlation.KafkaHeaderName, Value: []byte(corrID)})
	}

	writeErr := p.writer.WriteMessages(ctx, msg)
	metrics.KafkaMessagesPublished.WithLabelValues(p.topic, metrics.Outcome(writeErr)).Inc()
	if writeErr != nil {
		slog.ErrorContext(ctx, "Failed to publish to DLQ",
			"topic", p.topic,
			"key", string(key),
			slog.Any("error", writeErr),
			slog.Any("original_error", err))
		return writeErr
	}

	slog.WarnContext(ctx, "Message sent to DLQ",
		"topic", p.topic,
		"key", string(key),
		slog.Any("error", err))
	return nil
}

// Close closes the DLQ writer.
func (p *DLQPublisher) Close() error {
	return p.writer.Close()
}
