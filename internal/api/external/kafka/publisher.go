package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"ReelMarket/internal/api/messaging"
	"ReelMarket/pkg/correlation"
	"ReelMarket/pkg/metrics"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the publishers use.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher implements messaging.Publisher using Kafka.
type Publisher struct {
	writer MessageWriter
	topic  string
}

var _ messaging.Publisher = (*Publisher)(nil)

// NewPublisher creates a publisher that hashes message keys onto partitions,
// so all messages for one key stay ordered.
func NewPublisher(brokers []string, topic string) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}, topic)
}

func NewPublisherWithWriter(w MessageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

// Publish sends an envelope with the correlation id of ctx as a header.
func (p *Publisher) Publish(ctx context.Context, env messaging.Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(env.Key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(env.Type)},
		},
	}

	if corrID := correlation.FromContext(ctx); corrID != "" {
		msg.Headers = append(msg.Headers, kafka.Header{
			Key:   correlation.KafkaHeaderName,
			Value: []byte(corrID),
		})
	}

	err = p.writer.WriteMessages(ctx, msg)
	metrics.KafkaMessagesPublished.WithLabelValues(p.topic, metrics.Outcome(err)).Inc()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish message",
			"topic", p.topic,
			"key", env.Key,
			slog.Any("error", err))
		return fmt.Errorf("write message: %w", err)
	}

	slog.DebugContext(ctx, "Message published",
		"topic", p.topic,
		"key", env.Key,
		"event_id", env.EventID,
		"type", env.Type)
	return nil
}

// Close closes the Kafka writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
