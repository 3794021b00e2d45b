// Package notification delivers committed order notifications to the
// configured sinks.
package notification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/messaging"
	"ReelMarket/pkg/metrics"
)

// KafkaNotifier publishes notifications keyed by customer id, which keeps
// one customer's notifications ordered on a single partition.
type KafkaNotifier struct {
	publisher messaging.Publisher
}

var _ order.Notifier = (*KafkaNotifier)(nil)

func NewKafkaNotifier(publisher messaging.Publisher) *KafkaNotifier {
	return &KafkaNotifier{publisher: publisher}
}

func (n *KafkaNotifier) Notify(ctx context.Context, note order.Notification) error {
	env, err := messaging.NewEnvelope(note.CustomerID.String(), string(note.Kind), note)
	if err != nil {
		return fmt.Errorf("create envelope: %w", err)
	}
	if err := n.publisher.Publish(ctx, env); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Sink is a named notifier; the name labels failure metrics.
type Sink struct {
	Name     string
	Notifier order.Notifier
}

// Fanout delivers to every sink. A failing sink does not stop the others.
type Fanout struct {
	sinks []Sink
}

var _ order.Notifier = (*Fanout)(nil)

func NewFanout(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Notify(ctx context.Context, note order.Notification) error {
	var errs []error
	for _, s := range f.sinks {
		if err := s.Notifier.Notify(ctx, note); err != nil {
			metrics.NotificationsFailedTotal.WithLabelValues(s.Name).Inc()
			slog.WarnContext(ctx, "Notification sink failed",
				"sink", s.Name,
				"order_id", note.OrderID,
				"kind", note.Kind,
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Logging is the sink used when no broker is configured.
type Logging struct{}

func (Logging) Notify(ctx context.Context, note order.Notification) error {
	slog.InfoContext(ctx, "Order notification",
		"kind", note.Kind,
		"order_id", note.OrderID,
		"recipients", note.Recipients)
	return nil
}
