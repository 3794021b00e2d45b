package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/messaging"
	"ReelMarket/internal/api/webhook"
)

// PaymentEventApplier is satisfied by *payment.PaymentService.
type PaymentEventApplier interface {
	ApplyEvent(ctx context.Context, ev gateway.Event) error
}

// PaymentEventController handles verified gateway events from Kafka.
type PaymentEventController struct {
	payments PaymentEventApplier
}

func NewPaymentEventController(payments PaymentEventApplier) *PaymentEventController {
	return &PaymentEventController{payments: payments}
}

// HandleMessage applies one event. Replays are no-ops in the payment service,
// so redelivery is safe; undecodable messages are permanent failures.
func (c *PaymentEventController) HandleMessage(ctx context.Context, key, value []byte) error {
	var env messaging.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal envelope", "key", string(key), slog.Any("error", err))
		return fmt.Errorf("%w: unmarshal envelope: %s", messaging.ErrPermanent, err.Error())
	}
	if !strings.HasPrefix(env.Type, webhook.EventTypePrefix) {
		return fmt.Errorf("%w: unexpected message type %q", messaging.ErrPermanent, env.Type)
	}

	var ev gateway.Event
	if err := json.Unmarshal(env.Payload, &ev); err != nil {
		slog.ErrorContext(ctx, "Failed to unmarshal payment event", "event_id", env.EventID, slog.Any("error", err))
		return fmt.Errorf("%w: unmarshal payment event: %s", messaging.ErrPermanent, err.Error())
	}

	slog.DebugContext(ctx, "Processing payment event",
		"envelope_id", env.EventID,
		"event_id", ev.ID,
		"kind", ev.Kind,
		"payment_intent_id", ev.Intent.ID)

	err := c.payments.ApplyEvent(ctx, ev)
	switch {
	case err == nil:
	case errors.Is(err, order.ErrEventAlreadyStored):
		slog.InfoContext(ctx, "Duplicate payment event ignored", "event_id", ev.ID)
		return nil
	case errors.Is(err, gateway.ErrUnknownEventKind),
		errors.Is(err, gateway.ErrUnknownPurpose),
		errors.Is(err, gateway.ErrMalformedEvent),
		errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInFinalStatus):
		slog.WarnContext(ctx, "Payment event cannot be applied", "event_id", ev.ID, slog.Any("error", err))
		return fmt.Errorf("%w: %s", messaging.ErrPermanent, err.Error())
	default:
		slog.ErrorContext(ctx, "Failed to apply payment event", "event_id", ev.ID, slog.Any("error", err))
		return err
	}

	slog.InfoContext(ctx, "Payment event applied",
		"event_id", ev.ID,
		"kind", ev.Kind,
		"payment_intent_id", ev.Intent.ID)
	return nil
}
