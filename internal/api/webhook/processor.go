// Package webhook routes verified gateway notifications either straight into
// the payment service or through Kafka.
package webhook

import (
	"context"

	"ReelMarket/internal/api/domain/gateway"
)

// EventTypePrefix namespaces gateway events inside messaging envelopes.
const EventTypePrefix = "gateway."

// Processor handles one raw webhook delivery.
type Processor interface {
	Process(ctx context.Context, payload []byte, signature string) error
}

// Payments is the part of the payment service the processors drive.
type Payments interface {
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	ApplyEvent(ctx context.Context, ev gateway.Event) error
}
