package webhook

import (
	"context"
	"fmt"

	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/messaging"
)

// AsyncProcessor verifies the signature in the request and publishes the
// decoded event. Events are keyed by intent id so one intent's events stay
// ordered on a partition.
type AsyncProcessor struct {
	verifier  gateway.Provider
	publisher messaging.Publisher
}

func NewAsyncProcessor(verifier gateway.Provider, publisher messaging.Publisher) *AsyncProcessor {
	return &AsyncProcessor{
		verifier:  verifier,
		publisher: publisher,
	}
}

func (p *AsyncProcessor) Process(ctx context.Context, payload []byte, signature string) error {
	ev, err := p.verifier.VerifyWebhook(payload, signature)
	if err != nil {
		return fmt.Errorf("verify webhook: %w", err)
	}

	envelope, err := messaging.NewEnvelope(ev.Intent.ID, EventTypePrefix+string(ev.Kind), ev)
	if err != nil {
		return fmt.Errorf("create envelope: %w", err)
	}
	if err := p.publisher.Publish(ctx, envelope); err != nil {
		return fmt.Errorf("publish payment event: %w", err)
	}
	return nil
}
