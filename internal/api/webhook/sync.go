package webhook

import "context"

// SyncProcessor applies the webhook inside the HTTP request.
type SyncProcessor struct {
	payments Payments
}

func NewSyncProcessor(payments Payments) *SyncProcessor {
	return &SyncProcessor{payments: payments}
}

func (p *SyncProcessor) Process(ctx context.Context, payload []byte, signature string) error {
	return p.payments.HandleWebhook(ctx, payload, signature)
}
