package gateway

import "context"

//go:generate mockgen -source port.go -destination mock_port.go -package gateway

// Provider is the card processor boundary.
type Provider interface {
	CreateIntent(ctx context.Context, req IntentRequest) (Intent, error)
	GetIntent(ctx context.Context, intentID string) (Intent, error)
	// VerifyWebhook authenticates a raw webhook body and decodes it into an Event.
	VerifyWebhook(payload []byte, signature string) (Event, error)
}
