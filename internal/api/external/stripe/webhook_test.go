package stripe

import (
	"testing"
	"time"

	"ReelMarket/internal/api/domain/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const succeededPayload = `{
	"id": "evt_1",
	"type": "payment_intent.succeeded",
	"created": 1772366400,
	"data": {"object": {
		"id": "pi_1",
		"status": "succeeded",
		"amount": 2400,
		"currency": "usd",
		"metadata": {"purpose": "order_payment", "order_id": "order-1", "payer_ref": "cust-1"}
	}}
}`

func TestClient_VerifyWebhook(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	client := New(Config{WebhookSecret: "whsec_test", WebhookTolerance: 5 * time.Minute}, nil)
	client.now = func() time.Time { return now }

	t.Run("should decode signed event", func(t *testing.T) {
		payload := []byte(succeededPayload)

		ev, err := client.VerifyWebhook(payload, SignatureHeader("whsec_test", now, payload))

		require.NoError(t, err)
		assert.Equal(t, "evt_1", ev.ID)
		assert.Equal(t, gateway.EventPaymentSucceeded, ev.Kind)
		assert.Equal(t, "pi_1", ev.Intent.ID)
		assert.Equal(t, gateway.IntentSucceeded, ev.Intent.Status)
		assert.Equal(t, "order-1", ev.Intent.OrderID)
		assert.Equal(t, "24.00", ev.Intent.Amount.StringFixed(2))
	})

	t.Run("should accept any matching v1 signature", func(t *testing.T) {
		payload := []byte(succeededPayload)
		header := "v1=deadbeef," + SignatureHeader("whsec_test", now, payload)

		_, err := client.VerifyWebhook(payload, header)

		assert.NoError(t, err)
	})

	testCases := []struct {
		name          string
		payload       string
		header        func(payload []byte) string
		expectedError error
	}{
		{
			name:    "wrong secret",
			payload: succeededPayload,
			header: func(p []byte) string {
				return SignatureHeader("whsec_other", now, p)
			},
			expectedError: gateway.ErrInvalidSignature,
		},
		{
			name:    "stale timestamp",
			payload: succeededPayload,
			header: func(p []byte) string {
				return SignatureHeader("whsec_test", now.Add(-10*time.Minute), p)
			},
			expectedError: gateway.ErrInvalidSignature,
		},
		{
			name:          "missing header parts",
			payload:       succeededPayload,
			header:        func(p []byte) string { return "garbage" },
			expectedError: gateway.ErrInvalidSignature,
		},
		{
			name:    "unknown event type",
			payload: `{"id":"evt_2","type":"charge.refunded","created":1772366400,"data":{"object":{"id":"ch_1"}}}`,
			header: func(p []byte) string {
				return SignatureHeader("whsec_test", now, p)
			},
			expectedError: gateway.ErrUnknownEventKind,
		},
		{
			name:    "signed but not json",
			payload: `not json`,
			header: func(p []byte) string {
				return SignatureHeader("whsec_test", now, p)
			},
			expectedError: gateway.ErrMalformedEvent,
		},
		{
			name:    "unknown purpose",
			payload: `{"id":"evt_3","type":"payment_intent.succeeded","created":1772366400,"data":{"object":{"id":"pi_3","metadata":{"purpose":"donation"}}}}`,
			header: func(p []byte) string {
				return SignatureHeader("whsec_test", now, p)
			},
			expectedError: gateway.ErrMalformedEvent,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			payload := []byte(tc.payload)

			_, err := client.VerifyWebhook(payload, tc.header(payload))

			assert.ErrorIs(t, err, tc.expectedError)
		})
	}
}
