package stripe

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"ReelMarket/internal/api/domain/gateway"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{
		BaseURL:          srv.URL,
		SecretKey:        "sk_test_123",
		WebhookSecret:    "whsec_test",
		WebhookTolerance: 5 * time.Minute,
	}, srv.Client())
}

func TestClient_CreateIntent(t *testing.T) {
	t.Run("should send form and parse intent", func(t *testing.T) {
		var (
			form    url.Values
			headers http.Header
		)
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/v1/payment_intents", r.URL.Path)
			headers = r.Header.Clone()
			body, _ := io.ReadAll(r.Body)
			form, _ = url.ParseQuery(string(body))

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"id": "pi_123",
				"status": "requires_payment_method",
				"amount": 2400,
				"currency": "usd",
				"client_secret": "pi_123_secret",
				"metadata": {"purpose": "order_payment", "order_id": "order-1", "payer_ref": "cust-1"}
			}`))
		})

		// when
		intent, err := client.CreateIntent(context.Background(), gateway.IntentRequest{
			Amount:         decimal.RequireFromString("24.00"),
			Currency:       "USD",
			PayerRef:       "cust-1",
			Purpose:        gateway.PurposeOrderPayment,
			OrderID:        "order-1",
			Description:    "Birria tacos x2",
			IdempotencyKey: "order:order-1:intent",
		})

		// then
		require.NoError(t, err)
		assert.Equal(t, "Bearer sk_test_123", headers.Get("Authorization"))
		assert.Equal(t, "order:order-1:intent", headers.Get("Idempotency-Key"))
		assert.Equal(t, "application/x-www-form-urlencoded", headers.Get("Content-Type"))
		assert.Equal(t, "2400", form.Get("amount"))
		assert.Equal(t, "usd", form.Get("currency"))
		assert.Equal(t, "order_payment", form.Get("metadata[purpose]"))
		assert.Equal(t, "order-1", form.Get("metadata[order_id]"))
		assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))

		assert.Equal(t, "pi_123", intent.ID)
		assert.Equal(t, gateway.IntentRequiresPaymentMethod, intent.Status)
		assert.True(t, intent.Amount.Equal(decimal.RequireFromString("24.00")))
		assert.Equal(t, "USD", intent.Currency)
		assert.Equal(t, gateway.PurposeOrderPayment, intent.Purpose)
		assert.Equal(t, "pi_123_secret", intent.ClientSecret)
	})

	t.Run("should reject sub-cent amount before calling gateway", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("gateway must not be called")
		})

		_, err := client.CreateIntent(context.Background(), gateway.IntentRequest{
			Amount:   decimal.RequireFromString("1.005"),
			Currency: "USD",
			Purpose:  gateway.PurposeWalletTopUp,
		})

		assert.ErrorIs(t, err, gateway.ErrRejected)
	})

	testCases := []struct {
		name          string
		status        int
		body          string
		expectedError error
	}{
		{
			name:          "server error is retryable",
			status:        http.StatusBadGateway,
			body:          `oops`,
			expectedError: gateway.ErrUnavailable,
		},
		{
			name:          "rate limit is retryable",
			status:        http.StatusTooManyRequests,
			body:          `{"error": {"message": "slow down"}}`,
			expectedError: gateway.ErrUnavailable,
		},
		{
			name:          "card error is rejected",
			status:        http.StatusPaymentRequired,
			body:          `{"error": {"type": "card_error", "message": "Your card was declined."}}`,
			expectedError: gateway.ErrRejected,
		},
		{
			name:          "garbled success body",
			status:        http.StatusOK,
			body:          `{`,
			expectedError: gateway.ErrUnavailable,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			_, err := client.CreateIntent(context.Background(), gateway.IntentRequest{
				Amount:   decimal.RequireFromString("5.00"),
				Currency: "USD",
				Purpose:  gateway.PurposeWalletTopUp,
			})

			assert.ErrorIs(t, err, tc.expectedError)
		})
	}

	t.Run("should surface provider message", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "Invalid currency: xyz"}}`))
		})

		_, err := client.CreateIntent(context.Background(), gateway.IntentRequest{
			Amount:   decimal.RequireFromString("5.00"),
			Currency: "XYZ",
			Purpose:  gateway.PurposeWalletTopUp,
		})

		assert.EqualError(t, err, "payment gateway rejected request: 400 Bad Request: Invalid currency: xyz")
	})
}

func TestClient_GetIntent(t *testing.T) {
	t.Run("should fetch intent with last error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/v1/payment_intents/pi_9", r.URL.Path)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":                 "pi_9",
				"status":             "requires_payment_method",
				"amount":             1999,
				"currency":           "usd",
				"metadata":           map[string]string{"purpose": "wallet_topup", "payer_ref": "cust-2"},
				"last_payment_error": map[string]string{"message": "insufficient funds on card"},
			})
		})

		intent, err := client.GetIntent(context.Background(), "pi_9")

		require.NoError(t, err)
		assert.Equal(t, "19.99", intent.Amount.StringFixed(2))
		assert.Equal(t, gateway.PurposeWalletTopUp, intent.Purpose)
		assert.Equal(t, "cust-2", intent.PayerRef)
		assert.Equal(t, "insufficient funds on card", intent.LastError)
	})

	t.Run("should map 404 to ErrIntentNotFound", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})

		_, err := client.GetIntent(context.Background(), "pi_missing")

		assert.ErrorIs(t, err, gateway.ErrIntentNotFound)
	})

	t.Run("should map transport failure to ErrUnavailable", func(t *testing.T) {
		client := New(Config{BaseURL: "http://127.0.0.1:1"}, &http.Client{Timeout: time.Second})

		_, err := client.GetIntent(context.Background(), "pi_1")

		assert.ErrorIs(t, err, gateway.ErrUnavailable)
	})
}
