package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/domain/order"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestWebhookHandler_Payments(t *testing.T) {
	payload := `{"id":"evt_1","type":"payment_intent.succeeded"}`

	testCases := []struct {
		name           string
		processErr     error
		expectedStatus int
		expectedBody   string
	}{
		{name: "applied", expectedStatus: http.StatusOK, expectedBody: `{"received":true}`},
		{name: "unsupported event kind", processErr: fmt.Errorf("verify webhook: %w", gateway.ErrUnknownEventKind), expectedStatus: http.StatusOK, expectedBody: `{"received":true}`},
		{name: "foreign intent purpose", processErr: gateway.ErrUnknownPurpose, expectedStatus: http.StatusOK, expectedBody: `{"received":true}`},
		{name: "bad signature", processErr: fmt.Errorf("verify webhook: %w", gateway.ErrInvalidSignature), expectedStatus: http.StatusBadRequest},
		{name: "order moved concurrently", processErr: order.ErrStatusConflict, expectedStatus: http.StatusConflict},
		{name: "gateway down", processErr: gateway.ErrUnavailable, expectedStatus: http.StatusServiceUnavailable},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			p := &fakeProcessor{
				process: func(body []byte, sig string) error {
					assert.Equal(t, payload, string(body))
					assert.Equal(t, "t=1,v1=abc", sig)
					return tc.processErr
				},
			}
			engine := gin.New()
			engine.POST("/webhooks/payments", NewWebhookHandler(p).Payments)

			req := httptest.NewRequest(http.MethodPost, "/webhooks/payments", strings.NewReader(payload))
			req.Header.Set(SignatureHeader, "t=1,v1=abc")
			w := httptest.NewRecorder()

			// when
			engine.ServeHTTP(w, req)

			// then
			assert.Equal(t, tc.expectedStatus, w.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, w.Body.String())
			}
		})
	}
}
