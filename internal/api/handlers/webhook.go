package handlers

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/webhook"

	"github.com/gin-gonic/gin"
)

const (
	SignatureHeader = "Stripe-Signature"

	maxWebhookBody = 1 << 16
)

type WebhookHandler struct {
	processor webhook.Processor
}

func NewWebhookHandler(p webhook.Processor) *WebhookHandler {
	return &WebhookHandler{processor: p}
}

// Payments handles POST /webhooks/payments. The raw body is needed for the
// signature, so it is never bound through gin.
func (h *WebhookHandler) Payments(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		respondBadRequest(c, "read body: "+err.Error())
		return
	}

	err = h.processor.Process(c.Request.Context(), payload, c.GetHeader(SignatureHeader))
	if errors.Is(err, gateway.ErrUnknownEventKind) || errors.Is(err, gateway.ErrUnknownPurpose) {
		slog.InfoContext(c.Request.Context(), "Ignoring unsupported gateway event", "error", err)
		err = nil
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
