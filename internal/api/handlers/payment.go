package handlers

import (
	"context"
	"net/http"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/payment"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader lets clients retry top-ups without creating a second intent.
const IdempotencyKeyHeader = "Idempotency-Key"

type PaymentService interface {
	PayWithWallet(ctx context.Context, act actor.Actor, orderID uuid.UUID) (order.Result, error)
	StartCardPayment(ctx context.Context, act actor.Actor, orderID uuid.UUID) (payment.CardPayment, error)
	ConfirmPayment(ctx context.Context, act actor.Actor, intentID string) (payment.Confirmation, error)
	StartTopUp(ctx context.Context, act actor.Actor, req payment.TopUpRequest) (payment.TopUp, error)
}

type PaymentHandler struct {
	service PaymentService
}

func NewPaymentHandler(s PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

// PayWithWallet handles POST /orders/:order_id/payments/wallet.
func (h *PaymentHandler) PayWithWallet(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	res, err := h.service.PayWithWallet(c.Request.Context(), act, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res.Order)
}

// StartCard handles POST /orders/:order_id/payments/card. Calling it again
// for the same order returns the intent already attached.
func (h *PaymentHandler) StartCard(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}
	id, ok := orderIDParam(c)
	if !ok {
		return
	}

	res, err := h.service.StartCardPayment(c.Request.Context(), act, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

type confirmRequest struct {
	PaymentIntentID string `json:"payment_intent_id" binding:"required"`
}

// Confirm handles POST /payments/confirm.
func (h *PaymentHandler) Confirm(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	var req confirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.service.ConfirmPayment(c.Request.Context(), act, req.PaymentIntentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// TopUp handles POST /wallet/topups.
func (h *PaymentHandler) TopUp(c *gin.Context) {
	act, ok := requireActor(c)
	if !ok {
		return
	}

	var req payment.TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}
	req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

	res, err := h.service.StartTopUp(c.Request.Context(), act, req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}
