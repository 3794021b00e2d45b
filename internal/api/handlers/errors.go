package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"ReelMarket/internal/api/auth"
	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/payment"
	"ReelMarket/internal/api/domain/wallet"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type errorClass struct {
	status    int
	retryable bool
}

// classify maps domain errors to HTTP answers. The first match wins, so the
// more specific sentinels come first.
func classify(err error) errorClass {
	switch {
	case errors.Is(err, order.ErrInvalidInput),
		errors.Is(err, order.ErrInvalidQuery),
		errors.Is(err, order.ErrReelInactive),
		errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrInvalidTransfer),
		errors.Is(err, payment.ErrInvalidTopUp),
		errors.Is(err, gateway.ErrInvalidSignature),
		errors.Is(err, gateway.ErrMalformedEvent),
		errors.Is(err, actor.ErrInvalidRole):
		return errorClass{status: http.StatusBadRequest}
	case errors.Is(err, order.ErrForbidden),
		errors.Is(err, order.ErrIntentMismatch):
		return errorClass{status: http.StatusForbidden}
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrReelNotFound),
		errors.Is(err, wallet.ErrAccountNotFound),
		errors.Is(err, gateway.ErrIntentNotFound):
		return errorClass{status: http.StatusNotFound}
	case errors.Is(err, order.ErrStatusConflict):
		return errorClass{status: http.StatusConflict, retryable: true}
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, order.ErrInFinalStatus),
		errors.Is(err, order.ErrPaymentRequired),
		errors.Is(err, order.ErrAlreadyExists),
		errors.Is(err, payment.ErrAmountMismatch):
		return errorClass{status: http.StatusConflict}
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return errorClass{status: http.StatusPaymentRequired}
	case errors.Is(err, payment.ErrPaymentNotSucceeded),
		errors.Is(err, gateway.ErrRejected):
		return errorClass{status: http.StatusUnprocessableEntity}
	case errors.Is(err, gateway.ErrUnavailable):
		return errorClass{status: http.StatusServiceUnavailable, retryable: true}
	default:
		return errorClass{status: http.StatusInternalServerError, retryable: true}
	}
}

func respondError(c *gin.Context, err error) {
	class := classify(err)
	if class.status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "Request failed",
			"path", c.FullPath(),
			"error", err)
	}
	c.JSON(class.status, errorResponse{Message: err.Error(), Retryable: class.retryable})
}

func respondBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, errorResponse{Message: message})
}

// requireActor is a guard for handlers mounted behind auth.Middleware.
func requireActor(c *gin.Context) (actor.Actor, bool) {
	act, ok := auth.ActorFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse{Message: "missing credentials"})
		return actor.Actor{}, false
	}
	return act, true
}
