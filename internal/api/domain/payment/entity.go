package payment

import (
	"ReelMarket/internal/api/domain/gateway"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/wallet"

	"github.com/shopspring/decimal"
)

// Confirmation sources recorded on the paid event and in metrics.
const (
	SourceWallet    = "wallet"
	SourceConfirm   = "confirm"
	SourceWebhook   = "webhook"
	SourceReconcile = "reconcile"
)

var (
	MinTopUp = decimal.RequireFromString("1.00")
	MaxTopUp = decimal.RequireFromString("500.00")
)

type CardPayment struct {
	Order           order.Order          `json:"order"`
	PaymentIntentID string               `json:"payment_intent_id"`
	ClientSecret    string               `json:"client_secret"`
	Status          gateway.IntentStatus `json:"status"`
}

type TopUpRequest struct {
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	IdempotencyKey string          `json:"-"`
}

type TopUp struct {
	PaymentIntentID string               `json:"payment_intent_id"`
	ClientSecret    string               `json:"client_secret"`
	Amount          decimal.Decimal      `json:"amount"`
	Currency        string               `json:"currency"`
	Status          gateway.IntentStatus `json:"status"`
}

// Confirmation is the outcome of applying one intent state. Applied is false
// when the intent is still in flight or the change was already recorded.
type Confirmation struct {
	Purpose gateway.Purpose      `json:"purpose"`
	Status  gateway.IntentStatus `json:"status"`
	Order   *order.Order         `json:"order,omitempty"`
	Wallet  *wallet.Result       `json:"wallet,omitempty"`
	Applied bool                 `json:"applied"`
}

type ReconcileReport struct {
	Scanned int `json:"scanned"`
	Paid    int `json:"paid"`
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
	Errors  int `json:"errors"`
}
