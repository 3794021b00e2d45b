package gateway

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type IntentStatus string

const (
	IntentRequiresPaymentMethod IntentStatus = "requires_payment_method"
	IntentRequiresConfirmation  IntentStatus = "requires_confirmation"
	IntentRequiresAction        IntentStatus = "requires_action"
	IntentProcessing            IntentStatus = "processing"
	IntentSucceeded             IntentStatus = "succeeded"
	IntentCanceled              IntentStatus = "canceled"
)

// Reusable reports whether the customer can still complete this intent.
func (s IntentStatus) Reusable() bool {
	switch s {
	case IntentRequiresPaymentMethod, IntentRequiresConfirmation, IntentRequiresAction, IntentProcessing:
		return true
	default:
		return false
	}
}

// Purpose tells reconciliation which ledger flow an intent belongs to.
// It travels in the intent metadata.
type Purpose string

const (
	PurposeOrderPayment Purpose = "order_payment"
	PurposeWalletTopUp  Purpose = "wallet_topup"
)

func ParsePurpose(raw string) (Purpose, error) {
	switch Purpose(raw) {
	case PurposeOrderPayment, PurposeWalletTopUp:
		return Purpose(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPurpose, raw)
	}
}

type IntentRequest struct {
	Amount         decimal.Decimal
	Currency       string
	PayerRef       string
	Purpose        Purpose
	OrderID        string
	Description    string
	IdempotencyKey string
}

type Intent struct {
	ID           string          `json:"id"`
	Status       IntentStatus    `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ClientSecret string          `json:"-"`
	Purpose      Purpose         `json:"purpose"`
	OrderID      string          `json:"order_id,omitempty"`
	PayerRef     string          `json:"payer_ref,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
}

type EventKind string

const (
	EventPaymentSucceeded EventKind = "payment_intent.succeeded"
	EventPaymentFailed    EventKind = "payment_intent.payment_failed"
	EventPaymentCanceled  EventKind = "payment_intent.canceled"
)

func ParseEventKind(raw string) (EventKind, error) {
	switch EventKind(raw) {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled:
		return EventKind(raw), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, raw)
	}
}

// Event is a verified gateway notification about one intent.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Intent    Intent    `json:"intent"`
	CreatedAt time.Time `json:"created_at"`
}
