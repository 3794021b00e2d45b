package wallet

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeDeposit    TransactionType = "deposit"
	TypePayment    TransactionType = "payment"
	TypeRefund     TransactionType = "refund"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeTransfer   TransactionType = "transfer"
	TypeFee        TransactionType = "fee"
)

type TransactionStatus string

const (
	StatusPending   TransactionStatus = "pending"
	StatusCompleted TransactionStatus = "completed"
	StatusFailed    TransactionStatus = "failed"
	StatusCancelled TransactionStatus = "cancelled"
)

// Direction carries the sign of a movement; amounts are never negative.
type Direction string

const (
	Debit  Direction = "debit"
	Credit Direction = "credit"
)

// Funding tells a refund where the customer's money currently sits.
type Funding string

const (
	// FundingWallet: the order was paid from the wallet, funds are in escrow or
	// already settled to the restaurant.
	FundingWallet Funding = "wallet"
	// FundingExternal: the order was paid by card, the refund is store credit.
	FundingExternal Funding = "external"
)

type Account struct {
	UserID    uuid.UUID       `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	AccountID       uuid.UUID         `json:"account_id"`
	Type            TransactionType   `json:"type"`
	Status          TransactionStatus `json:"status"`
	Direction       Direction         `json:"direction"`
	Amount          decimal.Decimal   `json:"amount"`
	Currency        string            `json:"currency"`
	OrderID         *string           `json:"order_id,omitempty"`
	PaymentIntentID *string           `json:"payment_intent_id,omitempty"`
	IdempotencyKey  string            `json:"idempotency_key"`
	BalanceBefore   decimal.Decimal   `json:"balance_before"`
	BalanceAfter    decimal.Decimal   `json:"balance_after"`
	Description     string            `json:"description"`
	FailureReason   *string           `json:"failure_reason,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// Posting is one leg the repository applies atomically: balance update plus
// the transaction row.
type Posting struct {
	AccountID       uuid.UUID
	Direction       Direction
	Type            TransactionType
	Amount          decimal.Decimal
	Currency        string
	OrderID         *string
	PaymentIntentID *string
	IdempotencyKey  string
	Description     string
}

// ValidateAmount accepts strictly positive amounts with at most two fraction digits.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: must be positive, got %s", ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: more than two fraction digits in %s", ErrInvalidAmount, amount)
	}
	return nil
}

// Result is returned by single-leg operations as seen from the user's account.
type Result struct {
	Transaction Transaction     `json:"transaction"`
	Balance     decimal.Decimal `json:"balance"`
	Replayed    bool            `json:"replayed"`
}

type TransferResult struct {
	Debit              Transaction     `json:"debit"`
	Credit             Transaction     `json:"credit"`
	SourceBalance      decimal.Decimal `json:"source_balance"`
	DestinationBalance decimal.Decimal `json:"destination_balance"`
	Replayed           bool            `json:"replayed"`
}

type PayRequest struct {
	CustomerID uuid.UUID
	OrderID    string
	Amount     decimal.Decimal
}

type TransferRequest struct {
	From           uuid.UUID
	To             uuid.UUID
	OrderID        *string
	Amount         decimal.Decimal
	Memo           string
	IdempotencyKey string
}

type SettleRequest struct {
	CustomerID   uuid.UUID
	RestaurantID uuid.UUID
	OrderID      string
	Amount       decimal.Decimal
}

type RefundRequest struct {
	CustomerID   uuid.UUID
	RestaurantID uuid.UUID
	OrderID      string
	Amount       decimal.Decimal
	Funding      Funding
}

type TransactionQuery struct {
	AccountID uuid.UUID
	Types     []TransactionType
	OrderIDs  []string
	Limit     int
	Offset    int
}

// Idempotency keys. Each leg of a multi-leg operation derives its own key
// from the operation key so that every row stays unique.

func PaymentKey(orderID string) string    { return "order:" + orderID + ":payment" }
func SettlementKey(orderID string) string { return "order:" + orderID + ":settlement" }
func RefundKey(orderID string) string     { return "order:" + orderID + ":refund" }
func TopUpKey(externalRef string) string  { return "intent:" + externalRef + ":topup" }

func debitLeg(key string) string  { return key + ":debit" }
func creditLeg(key string) string { return key + ":credit" }
func escrowLeg(key string) string { return key + ":escrow" }
func sourceLeg(key string) string { return key + ":source" }
