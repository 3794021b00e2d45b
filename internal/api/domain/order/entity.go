package order

import (
	"fmt"
	"strings"
	"time"

	"ReelMarket/internal/api/domain/actor"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MinQuantity = 1
	MaxQuantity = 50

	MinPrepMinutes = 5
	MaxPrepMinutes = 120

	maxNoteLength = 500
)

type Order struct {
	ID           uuid.UUID       `json:"id"`
	CustomerID   uuid.UUID       `json:"customer_id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	ReelID       uuid.UUID       `json:"reel_id"`
	DishName     string          `json:"dish_name"`
	Quantity     int             `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TotalPrice   decimal.Decimal `json:"total_price"`
	Currency     string          `json:"currency"`

	Status          Status        `json:"status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	PaymentIntentID *string       `json:"payment_intent_id,omitempty"`

	EstimatedPrepMinutes *int    `json:"estimated_prep_minutes,omitempty"`
	CustomerNotes        string  `json:"customer_notes,omitempty"`
	PickupInstructions   *string `json:"pickup_instructions,omitempty"`

	CancellationReason *string     `json:"cancellation_reason,omitempty"`
	CancelledBy        *actor.Role `json:"cancelled_by,omitempty"`

	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	PreparingAt *time.Time `json:"preparing_at,omitempty"`
	ReadyAt     *time.Time `json:"ready_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Reel is the read-only view of a dish video the catalog exposes for ordering.
type Reel struct {
	ID           uuid.UUID       `json:"id"`
	RestaurantID uuid.UUID       `json:"restaurant_id"`
	DishName     string          `json:"dish_name"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	IsActive     bool            `json:"is_active"`
}

type CreateOrderRequest struct {
	ReelID        uuid.UUID     `json:"reel_id" binding:"required"`
	Quantity      int           `json:"quantity" binding:"required,min=1,max=50"`
	PaymentMethod PaymentMethod `json:"payment_method" binding:"required,oneof=cash wallet card"`
	CustomerNotes string        `json:"customer_notes" binding:"max=500"`
}

// NewOrder prices the order from the reel. The total is fixed here and never
// recomputed.
func NewOrder(customer actor.Actor, reel Reel, req CreateOrderRequest, currency string, now time.Time) (Order, error) {
	if !customer.Is(actor.RoleCustomer) {
		return Order{}, fmt.Errorf("%w: only customers place orders", ErrForbidden)
	}
	if reel.RestaurantID == customer.ID {
		return Order{}, fmt.Errorf("%w: cannot order your own dish", ErrForbidden)
	}
	if !reel.IsActive {
		return Order{}, ErrReelInactive
	}
	if req.Quantity < MinQuantity || req.Quantity > MaxQuantity {
		return Order{}, fmt.Errorf("%w: quantity must be between %d and %d", ErrInvalidInput, MinQuantity, MaxQuantity)
	}
	method, err := NewPaymentMethod(string(req.PaymentMethod))
	if err != nil {
		return Order{}, err
	}
	if !strings.EqualFold(reel.Currency, currency) {
		return Order{}, fmt.Errorf("%w: reel is priced in %s, orders settle in %s", ErrInvalidInput, reel.Currency, currency)
	}
	if !reel.Price.IsPositive() {
		return Order{}, fmt.Errorf("%w: reel has no price", ErrInvalidInput)
	}
	if len(req.CustomerNotes) > maxNoteLength {
		return Order{}, fmt.Errorf("%w: customer notes exceed %d characters", ErrInvalidInput, maxNoteLength)
	}

	status := StatusPending
	if method.Prepaid() {
		status = StatusPendingPayment
	}

	return Order{
		ID:            uuid.New(),
		CustomerID:    customer.ID,
		RestaurantID:  reel.RestaurantID,
		ReelID:        reel.ID,
		DishName:      reel.DishName,
		Quantity:      req.Quantity,
		UnitPrice:     reel.Price,
		TotalPrice:    reel.Price.Mul(decimal.NewFromInt(int64(req.Quantity))).Round(2),
		Currency:      currency,
		Status:        status,
		PaymentMethod: method,
		PaymentStatus: PaymentUnpaid,
		CustomerNotes: strings.TrimSpace(req.CustomerNotes),
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// VisibleTo reports whether act is a party of the order.
func (o Order) VisibleTo(act actor.Actor) bool {
	switch act.Role {
	case actor.RoleSystem:
		return true
	case actor.RoleCustomer:
		return o.CustomerID == act.ID
	case actor.RoleRestaurant:
		return o.RestaurantID == act.ID
	default:
		return false
	}
}

// OrderUpdate is a compare-and-set write: it applies only while the stored
// order still has ExpectedStatus (and ExpectedPaymentStatus when set).
// Nil fields are left untouched.
type OrderUpdate struct {
	ID                    uuid.UUID
	ExpectedStatus        Status
	ExpectedPaymentStatus *PaymentStatus

	Status               *Status
	PaymentStatus        *PaymentStatus
	PaymentIntentID      *string
	EstimatedPrepMinutes *int
	PickupInstructions   *string
	CancellationReason   *string
	CancelledBy          *actor.Role

	AcceptedAt  *time.Time
	PreparingAt *time.Time
	ReadyAt     *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
	UpdatedAt   time.Time
}

type StartPreparingRequest struct {
	EstimatedPrepMinutes *int `json:"estimated_prep_minutes" binding:"omitempty,min=5,max=120"`
}

type MarkReadyRequest struct {
	PickupInstructions *string `json:"pickup_instructions" binding:"omitempty,max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}
