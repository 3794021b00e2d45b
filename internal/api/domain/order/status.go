package order

import (
	"fmt"
	"slices"

	"ReelMarket/internal/api/domain/actor"
)

type Status string

const (
	StatusPending        Status = "PENDING"
	StatusPendingPayment Status = "PENDING_PAYMENT"
	StatusAccepted       Status = "ACCEPTED"
	StatusPreparing      Status = "PREPARING"
	StatusReady          Status = "READY"
	StatusCompleted      Status = "COMPLETED"
	StatusCancelled      Status = "CANCELLED"
)

var AvailableStatuses = []Status{
	StatusPending, StatusPendingPayment, StatusAccepted, StatusPreparing,
	StatusReady, StatusCompleted, StatusCancelled,
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

func NewStatus(raw string) (Status, error) {
	if slices.Contains(AvailableStatuses, Status(raw)) {
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidInput, raw)
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentWallet PaymentMethod = "wallet"
	PaymentCard   PaymentMethod = "card"
)

// Prepaid methods must be paid before the restaurant may accept.
func (m PaymentMethod) Prepaid() bool {
	return m == PaymentWallet || m == PaymentCard
}

func NewPaymentMethod(raw string) (PaymentMethod, error) {
	switch PaymentMethod(raw) {
	case PaymentCash, PaymentWallet, PaymentCard:
		return PaymentMethod(raw), nil
	default:
		return "", fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, raw)
	}
}

type PaymentStatus string

const (
	PaymentUnpaid       PaymentStatus = "unpaid"
	PaymentPending      PaymentStatus = "pending"
	PaymentPaid         PaymentStatus = "paid"
	PaymentRefunded     PaymentStatus = "refunded"
	PaymentRefundFailed PaymentStatus = "refund_failed"
	PaymentCancelled    PaymentStatus = "cancelled"
	PaymentFailed       PaymentStatus = "failed"
)

var AvailablePaymentStatuses = []PaymentStatus{
	PaymentUnpaid, PaymentPending, PaymentPaid, PaymentRefunded,
	PaymentRefundFailed, PaymentCancelled, PaymentFailed,
}

func (s PaymentStatus) CanBeUpdatedTo(next PaymentStatus) bool {
	switch s {
	case PaymentUnpaid:
		return slices.Contains([]PaymentStatus{PaymentPending, PaymentPaid, PaymentFailed, PaymentCancelled}, next)
	case PaymentPending:
		return slices.Contains([]PaymentStatus{PaymentPaid, PaymentFailed, PaymentCancelled}, next)
	case PaymentFailed:
		return slices.Contains([]PaymentStatus{PaymentPending, PaymentPaid, PaymentCancelled}, next)
	case PaymentPaid:
		return slices.Contains([]PaymentStatus{PaymentRefunded, PaymentRefundFailed}, next)
	case PaymentRefundFailed:
		return next == PaymentRefunded
	case PaymentRefunded, PaymentCancelled:
		return false
	default:
		return false
	}
}

// Settled reports whether money for the order was ever collected.
func (s PaymentStatus) Settled() bool {
	return s == PaymentPaid || s == PaymentRefunded || s == PaymentRefundFailed
}

func NewPaymentStatus(raw string) (PaymentStatus, error) {
	if slices.Contains(AvailablePaymentStatuses, PaymentStatus(raw)) {
		return PaymentStatus(raw), nil
	}
	return "", fmt.Errorf("%w: unknown payment status %q", ErrInvalidInput, raw)
}

type Action string

const (
	ActionAccept             Action = "accept"
	ActionStartPreparing     Action = "start_preparing"
	ActionMarkReady          Action = "mark_ready"
	ActionComplete           Action = "complete"
	ActionCancelByCustomer   Action = "cancel_by_customer"
	ActionCancelByRestaurant Action = "cancel_by_restaurant"
	ActionMarkPaid           Action = "mark_paid"
)

func (a Action) IsCancel() bool {
	return a == ActionCancelByCustomer || a == ActionCancelByRestaurant
}

type Transition struct {
	From []Status
	To   Status
	Role actor.Role
}

// transitions is the single source of truth for the order state machine.
var transitions = map[Action]Transition{
	ActionAccept: {
		From: []Status{StatusPending, StatusPendingPayment},
		To:   StatusAccepted,
		Role: actor.RoleRestaurant,
	},
	ActionStartPreparing: {
		From: []Status{StatusAccepted, StatusPending},
		To:   StatusPreparing,
		Role: actor.RoleRestaurant,
	},
	ActionMarkReady: {
		From: []Status{StatusPreparing, StatusAccepted},
		To:   StatusReady,
		Role: actor.RoleRestaurant,
	},
	ActionComplete: {
		From: []Status{StatusReady},
		To:   StatusCompleted,
		Role: actor.RoleCustomer,
	},
	ActionCancelByCustomer: {
		From: []Status{StatusPending, StatusAccepted},
		To:   StatusCancelled,
		Role: actor.RoleCustomer,
	},
	ActionCancelByRestaurant: {
		From: []Status{StatusPending, StatusAccepted, StatusPreparing},
		To:   StatusCancelled,
		Role: actor.RoleRestaurant,
	},
	ActionMarkPaid: {
		From: []Status{StatusPendingPayment},
		To:   StatusPending,
		Role: actor.RoleSystem,
	},
}

func TransitionFor(action Action) (Transition, bool) {
	t, ok := transitions[action]
	return t, ok
}

// CheckTransition validates that act may perform action on o. Ownership is
// checked before state so callers never learn the status of foreign orders.
func CheckTransition(o Order, action Action, act actor.Actor) (Transition, error) {
	t, ok := transitions[action]
	if !ok {
		return Transition{}, fmt.Errorf("%w: unknown action %q", ErrInvalidTransition, action)
	}

	if act.Role != t.Role {
		return Transition{}, fmt.Errorf("%w: %s requires role %s", ErrForbidden, action, t.Role)
	}
	switch t.Role {
	case actor.RoleCustomer:
		if o.CustomerID != act.ID {
			return Transition{}, ErrForbidden
		}
	case actor.RoleRestaurant:
		if o.RestaurantID != act.ID {
			return Transition{}, ErrForbidden
		}
	case actor.RoleSystem:
	}

	if o.Status.IsTerminal() {
		if action.IsCancel() {
			return Transition{}, fmt.Errorf("%w: cannot cancel, order is %s", ErrInFinalStatus, o.Status)
		}
		return Transition{}, fmt.Errorf("%w: order is %s", ErrInFinalStatus, o.Status)
	}

	if !slices.Contains(t.From, o.Status) {
		return Transition{}, fmt.Errorf("%w: cannot %s order in %s", ErrInvalidTransition, action, o.Status)
	}

	if t.Role == actor.RoleRestaurant && !action.IsCancel() &&
		o.PaymentMethod.Prepaid() && o.PaymentStatus != PaymentPaid {
		return Transition{}, fmt.Errorf("%w: payment status is %s", ErrPaymentRequired, o.PaymentStatus)
	}

	return t, nil
}
