package order

import (
	"context"
	"time"

	"ReelMarket/internal/api/domain/actor"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type NotificationKind string

const (
	NotifyPlaced        NotificationKind = "order.placed"
	NotifyPaid          NotificationKind = "order.paid"
	NotifyPaymentFailed NotificationKind = "order.payment_failed"
	NotifyAccepted      NotificationKind = "order.accepted"
	NotifyPreparing     NotificationKind = "order.preparing"
	NotifyReady         NotificationKind = "order.ready"
	NotifyCompleted     NotificationKind = "order.completed"
	NotifyCancelled     NotificationKind = "order.cancelled"
	NotifyRefunded      NotificationKind = "order.refunded"
	NotifyRefundFailed  NotificationKind = "order.refund_failed"
)

// Notification is handed to the notification collaborator after the state
// change it describes has committed.
type Notification struct {
	Kind          NotificationKind `json:"kind"`
	OrderID       uuid.UUID        `json:"order_id"`
	CustomerID    uuid.UUID        `json:"customer_id"`
	RestaurantID  uuid.UUID        `json:"restaurant_id"`
	ReelID        uuid.UUID        `json:"reel_id"`
	Recipients    []uuid.UUID      `json:"recipients"`
	Status        Status           `json:"status"`
	PaymentStatus PaymentStatus    `json:"payment_status"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	Reason        string           `json:"reason,omitempty"`
	OccurredAt    time.Time        `json:"occurred_at"`
}

//go:generate mockgen -source notification.go -destination mock_notification.go -package order

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

func NewNotification(kind NotificationKind, o Order, at time.Time) Notification {
	n := Notification{
		Kind:          kind,
		OrderID:       o.ID,
		CustomerID:    o.CustomerID,
		RestaurantID:  o.RestaurantID,
		ReelID:        o.ReelID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Amount:        o.TotalPrice,
		Currency:      o.Currency,
		OccurredAt:    at,
	}
	if o.CancellationReason != nil {
		n.Reason = *o.CancellationReason
	}
	n.Recipients = recipients(kind, o)
	return n
}

func recipients(kind NotificationKind, o Order) []uuid.UUID {
	switch kind {
	case NotifyPlaced:
		// Prepaid orders reach the restaurant once paid.
		if o.PaymentMethod.Prepaid() {
			return []uuid.UUID{o.CustomerID}
		}
		return []uuid.UUID{o.RestaurantID}
	case NotifyCompleted:
		return []uuid.UUID{o.RestaurantID}
	case NotifyPaid:
		return []uuid.UUID{o.CustomerID, o.RestaurantID}
	case NotifyAccepted, NotifyPreparing, NotifyReady,
		NotifyPaymentFailed, NotifyRefunded, NotifyRefundFailed:
		return []uuid.UUID{o.CustomerID}
	case NotifyCancelled:
		if o.CancelledBy == nil {
			return []uuid.UUID{o.CustomerID, o.RestaurantID}
		}
		switch *o.CancelledBy {
		case actor.RoleCustomer:
			return []uuid.UUID{o.RestaurantID}
		case actor.RoleRestaurant:
			return []uuid.UUID{o.CustomerID}
		default:
			return []uuid.UUID{o.CustomerID, o.RestaurantID}
		}
	default:
		return nil
	}
}

// NopNotifier drops notifications. Used when no sink is configured.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) error { return nil }
