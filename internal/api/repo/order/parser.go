package order_repo

import (
	"fmt"
	"strings"
	"time"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// orderRow mirrors the orders table; enums are scanned as text and parsed.
type orderRow struct {
	ID                   uuid.UUID
	CustomerID           uuid.UUID
	RestaurantID         uuid.UUID
	ReelID               uuid.UUID
	DishName             string
	Quantity             int
	UnitPrice            decimal.Decimal
	TotalPrice           decimal.Decimal
	Currency             string
	Status               string
	PaymentMethod        string
	PaymentStatus        string
	PaymentIntentID      *string
	EstimatedPrepMinutes *int
	CustomerNotes        string
	PickupInstructions   *string
	CancellationReason   *string
	CancelledBy          *string
	AcceptedAt           *time.Time
	PreparingAt          *time.Time
	ReadyAt              *time.Time
	CompletedAt          *time.Time
	CancelledAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func returningOrder() string {
	return "RETURNING " + strings.Join(orderColumns, ", ")
}

func (m orderRow) toDomain() (order.Order, error) {
	status, err := order.NewStatus(m.Status)
	if err != nil {
		return order.Order{}, fmt.Errorf("invalid status in database: %w", err)
	}
	method, err := order.NewPaymentMethod(m.PaymentMethod)
	if err != nil {
		return order.Order{}, fmt.Errorf("invalid payment method in database: %w", err)
	}
	paymentStatus, err := order.NewPaymentStatus(m.PaymentStatus)
	if err != nil {
		return order.Order{}, fmt.Errorf("invalid payment status in database: %w", err)
	}

	var cancelledBy *actor.Role
	if m.CancelledBy != nil {
		role, err := actor.ParseRole(*m.CancelledBy)
		if err != nil {
			return order.Order{}, fmt.Errorf("invalid cancelled_by in database: %w", err)
		}
		cancelledBy = &role
	}

	return order.Order{
		ID:                   m.ID,
		CustomerID:           m.CustomerID,
		RestaurantID:         m.RestaurantID,
		ReelID:               m.ReelID,
		DishName:             m.DishName,
		Quantity:             m.Quantity,
		UnitPrice:            m.UnitPrice,
		TotalPrice:           m.TotalPrice,
		Currency:             m.Currency,
		Status:               status,
		PaymentMethod:        method,
		PaymentStatus:        paymentStatus,
		PaymentIntentID:      m.PaymentIntentID,
		EstimatedPrepMinutes: m.EstimatedPrepMinutes,
		CustomerNotes:        m.CustomerNotes,
		PickupInstructions:   m.PickupInstructions,
		CancellationReason:   m.CancellationReason,
		CancelledBy:          cancelledBy,
		AcceptedAt:           m.AcceptedAt,
		PreparingAt:          m.PreparingAt,
		ReadyAt:              m.ReadyAt,
		CompletedAt:          m.CompletedAt,
		CancelledAt:          m.CancelledAt,
		CreatedAt:            m.CreatedAt,
		UpdatedAt:            m.UpdatedAt,
	}, nil
}

func parseOrderRows(rows pgx.Rows) ([]order.Order, error) {
	var orders []order.Order
	for rows.Next() {
		var m orderRow
		err := rows.Scan(
			&m.ID, &m.CustomerID, &m.RestaurantID, &m.ReelID, &m.DishName, &m.Quantity,
			&m.UnitPrice, &m.TotalPrice, &m.Currency,
			&m.Status, &m.PaymentMethod, &m.PaymentStatus, &m.PaymentIntentID,
			&m.EstimatedPrepMinutes, &m.CustomerNotes, &m.PickupInstructions,
			&m.CancellationReason, &m.CancelledBy,
			&m.AcceptedAt, &m.PreparingAt, &m.ReadyAt, &m.CompletedAt, &m.CancelledAt,
			&m.CreatedAt, &m.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}

		o, err := m.toDomain()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}
