package payment

import (
	"context"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/domain/wallet"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source ports.go -destination mock_ports.go -package payment

// Orders is the slice of the order lifecycle reconciliation drives.
type Orders interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (order.Order, error)
	GetOrderForActor(ctx context.Context, id uuid.UUID, act actor.Actor) (order.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, intentID string) (order.Order, error)
	FindOrders(ctx context.Context, query order.OrdersQuery) ([]order.Order, error)
	MarkPaid(ctx context.Context, cmd order.MarkPaidCommand) (order.Result, error)
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) (order.Result, error)
	MarkPaymentFailed(ctx context.Context, cmd order.PaymentFailedCommand) (order.Result, error)
}

type Wallet interface {
	Pay(ctx context.Context, req wallet.PayRequest) (wallet.Result, error)
	CreditWalletAfterPayment(ctx context.Context, customerID uuid.UUID, amount decimal.Decimal, externalRef string) (wallet.Result, error)
}
