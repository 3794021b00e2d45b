package order

import "context"

//go:generate mockgen -source repo.go -destination mock_repo.go -package order

type OrderRepo interface {
	TxOrderRepo
	// InTransaction hands fn a context bound to the transaction so that other
	// repositories called with it join the same transaction.
	InTransaction(ctx context.Context, fn func(ctx context.Context, repo TxOrderRepo) error) error
}

type TxOrderRepo interface {
	EventSink

	// CreateOrder returns ErrAlreadyExists on id or payment intent collision.
	CreateOrder(ctx context.Context, o Order) error
	GetOrders(ctx context.Context, query *OrdersQuery) ([]Order, error)

	// UpdateOrder applies the compare-and-set and returns the stored order.
	// Returns ErrStatusConflict when the expected status no longer holds.
	UpdateOrder(ctx context.Context, update OrderUpdate) (Order, error)
}
