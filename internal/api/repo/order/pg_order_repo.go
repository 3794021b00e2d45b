package order_repo

import (
	"context"
	"fmt"

	"ReelMarket/internal/api/domain/order"
	"ReelMarket/internal/api/repo/order_eventsink"
	"ReelMarket/pkg/postgres"

	"github.com/Masterminds/squirrel"
)

var orderColumns = []string{
	"id", "customer_id", "restaurant_id", "reel_id", "dish_name", "quantity",
	"unit_price", "total_price", "currency",
	"status", "payment_method", "payment_status", "payment_intent_id",
	"estimated_prep_minutes", "customer_notes", "pickup_instructions",
	"cancellation_reason", "cancelled_by",
	"accepted_at", "preparing_at", "ready_at", "completed_at", "cancelled_at",
	"created_at", "updated_at",
}

// PgOrderRepo is the main repository
type PgOrderRepo struct {
	db postgres.DB
	repo
}

func NewPgOrderRepo(pg *postgres.Postgres) order.OrderRepo {
	return newPgOrderRepo(pg.Pool, pg.Builder)
}

func newPgOrderRepo(db postgres.DB, builder squirrel.StatementBuilderType) *PgOrderRepo {
	return &PgOrderRepo{
		db:   db,
		repo: newRepo(db, builder),
	}
}

// InTransaction passes fn a context bound to the transaction, so services
// called with it (the wallet ledger) join the same transaction.
func (r *PgOrderRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, repo order.TxOrderRepo) error) error {
	return postgres.InTransaction(ctx, r.db, func(ctx context.Context, tx postgres.Executor) error {
		txRepo := newRepo(tx, r.builder)
		return fn(ctx, &txRepo)
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
	*order_eventsink.PgOrderEventRepo
}

func newRepo(db postgres.Executor, builder squirrel.StatementBuilderType) repo {
	return repo{
		db:               db,
		builder:          builder,
		PgOrderEventRepo: order_eventsink.NewPgOrderEventRepo(db, builder),
	}
}

func (r *repo) GetOrders(ctx context.Context, query *order.OrdersQuery) ([]order.Order, error) {
	sql, args, err := r.buildOrdersQuery(query).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build orders query: %w", err)
	}

	orders, err := r.queryOrders(ctx, sql, args)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	return orders, nil
}

func (r *repo) queryOrders(ctx context.Context, sql string, args []any) ([]order.Order, error) {
	rows, err := postgres.Conn(ctx, r.db).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return parseOrderRows(rows)
}

func (r *repo) CreateOrder(ctx context.Context, o order.Order) error {
	var cancelledBy *string
	if o.CancelledBy != nil {
		role := string(*o.CancelledBy)
		cancelledBy = &role
	}

	query, args, err := r.builder.Insert("orders").
		Columns(orderColumns...).
		Values(
			o.ID, o.CustomerID, o.RestaurantID, o.ReelID, o.DishName, o.Quantity,
			o.UnitPrice, o.TotalPrice, o.Currency,
			string(o.Status), string(o.PaymentMethod), string(o.PaymentStatus), o.PaymentIntentID,
			o.EstimatedPrepMinutes, o.CustomerNotes, o.PickupInstructions,
			o.CancellationReason, cancelledBy,
			o.AcceptedAt, o.PreparingAt, o.ReadyAt, o.CompletedAt, o.CancelledAt,
			o.CreatedAt, o.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	_, err = postgres.Conn(ctx, r.db).Exec(ctx, query, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return fmt.Errorf("%w: %s", order.ErrAlreadyExists, postgres.ConstraintName(err))
	}
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// UpdateOrder is a compare-and-set on status (and payment status when
// expected). Zero affected rows means another writer got there first.
func (r *repo) UpdateOrder(ctx context.Context, upd order.OrderUpdate) (order.Order, error) {
	b := r.builder.Update("orders").
		Set("updated_at", upd.UpdatedAt)

	if upd.Status != nil {
		b = b.Set("status", string(*upd.Status))
	}
	if upd.PaymentStatus != nil {
		b = b.Set("payment_status", string(*upd.PaymentStatus))
	}
	if upd.PaymentIntentID != nil {
		b = b.Set("payment_intent_id", *upd.PaymentIntentID)
	}
	if upd.EstimatedPrepMinutes != nil {
		b = b.Set("estimated_prep_minutes", *upd.EstimatedPrepMinutes)
	}
	if upd.PickupInstructions != nil {
		b = b.Set("pickup_instructions", *upd.PickupInstructions)
	}
	if upd.CancellationReason != nil {
		b = b.Set("cancellation_reason", *upd.CancellationReason)
	}
	if upd.CancelledBy != nil {
		b = b.Set("cancelled_by", string(*upd.CancelledBy))
	}
	if upd.AcceptedAt != nil {
		b = b.Set("accepted_at", *upd.AcceptedAt)
	}
	if upd.PreparingAt != nil {
		b = b.Set("preparing_at", *upd.PreparingAt)
	}
	if upd.ReadyAt != nil {
		b = b.Set("ready_at", *upd.ReadyAt)
	}
	if upd.CompletedAt != nil {
		b = b.Set("completed_at", *upd.CompletedAt)
	}
	if upd.CancelledAt != nil {
		b = b.Set("cancelled_at", *upd.CancelledAt)
	}

	b = b.Where(squirrel.Eq{"id": upd.ID}).
		Where(squirrel.Eq{"status": string(upd.ExpectedStatus)})
	if upd.ExpectedPaymentStatus != nil {
		b = b.Where(squirrel.Eq{"payment_status": string(*upd.ExpectedPaymentStatus)})
	}

	query, args, err := b.Suffix(returningOrder()).ToSql()
	if err != nil {
		return order.Order{}, fmt.Errorf("build update query: %w", err)
	}

	orders, err := r.queryOrders(ctx, query, args)
	if postgres.IsPgErrorUniqueViolation(err) {
		return order.Order{}, fmt.Errorf("%w: %s", order.ErrAlreadyExists, postgres.ConstraintName(err))
	}
	if err != nil {
		return order.Order{}, fmt.Errorf("execute update: %w", err)
	}
	if len(orders) == 0 {
		return order.Order{}, fmt.Errorf("%w: order %s is no longer %s", order.ErrStatusConflict, upd.ID, upd.ExpectedStatus)
	}
	return orders[0], nil
}

func (r *repo) buildOrdersQuery(q *order.OrdersQuery) squirrel.SelectBuilder {
	query := r.builder.Select(orderColumns...).
		From("orders")

	if len(q.IDs) > 0 {
		query = query.Where(squirrel.Eq{"id": q.IDs})
	}
	if len(q.CustomerIDs) > 0 {
		query = query.Where(squirrel.Eq{"customer_id": q.CustomerIDs})
	}
	if len(q.RestaurantIDs) > 0 {
		query = query.Where(squirrel.Eq{"restaurant_id": q.RestaurantIDs})
	}
	if len(q.Statuses) > 0 {
		query = query.Where(squirrel.Eq{"status": toStrings(q.Statuses)})
	}
	if len(q.PaymentStatuses) > 0 {
		query = query.Where(squirrel.Eq{"payment_status": toStrings(q.PaymentStatuses)})
	}
	if len(q.PaymentMethods) > 0 {
		query = query.Where(squirrel.Eq{"payment_method": toStrings(q.PaymentMethods)})
	}
	if len(q.PaymentIntentIDs) > 0 {
		query = query.Where(squirrel.Eq{"payment_intent_id": q.PaymentIntentIDs})
	}

	// Sort columns are whitelisted by OrdersQuery.Validate.
	if q.SortBy != nil {
		sortOrder := "desc"
		if q.SortOrder != nil {
			sortOrder = *q.SortOrder
		}
		query = query.OrderBy(fmt.Sprintf("%s %s", *q.SortBy, sortOrder), "id "+sortOrder)
	}

	if q.Pagination != nil {
		offset := (q.Pagination.PageNumber - 1) * q.Pagination.PageSize
		query = query.Limit(uint64(q.Pagination.PageSize)).Offset(uint64(offset))
	}

	return query
}

func toStrings[T ~string](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = string(v)
	}
	return out
}
