package order_repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ReelMarket/internal/api/domain/actor"
	"ReelMarket/internal/api/domain/order"
	"ReelMarket/pkg/pointers"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var builder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// anyArgs matches a statement with n arguments without pinning their values.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func orderRowValues(id uuid.UUID, status, payment string, at time.Time) []any {
	return []any{
		id, uuid.New(), uuid.New(), uuid.New(), "Birria tacos", 2,
		"12.00", "24.00", "USD",
		status, "wallet", payment, nil,
		nil, "", nil,
		nil, nil,
		nil, nil, nil, nil, nil,
		at, at,
	}
}

func TestGetOrders(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newRepo(mock, builder)
	ctx := context.Background()

	t.Run("should return orders with basic query", func(t *testing.T) {
		id1, id2 := uuid.New(), uuid.New()
		at := time.Now().UTC()

		rows := mock.NewRows(orderColumns).
			AddRow(orderRowValues(id1, "PENDING", "paid", at)...).
			AddRow(orderRowValues(id2, "CANCELLED", "refunded", at)...)

		mock.ExpectQuery(`SELECT id, customer_id, .* FROM orders WHERE id IN \(\$1,\$2\)`).
			WithArgs(id1, id2).
			WillReturnRows(rows)

		query, err := order.NewOrdersQueryBuilder().WithIDs(id1, id2).Build()
		require.NoError(t, err)

		result, err := repo.GetOrders(ctx, query)

		require.NoError(t, err)
		require.Len(t, result, 2)
		assert.Equal(t, id1, result[0].ID)
		assert.Equal(t, order.StatusPending, result[0].Status)
		assert.Equal(t, order.PaymentRefunded, result[1].PaymentStatus)
		assert.Equal(t, "24", result[0].TotalPrice.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should apply filters, sorting and pagination", func(t *testing.T) {
		customerID := uuid.New()

		mock.ExpectQuery(regexp.QuoteMeta(`FROM orders WHERE customer_id IN ($1) AND status IN ($2,$3) AND payment_method IN ($4) ORDER BY created_at desc, id desc LIMIT 10 OFFSET 20`)).
			WithArgs(customerID, "PENDING", "ACCEPTED", "card").
			WillReturnRows(mock.NewRows(orderColumns))

		query, err := order.NewOrdersQueryBuilder().
			WithCustomerIDs(customerID).
			WithStatuses(order.StatusPending, order.StatusAccepted).
			WithPaymentMethods(order.PaymentCard).
			WithSort("created_at", "desc").
			WithPagination(order.Pagination{PageSize: 10, PageNumber: 3}).
			Build()
		require.NoError(t, err)

		result, err := repo.GetOrders(ctx, query)

		require.NoError(t, err)
		assert.Empty(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should reject unknown status from database", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery(`FROM orders`).
			WithArgs(id).
			WillReturnRows(mock.NewRows(orderColumns).AddRow(orderRowValues(id, "LOST", "paid", time.Now())...))

		_, err := repo.GetOrders(ctx, &order.OrdersQuery{IDs: []uuid.UUID{id}})

		require.Error(t, err)
		assert.ErrorIs(t, err, order.ErrInvalidInput)
	})

	t.Run("should wrap database error", func(t *testing.T) {
		mock.ExpectQuery(`FROM orders`).WillReturnError(errors.New("connection reset"))

		_, err := repo.GetOrders(ctx, &order.OrdersQuery{})

		assert.EqualError(t, err, "query orders: connection reset")
	})
}

func TestCreateOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newRepo(mock, builder)
	ctx := context.Background()
	now := time.Now().UTC()

	o := order.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		RestaurantID:  uuid.New(),
		ReelID:        uuid.New(),
		DishName:      "Ramen",
		Quantity:      1,
		UnitPrice:     decimal.RequireFromString("9.50"),
		TotalPrice:    decimal.RequireFromString("9.50"),
		Currency:      "USD",
		Status:        order.StatusPending,
		PaymentMethod: order.PaymentCash,
		PaymentStatus: order.PaymentUnpaid,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	t.Run("should create order successfully", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO orders \(id,customer_id,.*\) VALUES \(\$1,\$2,.*\$25\)`).
			WithArgs(
				o.ID, o.CustomerID, o.RestaurantID, o.ReelID, "Ramen", 1,
				o.UnitPrice, o.TotalPrice, "USD",
				"PENDING", "cash", "unpaid", pgxmock.AnyArg(),
				pgxmock.AnyArg(), "", pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				now, now,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.CreateOrder(ctx, o)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should map duplicate key to ErrAlreadyExists", func(t *testing.T) {
		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs(anyArgs(len(orderColumns))...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_pkey"})

		err := repo.CreateOrder(ctx, o)

		assert.ErrorIs(t, err, order.ErrAlreadyExists)
	})
}

func TestUpdateOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newRepo(mock, builder)
	ctx := context.Background()
	now := time.Now().UTC()
	id := uuid.New()

	t.Run("should compare and set status", func(t *testing.T) {
		accepted := order.StatusAccepted
		upd := order.OrderUpdate{
			ID:             id,
			ExpectedStatus: order.StatusPending,
			Status:         &accepted,
			AcceptedAt:     &now,
			UpdatedAt:      now,
		}

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET updated_at = $1, status = $2, accepted_at = $3 WHERE id = $4 AND status = $5 RETURNING id, customer_id`)).
			WithArgs(now, "ACCEPTED", now, id.String(), "PENDING").
			WillReturnRows(mock.NewRows(orderColumns).AddRow(orderRowValues(id, "ACCEPTED", "paid", now)...))

		result, err := repo.UpdateOrder(ctx, upd)

		require.NoError(t, err)
		assert.Equal(t, order.StatusAccepted, result.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should guard payment status when expected", func(t *testing.T) {
		cancelled := order.StatusCancelled
		refundFailed := order.PaymentRefundFailed
		paid := order.PaymentPaid
		role := actor.RoleRestaurant
		upd := order.OrderUpdate{
			ID:                    id,
			ExpectedStatus:        order.StatusPreparing,
			ExpectedPaymentStatus: &paid,
			Status:                &cancelled,
			PaymentStatus:         &refundFailed,
			CancelledBy:           &role,
			CancellationReason:    pointers.Ptr("out of stock"),
			CancelledAt:           &now,
			UpdatedAt:             now,
		}

		values := orderRowValues(id, "CANCELLED", "refund_failed", now)
		values[17] = pointers.Ptr("restaurant")

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE orders SET updated_at = $1, status = $2, payment_status = $3, cancellation_reason = $4, cancelled_by = $5, cancelled_at = $6 WHERE id = $7 AND status = $8 AND payment_status = $9 RETURNING`)).
			WithArgs(now, "CANCELLED", "refund_failed", "out of stock", "restaurant", now, id.String(), "PREPARING", "paid").
			WillReturnRows(mock.NewRows(orderColumns).AddRow(values...))

		result, err := repo.UpdateOrder(ctx, upd)

		require.NoError(t, err)
		require.NotNil(t, result.CancelledBy)
		assert.Equal(t, actor.RoleRestaurant, *result.CancelledBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should return ErrStatusConflict when no row matched", func(t *testing.T) {
		accepted := order.StatusAccepted
		mock.ExpectQuery(`UPDATE orders`).
			WithArgs(now, "ACCEPTED", id.String(), "PENDING").
			WillReturnRows(mock.NewRows(orderColumns))

		_, err := repo.UpdateOrder(ctx, order.OrderUpdate{
			ID:             id,
			ExpectedStatus: order.StatusPending,
			Status:         &accepted,
			UpdatedAt:      now,
		})

		assert.ErrorIs(t, err, order.ErrStatusConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should map taken payment intent to ErrAlreadyExists", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE orders`).
			WithArgs(now, "pi_1", id.String(), "PENDING_PAYMENT").
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "orders_payment_intent_id_key"})

		_, err := repo.UpdateOrder(ctx, order.OrderUpdate{
			ID:              id,
			ExpectedStatus:  order.StatusPendingPayment,
			PaymentIntentID: pointers.Ptr("pi_1"),
			UpdatedAt:       now,
		})

		assert.ErrorIs(t, err, order.ErrAlreadyExists)
	})
}

func TestInTransaction(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := newPgOrderRepo(mock, builder)
	ctx := context.Background()

	t.Run("should commit order and event together", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO orders`).
			WithArgs(anyArgs(len(orderColumns))...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery(`INSERT INTO order_events .* ON CONFLICT \(order_id, provider_event_id\) DO NOTHING RETURNING id`).
			WithArgs(pgxmock.AnyArg(), id, "created", "created", pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnRows(mock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()

		err := repo.InTransaction(ctx, func(ctx context.Context, tx order.TxOrderRepo) error {
			if err := tx.CreateOrder(ctx, order.Order{ID: id, Status: order.StatusPending}); err != nil {
				return err
			}
			_, err := tx.CreateOrderEvent(ctx, order.NewOrderEvent{OrderID: id, Kind: order.OrderEventCreated, ProviderEventID: "created"})
			return err
		})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should roll back on error", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectRollback()

		err := repo.InTransaction(ctx, func(ctx context.Context, tx order.TxOrderRepo) error {
			return order.ErrStatusConflict
		})

		assert.ErrorIs(t, err, order.ErrStatusConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
