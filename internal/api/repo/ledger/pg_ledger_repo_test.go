package ledger_repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"ReelMarket/internal/api/domain/wallet"
	"ReelMarket/pkg/pointers"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// anyArgs matches a statement with n arguments without pinning their values.
func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func newTestRepo(t *testing.T) (pgxmock.PgxPoolIface, *PgLedgerRepo) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	r := newPgLedgerRepo(mock, squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar))
	r.now = func() time.Time { return fixedNow }
	return mock, r
}

func TestEnsureAccount(t *testing.T) {
	mock, repo := newTestRepo(t)
	userID := uuid.New()

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wallet_accounts (user_id,balance,currency,created_at,updated_at) VALUES ($1,$2,$3,$4,$5) ON CONFLICT (user_id) DO NOTHING`)).
		WithArgs(userID, decimal.Zero, "USD", fixedNow, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := repo.EnsureAccount(context.Background(), userID, "USD")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAccount(t *testing.T) {
	mock, repo := newTestRepo(t)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("should return account", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_id, balance, currency, created_at, updated_at FROM wallet_accounts WHERE user_id = \$1`).
			WithArgs(userID.String()).
			WillReturnRows(mock.NewRows([]string{"user_id", "balance", "currency", "created_at", "updated_at"}).
				AddRow(userID, "42.50", "USD", fixedNow, fixedNow))

		acct, err := repo.GetAccount(ctx, userID)

		require.NoError(t, err)
		assert.Equal(t, "42.5", acct.Balance.String())
	})

	t.Run("should return ErrAccountNotFound", func(t *testing.T) {
		mock.ExpectQuery(`FROM wallet_accounts`).WithArgs(userID.String()).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetAccount(ctx, userID)

		assert.ErrorIs(t, err, wallet.ErrAccountNotFound)
	})
}

func TestApplyPosting(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	amount := decimal.RequireFromString("10.00")

	posting := func(dir wallet.Direction) wallet.Posting {
		return wallet.Posting{
			AccountID:      accountID,
			Direction:      dir,
			Type:           wallet.TypePayment,
			Amount:         amount,
			Currency:       "USD",
			OrderID:        pointers.Ptr("order-1"),
			IdempotencyKey: "order:order-1:payment",
			Description:    "Order payment",
		}
	}

	t.Run("should debit and record balances", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE wallet_accounts SET updated_at = $1, balance = balance - $2 WHERE user_id = $3 AND balance >= $4 RETURNING balance`)).
			WithArgs(fixedNow, amount, accountID.String(), amount).
			WillReturnRows(mock.NewRows([]string{"balance"}).AddRow("15.00"))
		mock.ExpectExec(`INSERT INTO wallet_transactions \(id,account_id,type,status,direction,amount`).
			WithArgs(
				pgxmock.AnyArg(), accountID, "payment", "completed", "debit", amount, "USD",
				pointers.Ptr("order-1"), pgxmock.AnyArg(), "order:order-1:payment",
				pgxmock.AnyArg(), pgxmock.AnyArg(), "Order payment", pgxmock.AnyArg(), fixedNow,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		tx, err := repo.ApplyPosting(ctx, posting(wallet.Debit))

		require.NoError(t, err)
		assert.Equal(t, "25", tx.BalanceBefore.String())
		assert.Equal(t, "15", tx.BalanceAfter.String())
		assert.Equal(t, wallet.StatusCompleted, tx.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should credit", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE wallet_accounts SET updated_at = $1, balance = balance + $2 WHERE user_id = $3 RETURNING balance`)).
			WithArgs(fixedNow, amount, accountID.String()).
			WillReturnRows(mock.NewRows([]string{"balance"}).AddRow("10.00"))
		mock.ExpectExec(`INSERT INTO wallet_transactions`).
			WithArgs(anyArgs(len(transactionColumns))...).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		tx, err := repo.ApplyPosting(ctx, posting(wallet.Credit))

		require.NoError(t, err)
		assert.True(t, tx.BalanceBefore.IsZero())
		assert.Equal(t, "10", tx.BalanceAfter.String())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should return ErrInsufficientFunds when guard matches nothing", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(`UPDATE wallet_accounts`).
			WithArgs(fixedNow, amount, accountID.String(), amount).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`FROM wallet_accounts`).
			WithArgs(accountID.String()).
			WillReturnRows(mock.NewRows([]string{"user_id", "balance", "currency", "created_at", "updated_at"}).
				AddRow(accountID, "3.00", "USD", fixedNow, fixedNow))

		_, err := repo.ApplyPosting(ctx, posting(wallet.Debit))

		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("should return ErrAccountNotFound for missing account", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(`UPDATE wallet_accounts`).
			WithArgs(fixedNow, amount, accountID.String(), amount).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectQuery(`FROM wallet_accounts`).
			WithArgs(accountID.String()).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.ApplyPosting(ctx, posting(wallet.Debit))

		assert.ErrorIs(t, err, wallet.ErrAccountNotFound)
	})

	t.Run("should map check violation to ErrInsufficientFunds", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(`UPDATE wallet_accounts`).
			WithArgs(fixedNow, amount, accountID.String(), amount).
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: "wallet_accounts_balance_check"})

		_, err := repo.ApplyPosting(ctx, posting(wallet.Debit))

		assert.ErrorIs(t, err, wallet.ErrInsufficientFunds)
	})

	t.Run("should map taken key to ErrDuplicateTransaction", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(`UPDATE wallet_accounts`).
			WithArgs(fixedNow, amount, accountID.String(), amount).
			WillReturnRows(mock.NewRows([]string{"balance"}).AddRow("0.00"))
		mock.ExpectExec(`INSERT INTO wallet_transactions`).
			WithArgs(anyArgs(len(transactionColumns))...).
			WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "wallet_transactions_idempotency_key_key"})

		_, err := repo.ApplyPosting(ctx, posting(wallet.Debit))

		assert.ErrorIs(t, err, wallet.ErrDuplicateTransaction)
	})

	t.Run("should reject unknown direction", func(t *testing.T) {
		_, repo := newTestRepo(t)

		_, err := repo.ApplyPosting(ctx, posting("sideways"))

		assert.ErrorIs(t, err, wallet.ErrInvalidTransfer)
	})
}

func TestGetTransactions(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()

	row := func(mock pgxmock.PgxPoolIface, key string) *pgxmock.Rows {
		return mock.NewRows(transactionColumns).AddRow(
			uuid.New(), accountID, "refund", "completed", "credit", "24.00", "USD",
			pointers.Ptr("order-1"), nil, key,
			"0.00", "24.00", "Order refund", nil, fixedNow,
		)
	}

	t.Run("should filter and order newest first", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(regexp.QuoteMeta(`FROM wallet_transactions WHERE account_id = $1 AND type IN ($2,$3) AND order_id IN ($4) ORDER BY created_at DESC, id DESC LIMIT 10 OFFSET 5`)).
			WithArgs(accountID.String(), "payment", "refund", "order-1").
			WillReturnRows(row(mock, "order:order-1:refund"))

		txs, err := repo.GetTransactions(ctx, wallet.TransactionQuery{
			AccountID: accountID,
			Types:     []wallet.TransactionType{wallet.TypePayment, wallet.TypeRefund},
			OrderIDs:  []string{"order-1"},
			Limit:     10,
			Offset:    5,
		})

		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, wallet.TypeRefund, txs[0].Type)
		assert.Equal(t, wallet.Credit, txs[0].Direction)
		assert.Equal(t, "order-1", *txs[0].OrderID)
		assert.Nil(t, txs[0].PaymentIntentID)
	})

	t.Run("should look up by idempotency key", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(`FROM wallet_transactions WHERE idempotency_key = \$1`).
			WithArgs("order:order-1:refund").
			WillReturnRows(row(mock, "order:order-1:refund"))
		mock.ExpectQuery(`FROM wallet_transactions WHERE idempotency_key = \$1`).
			WithArgs("order:missing:refund").
			WillReturnRows(mock.NewRows(transactionColumns))

		found, err := repo.GetTransactionByKey(ctx, "order:order-1:refund")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "order:order-1:refund", found.IdempotencyKey)

		missing, err := repo.GetTransactionByKey(ctx, "order:missing:refund")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("should wrap query error", func(t *testing.T) {
		mock, repo := newTestRepo(t)

		mock.ExpectQuery(`FROM wallet_transactions`).
			WithArgs(accountID.String()).
			WillReturnError(errors.New("timeout"))

		_, err := repo.GetTransactions(ctx, wallet.TransactionQuery{AccountID: accountID})

		assert.EqualError(t, err, "query wallet transactions: timeout")
	})
}

func TestInTransaction(t *testing.T) {
	mock, repo := newTestRepo(t)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO wallet_accounts`).
		WithArgs(userID, decimal.Zero, "USD", fixedNow, fixedNow).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := repo.InTransaction(context.Background(), func(ctx context.Context, tx wallet.TxLedgerRepo) error {
		return tx.EnsureAccount(ctx, userID, "USD")
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
