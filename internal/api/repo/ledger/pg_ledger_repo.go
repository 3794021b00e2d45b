package ledger_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ReelMarket/internal/api/domain/wallet"
	"ReelMarket/pkg/postgres"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

var transactionColumns = []string{
	"id", "account_id", "type", "status", "direction", "amount", "currency",
	"order_id", "payment_intent_id", "idempotency_key",
	"balance_before", "balance_after", "description", "failure_reason", "created_at",
}

type PgLedgerRepo struct {
	db postgres.DB
	repo
}

func NewPgLedgerRepo(pg *postgres.Postgres) wallet.LedgerRepo {
	return newPgLedgerRepo(pg.Pool, pg.Builder)
}

func newPgLedgerRepo(db postgres.DB, builder squirrel.StatementBuilderType) *PgLedgerRepo {
	return &PgLedgerRepo{
		db:   db,
		repo: repo{db: db, builder: builder, now: time.Now},
	}
}

func (r *PgLedgerRepo) InTransaction(ctx context.Context, fn func(ctx context.Context, repo wallet.TxLedgerRepo) error) error {
	return postgres.InTransaction(ctx, r.db, func(ctx context.Context, tx postgres.Executor) error {
		txRepo := repo{db: tx, builder: r.builder, now: r.now}
		return fn(ctx, &txRepo)
	})
}

type repo struct {
	db      postgres.Executor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

func (r *repo) EnsureAccount(ctx context.Context, userID uuid.UUID, currency string) error {
	now := r.now().UTC()
	query, args, err := r.builder.Insert("wallet_accounts").
		Columns("user_id", "balance", "currency", "created_at", "updated_at").
		Values(userID, decimal.Zero, currency, now, now).
		Suffix("ON CONFLICT (user_id) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := postgres.Conn(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert wallet account: %w", err)
	}
	return nil
}

func (r *repo) GetAccount(ctx context.Context, userID uuid.UUID) (wallet.Account, error) {
	query, args, err := r.builder.Select("user_id", "balance", "currency", "created_at", "updated_at").
		From("wallet_accounts").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return wallet.Account{}, fmt.Errorf("build select query: %w", err)
	}

	var a wallet.Account
	err = postgres.Conn(ctx, r.db).QueryRow(ctx, query, args...).
		Scan(&a.UserID, &a.Balance, &a.Currency, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return wallet.Account{}, fmt.Errorf("%w: %s", wallet.ErrAccountNotFound, userID)
	}
	if err != nil {
		return wallet.Account{}, fmt.Errorf("select wallet account: %w", err)
	}
	return a, nil
}

// ApplyPosting guards debits in the UPDATE itself, so an overdraft matches
// zero rows. The row lock orders concurrent postings on one account.
func (r *repo) ApplyPosting(ctx context.Context, p wallet.Posting) (wallet.Transaction, error) {
	now := r.now().UTC()
	db := postgres.Conn(ctx, r.db)

	update := r.builder.Update("wallet_accounts").
		Set("updated_at", now).
		Where(squirrel.Eq{"user_id": p.AccountID})
	switch p.Direction {
	case wallet.Debit:
		update = update.
			Set("balance", squirrel.Expr("balance - ?", p.Amount)).
			Where("balance >= ?", p.Amount)
	case wallet.Credit:
		update = update.Set("balance", squirrel.Expr("balance + ?", p.Amount))
	default:
		return wallet.Transaction{}, fmt.Errorf("%w: unknown direction %q", wallet.ErrInvalidTransfer, p.Direction)
	}

	query, args, err := update.Suffix("RETURNING balance").ToSql()
	if err != nil {
		return wallet.Transaction{}, fmt.Errorf("build balance update: %w", err)
	}

	var after decimal.Decimal
	err = db.QueryRow(ctx, query, args...).Scan(&after)
	if errors.Is(err, pgx.ErrNoRows) {
		return wallet.Transaction{}, r.explainNoRows(ctx, p)
	}
	if postgres.IsPgErrorCheckViolation(err) {
		return wallet.Transaction{}, fmt.Errorf("%w: account %s", wallet.ErrInsufficientFunds, p.AccountID)
	}
	if err != nil {
		return wallet.Transaction{}, fmt.Errorf("update balance: %w", err)
	}

	before := after.Add(p.Amount)
	if p.Direction == wallet.Credit {
		before = after.Sub(p.Amount)
	}

	t := wallet.Transaction{
		ID:              uuid.New(),
		AccountID:       p.AccountID,
		Type:            p.Type,
		Status:          wallet.StatusCompleted,
		Direction:       p.Direction,
		Amount:          p.Amount,
		Currency:        p.Currency,
		OrderID:         p.OrderID,
		PaymentIntentID: p.PaymentIntentID,
		IdempotencyKey:  p.IdempotencyKey,
		BalanceBefore:   before,
		BalanceAfter:    after,
		Description:     p.Description,
		CreatedAt:       now,
	}

	insert, args, err := r.builder.Insert("wallet_transactions").
		Columns(transactionColumns...).
		Values(
			t.ID, t.AccountID, string(t.Type), string(t.Status), string(t.Direction), t.Amount, t.Currency,
			t.OrderID, t.PaymentIntentID, t.IdempotencyKey,
			t.BalanceBefore, t.BalanceAfter, t.Description, t.FailureReason, t.CreatedAt,
		).
		ToSql()
	if err != nil {
		return wallet.Transaction{}, fmt.Errorf("build insert query: %w", err)
	}

	_, err = db.Exec(ctx, insert, args...)
	if postgres.IsPgErrorUniqueViolation(err) {
		return wallet.Transaction{}, fmt.Errorf("%w: %s", wallet.ErrDuplicateTransaction, p.IdempotencyKey)
	}
	if err != nil {
		return wallet.Transaction{}, fmt.Errorf("insert wallet transaction: %w", err)
	}

	return t, nil
}

func (r *repo) explainNoRows(ctx context.Context, p wallet.Posting) error {
	if _, err := r.GetAccount(ctx, p.AccountID); err != nil {
		return err
	}
	return fmt.Errorf("%w: account %s cannot cover %s", wallet.ErrInsufficientFunds, p.AccountID, p.Amount)
}

func (r *repo) GetTransactionByKey(ctx context.Context, key string) (*wallet.Transaction, error) {
	txs, err := r.getTransactions(ctx, r.builder.Select(transactionColumns...).
		From("wallet_transactions").
		Where(squirrel.Eq{"idempotency_key": key}))
	if err != nil {
		return nil, err
	}
	if len(txs) == 0 {
		return nil, nil
	}
	return &txs[0], nil
}

func (r *repo) GetTransactions(ctx context.Context, q wallet.TransactionQuery) ([]wallet.Transaction, error) {
	b := r.builder.Select(transactionColumns...).
		From("wallet_transactions").
		Where(squirrel.Eq{"account_id": q.AccountID})

	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		b = b.Where(squirrel.Eq{"type": types})
	}
	if len(q.OrderIDs) > 0 {
		b = b.Where(squirrel.Eq{"order_id": q.OrderIDs})
	}

	b = b.OrderBy("created_at DESC", "id DESC")
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	if q.Offset > 0 {
		b = b.Offset(uint64(q.Offset))
	}

	return r.getTransactions(ctx, b)
}

func (r *repo) getTransactions(ctx context.Context, b squirrel.SelectBuilder) ([]wallet.Transaction, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := postgres.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query wallet transactions: %w", err)
	}
	defer rows.Close()

	return parseTransactionRows(rows)
}

func parseTransactionRows(rows pgx.Rows) ([]wallet.Transaction, error) {
	var txs []wallet.Transaction
	for rows.Next() {
		var (
			t                       wallet.Transaction
			kind, status, direction string
		)
		err := rows.Scan(
			&t.ID, &t.AccountID, &kind, &status, &direction, &t.Amount, &t.Currency,
			&t.OrderID, &t.PaymentIntentID, &t.IdempotencyKey,
			&t.BalanceBefore, &t.BalanceAfter, &t.Description, &t.FailureReason, &t.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet transaction row: %w", err)
		}
		t.Type = wallet.TransactionType(kind)
		t.Status = wallet.TransactionStatus(status)
		t.Direction = wallet.Direction(direction)
		txs = append(txs, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate wallet transaction rows: %w", err)
	}
	return txs, nil
}
