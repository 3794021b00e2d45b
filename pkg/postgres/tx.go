package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Executor is the query surface shared by *pgxpool.Pool, pgx.Tx and pgxmock.
type Executor interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxStarter begins a transaction. pgx.Tx satisfies it too, which gives savepoints.
type TxStarter interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// DB is a pool-like handle: it runs queries and opens transactions.
type DB interface {
	Executor
	TxStarter
}

// TxFunc receives a context bound to the open transaction. Nested InTransaction
// calls made with that context join the transaction through a savepoint.
type TxFunc func(ctx context.Context, tx Executor) error

type txKey struct{}

func withTx(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{}).(pgx.Tx)
	return tx, ok
}

// Conn returns the transaction bound to ctx, or fallback when there is none.
// Repositories route every statement through it.
func Conn(ctx context.Context, fallback Executor) Executor {
	if tx, ok := TxFromContext(ctx); ok {
		return tx
	}
	return fallback
}

// InTransaction commits when fn returns nil and rolls back otherwise.
func InTransaction(ctx context.Context, db TxStarter, fn TxFunc) error {
	var starter TxStarter = db
	if outer, ok := TxFromContext(ctx); ok {
		starter = outer
	}

	tx, err := starter.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(withTx(ctx, tx), tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			slog.WarnContext(ctx, "Failed to rollback transaction", slog.Any("error", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
