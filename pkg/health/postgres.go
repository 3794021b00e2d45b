package health

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// RowQuerier is satisfied by *pgxpool.Pool and pgxmock pools.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresChecker is up once the database answers and the escrow wallet
// seeded by the migrations is present in the configured currency.
// Settlement cannot run without it.
type PostgresChecker struct {
	db       RowQuerier
	escrowID string
	currency string
}

func NewPostgresChecker(db RowQuerier, escrowID, currency string) *PostgresChecker {
	return &PostgresChecker{db: db, escrowID: escrowID, currency: currency}
}

func (c *PostgresChecker) Name() string {
	return "postgres"
}

func (c *PostgresChecker) Check(ctx context.Context) Result {
	var currency string
	err := c.db.QueryRow(ctx, "SELECT currency FROM wallet_accounts WHERE user_id = $1", c.escrowID).Scan(&currency)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Result{Status: StatusDown, Message: "escrow account " + c.escrowID + " is missing"}
	case err != nil:
		return Result{Status: StatusDown, Message: err.Error()}
	case c.currency != "" && !strings.EqualFold(currency, c.currency):
		return Result{Status: StatusDown, Message: fmt.Sprintf("escrow account holds %s, configured currency is %s", currency, c.currency)}
	}
	return Result{Status: StatusUp}
}
