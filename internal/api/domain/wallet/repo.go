package wallet

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source repo.go -destination mock_repo.go -package wallet

type LedgerRepo interface {
	TxLedgerRepo
	InTransaction(ctx context.Context, fn func(ctx context.Context, repo TxLedgerRepo) error) error
}

type TxLedgerRepo interface {
	// EnsureAccount creates a zero-balance account if the user has none.
	EnsureAccount(ctx context.Context, userID uuid.UUID, currency string) error
	GetAccount(ctx context.Context, userID uuid.UUID) (Account, error)

	// ApplyPosting moves the balance and appends the transaction row in one step.
	// Debits fail with ErrInsufficientFunds when the balance would go negative;
	// a taken idempotency key fails with ErrDuplicateTransaction.
	ApplyPosting(ctx context.Context, posting Posting) (Transaction, error)

	// GetTransactionByKey returns nil when no transaction has the key.
	GetTransactionByKey(ctx context.Context, key string) (*Transaction, error)
	GetTransactions(ctx context.Context, query TransactionQuery) ([]Transaction, error)
}
