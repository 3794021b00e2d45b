package wallet

import "errors"

var (
	// ErrInsufficientFunds means the debit cannot be applied. Not retryable.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrAlreadySettled is surfaced when an operation keyed by the same
	// idempotency key already committed with different parameters.
	ErrAlreadySettled = errors.New("operation already settled")

	ErrAccountNotFound = errors.New("wallet account not found")

	ErrInvalidAmount = errors.New("invalid amount")

	ErrInvalidTransfer = errors.New("invalid transfer")

	// ErrDuplicateTransaction is returned by the repository when the idempotency
	// key is already taken. The service turns it into a replay.
	ErrDuplicateTransaction = errors.New("transaction with this idempotency key already exists")
)
