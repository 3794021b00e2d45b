package payment

import "errors"

var (
	// ErrAmountMismatch means the gateway captured a different amount than the order total.
	ErrAmountMismatch = errors.New("captured amount does not match order total")

	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")

	ErrInvalidTopUp = errors.New("invalid top-up amount")
)
