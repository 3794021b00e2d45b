package order

import "errors"

var (
	// ErrNotFound is returned when order is not found
	ErrNotFound = errors.New("order not found")

	// ErrAlreadyExists is returned when attempting to create an order that already exists
	ErrAlreadyExists = errors.New("order already exists")

	// ErrInvalidTransition is returned when the action is not allowed from the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrInFinalStatus is returned when attempting to modify an order in final status
	ErrInFinalStatus = errors.New("order is in final status")

	// ErrStatusConflict is returned when a concurrent writer moved the order first
	ErrStatusConflict = errors.New("order status changed concurrently")

	// ErrForbidden is returned when the actor does not own the order or lacks the role
	ErrForbidden = errors.New("action is not allowed for this actor")

	ErrInvalidInput = errors.New("invalid order input")

	ErrReelNotFound = errors.New("reel not found")
	ErrReelInactive = errors.New("reel is not available for ordering")

	// ErrPaymentRequired is returned when a prepaid order is accepted before it is paid
	ErrPaymentRequired = errors.New("order is not paid yet")

	// ErrIntentMismatch is returned when a payment confirmation names a different intent than the order holds
	ErrIntentMismatch = errors.New("payment intent does not belong to order")

	// ErrInvalidQuery is returned when order query validation fails
	ErrInvalidQuery = errors.New("invalid orders query")

	// ErrEventAlreadyStored is returned when event with same (order_id, provider_event_id) already exists
	ErrEventAlreadyStored = errors.New("event already stored")
)
