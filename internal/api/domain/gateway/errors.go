package gateway

import "errors"

var (
	// ErrUnavailable covers timeouts, transport errors and 5xx answers. Callers may retry.
	ErrUnavailable = errors.New("payment gateway unavailable")

	// ErrRejected is a 4xx answer from the gateway. Retrying the same request will not help.
	ErrRejected = errors.New("payment gateway rejected request")

	ErrIntentNotFound = errors.New("payment intent not found")

	ErrInvalidSignature = errors.New("invalid webhook signature")

	ErrUnknownEventKind = errors.New("unknown gateway event kind")

	ErrUnknownPurpose = errors.New("unknown payment intent purpose")

	ErrMalformedEvent = errors.New("malformed gateway event")
)
