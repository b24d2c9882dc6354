package booking

import "errors"

var (
	ErrInventoryNotFound     = errors.New("inventory_not_found")
	ErrBookingNotFound       = errors.New("booking_not_found")
	ErrBookingNotPending     = errors.New("booking_not_pending")
	ErrBookingExpired        = errors.New("booking_expired")
	ErrMissingIdempotencyKey = errors.New("missing_idempotency_key")
)
