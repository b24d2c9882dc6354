package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingStatus tracks where a booking is in its payment lifecycle.
type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "PENDING_PAYMENT"
	BookingStatusConfirmed      BookingStatus = "CONFIRMED"
	BookingStatusExpired        BookingStatus = "EXPIRED"

	// DefaultBookingUserID is assigned until bookings carry an authenticated user.
	DefaultBookingUserID = "demo-user"

	bookingIdempotencyKeyMaxLength = 80
	bookingUserIDMaxLength         = 80
)

var (
	ErrInvalidBookingQuantity       = errors.New("invalid_booking_quantity")
	ErrInvalidBookingIdempotencyKey = errors.New("invalid_booking_idempotency_key")
	ErrInvalidBookingInventory      = errors.New("invalid_booking_inventory")
	ErrInvalidBookingUser           = errors.New("invalid_booking_user")
)

// Booking holds reserved inventory until it is paid for or expires.
type Booking struct {
	ID             string        `gorm:"primaryKey;size:36"`
	UserID         string        `gorm:"not null;size:80"`
	InventoryID    int64         `gorm:"not null;index:idx_bookings_inventory_id"`
	Quantity       int           `gorm:"not null"`
	Status         BookingStatus `gorm:"not null;size:30;index:idx_bookings_status_expires_at,priority:1"`
	ExpiresAt      time.Time     `gorm:"index:idx_bookings_status_expires_at,priority:2"`
	IdempotencyKey string        `gorm:"not null;size:80;uniqueIndex:uq_bookings_idempotency_key"`
	CreatedAt      time.Time     `gorm:"autoCreateTime"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime"`
}

// BookingInput holds the raw values used to construct a Booking.
type BookingInput struct {
	UserID         string
	InventoryID    int64
	Quantity       int
	IdempotencyKey string
	ExpiresAt      time.Time
}

// NewBooking constructs a pending Booking with validated, normalized fields.
func NewBooking(input BookingInput) (Booking, error) {
	if input.InventoryID <= 0 {
		return Booking{}, ErrInvalidBookingInventory
	}
	if input.Quantity < 1 {
		return Booking{}, fmt.Errorf("%w: %d", ErrInvalidBookingQuantity, input.Quantity)
	}

	idempotencyKey := strings.TrimSpace(input.IdempotencyKey)
	if idempotencyKey == "" || len(idempotencyKey) > bookingIdempotencyKeyMaxLength {
		return Booking{}, fmt.Errorf("%w: empty or too long", ErrInvalidBookingIdempotencyKey)
	}

	userID := strings.TrimSpace(input.UserID)
	if userID == "" {
		userID = DefaultBookingUserID
	}
	if len(userID) > bookingUserIDMaxLength {
		return Booking{}, fmt.Errorf("%w: too long", ErrInvalidBookingUser)
	}

	return Booking{
		ID:             uuid.NewString(),
		UserID:         userID,
		InventoryID:    input.InventoryID,
		Quantity:       input.Quantity,
		Status:         BookingStatusPendingPayment,
		ExpiresAt:      input.ExpiresAt.UTC(),
		IdempotencyKey: idempotencyKey,
	}, nil
}

func (booking Booking) IsPending() bool {
	return booking.Status == BookingStatusPendingPayment
}

// IsExpired reports whether a pending booking's hold has lapsed at now.
func (booking Booking) IsExpired(now time.Time) bool {
	return booking.IsPending() && !booking.ExpiresAt.IsZero() && now.After(booking.ExpiresAt)
}
