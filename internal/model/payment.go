package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusPaid PaymentStatus = "PAID"

	paymentProviderRefMaxLength = 120
	paymentAmountScale          = 2
)

var (
	ErrInvalidPaymentAmount      = errors.New("invalid_payment_amount")
	ErrInvalidPaymentProviderRef = errors.New("invalid_payment_provider_ref")
	ErrInvalidPaymentBooking     = errors.New("invalid_payment_booking")
)

// Payment records the settlement of a booking. A booking has at most one payment.
type Payment struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	BookingID   string          `gorm:"not null;size:36;uniqueIndex:uq_payments_booking"`
	Status      PaymentStatus   `gorm:"not null;size:20"`
	ProviderRef string          `gorm:"size:120"`
	Amount      decimal.Decimal `gorm:"not null;type:decimal(12,2)"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}

// NewPayment constructs a paid Payment rounded to cents. An amount that rounds
// to zero is rejected.
func NewPayment(bookingID string, amount decimal.Decimal, providerRef string) (Payment, error) {
	normalizedBookingID := strings.TrimSpace(bookingID)
	if normalizedBookingID == "" {
		return Payment{}, ErrInvalidPaymentBooking
	}
	roundedAmount := amount.Round(paymentAmountScale)
	if !roundedAmount.IsPositive() {
		return Payment{}, fmt.Errorf("%w: %s", ErrInvalidPaymentAmount, amount.String())
	}
	normalizedProviderRef := strings.TrimSpace(providerRef)
	if len(normalizedProviderRef) > paymentProviderRefMaxLength {
		return Payment{}, fmt.Errorf("%w: too long", ErrInvalidPaymentProviderRef)
	}
	return Payment{
		BookingID:   normalizedBookingID,
		Status:      PaymentStatusPaid,
		ProviderRef: normalizedProviderRef,
		Amount:      roundedAmount,
	}, nil
}
