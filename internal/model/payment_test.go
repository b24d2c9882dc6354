package model

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewPaymentRoundsAmountToCents(t *testing.T) {
	payment, err := NewPayment(" booking-1 ", decimal.RequireFromString("149.995"), " stripe_ch_1 ")
	require.NoError(t, err)
	require.Equal(t, "booking-1", payment.BookingID)
	require.Equal(t, PaymentStatusPaid, payment.Status)
	require.Equal(t, "stripe_ch_1", payment.ProviderRef)
	require.True(t, decimal.RequireFromString("150.00").Equal(payment.Amount))
}

func TestNewPaymentValidatesInput(t *testing.T) {
	_, err := NewPayment("", decimal.NewFromInt(10), "")
	require.ErrorIs(t, err, ErrInvalidPaymentBooking)

	_, err = NewPayment("booking-1", decimal.Zero, "")
	require.ErrorIs(t, err, ErrInvalidPaymentAmount)

	_, err = NewPayment("booking-1", decimal.NewFromInt(-5), "")
	require.ErrorIs(t, err, ErrInvalidPaymentAmount)

	_, err = NewPayment("booking-1", decimal.RequireFromString("0.004"), "")
	require.ErrorIs(t, err, ErrInvalidPaymentAmount)

	payment, err := NewPayment("booking-1", decimal.RequireFromString("0.005"), "")
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString("0.01").Equal(payment.Amount))

	_, err = NewPayment("booking-1", decimal.NewFromInt(10), strings.Repeat("r", paymentProviderRefMaxLength+1))
	require.ErrorIs(t, err, ErrInvalidPaymentProviderRef)
}
