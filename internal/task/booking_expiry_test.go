package task

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubExpirer struct {
	expiredCount int
	err          error
	calls        int
}

func (expirer *stubExpirer) ExpireStale(context.Context) (int, error) {
	expirer.calls++
	return expirer.expiredCount, expirer.err
}

func TestBookingExpiryJobLogsExpiredCount(testingT *testing.T) {
	observedCore, observedLogs := observer.New(zap.InfoLevel)
	expirer := &stubExpirer{expiredCount: 3}
	job := NewBookingExpiryJob(expirer, zap.New(observedCore))

	require.NoError(testingT, job.Run(context.Background()))
	require.Equal(testingT, 1, expirer.calls)

	entries := observedLogs.FilterMessage("bookings_expired").All()
	require.Len(testingT, entries, 1)
	require.EqualValues(testingT, 3, entries[0].ContextMap()["count"])
}

func TestBookingExpiryJobStaysQuietWhenNothingExpired(testingT *testing.T) {
	observedCore, observedLogs := observer.New(zap.InfoLevel)
	job := NewBookingExpiryJob(&stubExpirer{}, zap.New(observedCore))

	require.NoError(testingT, job.Run(context.Background()))
	require.Zero(testingT, observedLogs.Len())
}

func TestBookingExpiryJobPropagatesErrors(testingT *testing.T) {
	expectedErr := errors.New("database unavailable")
	job := NewBookingExpiryJob(&stubExpirer{err: expectedErr}, nil)

	require.ErrorIs(testingT, job.Run(context.Background()), expectedErr)
}
