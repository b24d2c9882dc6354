package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/metrics"
)

func TestBookingCountersIncrement(t *testing.T) {
	createdBefore := promtestutil.ToFloat64(metrics.BookingsTotal.WithLabelValues(metrics.OutcomeCreated))
	replayedBefore := promtestutil.ToFloat64(metrics.BookingsTotal.WithLabelValues(metrics.OutcomeReplayed))

	metrics.RecordBookingCreated()
	metrics.RecordBookingReplayed()
	metrics.RecordBookingReplayed()

	require.Equal(t, createdBefore+1, promtestutil.ToFloat64(metrics.BookingsTotal.WithLabelValues(metrics.OutcomeCreated)))
	require.Equal(t, replayedBefore+2, promtestutil.ToFloat64(metrics.BookingsTotal.WithLabelValues(metrics.OutcomeReplayed)))
}

func TestRecordExpiredBookingsIgnoresNonPositiveCounts(t *testing.T) {
	before := promtestutil.ToFloat64(metrics.ExpiredBookingsTotal)

	metrics.RecordExpiredBookings(0)
	metrics.RecordExpiredBookings(-3)
	require.Equal(t, before, promtestutil.ToFloat64(metrics.ExpiredBookingsTotal))

	metrics.RecordExpiredBookings(3)
	require.Equal(t, before+3, promtestutil.ToFloat64(metrics.ExpiredBookingsTotal))
}

func TestHandlerExposesBookingMetrics(t *testing.T) {
	metrics.RecordPayment()
	metrics.RecordRateLimited("bookings")
	metrics.RecordBookingRejected("insufficient_inventory")

	server := httptest.NewServer(metrics.Handler())
	defer server.Close()

	response, err := server.Client().Get(server.URL)
	require.NoError(t, err)
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "booking_payments_total")
	require.Contains(t, string(body), `booking_rate_limited_total{route="bookings"}`)
	require.Contains(t, string(body), `booking_rejections_total{reason="insufficient_inventory"}`)
}
