// Package metrics exposes Prometheus counters for the booking backend.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "booking"

	OutcomeCreated  = "created"
	OutcomeReplayed = "replayed"
)

var (
	// BookingsTotal counts booking requests that produced a booking, by outcome.
	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bookings_total",
		Help:      "Total number of bookings created or replayed by idempotency key.",
	}, []string{"outcome"})

	// BookingRejectionsTotal counts booking requests rejected by reason.
	BookingRejectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rejections_total",
		Help:      "Total number of rejected booking requests, by reason.",
	}, []string{"reason"})

	PaymentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "payments_total",
		Help:      "Total number of bookings confirmed by payment.",
	})

	ExpiredBookingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "expired_bookings_total",
		Help:      "Total number of pending bookings released after their hold lapsed.",
	})

	RateLimitedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Total number of requests rejected by the rate limiter, by route.",
	}, []string{"route"})
)

func RecordBookingCreated() {
	BookingsTotal.WithLabelValues(OutcomeCreated).Inc()
}

func RecordBookingReplayed() {
	BookingsTotal.WithLabelValues(OutcomeReplayed).Inc()
}

// RecordBookingRejected counts a rejected booking. Reasons must come from a fixed set of error codes.
func RecordBookingRejected(reason string) {
	BookingRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordPayment() {
	PaymentsTotal.Inc()
}

func RecordExpiredBookings(count int) {
	if count <= 0 {
		return
	}
	ExpiredBookingsTotal.Add(float64(count))
}

func RecordRateLimited(route string) {
	RateLimitedTotal.WithLabelValues(route).Inc()
}

// Handler serves the default Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
