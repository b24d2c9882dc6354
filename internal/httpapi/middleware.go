package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/metrics"
)

const (
	// DefaultBookingRequestsPerSecond bounds booking creation per client IP.
	DefaultBookingRequestsPerSecond = 5
	// DefaultBookingRequestBurst is the per-IP burst allowance.
	DefaultBookingRequestBurst = 10

	defaultLimiterIdleTimeout = 10 * time.Minute
	errorValueRateLimited     = "rate_limited"
)

func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(context *gin.Context) {
		start := time.Now()
		context.Next()
		logger.Info("http",
			zap.String("method", context.Request.Method),
			zap.String("path", context.Request.URL.Path),
			zap.Int("status", context.Writer.Status()),
			zap.Duration("dur", time.Since(start)),
			zap.String("ip", context.ClientIP()),
			zap.String("ua", context.Request.UserAgent()),
		)
	}
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPRateLimiter keeps one token bucket per client IP. Buckets unused for the
// idle timeout are dropped on the next sweep.
type IPRateLimiter struct {
	limit       rate.Limit
	burst       int
	idleTimeout time.Duration
	mutex       sync.Mutex
	limiters    map[string]*ipLimiterEntry
	lastSweep   time.Time
	now         func() time.Time
}

func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &IPRateLimiter{
		limit:       limit,
		burst:       burst,
		idleTimeout: defaultLimiterIdleTimeout,
		limiters:    make(map[string]*ipLimiterEntry),
		now:         time.Now,
	}
}

// Allow reports whether the client at clientIP may proceed.
func (limiter *IPRateLimiter) Allow(clientIP string) bool {
	limiter.mutex.Lock()
	defer limiter.mutex.Unlock()

	now := limiter.now()
	if now.Sub(limiter.lastSweep) >= limiter.idleTimeout {
		for ip, entry := range limiter.limiters {
			if now.Sub(entry.lastSeen) >= limiter.idleTimeout {
				delete(limiter.limiters, ip)
			}
		}
		limiter.lastSweep = now
	}

	entry, exists := limiter.limiters[clientIP]
	if !exists {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(limiter.limit, limiter.burst)}
		limiter.limiters[clientIP] = entry
	}
	entry.lastSeen = now
	return entry.limiter.AllowN(now, 1)
}

// RateLimitMiddleware rejects requests over the per-IP budget with 429.
func RateLimitMiddleware(limiter *IPRateLimiter, routeLabel string) gin.HandlerFunc {
	return func(context *gin.Context) {
		if limiter == nil || limiter.Allow(context.ClientIP()) {
			context.Next()
			return
		}
		metrics.RecordRateLimited(routeLabel)
		context.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": errorValueRateLimited})
	}
}
