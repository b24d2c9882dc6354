package main

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/httpapi"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/metrics"
)

const (
	apiRoutePrefix                = "/api"
	apiRouteInventories           = "/inventories"
	apiRouteInventoryAvailability = "/inventories/:id/availability"
	apiRouteBookings              = "/bookings"
	apiRouteBooking               = "/bookings/:id"
	apiRouteBookingPayments       = "/bookings/:id/payments"
	apiRoutePreflight             = "/*path"
	frontendRouteBooking          = httpapi.BookingPagePathPrefix + ":id"
	rateLimitRouteCreateBooking   = "create_booking"
	corsOriginWildcard            = "*"
	corsOriginSeparator           = ","
	corsHeaderContentType         = "Content-Type"
	httpMethodGet                 = "GET"
	httpMethodOptions             = "OPTIONS"
	httpMethodPost                = "POST"
	corsMaxAge                    = 12 * time.Hour
)

var (
	corsAllowedMethods = []string{httpMethodGet, httpMethodPost, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderContentType, httpapi.HeaderIdempotencyKey}
	corsExposedHeaders = []string{corsHeaderContentType, httpapi.HeaderIdempotentReplay}
)

type backendHandlers struct {
	inventory      *httpapi.InventoryHandlers
	bookings       *httpapi.BookingHandlers
	health         *httpapi.HealthHandlers
	bookingLimiter *httpapi.IPRateLimiter
}

// parseTrustedProxies splits a comma separated proxy list. An empty list trusts no proxy.
func parseTrustedProxies(rawProxies string) []string {
	var proxies []string
	for _, proxy := range strings.Split(rawProxies, corsOriginSeparator) {
		if trimmedProxy := strings.TrimSpace(proxy); trimmedProxy != "" {
			proxies = append(proxies, trimmedProxy)
		}
	}
	return proxies
}

// parseAllowedOrigins splits a comma separated origin list. An empty list allows any origin.
func parseAllowedOrigins(rawOrigins string) []string {
	var origins []string
	for _, origin := range strings.Split(rawOrigins, corsOriginSeparator) {
		trimmedOrigin := strings.TrimSpace(origin)
		if trimmedOrigin == "" {
			continue
		}
		if trimmedOrigin == corsOriginWildcard {
			return []string{corsOriginWildcard}
		}
		origins = append(origins, strings.TrimSuffix(trimmedOrigin, "/"))
	}
	if len(origins) == 0 {
		return []string{corsOriginWildcard}
	}
	return origins
}

func newAPICORS(frontendOrigin string) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     parseAllowedOrigins(frontendOrigin),
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           corsMaxAge,
	})
}

func registerFrontendRoutes(router *gin.Engine, webHandlers *httpapi.WebHandlers) {
	router.GET(httpapi.SearchPagePath, webHandlers.RenderSearchPage)
	router.GET(frontendRouteBooking, webHandlers.RenderBookingPage)
	router.GET(httpapi.BookingShellPath, webHandlers.RenderBookingShell)
	router.GET(httpapi.ConfigScriptPath, webHandlers.ConfigScript)
}

func registerBackendRoutes(router *gin.Engine, handlers backendHandlers, frontendOrigin string) {
	router.GET(httpapi.HealthPath, handlers.health.Health)
	router.GET(httpapi.MetricsPath, gin.WrapH(metrics.Handler()))

	apiGroup := router.Group(apiRoutePrefix)
	apiGroup.Use(newAPICORS(frontendOrigin))
	apiGroup.OPTIONS(apiRoutePreflight, func(*gin.Context) {})
	apiGroup.GET(apiRouteInventories, handlers.inventory.ListInventories)
	apiGroup.GET(apiRouteInventoryAvailability, handlers.inventory.InventoryAvailability)
	apiGroup.POST(apiRouteBookings, httpapi.RateLimitMiddleware(handlers.bookingLimiter, rateLimitRouteCreateBooking), handlers.bookings.CreateBooking)
	apiGroup.GET(apiRouteBooking, handlers.bookings.GetBooking)
	apiGroup.POST(apiRouteBookingPayments, handlers.bookings.PayBooking)
}
