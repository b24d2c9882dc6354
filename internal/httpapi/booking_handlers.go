package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/booking"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/metrics"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

const (
	// HeaderIdempotencyKey carries the client-chosen key that deduplicates booking requests.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay is set on responses served from an earlier booking.
	HeaderIdempotentReplay = "Idempotent-Replayed"
)

// BookingManager creates, reads, and settles bookings.
type BookingManager interface {
	Create(ctx context.Context, request booking.CreateBookingRequest, idempotencyKey string) (booking.CreateBookingResult, error)
	Get(ctx context.Context, bookingID string) (model.Booking, error)
	Pay(ctx context.Context, bookingID string, request booking.PaymentRequest) (booking.PaymentResult, error)
}

type BookingHandlers struct {
	manager BookingManager
	logger  *zap.Logger
}

func NewBookingHandlers(manager BookingManager, logger *zap.Logger) *BookingHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingHandlers{manager: manager, logger: logger}
}

type createBookingRequest struct {
	InventoryID *int64 `json:"inventory_id"`
	Quantity    int    `json:"quantity"`
}

type payBookingRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	ProviderRef string          `json:"provider_ref"`
}

// CreateBooking serves POST /api/bookings.
func (handlers *BookingHandlers) CreateBooking(context *gin.Context) {
	idempotencyKey := strings.TrimSpace(context.GetHeader(HeaderIdempotencyKey))
	if idempotencyKey == "" {
		metrics.RecordBookingRejected(errorValueMissingIdempotencyKey)
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueMissingIdempotencyKey})
		return
	}

	var payload createBookingRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}
	if payload.InventoryID == nil || *payload.InventoryID <= 0 {
		metrics.RecordBookingRejected(errorValueInvalidInventoryID)
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidInventoryID})
		return
	}

	result, createErr := handlers.manager.Create(context.Request.Context(), booking.CreateBookingRequest{
		InventoryID: *payload.InventoryID,
		Quantity:    payload.Quantity,
	}, idempotencyKey)
	if createErr != nil {
		reason := writeServiceError(context, handlers.logger, "create_booking", createErr)
		metrics.RecordBookingRejected(reason)
		return
	}

	status := http.StatusCreated
	if result.Replayed {
		context.Header(HeaderIdempotentReplay, "true")
		status = http.StatusOK
	}
	context.JSON(status, toBookingResponse(result.Booking))
}

// GetBooking serves GET /api/bookings/:id.
func (handlers *BookingHandlers) GetBooking(context *gin.Context) {
	bookingRecord, getErr := handlers.manager.Get(context.Request.Context(), context.Param(pathParameterID))
	if getErr != nil {
		writeServiceError(context, handlers.logger, "get_booking", getErr)
		return
	}
	context.JSON(http.StatusOK, toBookingResponse(bookingRecord))
}

// PayBooking serves POST /api/bookings/:id/payments.
func (handlers *BookingHandlers) PayBooking(context *gin.Context) {
	var payload payBookingRequest
	if bindErr := context.ShouldBindJSON(&payload); bindErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidJSON})
		return
	}

	result, payErr := handlers.manager.Pay(context.Request.Context(), context.Param(pathParameterID), booking.PaymentRequest{
		Amount:      payload.Amount,
		ProviderRef: payload.ProviderRef,
	})
	if payErr != nil {
		writeServiceError(context, handlers.logger, "pay_booking", payErr)
		return
	}
	context.JSON(http.StatusOK, bookingPaymentResponse{
		Booking: toBookingResponse(result.Booking),
		Payment: toPaymentResponse(result.Payment),
	})
}
