package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/booking"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

const (
	errorValueInvalidJSON           = "invalid_json"
	errorValueInvalidType           = "invalid_type"
	errorValueInvalidPaging         = "invalid_paging"
	errorValueInvalidInventoryID    = "invalid_inventory_id"
	errorValueInvalidQuantity       = "invalid_quantity"
	errorValueInvalidAmount         = "invalid_amount"
	errorValueInvalidProviderRef    = "invalid_provider_ref"
	errorValueMissingIdempotencyKey = "missing_idempotency_key"
	errorValueInvalidIdempotencyKey = "invalid_idempotency_key"
	errorValueUnknownInventory      = "unknown_inventory"
	errorValueUnknownBooking        = "unknown_booking"
	errorValueInsufficientInventory = "insufficient_inventory"
	errorValueBookingNotPending     = "booking_not_pending"
	errorValueBookingExpired        = "booking_expired"
	errorValueInternal              = "internal_error"
)

type errorMapping struct {
	target error
	status int
	value  string
}

var domainErrorMappings = []errorMapping{
	{target: booking.ErrMissingIdempotencyKey, status: http.StatusBadRequest, value: errorValueMissingIdempotencyKey},
	{target: model.ErrInvalidBookingIdempotencyKey, status: http.StatusBadRequest, value: errorValueInvalidIdempotencyKey},
	{target: model.ErrInvalidBookingQuantity, status: http.StatusBadRequest, value: errorValueInvalidQuantity},
	{target: model.ErrInvalidPaymentAmount, status: http.StatusBadRequest, value: errorValueInvalidAmount},
	{target: model.ErrInvalidPaymentProviderRef, status: http.StatusBadRequest, value: errorValueInvalidProviderRef},
	{target: booking.ErrInventoryNotFound, status: http.StatusNotFound, value: errorValueUnknownInventory},
	{target: booking.ErrBookingNotFound, status: http.StatusNotFound, value: errorValueUnknownBooking},
	{target: model.ErrInsufficientInventory, status: http.StatusConflict, value: errorValueInsufficientInventory},
	{target: booking.ErrBookingNotPending, status: http.StatusConflict, value: errorValueBookingNotPending},
	{target: booking.ErrBookingExpired, status: http.StatusConflict, value: errorValueBookingExpired},
}

// classifyError maps a service error onto a status code and error value.
func classifyError(err error) (int, string) {
	for _, mapping := range domainErrorMappings {
		if errors.Is(err, mapping.target) {
			return mapping.status, mapping.value
		}
	}
	return http.StatusInternalServerError, errorValueInternal
}

func writeServiceError(context *gin.Context, logger *zap.Logger, event string, err error) string {
	status, value := classifyError(err)
	if status == http.StatusInternalServerError {
		logger.Error(event, zap.Error(err))
	}
	context.JSON(status, gin.H{"error": value})
	return value
}

type inventoryResponse struct {
	ID            int64     `json:"id"`
	Type          string    `json:"type"`
	ItemCode      string    `json:"item_code"`
	TotalCapacity int       `json:"total_capacity"`
	Available     int       `json:"available"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type inventoryPageResponse struct {
	Content       []inventoryResponse `json:"content"`
	Page          int                 `json:"page"`
	Size          int                 `json:"size"`
	TotalElements int64               `json:"total_elements"`
	TotalPages    int                 `json:"total_pages"`
}

type availabilityResponse struct {
	InventoryID int64 `json:"inventory_id"`
	Available   int   `json:"available"`
}

type bookingResponse struct {
	ID          string    `json:"id"`
	InventoryID int64     `json:"inventory_id"`
	Quantity    int       `json:"quantity"`
	Status      string    `json:"status"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type paymentResponse struct {
	ID          int64           `json:"id"`
	Status      string          `json:"status"`
	ProviderRef string          `json:"provider_ref,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type bookingPaymentResponse struct {
	Booking bookingResponse `json:"booking"`
	Payment paymentResponse `json:"payment"`
}

func toInventoryResponse(inventory model.Inventory) inventoryResponse {
	return inventoryResponse{
		ID:            inventory.ID,
		Type:          string(inventory.Type),
		ItemCode:      inventory.ItemCode,
		TotalCapacity: inventory.TotalCapacity,
		Available:     inventory.Available,
		CreatedAt:     inventory.CreatedAt.UTC(),
		UpdatedAt:     inventory.UpdatedAt.UTC(),
	}
}

func toBookingResponse(bookingRecord model.Booking) bookingResponse {
	return bookingResponse{
		ID:          bookingRecord.ID,
		InventoryID: bookingRecord.InventoryID,
		Quantity:    bookingRecord.Quantity,
		Status:      string(bookingRecord.Status),
		ExpiresAt:   bookingRecord.ExpiresAt.UTC(),
	}
}

func toPaymentResponse(payment model.Payment) paymentResponse {
	return paymentResponse{
		ID:          payment.ID,
		Status:      string(payment.Status),
		ProviderRef: payment.ProviderRef,
		Amount:      payment.Amount,
	}
}
