package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/metrics"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

const (
	// DefaultHoldDuration is how long a pending booking keeps its inventory reserved.
	DefaultHoldDuration = 30 * time.Minute

	expiryBatchSize = 100
)

type CreateBookingRequest struct {
	InventoryID int64
	Quantity    int
}

// CreateBookingResult carries the booking and whether it was replayed from an earlier request.
type CreateBookingResult struct {
	Booking  model.Booking
	Replayed bool
}

type PaymentRequest struct {
	Amount      decimal.Decimal
	ProviderRef string
}

type PaymentResult struct {
	Booking model.Booking
	Payment model.Payment
}

// BookingService reserves inventory for bookings and settles or expires them.
type BookingService struct {
	database     *gorm.DB
	logger       *zap.Logger
	holdDuration time.Duration
	now          func() time.Time
}

func NewBookingService(database *gorm.DB, logger *zap.Logger, holdDuration time.Duration) *BookingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if holdDuration <= 0 {
		holdDuration = DefaultHoldDuration
	}
	return &BookingService{
		database:     database,
		logger:       logger,
		holdDuration: holdDuration,
		now:          time.Now,
	}
}

// WithClock overrides the time source.
func (service *BookingService) WithClock(now func() time.Time) *BookingService {
	if now != nil {
		service.now = now
	}
	return service
}

// Create reserves request.Quantity units and stores a pending booking. A repeated
// idempotency key returns the booking stored for it without reserving again.
func (service *BookingService) Create(ctx context.Context, request CreateBookingRequest, idempotencyKey string) (CreateBookingResult, error) {
	normalizedKey := strings.TrimSpace(idempotencyKey)
	if normalizedKey == "" {
		return CreateBookingResult{}, ErrMissingIdempotencyKey
	}
	if request.Quantity < 1 {
		return CreateBookingResult{}, fmt.Errorf("%w: %d", model.ErrInvalidBookingQuantity, request.Quantity)
	}

	existing, found, lookupErr := service.findByIdempotencyKey(ctx, normalizedKey)
	if lookupErr != nil {
		return CreateBookingResult{}, lookupErr
	}
	if found {
		metrics.RecordBookingReplayed()
		return CreateBookingResult{Booking: existing, Replayed: true}, nil
	}

	var created model.Booking
	transactionErr := service.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var inventory model.Inventory
		if err := transaction.First(&inventory, "id = ?", request.InventoryID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %d", ErrInventoryNotFound, request.InventoryID)
			}
			return fmt.Errorf("booking: load inventory: %w", err)
		}
		if !inventory.CanReserve(request.Quantity) {
			return model.ErrInsufficientInventory
		}

		reservation := transaction.Model(&model.Inventory{}).
			Where("id = ? AND available >= ?", inventory.ID, request.Quantity).
			Updates(map[string]any{
				"available": gorm.Expr("available - ?", request.Quantity),
				"version":   gorm.Expr("version + 1"),
			})
		if reservation.Error != nil {
			return fmt.Errorf("booking: reserve inventory: %w", reservation.Error)
		}
		if reservation.RowsAffected == 0 {
			return model.ErrInsufficientInventory
		}

		booking, bookingErr := model.NewBooking(model.BookingInput{
			UserID:         model.DefaultBookingUserID,
			InventoryID:    inventory.ID,
			Quantity:       request.Quantity,
			IdempotencyKey: normalizedKey,
			ExpiresAt:      service.now().Add(service.holdDuration),
		})
		if bookingErr != nil {
			return bookingErr
		}
		if err := transaction.Create(&booking).Error; err != nil {
			return fmt.Errorf("booking: save booking: %w", err)
		}
		created = booking
		return nil
	})
	if transactionErr != nil {
		if isRejection(transactionErr) {
			return CreateBookingResult{}, transactionErr
		}
		// A concurrent request with the same key may have committed first.
		concurrent, found, lookupErr := service.findByIdempotencyKey(ctx, normalizedKey)
		if lookupErr == nil && found {
			metrics.RecordBookingReplayed()
			return CreateBookingResult{Booking: concurrent, Replayed: true}, nil
		}
		service.logger.Warn("save_booking", zap.Error(transactionErr))
		return CreateBookingResult{}, transactionErr
	}

	metrics.RecordBookingCreated()
	return CreateBookingResult{Booking: created}, nil
}

func (service *BookingService) Get(ctx context.Context, bookingID string) (model.Booking, error) {
	var booking model.Booking
	if err := service.database.WithContext(ctx).First(&booking, "id = ?", strings.TrimSpace(bookingID)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Booking{}, fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
		}
		return model.Booking{}, fmt.Errorf("booking: load booking: %w", err)
	}
	return booking, nil
}

// Pay confirms a pending booking whose hold has not lapsed.
func (service *BookingService) Pay(ctx context.Context, bookingID string, request PaymentRequest) (PaymentResult, error) {
	var result PaymentResult
	transactionErr := service.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		var booking model.Booking
		if err := transaction.First(&booking, "id = ?", strings.TrimSpace(bookingID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %s", ErrBookingNotFound, bookingID)
			}
			return fmt.Errorf("booking: load booking: %w", err)
		}
		if booking.Status == model.BookingStatusExpired || booking.IsExpired(service.now()) {
			return ErrBookingExpired
		}
		if !booking.IsPending() {
			return ErrBookingNotPending
		}

		payment, paymentErr := model.NewPayment(booking.ID, request.Amount, request.ProviderRef)
		if paymentErr != nil {
			return paymentErr
		}

		confirmation := transaction.Model(&model.Booking{}).
			Where("id = ? AND status = ?", booking.ID, model.BookingStatusPendingPayment).
			Update("status", model.BookingStatusConfirmed)
		if confirmation.Error != nil {
			return fmt.Errorf("booking: confirm booking: %w", confirmation.Error)
		}
		if confirmation.RowsAffected == 0 {
			return ErrBookingNotPending
		}
		if err := transaction.Create(&payment).Error; err != nil {
			return fmt.Errorf("booking: save payment: %w", err)
		}

		booking.Status = model.BookingStatusConfirmed
		result = PaymentResult{Booking: booking, Payment: payment}
		return nil
	})
	if transactionErr != nil {
		return PaymentResult{}, transactionErr
	}
	metrics.RecordPayment()
	return result, nil
}

// ExpireStale marks up to one batch of lapsed pending bookings as expired and
// returns their units to inventory. It returns the number of bookings expired.
func (service *BookingService) ExpireStale(ctx context.Context) (int, error) {
	now := service.now().UTC()

	var staleBookings []model.Booking
	if err := service.database.WithContext(ctx).
		Where("status = ? AND expires_at < ?", model.BookingStatusPendingPayment, now).
		Order("expires_at").
		Limit(expiryBatchSize).
		Find(&staleBookings).Error; err != nil {
		return 0, fmt.Errorf("booking: find stale bookings: %w", err)
	}

	expiredCount := 0
	for _, staleBooking := range staleBookings {
		expired, expireErr := service.expireBooking(ctx, staleBooking)
		if expireErr != nil {
			service.logger.Warn("booking_expiry_failed", zap.Error(expireErr), zap.String("booking_id", staleBooking.ID))
			continue
		}
		if expired {
			expiredCount++
		}
	}
	metrics.RecordExpiredBookings(expiredCount)
	return expiredCount, nil
}

func (service *BookingService) expireBooking(ctx context.Context, booking model.Booking) (bool, error) {
	expired := false
	transactionErr := service.database.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		statusUpdate := transaction.Model(&model.Booking{}).
			Where("id = ? AND status = ?", booking.ID, model.BookingStatusPendingPayment).
			Update("status", model.BookingStatusExpired)
		if statusUpdate.Error != nil {
			return statusUpdate.Error
		}
		if statusUpdate.RowsAffected == 0 {
			return nil
		}

		release := transaction.Model(&model.Inventory{}).
			Where("id = ?", booking.InventoryID).
			Updates(map[string]any{
				"available": gorm.Expr("CASE WHEN available + ? > total_capacity THEN total_capacity ELSE available + ? END", booking.Quantity, booking.Quantity),
				"version":   gorm.Expr("version + 1"),
			})
		if release.Error != nil {
			return release.Error
		}
		expired = true
		return nil
	})
	return expired, transactionErr
}

func (service *BookingService) findByIdempotencyKey(ctx context.Context, idempotencyKey string) (model.Booking, bool, error) {
	var booking model.Booking
	err := service.database.WithContext(ctx).First(&booking, "idempotency_key = ?", idempotencyKey).Error
	if err == nil {
		return booking, true, nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Booking{}, false, nil
	}
	return model.Booking{}, false, fmt.Errorf("booking: load booking by idempotency key: %w", err)
}

func isRejection(err error) bool {
	return errors.Is(err, ErrInventoryNotFound) ||
		errors.Is(err, model.ErrInsufficientInventory) ||
		errors.Is(err, model.ErrInvalidBookingQuantity) ||
		errors.Is(err, model.ErrInvalidBookingIdempotencyKey)
}
