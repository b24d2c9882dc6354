package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/booking"
	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

const (
	queryParameterType = "type"
	queryParameterPage = "page"
	queryParameterSize = "size"
	pathParameterID    = "id"
)

// InventoryCatalog lists inventory and reports availability.
type InventoryCatalog interface {
	List(ctx context.Context, filter booking.InventoryFilter) (booking.Page[model.Inventory], error)
	Availability(ctx context.Context, inventoryID int64) (booking.Availability, error)
}

type InventoryHandlers struct {
	catalog InventoryCatalog
	logger  *zap.Logger
}

func NewInventoryHandlers(catalog InventoryCatalog, logger *zap.Logger) *InventoryHandlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InventoryHandlers{catalog: catalog, logger: logger}
}

// ListInventories serves GET /api/inventories?type=FLIGHT&page=0&size=20.
func (handlers *InventoryHandlers) ListInventories(context *gin.Context) {
	var filter booking.InventoryFilter

	if rawType := strings.TrimSpace(context.Query(queryParameterType)); rawType != "" {
		inventoryType, parseErr := model.ParseInventoryType(rawType)
		if parseErr != nil {
			context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidType})
			return
		}
		filter.Type = &inventoryType
	}

	page, pageErr := parseOptionalNonNegativeInt(context.Query(queryParameterPage))
	size, sizeErr := parseOptionalNonNegativeInt(context.Query(queryParameterSize))
	if pageErr != nil || sizeErr != nil {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidPaging})
		return
	}
	filter.Page = page
	filter.Size = size

	result, listErr := handlers.catalog.List(context.Request.Context(), filter)
	if listErr != nil {
		writeServiceError(context, handlers.logger, "list_inventories", listErr)
		return
	}

	content := make([]inventoryResponse, 0, len(result.Content))
	for _, inventory := range result.Content {
		content = append(content, toInventoryResponse(inventory))
	}
	context.JSON(http.StatusOK, inventoryPageResponse{
		Content:       content,
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages,
	})
}

// InventoryAvailability serves GET /api/inventories/:id/availability.
func (handlers *InventoryHandlers) InventoryAvailability(context *gin.Context) {
	inventoryID, parseErr := strconv.ParseInt(strings.TrimSpace(context.Param(pathParameterID)), 10, 64)
	if parseErr != nil || inventoryID <= 0 {
		context.JSON(http.StatusBadRequest, gin.H{"error": errorValueInvalidInventoryID})
		return
	}

	availability, availabilityErr := handlers.catalog.Availability(context.Request.Context(), inventoryID)
	if availabilityErr != nil {
		writeServiceError(context, handlers.logger, "inventory_availability", availabilityErr)
		return
	}
	context.JSON(http.StatusOK, availabilityResponse{
		InventoryID: availability.InventoryID,
		Available:   availability.Available,
	})
}

func parseOptionalNonNegativeInt(rawValue string) (int, error) {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return 0, nil
	}
	value, parseErr := strconv.Atoi(trimmed)
	if parseErr != nil {
		return 0, parseErr
	}
	if value < 0 {
		return 0, strconv.ErrRange
	}
	return value, nil
}
