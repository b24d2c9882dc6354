// Package booking holds the inventory and reservation rules of the booking backend.
package booking

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// InventoryFilter selects a page of inventory, optionally restricted to one type.
type InventoryFilter struct {
	Type *model.InventoryType
	Page int
	Size int
}

// Page is a zero-based slice of a larger result set.
type Page[T any] struct {
	Content       []T
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

// Availability reports the remaining units of one inventory line.
type Availability struct {
	InventoryID int64
	Available   int
}

type InventoryService struct {
	database *gorm.DB
}

func NewInventoryService(database *gorm.DB) *InventoryService {
	return &InventoryService{database: database}
}

// List returns inventory ordered by id. Page defaults to 0 and size to DefaultPageSize,
// with size capped at MaxPageSize. A page past the last one has no content.
func (service *InventoryService) List(ctx context.Context, filter InventoryFilter) (Page[model.Inventory], error) {
	pageIndex := max(filter.Page, 0)
	pageSize := filter.Size
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	pageSize = min(pageSize, MaxPageSize)

	filteredQuery := func() *gorm.DB {
		query := service.database.WithContext(ctx).Model(&model.Inventory{})
		if filter.Type != nil {
			query = query.Where("type = ?", *filter.Type)
		}
		return query
	}

	var totalElements int64
	if err := filteredQuery().Count(&totalElements).Error; err != nil {
		return Page[model.Inventory]{}, fmt.Errorf("booking: count inventories: %w", err)
	}

	totalPages := int((totalElements + int64(pageSize) - 1) / int64(pageSize))

	// Pages past the end are empty; skipping the query also keeps the offset from overflowing.
	inventories := make([]model.Inventory, 0, pageSize)
	if pageIndex < totalPages {
		if err := filteredQuery().Order("id").Offset(pageIndex * pageSize).Limit(pageSize).Find(&inventories).Error; err != nil {
			return Page[model.Inventory]{}, fmt.Errorf("booking: list inventories: %w", err)
		}
	}
	return Page[model.Inventory]{
		Content:       inventories,
		Page:          pageIndex,
		Size:          pageSize,
		TotalElements: totalElements,
		TotalPages:    totalPages,
	}, nil
}

func (service *InventoryService) Availability(ctx context.Context, inventoryID int64) (Availability, error) {
	var inventory model.Inventory
	if err := service.database.WithContext(ctx).First(&inventory, "id = ?", inventoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Availability{}, fmt.Errorf("%w: %d", ErrInventoryNotFound, inventoryID)
		}
		return Availability{}, fmt.Errorf("booking: load inventory: %w", err)
	}
	return Availability{InventoryID: inventory.ID, Available: inventory.Available}, nil
}
