package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/MarkoPoloResearchLab/booking_svc/internal/model"
)

type inventorySeed struct {
	inventoryType model.InventoryType
	itemCode      string
	capacity      int
}

var defaultInventorySeeds = []inventorySeed{
	{inventoryType: model.InventoryTypeFlight, itemCode: "GA-100|2026-03-01|CGK-DPS", capacity: 10},
	{inventoryType: model.InventoryTypeFlight, itemCode: "SQ-951|2026-03-01|CGK-SIN", capacity: 5},
	{inventoryType: model.InventoryTypeHotel, itemCode: "HILTON-BALI|DELUXE|2026-03-01", capacity: 8},
	{inventoryType: model.InventoryTypeHotel, itemCode: "AYANA-BALI|VILLA|2026-03-01", capacity: 2},
}

// SeedInventories inserts the demo flight and hotel inventory when the table is empty.
// It returns the number of rows inserted.
func SeedInventories(ctx context.Context, database *gorm.DB) (int, error) {
	var existingCount int64
	if err := database.WithContext(ctx).Model(&model.Inventory{}).Count(&existingCount).Error; err != nil {
		return 0, fmt.Errorf("storage: count inventories: %w", err)
	}
	if existingCount > 0 {
		return 0, nil
	}

	inventories := make([]model.Inventory, 0, len(defaultInventorySeeds))
	for _, seed := range defaultInventorySeeds {
		inventory, inventoryErr := model.NewInventory(seed.inventoryType, seed.itemCode, seed.capacity)
		if inventoryErr != nil {
			return 0, fmt.Errorf("storage: seed %s: %w", seed.itemCode, inventoryErr)
		}
		inventories = append(inventories, inventory)
	}

	if err := database.WithContext(ctx).Create(&inventories).Error; err != nil {
		return 0, fmt.Errorf("storage: seed inventories: %w", err)
	}
	return len(inventories), nil
}
