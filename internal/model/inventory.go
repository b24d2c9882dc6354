package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// InventoryType classifies a bookable inventory line.
type InventoryType string

const (
	InventoryTypeFlight InventoryType = "FLIGHT"
	InventoryTypeHotel  InventoryType = "HOTEL"

	inventoryItemCodeMaxLength = 120
)

var (
	ErrInvalidInventoryType     = errors.New("invalid_inventory_type")
	ErrInvalidInventoryItemCode = errors.New("invalid_inventory_item_code")
	ErrInvalidInventoryCapacity = errors.New("invalid_inventory_capacity")
	ErrInsufficientInventory    = errors.New("insufficient_inventory")
)

// Inventory tracks the remaining capacity of a flight or hotel product.
type Inventory struct {
	ID            int64         `gorm:"primaryKey;autoIncrement"`
	Type          InventoryType `gorm:"not null;size:20;index:idx_inventories_type;uniqueIndex:uq_inventories_type_item_code"`
	ItemCode      string        `gorm:"not null;size:120;uniqueIndex:uq_inventories_type_item_code"`
	TotalCapacity int           `gorm:"not null"`
	Available     int           `gorm:"not null"`
	Version       int64         `gorm:"not null;default:0"`
	CreatedAt     time.Time     `gorm:"autoCreateTime"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime"`
}

// ParseInventoryType normalizes a raw inventory type.
func ParseInventoryType(rawValue string) (InventoryType, error) {
	inventoryType := InventoryType(strings.ToUpper(strings.TrimSpace(rawValue)))
	switch inventoryType {
	case InventoryTypeFlight, InventoryTypeHotel:
		return inventoryType, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidInventoryType, rawValue)
	}
}

// NewInventory constructs an Inventory with full availability.
func NewInventory(inventoryType InventoryType, itemCode string, totalCapacity int) (Inventory, error) {
	normalizedType, typeErr := ParseInventoryType(string(inventoryType))
	if typeErr != nil {
		return Inventory{}, typeErr
	}

	normalizedItemCode := strings.TrimSpace(itemCode)
	if normalizedItemCode == "" || len(normalizedItemCode) > inventoryItemCodeMaxLength {
		return Inventory{}, fmt.Errorf("%w: empty or too long", ErrInvalidInventoryItemCode)
	}

	if totalCapacity < 0 {
		return Inventory{}, fmt.Errorf("%w: %d", ErrInvalidInventoryCapacity, totalCapacity)
	}

	return Inventory{
		Type:          normalizedType,
		ItemCode:      normalizedItemCode,
		TotalCapacity: totalCapacity,
		Available:     totalCapacity,
	}, nil
}

// CanReserve reports whether quantity units can be taken from the inventory.
func (inventory Inventory) CanReserve(quantity int) bool {
	return quantity > 0 && inventory.Available >= quantity
}

// Reserve takes quantity units from the inventory.
func (inventory *Inventory) Reserve(quantity int) error {
	if !inventory.CanReserve(quantity) {
		return ErrInsufficientInventory
	}
	inventory.Available -= quantity
	return nil
}

// Release returns quantity units, never exceeding the total capacity.
func (inventory *Inventory) Release(quantity int) {
	if quantity <= 0 {
		return
	}
	inventory.Available = min(inventory.TotalCapacity, inventory.Available+quantity)
}
