package models

import (
	"time"
)

type MenuItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"not null"`
	Description string    `json:"description" gorm:"type:text"`
	Price       float64   `json:"price" gorm:"not null"`
	// No column default: gorm would otherwise skip a false zero value on
	// insert and the row would come back available.
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MenuItemIngredient links a menu item to a raw material with the amount
// consumed per ordered unit. Read-only to the order engine.
type MenuItemIngredient struct {
	ID            uint    `json:"id" gorm:"primaryKey"`
	MenuItemID    uint    `json:"menu_item_id" gorm:"not null;index"`
	RawMaterialID uint    `json:"raw_material_id" gorm:"not null"`
	AmountPerUnit float64 `json:"amount_per_unit" gorm:"not null"`
}
