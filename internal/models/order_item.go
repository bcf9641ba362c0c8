package models

import (
	"time"
)

type OrderItem struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	OrderID      uint      `json:"order_id" gorm:"not null;index"`
	MenuItemID   uint      `json:"menu_item_id" gorm:"not null"`
	ItemName     string    `json:"item_name" gorm:"not null"` // snapshot of the menu name at order time
	UnitPrice    float64   `json:"unit_price" gorm:"not null"` // snapshot, not the live menu price
	Quantity     int       `json:"quantity" gorm:"not null"`
	PaidQuantity int       `json:"paid_quantity" gorm:"default:0"`
	Status       string    `json:"status" gorm:"default:'pending'"`
	Notes        string    `json:"notes" gorm:"type:text"`
	Modifiers    string    `json:"modifiers" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type OrderItemStatus string

const (
	ItemPending   OrderItemStatus = "pending"
	ItemPreparing OrderItemStatus = "preparing"
	ItemReady     OrderItemStatus = "ready"
	ItemServed    OrderItemStatus = "served"
	ItemCancelled OrderItemStatus = "cancelled"
)
