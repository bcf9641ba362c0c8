package models

import (
	"time"
)

type Order struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	PublicID      string      `json:"public_id" gorm:"uniqueIndex;size:36;not null"`
	OrderNumber   string      `json:"order_number" gorm:"unique;not null"`
	Type          string      `json:"type" gorm:"default:'dine_in'"` // dine_in, takeaway, delivery, web
	Status        string      `json:"status" gorm:"default:'pending'"`
	PaymentStatus string      `json:"payment_status" gorm:"default:'pending'"` // pending, partial, paid
	Subtotal      float64     `json:"subtotal" gorm:"not null"`
	Tax           float64     `json:"tax"`
	Tip           float64     `json:"tip"`
	DeliveryFee   float64     `json:"delivery_fee"`
	Total         float64     `json:"total" gorm:"not null"`
	TableID       *uint       `json:"table_id"`
	CustomerName  string      `json:"customer_name"`
	CustomerPhone string      `json:"customer_phone"`
	Notes         string      `json:"notes" gorm:"type:text"`
	Items         []OrderItem `json:"items" gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	CompletedAt   *time.Time  `json:"completed_at"`
	PickedUpAt    *time.Time  `json:"picked_up_at"`
	DeliveredAt   *time.Time  `json:"delivered_at"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderCompleted OrderStatus = "completed"
	OrderCancelled OrderStatus = "cancelled"
)

type OrderType string

const (
	OrderDineIn   OrderType = "dine_in"
	OrderTakeaway OrderType = "takeaway"
	OrderDelivery OrderType = "delivery"
	OrderWeb      OrderType = "web"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// IsTerminal reports whether the order can no longer be mutated.
func (o *Order) IsTerminal() bool {
	return o.Status == string(OrderCompleted) || o.Status == string(OrderCancelled)
}
