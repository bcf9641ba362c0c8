package models

import (
	"time"
)

type Payment struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	OrderID      uint       `json:"order_id" gorm:"not null;index"`
	Amount       float64    `json:"amount" gorm:"not null"`
	Method       string     `json:"method" gorm:"default:'cash'"` // cash, card, online
	PaidItems    string     `json:"paid_items" gorm:"type:text"`  // JSON map of order item id -> quantity, empty for whole-order payments
	Refunded     bool       `json:"refunded" gorm:"default:false"`
	RefundReason string     `json:"refund_reason"`
	RefundedAt   *time.Time `json:"refunded_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PaymentTolerance is the rounding slack allowed when comparing paid
// amounts against an order total.
const PaymentTolerance = 0.01
