package models

import (
	"time"
)

type Customer struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Phone          string    `json:"phone" gorm:"uniqueIndex;size:20;not null"`
	Name           string    `json:"name"`
	TotalPoints    int       `json:"total_points" gorm:"default:0"`
	LifetimePoints int       `json:"lifetime_points" gorm:"default:0"`
	TotalSpent     float64   `json:"total_spent" gorm:"default:0"`
	OrderCount     int       `json:"order_count" gorm:"default:0"`
	TierID         *uint     `json:"tier_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PointsTransaction is an append-only ledger entry; rows are never
// updated or deleted once written.
type PointsTransaction struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	CustomerID  uint      `json:"customer_id" gorm:"not null;index"`
	OrderID     *uint     `json:"order_id" gorm:"index"`
	Type        string    `json:"type" gorm:"not null"` // EARN, SPEND, BONUS, ADJUSTMENT
	Points      int       `json:"points" gorm:"not null"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type PointsTransactionType string

const (
	PointsEarn       PointsTransactionType = "EARN"
	PointsSpend      PointsTransactionType = "SPEND"
	PointsBonus      PointsTransactionType = "BONUS"
	PointsAdjustment PointsTransactionType = "ADJUSTMENT"
)

type LoyaltyTier struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	Name       string  `json:"name" gorm:"not null"`
	MinPoints  int     `json:"min_points" gorm:"not null"`
	Multiplier float64 `json:"multiplier" gorm:"default:1"`
}
