package models

import (
	"time"
)

type RawMaterial struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Unit         string    `json:"unit"` // kg, l, pcs
	CurrentStock float64   `json:"current_stock" gorm:"default:0"`
	MinStock     float64   `json:"min_stock" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
