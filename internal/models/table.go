package models

import (
	"time"
)

type Table struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Number    int       `json:"number" gorm:"unique;not null"`
	Seats     int       `json:"seats" gorm:"default:4"`
	Status    string    `json:"status" gorm:"default:'free'"` // free, occupied, cleaning
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TableStatus string

const (
	TableFree     TableStatus = "free"
	TableOccupied TableStatus = "occupied"
	TableCleaning TableStatus = "cleaning"
)
