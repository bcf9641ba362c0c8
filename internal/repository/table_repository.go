package repository

import (
	"resto_manager/internal/models"

	"gorm.io/gorm"
)

type TableRepository interface {
	WithTx(tx *gorm.DB) TableRepository
	GetByID(id uint) (*models.Table, error)
	GetAll() ([]models.Table, error)
	UpdateStatus(id uint, status string) error
}

type tableRepository struct {
	db *gorm.DB
}

func NewTableRepository(db *gorm.DB) TableRepository {
	return &tableRepository{db: db}
}

func (r *tableRepository) WithTx(tx *gorm.DB) TableRepository {
	return &tableRepository{db: tx}
}

func (r *tableRepository) GetByID(id uint) (*models.Table, error) {
	var table models.Table
	err := r.db.First(&table, id).Error
	if err != nil {
		return nil, err
	}
	return &table, nil
}

func (r *tableRepository) GetAll() ([]models.Table, error) {
	var tables []models.Table
	err := r.db.Order("number ASC").Find(&tables).Error
	return tables, err
}

func (r *tableRepository) UpdateStatus(id uint, status string) error {
	return r.db.Model(&models.Table{}).Where("id = ?", id).
		Update("status", status).Error
}
