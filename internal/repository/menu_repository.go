package repository

import (
	"resto_manager/internal/models"

	"gorm.io/gorm"
)

type MenuRepository interface {
	WithTx(tx *gorm.DB) MenuRepository
	GetByIDs(ids []uint) ([]models.MenuItem, error)
	GetAvailable() ([]models.MenuItem, error)
}

type menuRepository struct {
	db *gorm.DB
}

func NewMenuRepository(db *gorm.DB) MenuRepository {
	return &menuRepository{db: db}
}

func (r *menuRepository) WithTx(tx *gorm.DB) MenuRepository {
	return &menuRepository{db: tx}
}

func (r *menuRepository) GetByIDs(ids []uint) ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Where("id IN ?", ids).Find(&items).Error
	return items, err
}

func (r *menuRepository) GetAvailable() ([]models.MenuItem, error) {
	var items []models.MenuItem
	err := r.db.Where("available = ?", true).Find(&items).Error
	return items, err
}
