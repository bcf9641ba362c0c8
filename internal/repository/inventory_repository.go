package repository

import (
	"resto_manager/internal/models"

	"gorm.io/gorm"
)

type InventoryRepository interface {
	WithTx(tx *gorm.DB) InventoryRepository
	GetIngredients(menuItemID uint) ([]models.MenuItemIngredient, error)
	GetMaterial(id uint) (*models.RawMaterial, error)
	GetAllMaterials() ([]models.RawMaterial, error)
	UpdateStock(id uint, newStock float64) error
}

type inventoryRepository struct {
	db *gorm.DB
}

func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) WithTx(tx *gorm.DB) InventoryRepository {
	return &inventoryRepository{db: tx}
}

func (r *inventoryRepository) GetIngredients(menuItemID uint) ([]models.MenuItemIngredient, error) {
	var ingredients []models.MenuItemIngredient
	err := r.db.Where("menu_item_id = ?", menuItemID).Find(&ingredients).Error
	return ingredients, err
}

func (r *inventoryRepository) GetMaterial(id uint) (*models.RawMaterial, error) {
	var material models.RawMaterial
	err := r.db.First(&material, id).Error
	if err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *inventoryRepository) GetAllMaterials() ([]models.RawMaterial, error) {
	var materials []models.RawMaterial
	err := r.db.Find(&materials).Error
	return materials, err
}

func (r *inventoryRepository) UpdateStock(id uint, newStock float64) error {
	return r.db.Model(&models.RawMaterial{}).Where("id = ?", id).
		Update("current_stock", newStock).Error
}
