package repository

import (
	"resto_manager/internal/models"

	"gorm.io/gorm"
)

type OrderItemRepository interface {
	WithTx(tx *gorm.DB) OrderItemRepository
	Create(orderItem *models.OrderItem) error
	GetByID(id uint) (*models.OrderItem, error)
	GetByOrderID(orderID uint) ([]models.OrderItem, error)
	Update(orderItem *models.OrderItem) error
	UpdateStatusByOrderID(orderID uint, status string) error
}

type orderItemRepository struct {
	db *gorm.DB
}

func NewOrderItemRepository(db *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: db}
}

func (r *orderItemRepository) WithTx(tx *gorm.DB) OrderItemRepository {
	return &orderItemRepository{db: tx}
}

func (r *orderItemRepository) Create(orderItem *models.OrderItem) error {
	return r.db.Create(orderItem).Error
}

func (r *orderItemRepository) GetByID(id uint) (*models.OrderItem, error) {
	var orderItem models.OrderItem
	err := r.db.First(&orderItem, id).Error
	if err != nil {
		return nil, err
	}
	return &orderItem, nil
}

func (r *orderItemRepository) GetByOrderID(orderID uint) ([]models.OrderItem, error) {
	var orderItems []models.OrderItem
	err := r.db.Where("order_id = ?", orderID).Find(&orderItems).Error
	return orderItems, err
}

func (r *orderItemRepository) Update(orderItem *models.OrderItem) error {
	return r.db.Save(orderItem).Error
}

func (r *orderItemRepository) UpdateStatusByOrderID(orderID uint, status string) error {
	return r.db.Model(&models.OrderItem{}).
		Where("order_id = ? AND status <> ?", orderID, string(models.ItemCancelled)).
		Update("status", status).Error
}
