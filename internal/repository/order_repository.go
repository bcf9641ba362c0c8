package repository

import (
	"resto_manager/internal/models"
	"time"

	"gorm.io/gorm"
)

type OrderRepository interface {
	WithTx(tx *gorm.DB) OrderRepository
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	Update(order *models.Order) error
	GetAll() ([]models.Order, error)
	GetByStatus(status string) ([]models.Order, error)
	GetActive() ([]models.Order, error)
	CountCreatedSince(t time.Time) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx *gorm.DB) OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	err := r.db.Preload("Items").First(&order, id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

func (r *orderRepository) GetAll() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Order("created_at DESC").Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetByStatus(status string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").Where("status = ?", status).Find(&orders).Error
	return orders, err
}

func (r *orderRepository) GetActive() ([]models.Order, error) {
	var orders []models.Order
	err := r.db.Preload("Items").
		Where("status NOT IN ?", []string{string(models.OrderCompleted), string(models.OrderCancelled)}).
		Order("created_at ASC").
		Find(&orders).Error
	return orders, err
}

func (r *orderRepository) CountCreatedSince(t time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Order{}).Where("created_at >= ?", t).Count(&count).Error
	return count, err
}
