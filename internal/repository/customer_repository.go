package repository

import (
	"resto_manager/internal/models"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	WithTx(tx *gorm.DB) CustomerRepository
	Create(customer *models.Customer) error
	GetByPhone(phone string) (*models.Customer, error)
	Update(customer *models.Customer) error
	HasEarnTransaction(customerID, orderID uint) (bool, error)
	CreateTransaction(txn *models.PointsTransaction) error
	GetTiersByMinPointsDesc() ([]models.LoyaltyTier, error)
}

type customerRepository struct {
	db *gorm.DB
}

func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) WithTx(tx *gorm.DB) CustomerRepository {
	return &customerRepository{db: tx}
}

func (r *customerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

func (r *customerRepository) GetByPhone(phone string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.Where("phone = ?", phone).First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) Update(customer *models.Customer) error {
	return r.db.Save(customer).Error
}

func (r *customerRepository) HasEarnTransaction(customerID, orderID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.PointsTransaction{}).
		Where("customer_id = ? AND order_id = ? AND type = ?", customerID, orderID, string(models.PointsEarn)).
		Count(&count).Error
	return count > 0, err
}

func (r *customerRepository) CreateTransaction(txn *models.PointsTransaction) error {
	return r.db.Create(txn).Error
}

func (r *customerRepository) GetTiersByMinPointsDesc() ([]models.LoyaltyTier, error) {
	var tiers []models.LoyaltyTier
	err := r.db.Order("min_points DESC").Find(&tiers).Error
	return tiers, err
}
