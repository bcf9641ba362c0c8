package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"resto_manager/internal/models"
	"resto_manager/internal/repository"

	"gorm.io/gorm"
)

// LoyaltyService awards points when an order reaches fully paid. Accrual
// is best-effort: a loyalty failure never fails the triggering payment.
type LoyaltyService interface {
	AccrueForOrder(order *models.Order) error
}

type loyaltyService struct {
	customerRepo      repository.CustomerRepository
	txRunner          repository.TxRunner
	pointsPerCurrency float64
}

func NewLoyaltyService(customerRepo repository.CustomerRepository, txRunner repository.TxRunner, pointsPerCurrency float64) LoyaltyService {
	if pointsPerCurrency <= 0 {
		pointsPerCurrency = 10
	}
	return &loyaltyService{
		customerRepo:      customerRepo,
		txRunner:          txRunner,
		pointsPerCurrency: pointsPerCurrency,
	}
}

// AccrueForOrder finds or creates the customer behind the order's phone,
// awards tier-multiplied points at most once per order, and re-evaluates
// the customer's tier against lifetime points.
func (s *loyaltyService) AccrueForOrder(order *models.Order) error {
	if order.CustomerPhone == "" {
		return nil
	}

	return s.txRunner.Transact(func(tx *gorm.DB) error {
		repo := s.customerRepo.WithTx(tx)

		customer, err := repo.GetByPhone(order.CustomerPhone)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			customer = &models.Customer{Phone: order.CustomerPhone, Name: order.CustomerName}
			if err := repo.Create(customer); err != nil {
				return err
			}
		}

		// At most one EARN transaction per (customer, order), however many
		// times the payment endpoint is retried.
		exists, err := repo.HasEarnTransaction(customer.ID, order.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		basePoints := int(math.Floor(order.Total / s.pointsPerCurrency))
		earnedPoints := int(math.Floor(float64(basePoints) * s.tierMultiplier(repo, customer)))
		if earnedPoints <= 0 {
			return nil
		}

		customer.TotalPoints += earnedPoints
		customer.LifetimePoints += earnedPoints
		customer.TotalSpent += order.Total
		customer.OrderCount++

		orderID := order.ID
		txn := &models.PointsTransaction{
			CustomerID:  customer.ID,
			OrderID:     &orderID,
			Type:        string(models.PointsEarn),
			Points:      earnedPoints,
			Description: fmt.Sprintf("Order %s", order.OrderNumber),
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return err
		}

		s.evaluateTier(repo, customer)
		return repo.Update(customer)
	})
}

func (s *loyaltyService) tierMultiplier(repo repository.CustomerRepository, customer *models.Customer) float64 {
	if customer.TierID == nil {
		return 1
	}
	tiers, err := repo.GetTiersByMinPointsDesc()
	if err != nil {
		log.Printf("loyalty: failed to load tiers: %v", err)
		return 1
	}
	for _, tier := range tiers {
		if tier.ID == *customer.TierID && tier.Multiplier > 0 {
			return tier.Multiplier
		}
	}
	return 1
}

// evaluateTier assigns the highest tier whose threshold the customer's
// lifetime points now satisfy.
func (s *loyaltyService) evaluateTier(repo repository.CustomerRepository, customer *models.Customer) {
	tiers, err := repo.GetTiersByMinPointsDesc()
	if err != nil {
		log.Printf("loyalty: failed to load tiers: %v", err)
		return
	}
	for _, tier := range tiers {
		if customer.LifetimePoints >= tier.MinPoints {
			tierID := tier.ID
			customer.TierID = &tierID
			return
		}
	}
}
