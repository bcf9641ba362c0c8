package services

import (
	"fmt"
	"log"
	"resto_manager/internal/broadcast"
	"resto_manager/internal/models"
	"resto_manager/internal/repository"

	"gorm.io/gorm"
)

// InventoryService keeps raw-material stock in step with order activity.
// Every operation is best-effort: a stock problem never blocks an order.
type InventoryService interface {
	DeductForItems(tx *gorm.DB, items []models.OrderItem)
	RestoreForItems(tx *gorm.DB, items []models.OrderItem)
	GetMaterials() ([]models.RawMaterial, error)
}

type inventoryService struct {
	inventoryRepo repository.InventoryRepository
	publisher     broadcast.Publisher
}

func NewInventoryService(inventoryRepo repository.InventoryRepository, publisher broadcast.Publisher) InventoryService {
	return &inventoryService{inventoryRepo: inventoryRepo, publisher: publisher}
}

// DeductForItems consumes the ingredients behind each ordered item.
// Stock is clamped at zero instead of going negative: a shortfall is an
// operational problem, not a reason to reject the order.
func (s *inventoryService) DeductForItems(tx *gorm.DB, items []models.OrderItem) {
	repo := s.inventoryRepo.WithTx(tx)
	for _, item := range items {
		ingredients, err := repo.GetIngredients(item.MenuItemID)
		if err != nil {
			log.Printf("inventory: failed to load ingredients for menu item %d: %v", item.MenuItemID, err)
			continue
		}
		for _, ingredient := range ingredients {
			material, err := repo.GetMaterial(ingredient.RawMaterialID)
			if err != nil {
				log.Printf("inventory: raw material %d lookup failed: %v", ingredient.RawMaterialID, err)
				continue
			}

			newStock := material.CurrentStock - ingredient.AmountPerUnit*float64(item.Quantity)
			if newStock < 0 {
				newStock = 0
			}
			if err := repo.UpdateStock(material.ID, newStock); err != nil {
				log.Printf("inventory: failed to deduct stock for %s: %v", material.Name, err)
				continue
			}

			if newStock < material.MinStock {
				s.publisher.Publish(broadcast.ChannelNotifications, fmt.Sprintf(
					"Low stock: %s at %.2f %s (minimum %.2f)",
					material.Name, newStock, material.Unit, material.MinStock,
				))
			}
		}
	}
}

// RestoreForItems adds the consumed amounts back on cancellation. The
// add-back is unconditional even when the matching deduction was clamped,
// so a restore can overshoot the true pre-order level.
func (s *inventoryService) RestoreForItems(tx *gorm.DB, items []models.OrderItem) {
	repo := s.inventoryRepo.WithTx(tx)
	for _, item := range items {
		ingredients, err := repo.GetIngredients(item.MenuItemID)
		if err != nil {
			log.Printf("inventory: failed to load ingredients for menu item %d: %v", item.MenuItemID, err)
			continue
		}
		for _, ingredient := range ingredients {
			material, err := repo.GetMaterial(ingredient.RawMaterialID)
			if err != nil {
				log.Printf("inventory: raw material %d lookup failed: %v", ingredient.RawMaterialID, err)
				continue
			}

			newStock := material.CurrentStock + ingredient.AmountPerUnit*float64(item.Quantity)
			if err := repo.UpdateStock(material.ID, newStock); err != nil {
				log.Printf("inventory: failed to restore stock for %s: %v", material.Name, err)
			}
		}
	}
}

func (s *inventoryService) GetMaterials() ([]models.RawMaterial, error) {
	return s.inventoryRepo.GetAllMaterials()
}
