package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"resto_manager/internal/broadcast"
	"resto_manager/internal/models"
	"resto_manager/internal/repository"
	"time"

	"gorm.io/gorm"
)

type PaymentRequest struct {
	Amount    float64      `json:"amount"`
	Method    string       `json:"method"`
	Tip       float64      `json:"tip"`
	PaidItems map[uint]int `json:"paid_items"` // order item id -> quantity, optional split billing
}

type RefundRequest struct {
	Reason     string `json:"reason"`
	ManagerPIN string `json:"manager_pin"`
}

// PaymentService reconciles payments and refunds against an order's
// moving total and drives the paid/partial payment status.
type PaymentService interface {
	SubmitPayment(orderID uint, req PaymentRequest) (*models.Order, error)
	RefundPayment(orderID, paymentID uint, req RefundRequest) (*models.Order, error)
	GetPayments(orderID uint) ([]models.Payment, error)
}

type paymentService struct {
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	paymentRepo   repository.PaymentRepository
	tableRepo     repository.TableRepository
	txRunner      repository.TxRunner
	loyalty       LoyaltyService
	publisher     broadcast.Publisher
	managerPIN    string
}

func NewPaymentService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	paymentRepo repository.PaymentRepository,
	tableRepo repository.TableRepository,
	txRunner repository.TxRunner,
	loyalty LoyaltyService,
	publisher broadcast.Publisher,
	managerPINHash string,
) PaymentService {
	return &paymentService{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		paymentRepo:   paymentRepo,
		tableRepo:     tableRepo,
		txRunner:      txRunner,
		loyalty:       loyalty,
		publisher:     publisher,
		managerPIN:    managerPINHash,
	}
}

func (s *paymentService) SubmitPayment(orderID uint, req PaymentRequest) (*models.Order, error) {
	if req.Amount <= 0 {
		return nil, newValidationError("payment amount must be positive")
	}
	if req.Method == "" {
		req.Method = "cash"
	}

	var (
		updated    *models.Order
		becamePaid bool
	)

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		items := s.orderItemRepo.WithTx(tx)
		payments := s.paymentRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.Status == string(models.OrderCancelled) {
			return newStateConflictError("cannot pay a cancelled order")
		}
		if order.PaymentStatus == string(models.PaymentPaid) {
			return newStateConflictError("order is already fully paid")
		}

		if req.Tip > 0 {
			order.Tip += req.Tip
		}

		existing, err := payments.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		paidAmount := sumNonRefunded(existing)
		payable := order.Total + order.Tip
		remaining := payable - paidAmount
		if req.Amount > remaining+models.PaymentTolerance {
			return newStateConflictError("payment of %.2f exceeds remaining balance of %.2f", req.Amount, remaining)
		}

		payment := &models.Payment{
			OrderID: order.ID,
			Amount:  req.Amount,
			Method:  req.Method,
		}
		if len(req.PaidItems) > 0 {
			encoded, err := json.Marshal(req.PaidItems)
			if err != nil {
				return err
			}
			payment.PaidItems = string(encoded)
		}
		if err := payments.Create(payment); err != nil {
			return err
		}

		// Apply the caller-supplied split map as given; quantities are not
		// re-validated against what remains unpaid.
		for itemID, qty := range req.PaidItems {
			if err := applyPaidQuantity(items, order.ID, itemID, qty); err != nil {
				return err
			}
		}

		paidAmount += req.Amount
		if paidAmount >= payable-models.PaymentTolerance {
			order.PaymentStatus = string(models.PaymentPaid)
			becamePaid = true

			// Full-payment shortcut: without a split map, everything counts
			// as paid.
			if len(req.PaidItems) == 0 {
				for i := range order.Items {
					item := order.Items[i]
					item.PaidQuantity = item.Quantity
					if err := items.Update(&item); err != nil {
						return err
					}
				}
			}

			now := time.Now()
			order.Status = string(models.OrderCompleted)
			order.CompletedAt = &now
			if order.TableID != nil {
				tables := s.tableRepo.WithTx(tx)
				if err := tables.UpdateStatus(*order.TableID, string(models.TableCleaning)); err != nil {
					return err
				}
			}
		} else {
			order.PaymentStatus = string(models.PaymentPartial)
		}

		if err := orders.Update(order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	if becamePaid {
		if err := s.loyalty.AccrueForOrder(updated); err != nil {
			log.Printf("loyalty: accrual for order %s failed: %v", updated.OrderNumber, err)
		}
	}

	s.publisher.Publish(broadcast.ChannelOrders, updated)
	if becamePaid {
		s.publisher.Publish(broadcast.ChannelTables, updated)
		s.publisher.Publish(broadcast.ChannelNotifications,
			fmt.Sprintf("Order %s fully paid (%.2f)", updated.OrderNumber, updated.Total+updated.Tip))
	} else {
		s.publisher.Publish(broadcast.ChannelNotifications,
			fmt.Sprintf("Partial payment of %.2f on order %s", req.Amount, updated.OrderNumber))
	}

	return s.reload(updated.ID)
}

func (s *paymentService) RefundPayment(orderID, paymentID uint, req RefundRequest) (*models.Order, error) {
	if err := checkManagerPIN(s.managerPIN, req.ManagerPIN); err != nil {
		return nil, err
	}

	var updated *models.Order

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		items := s.orderItemRepo.WithTx(tx)
		payments := s.paymentRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}

		payment, err := payments.GetByID(paymentID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "payment"}
			}
			return err
		}
		if payment.OrderID != order.ID {
			return &NotFoundError{Entity: "payment"}
		}
		if payment.Refunded {
			return newStateConflictError("payment is already refunded")
		}

		now := time.Now()
		payment.Refunded = true
		payment.RefundReason = req.Reason
		payment.RefundedAt = &now
		if err := payments.Update(payment); err != nil {
			return err
		}

		// Reverse this payment's recorded per-item contribution.
		if payment.PaidItems != "" {
			var paidItems map[uint]int
			if err := json.Unmarshal([]byte(payment.PaidItems), &paidItems); err != nil {
				return err
			}
			for itemID, qty := range paidItems {
				if err := applyPaidQuantity(items, order.ID, itemID, -qty); err != nil {
					return err
				}
			}
		}

		remaining, err := payments.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		paidAmount := sumNonRefunded(remaining)
		payable := order.Total + order.Tip

		wasPaid := order.PaymentStatus == string(models.PaymentPaid)
		switch {
		case paidAmount >= payable-models.PaymentTolerance:
			order.PaymentStatus = string(models.PaymentPaid)
		case paidAmount > 0:
			order.PaymentStatus = string(models.PaymentPartial)
		default:
			order.PaymentStatus = string(models.PaymentPending)
		}

		// A refund that breaks full payment reopens the order at SERVED,
		// never back to a kitchen stage.
		if wasPaid && order.PaymentStatus != string(models.PaymentPaid) && order.Status == string(models.OrderCompleted) {
			order.Status = string(models.OrderServed)
			order.CompletedAt = nil
		}

		if err := orders.Update(order); err != nil {
			return err
		}
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(broadcast.ChannelOrders, updated)
	s.publisher.Publish(broadcast.ChannelNotifications,
		fmt.Sprintf("Refund issued on order %s", updated.OrderNumber))

	return s.reload(updated.ID)
}

func (s *paymentService) GetPayments(orderID uint) ([]models.Payment, error) {
	return s.paymentRepo.GetByOrderID(orderID)
}

func (s *paymentService) reload(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func sumNonRefunded(payments []models.Payment) float64 {
	total := 0.0
	for _, p := range payments {
		if !p.Refunded {
			total += p.Amount
		}
	}
	return total
}

// applyPaidQuantity adjusts one item's paid quantity by delta, floored
// at zero.
func applyPaidQuantity(items repository.OrderItemRepository, orderID, itemID uint, delta int) error {
	item, err := items.GetByID(itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return newValidationError("order item %d does not exist", itemID)
		}
		return err
	}
	if item.OrderID != orderID {
		return newValidationError("order item %d does not belong to this order", itemID)
	}
	item.PaidQuantity += delta
	if item.PaidQuantity < 0 {
		item.PaidQuantity = 0
	}
	return items.Update(item)
}
