package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"resto_manager/internal/broadcast"
	"resto_manager/internal/models"
	"resto_manager/internal/redis"
	"resto_manager/internal/repository"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderItemRequest struct {
	MenuItemID uint   `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
	Notes      string `json:"notes"`
	Modifiers  string `json:"modifiers"`
}

type CreateOrderRequest struct {
	TableID       *uint              `json:"table_id"`
	SessionToken  string             `json:"session_token"`
	Items         []OrderItemRequest `json:"items"`
	Type          string             `json:"type"`
	Tip           float64            `json:"tip"`
	DeliveryFee   float64            `json:"delivery_fee"`
	CustomerName  string             `json:"customer_name"`
	CustomerPhone string             `json:"customer_phone"`
	Notes         string             `json:"notes"`
}

type CancelOrderRequest struct {
	Reason     string `json:"reason"`
	ManagerPIN string `json:"manager_pin"`
}

// TableSessionStore resolves table session tokens minted when a guest
// scans a table QR code.
type TableSessionStore interface {
	GetTableSession(token string) (*redis.TableSession, error)
}

// OrderService owns the order lifecycle: creation, item mutation, status
// transitions, cancellation and the courier flow.
type OrderService interface {
	CreateOrder(req CreateOrderRequest) (*models.Order, error)
	AddItems(orderID uint, items []OrderItemRequest) (*models.Order, error)
	UpdateStatus(orderID uint, status string) (*models.Order, error)
	UpdateItemStatus(orderID, itemID uint, status string) (*models.Order, error)
	CancelOrder(orderID uint, req CancelOrderRequest) (*models.Order, error)
	MarkPickedUp(orderID uint) (*models.Order, error)
	MarkDelivered(orderID uint) (*models.Order, error)
	GetOrder(orderID uint) (*models.Order, error)
	GetActiveOrders() ([]models.Order, error)
	GetAllOrders() ([]models.Order, error)
	GetOrdersByStatus(status string) ([]models.Order, error)
	GetMenu() ([]models.MenuItem, error)
}

type orderService struct {
	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	paymentRepo   repository.PaymentRepository
	menuRepo      repository.MenuRepository
	tableRepo     repository.TableRepository
	txRunner      repository.TxRunner
	inventory     InventoryService
	sessions      TableSessionStore
	publisher     broadcast.Publisher
	taxRate       float64
	managerPIN    string
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	orderItemRepo repository.OrderItemRepository,
	paymentRepo repository.PaymentRepository,
	menuRepo repository.MenuRepository,
	tableRepo repository.TableRepository,
	txRunner repository.TxRunner,
	inventory InventoryService,
	sessions TableSessionStore,
	publisher broadcast.Publisher,
	taxRate float64,
	managerPINHash string,
) OrderService {
	return &orderService{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		paymentRepo:   paymentRepo,
		menuRepo:      menuRepo,
		tableRepo:     tableRepo,
		txRunner:      txRunner,
		inventory:     inventory,
		sessions:      sessions,
		publisher:     publisher,
		taxRate:       taxRate,
		managerPIN:    managerPINHash,
	}
}

func (s *orderService) CreateOrder(req CreateOrderRequest) (*models.Order, error) {
	if len(req.Items) == 0 {
		return nil, newValidationError("order must contain at least one item")
	}
	for _, item := range req.Items {
		if item.Quantity <= 0 {
			return nil, newValidationError("item quantity must be positive")
		}
	}

	orderType := req.Type
	if orderType == "" {
		orderType = string(models.OrderDineIn)
	}

	var created *models.Order

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		tables := s.tableRepo.WithTx(tx)

		if req.TableID != nil {
			if err := s.validateTableSession(tables, *req.TableID, req.SessionToken); err != nil {
				return err
			}
		}

		orderItems, subtotal, err := s.buildItems(tx, req.Items)
		if err != nil {
			return err
		}

		tax := round2(subtotal * s.taxRate)
		total := round2(subtotal + tax + req.DeliveryFee)

		number, err := s.nextOrderNumber(orders)
		if err != nil {
			return err
		}

		order := &models.Order{
			PublicID:      uuid.NewString(),
			OrderNumber:   number,
			Type:          orderType,
			Status:        string(models.OrderPending),
			PaymentStatus: string(models.PaymentPending),
			Subtotal:      subtotal,
			Tax:           tax,
			Tip:           req.Tip,
			DeliveryFee:   req.DeliveryFee,
			Total:         total,
			TableID:       req.TableID,
			CustomerName:  req.CustomerName,
			CustomerPhone: req.CustomerPhone,
			Notes:         req.Notes,
			Items:         orderItems,
		}
		if err := orders.Create(order); err != nil {
			return err
		}

		s.inventory.DeductForItems(tx, order.Items)

		if req.TableID != nil {
			if err := tables.UpdateStatus(*req.TableID, string(models.TableOccupied)); err != nil {
				return err
			}
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(broadcast.ChannelOrders, created)
	s.publisher.Publish(broadcast.ChannelKitchen, created)
	s.publisher.Publish(broadcast.ChannelNotifications, s.describeNewOrder(created))

	return created, nil
}

func (s *orderService) AddItems(orderID uint, items []OrderItemRequest) (*models.Order, error) {
	if len(items) == 0 {
		return nil, newValidationError("no items to add")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, newValidationError("item quantity must be positive")
		}
	}

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		orderItems := s.orderItemRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.IsTerminal() {
			return newStateConflictError("cannot add items to a %s order", order.Status)
		}

		newItems, addedSubtotal, err := s.buildItems(tx, items)
		if err != nil {
			return err
		}
		for i := range newItems {
			newItems[i].OrderID = order.ID
			if err := orderItems.Create(&newItems[i]); err != nil {
				return err
			}
		}

		// Totals are additive so any tip or discount already baked into
		// the order is preserved.
		addedTax := round2(addedSubtotal * s.taxRate)
		order.Subtotal = round2(order.Subtotal + addedSubtotal)
		order.Tax = round2(order.Tax + addedTax)
		order.Total = round2(order.Total + addedSubtotal + addedTax)
		if err := orders.Update(order); err != nil {
			return err
		}

		s.inventory.DeductForItems(tx, newItems)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Observers get the resulting order, added items included.
	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(broadcast.ChannelOrders, updated)
	s.publisher.Publish(broadcast.ChannelKitchen, updated)

	return updated, nil
}

func (s *orderService) UpdateStatus(orderID uint, status string) (*models.Order, error) {
	if !validOrderStatus(status) {
		return nil, newValidationError("unknown order status %q", status)
	}
	if status == string(models.OrderCancelled) {
		return nil, newValidationError("use the cancel operation to cancel an order")
	}

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		items := s.orderItemRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.IsTerminal() {
			return newStateConflictError("order is %s", order.Status)
		}

		order.Status = status
		switch status {
		case string(models.OrderCompleted):
			now := time.Now()
			order.CompletedAt = &now
			// A human frees the table after cleaning; completion only
			// moves it off active service.
			if order.TableID != nil {
				tables := s.tableRepo.WithTx(tx)
				if err := tables.UpdateStatus(*order.TableID, string(models.TableCleaning)); err != nil {
					return err
				}
			}
		case string(models.OrderPreparing), string(models.OrderReady), string(models.OrderServed):
			if err := items.UpdateStatusByOrderID(order.ID, status); err != nil {
				return err
			}
		}

		return orders.Update(order)
	})
	if err != nil {
		return nil, err
	}

	// Reload so the published payload carries the propagated item
	// statuses, not the pre-transition ones.
	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(broadcast.ChannelOrders, updated)
	s.publisher.Publish(broadcast.ChannelKitchen, updated)

	return updated, nil
}

func (s *orderService) UpdateItemStatus(orderID, itemID uint, status string) (*models.Order, error) {
	if !validItemStatus(status) {
		return nil, newValidationError("unknown item status %q", status)
	}

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		items := s.orderItemRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.IsTerminal() {
			return newStateConflictError("order is %s", order.Status)
		}

		item, err := items.GetByID(itemID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order item"}
			}
			return err
		}
		if item.OrderID != order.ID {
			return &NotFoundError{Entity: "order item"}
		}

		item.Status = status
		if err := items.Update(item); err != nil {
			return err
		}

		// When every item has independently reached the same stage the
		// order is promoted to match.
		if promotable(status) {
			all, err := items.GetByOrderID(order.ID)
			if err != nil {
				return err
			}
			if allItemsAt(all, status) && order.Status != status {
				order.Status = status
				if err := orders.Update(order); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(broadcast.ChannelKitchen, updated)
	s.publisher.Publish(broadcast.ChannelOrders, updated)

	return updated, nil
}

func (s *orderService) CancelOrder(orderID uint, req CancelOrderRequest) (*models.Order, error) {
	var cancelled *models.Order

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)
		payments := s.paymentRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.Status == string(models.OrderCompleted) {
			return newStateConflictError("cannot cancel a completed order")
		}
		if order.Status == string(models.OrderCancelled) {
			return newStateConflictError("order is already cancelled")
		}
		if order.PaymentStatus == string(models.PaymentPaid) {
			return newStateConflictError("cannot cancel a paid order; refund it first")
		}

		// Partially paid orders need a manager to sign off.
		existing, err := payments.GetByOrderID(order.ID)
		if err != nil {
			return err
		}
		if sumNonRefunded(existing) > 0 {
			if err := checkManagerPIN(s.managerPIN, req.ManagerPIN); err != nil {
				return err
			}
		}

		s.inventory.RestoreForItems(tx, order.Items)

		order.Status = string(models.OrderCancelled)
		if req.Reason != "" {
			order.Notes = appendNote(order.Notes, "Cancelled: "+req.Reason)
		}
		if order.TableID != nil {
			tables := s.tableRepo.WithTx(tx)
			if err := tables.UpdateStatus(*order.TableID, string(models.TableFree)); err != nil {
				return err
			}
		}

		if err := orders.Update(order); err != nil {
			return err
		}
		cancelled = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(broadcast.ChannelOrders, cancelled)
	s.publisher.Publish(broadcast.ChannelKitchen, cancelled)
	s.publisher.Publish(broadcast.ChannelNotifications,
		fmt.Sprintf("Order %s cancelled", cancelled.OrderNumber))

	return cancelled, nil
}

func (s *orderService) MarkPickedUp(orderID uint) (*models.Order, error) {
	var updated *models.Order

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.Type != string(models.OrderDelivery) && order.Type != string(models.OrderTakeaway) {
			return newValidationError("pickup only applies to delivery and takeaway orders")
		}
		if order.PickedUpAt != nil {
			return newStateConflictError("order is already picked up")
		}
		if order.Status != string(models.OrderReady) {
			return newStateConflictError("order must be ready before pickup")
		}

		now := time.Now()
		order.PickedUpAt = &now
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
	return updated, nil
}

func (s *orderService) MarkDelivered(orderID uint) (*models.Order, error) {
	var updated *models.Order

	err := s.txRunner.Transact(func(tx *gorm.DB) error {
		orders := s.orderRepo.WithTx(tx)

		order, err := orders.GetByID(orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &NotFoundError{Entity: "order"}
			}
			return err
		}
		if order.Type != string(models.OrderDelivery) {
			return newValidationError("delivery only applies to delivery orders")
		}
		if order.PickedUpAt == nil {
			return newStateConflictError("order has not been picked up")
		}
		if order.DeliveredAt != nil {
			return newStateConflictError("order is already delivered")
		}

		now := time.Now()
		order.DeliveredAt = &now
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
	return updated, nil
}

func (s *orderService) GetOrder(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &NotFoundError{Entity: "order"}
		}
		return nil, err
	}
	return order, nil
}

func (s *orderService) GetActiveOrders() ([]models.Order, error) {
	return s.orderRepo.GetActive()
}

func (s *orderService) GetAllOrders() ([]models.Order, error) {
	return s.orderRepo.GetAll()
}

func (s *orderService) GetOrdersByStatus(status string) ([]models.Order, error) {
	if !validOrderStatus(status) {
		return nil, newValidationError("unknown order status %q", status)
	}
	return s.orderRepo.GetByStatus(status)
}

// GetMenu lists the items a guest can order right now.
func (s *orderService) GetMenu() ([]models.MenuItem, error) {
	return s.menuRepo.GetAvailable()
}

// validateTableSession checks the token against the table's active
// session; the table itself must not be free.
func (s *orderService) validateTableSession(tables repository.TableRepository, tableID uint, token string) error {
	table, err := tables.GetByID(tableID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &NotFoundError{Entity: "table"}
		}
		return err
	}

	session, err := s.sessions.GetTableSession(token)
	if err != nil {
		if errors.Is(err, redis.ErrSessionNotFound) {
			return &SessionError{Code: SessionCodeExpired, Message: "table session is expired or missing"}
		}
		return err
	}
	if session.TableID != tableID {
		return &SessionError{Code: SessionCodeTableMismatch, Message: "session token belongs to another table"}
	}
	if table.Status == string(models.TableFree) {
		return &SessionError{Code: SessionCodeExpired, Message: "table has no active session"}
	}
	return nil
}

// buildItems validates menu references and snapshots names and prices.
func (s *orderService) buildItems(tx *gorm.DB, reqs []OrderItemRequest) ([]models.OrderItem, float64, error) {
	menu := s.menuRepo.WithTx(tx)

	ids := make([]uint, 0, len(reqs))
	for _, item := range reqs {
		ids = append(ids, item.MenuItemID)
	}
	menuItems, err := menu.GetByIDs(ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]models.MenuItem, len(menuItems))
	for _, m := range menuItems {
		byID[m.ID] = m
	}

	items := make([]models.OrderItem, 0, len(reqs))
	subtotal := 0.0
	for _, req := range reqs {
		menuItem, ok := byID[req.MenuItemID]
		if !ok {
			return nil, 0, newValidationError("menu item %d does not exist", req.MenuItemID)
		}
		if !menuItem.Available {
			return nil, 0, newValidationError("menu item %q is not available", menuItem.Name)
		}

		items = append(items, models.OrderItem{
			MenuItemID: menuItem.ID,
			ItemName:   menuItem.Name,
			UnitPrice:  menuItem.Price,
			Quantity:   req.Quantity,
			Status:     string(models.ItemPending),
			Notes:      req.Notes,
			Modifiers:  req.Modifiers,
		})
		subtotal += menuItem.Price * float64(req.Quantity)
	}
	return items, round2(subtotal), nil
}

// nextOrderNumber issues a daily sequence like ORD-20250131-0042.
func (s *orderService) nextOrderNumber(orders repository.OrderRepository) (string, error) {
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := orders.CountCreatedSince(startOfDay)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), count+1), nil
}

func (s *orderService) describeNewOrder(order *models.Order) string {
	where := order.Type
	if order.TableID != nil {
		table, err := s.tableRepo.GetByID(*order.TableID)
		if err == nil {
			where = fmt.Sprintf("table %d", table.Number)
		} else {
			log.Printf("order: failed to resolve table %d for notification: %v", *order.TableID, err)
		}
	}
	return fmt.Sprintf("New order %s (%s), %d items, total %.2f",
		order.OrderNumber, where, len(order.Items), order.Total)
}

func validOrderStatus(status string) bool {
	switch models.OrderStatus(status) {
	case models.OrderPending, models.OrderConfirmed, models.OrderPreparing,
		models.OrderReady, models.OrderServed, models.OrderCompleted, models.OrderCancelled:
		return true
	}
	return false
}

func validItemStatus(status string) bool {
	switch models.OrderItemStatus(status) {
	case models.ItemPending, models.ItemPreparing, models.ItemReady,
		models.ItemServed, models.ItemCancelled:
		return true
	}
	return false
}

func promotable(status string) bool {
	switch models.OrderStatus(status) {
	case models.OrderPreparing, models.OrderReady, models.OrderServed:
		return true
	}
	return false
}

func allItemsAt(items []models.OrderItem, status string) bool {
	for _, item := range items {
		if item.Status == string(models.ItemCancelled) {
			continue
		}
		if item.Status != status {
			return false
		}
	}
	return len(items) > 0
}

func appendNote(notes, line string) string {
	if strings.TrimSpace(notes) == "" {
		return line
	}
	return notes + "\n" + line
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
