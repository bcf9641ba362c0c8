package services

import (
	"testing"

	"resto_manager/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestCreateOrderComputesTotals(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 2}},
	})
	assert.NoError(t, err)

	assert.Equal(t, 50.00, order.Subtotal)
	assert.Equal(t, 5.00, order.Tax)
	assert.Equal(t, 55.00, order.Total)
	assert.Equal(t, string(models.OrderPending), order.Status)
	assert.Equal(t, string(models.PaymentPending), order.PaymentStatus)
	assert.Len(t, order.Items, 1)
	assert.Equal(t, 25.00, order.Items[0].UnitPrice)
	assert.Equal(t, "Burger", order.Items[0].ItemName)
	assert.NotEmpty(t, order.OrderNumber)
	assert.NotEmpty(t, order.PublicID)
}

func TestCreateOrderSnapshotsPriceAtOrderTime(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	// Raising the menu price must not touch the placed order.
	burger.Price = 40.00
	assert.NoError(t, f.db.Save(burger).Error)

	reloaded, err := f.orders.GetOrder(order.ID)
	assert.NoError(t, err)
	assert.Equal(t, 25.00, reloaded.Items[0].UnitPrice)
	assert.Equal(t, 27.50, reloaded.Total)
}

func TestCreateOrderRejectsMissingAndUnavailableItems(t *testing.T) {
	f := newFixture(t)
	soldOut := f.seedMenuItem(t, "Special", 12.00, false)

	_, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: 999, Quantity: 1}},
	})
	assert.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)

	_, err = f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: soldOut.ID, Quantity: 1}},
	})
	assert.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)

	_, err = f.orders.CreateOrder(CreateOrderRequest{Items: nil})
	assert.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestCreateTableOrderRequiresValidSession(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	table := f.seedTable(t, 5, models.TableOccupied)
	items := []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}}

	// Missing or expired token.
	_, err := f.orders.CreateOrder(CreateOrderRequest{
		TableID: &table.ID, SessionToken: "nope", Items: items,
	})
	var sessionErr *SessionError
	assert.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, SessionCodeExpired, sessionErr.Code)

	// Token bound to another table.
	other := f.seedTable(t, 6, models.TableOccupied)
	f.sessions.add("other-token", other.ID)
	_, err = f.orders.CreateOrder(CreateOrderRequest{
		TableID: &table.ID, SessionToken: "other-token", Items: items,
	})
	assert.ErrorAs(t, err, &sessionErr)
	assert.Equal(t, SessionCodeTableMismatch, sessionErr.Code)

	// A free table has no active sitting.
	free := f.seedTable(t, 7, models.TableFree)
	f.sessions.add("free-token", free.ID)
	_, err = f.orders.CreateOrder(CreateOrderRequest{
		TableID: &free.ID, SessionToken: "free-token", Items: items,
	})
	assert.ErrorAs(t, err, &sessionErr)

	// Valid token, occupied table.
	f.sessions.add("good-token", table.ID)
	order, err := f.orders.CreateOrder(CreateOrderRequest{
		TableID: &table.ID, SessionToken: "good-token", Items: items,
	})
	assert.NoError(t, err)
	assert.Equal(t, table.ID, *order.TableID)
	assert.Equal(t, string(models.TableOccupied), f.tableStatus(t, table.ID))
}

func TestAddItemsKeepsTotalsAdditive(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	cola := f.seedMenuItem(t, "Cola", 5.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 2}},
	})
	assert.NoError(t, err)

	updated, err := f.orders.AddItems(order.ID, []OrderItemRequest{{MenuItemID: cola.ID, Quantity: 2}})
	assert.NoError(t, err)

	// 50 + 10 subtotal, 5 + 1 tax, 55 + 11 total.
	assert.Equal(t, 60.00, updated.Subtotal)
	assert.Equal(t, 6.00, updated.Tax)
	assert.Equal(t, 66.00, updated.Total)
	assert.Len(t, updated.Items, 2)
}

func TestAddItemsRejectedOnClosedOrder(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = f.orders.CancelOrder(order.ID, CancelOrderRequest{Reason: "changed mind"})
	assert.NoError(t, err)

	_, err = f.orders.AddItems(order.ID, []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}})
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)
}

func TestUpdateStatusPropagatesToItems(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	cola := f.seedMenuItem(t, "Cola", 5.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{
			{MenuItemID: burger.ID, Quantity: 1},
			{MenuItemID: cola.ID, Quantity: 1},
		},
	})
	assert.NoError(t, err)

	updated, err := f.orders.UpdateStatus(order.ID, string(models.OrderPreparing))
	assert.NoError(t, err)
	assert.Equal(t, string(models.OrderPreparing), updated.Status)
	for _, item := range updated.Items {
		assert.Equal(t, string(models.ItemPreparing), item.Status)
	}
}

func TestUpdateStatusCompletedStampsAndCleansTable(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	table := f.seedTable(t, 3, models.TableOccupied)
	f.sessions.add("tok", table.ID)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		TableID: &table.ID, SessionToken: "tok",
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	updated, err := f.orders.UpdateStatus(order.ID, string(models.OrderCompleted))
	assert.NoError(t, err)
	assert.NotNil(t, updated.CompletedAt)
	assert.Equal(t, string(models.TableCleaning), f.tableStatus(t, table.ID))

	// Terminal orders reject further status writes.
	_, err = f.orders.UpdateStatus(order.ID, string(models.OrderServed))
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)
}

func TestItemStatusAutoPromotesOrder(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	cola := f.seedMenuItem(t, "Cola", 5.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{
			{MenuItemID: burger.ID, Quantity: 1},
			{MenuItemID: cola.ID, Quantity: 1},
		},
	})
	assert.NoError(t, err)

	first, second := order.Items[0].ID, order.Items[1].ID

	updated, err := f.orders.UpdateItemStatus(order.ID, first, string(models.ItemReady))
	assert.NoError(t, err)
	assert.Equal(t, string(models.OrderPending), updated.Status)

	updated, err = f.orders.UpdateItemStatus(order.ID, second, string(models.ItemReady))
	assert.NoError(t, err)
	assert.Equal(t, string(models.OrderReady), updated.Status)
}

func TestCancelRestoresInventoryAndFreesTable(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	beef := f.seedMaterial(t, "Beef", 10, 1)
	f.seedIngredient(t, burger.ID, beef.ID, 0.5)
	table := f.seedTable(t, 2, models.TableOccupied)
	f.sessions.add("tok", table.ID)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		TableID: &table.ID, SessionToken: "tok",
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 4}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 8.0, f.materialStock(t, beef.ID))

	cancelled, err := f.orders.CancelOrder(order.ID, CancelOrderRequest{Reason: "guest left"})
	assert.NoError(t, err)
	assert.Equal(t, string(models.OrderCancelled), cancelled.Status)
	assert.Contains(t, cancelled.Notes, "Cancelled: guest left")
	assert.Equal(t, 10.0, f.materialStock(t, beef.ID))
	assert.Equal(t, string(models.TableFree), f.tableStatus(t, table.ID))
}

func TestCancelRejectedForCompletedAndPaidOrders(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 2}},
	})
	assert.NoError(t, err)

	_, err = f.payments.SubmitPayment(order.ID, PaymentRequest{Amount: 55.00})
	assert.NoError(t, err)

	_, err = f.orders.CancelOrder(order.ID, CancelOrderRequest{})
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)
}

func TestCourierFlowGuards(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Type:  string(models.OrderDelivery),
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	// Pickup before the kitchen is done.
	_, err = f.orders.MarkPickedUp(order.ID)
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)

	// Delivery before pickup.
	_, err = f.orders.MarkDelivered(order.ID)
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)

	_, err = f.orders.UpdateStatus(order.ID, string(models.OrderReady))
	assert.NoError(t, err)

	picked, err := f.orders.MarkPickedUp(order.ID)
	assert.NoError(t, err)
	assert.NotNil(t, picked.PickedUpAt)

	// Second pickup is rejected.
	_, err = f.orders.MarkPickedUp(order.ID)
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)

	delivered, err := f.orders.MarkDelivered(order.ID)
	assert.NoError(t, err)
	assert.NotNil(t, delivered.DeliveredAt)

	_, err = f.orders.MarkDelivered(order.ID)
	assert.Error(t, err)
	assert.IsType(t, &StateConflictError{}, err)
}

func TestCourierFlowRejectedForDineIn(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = f.orders.MarkPickedUp(order.ID)
	assert.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestAddItemsPublishesOrderWithNewItems(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)
	cola := f.seedMenuItem(t, "Cola", 5.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = f.orders.AddItems(order.ID, []OrderItemRequest{{MenuItemID: cola.ID, Quantity: 1}})
	assert.NoError(t, err)

	// Kitchen screens work off the broadcast payload, so it must carry
	// the item that was just added, not the pre-mutation order.
	event, ok := f.publisher.lastOn("kitchen")
	assert.True(t, ok)
	published, ok := event.Data.(*models.Order)
	assert.True(t, ok)
	assert.Len(t, published.Items, 2)
}

func TestUpdateStatusPublishesPropagatedItemStatuses(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	order, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = f.orders.UpdateStatus(order.ID, string(models.OrderPreparing))
	assert.NoError(t, err)

	event, ok := f.publisher.lastOn("orders")
	assert.True(t, ok)
	published, ok := event.Data.(*models.Order)
	assert.True(t, ok)
	assert.Equal(t, string(models.OrderPreparing), published.Status)
	for _, item := range published.Items {
		assert.Equal(t, string(models.ItemPreparing), item.Status)
	}
}

func TestGetOrdersByStatus(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	first, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)
	second, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	_, err = f.orders.UpdateStatus(second.ID, string(models.OrderPreparing))
	assert.NoError(t, err)

	preparing, err := f.orders.GetOrdersByStatus(string(models.OrderPreparing))
	assert.NoError(t, err)
	assert.Len(t, preparing, 1)
	assert.Equal(t, second.ID, preparing[0].ID)

	pending, err := f.orders.GetOrdersByStatus(string(models.OrderPending))
	assert.NoError(t, err)
	assert.Len(t, pending, 1)
	assert.Equal(t, first.ID, pending[0].ID)

	_, err = f.orders.GetOrdersByStatus("bogus")
	assert.Error(t, err)
	assert.IsType(t, &ValidationError{}, err)
}

func TestGetMenuListsOnlyAvailableItems(t *testing.T) {
	f := newFixture(t)
	f.seedMenuItem(t, "Burger", 25.00, true)
	f.seedMenuItem(t, "Special", 12.00, false)

	menu, err := f.orders.GetMenu()
	assert.NoError(t, err)
	assert.Len(t, menu, 1)
	assert.Equal(t, "Burger", menu[0].Name)
}

func TestNewOrderPublishesToKitchenAndOrders(t *testing.T) {
	f := newFixture(t)
	burger := f.seedMenuItem(t, "Burger", 25.00, true)

	_, err := f.orders.CreateOrder(CreateOrderRequest{
		Items: []OrderItemRequest{{MenuItemID: burger.ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	channels := f.publisher.channels()
	assert.Contains(t, channels, "orders")
	assert.Contains(t, channels, "kitchen")
	assert.Contains(t, channels, "notifications")
}
