package services

import (
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"resto_manager/internal/database"
	"resto_manager/internal/models"
	"resto_manager/internal/redis"
	"resto_manager/internal/repository"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// A named shared-cache DSN keeps every pooled connection on the same
	// in-memory database, one database per test.
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

type publishedEvent struct {
	Channel string
	Data    interface{}
}

// capturingPublisher records fanout calls for assertions.
type capturingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *capturingPublisher) Publish(channel string, data interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Channel: channel, Data: data})
}

func (p *capturingPublisher) lastOn(channel string) (publishedEvent, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].Channel == channel {
			return p.events[i], true
		}
	}
	return publishedEvent{}, false
}

func (p *capturingPublisher) channels() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Channel)
	}
	return names
}

// fakeSessionStore stands in for the redis-backed table session store.
type fakeSessionStore struct {
	sessions map[string]*redis.TableSession
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*redis.TableSession)}
}

func (f *fakeSessionStore) add(token string, tableID uint) {
	f.sessions[token] = &redis.TableSession{TableID: tableID, Token: token, CreatedAt: time.Now()}
}

func (f *fakeSessionStore) GetTableSession(token string) (*redis.TableSession, error) {
	session, ok := f.sessions[token]
	if !ok {
		return nil, redis.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeSessionStore) StartTableSession(tableID uint, _ time.Duration) (*redis.TableSession, error) {
	session := &redis.TableSession{TableID: tableID, Token: uuid.New().String(), CreatedAt: time.Now()}
	f.sessions[session.Token] = session
	return session, nil
}

func (f *fakeSessionStore) EndTableSession(token string) error {
	delete(f.sessions, token)
	return nil
}

type fixture struct {
	db        *gorm.DB
	publisher *capturingPublisher
	sessions  *fakeSessionStore
	orders    OrderService
	payments  PaymentService
	loyalty   LoyaltyService
	inventory InventoryService
	tables    TableService

	orderRepo     repository.OrderRepository
	orderItemRepo repository.OrderItemRepository
	paymentRepo   repository.PaymentRepository
	tableRepo     repository.TableRepository
	inventoryRepo repository.InventoryRepository
	customerRepo  repository.CustomerRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := newTestDB(t)

	f := &fixture{
		db:            db,
		publisher:     &capturingPublisher{},
		sessions:      newFakeSessionStore(),
		orderRepo:     repository.NewOrderRepository(db),
		orderItemRepo: repository.NewOrderItemRepository(db),
		paymentRepo:   repository.NewPaymentRepository(db),
		tableRepo:     repository.NewTableRepository(db),
		inventoryRepo: repository.NewInventoryRepository(db),
		customerRepo:  repository.NewCustomerRepository(db),
	}

	txRunner := repository.NewTxRunner(db)
	menuRepo := repository.NewMenuRepository(db)

	f.inventory = NewInventoryService(f.inventoryRepo, f.publisher)
	f.loyalty = NewLoyaltyService(f.customerRepo, txRunner, 10)
	f.orders = NewOrderService(
		f.orderRepo, f.orderItemRepo, f.paymentRepo, menuRepo, f.tableRepo,
		txRunner, f.inventory, f.sessions, f.publisher, 0.10, "",
	)
	f.payments = NewPaymentService(
		f.orderRepo, f.orderItemRepo, f.paymentRepo, f.tableRepo,
		txRunner, f.loyalty, f.publisher, "",
	)
	f.tables = NewTableService(f.tableRepo, f.sessions, f.publisher, time.Hour)
	return f
}

func (f *fixture) seedMenuItem(t *testing.T, name string, price float64, available bool) *models.MenuItem {
	t.Helper()
	item := &models.MenuItem{Name: name, Price: price, Available: available}
	if err := f.db.Create(item).Error; err != nil {
		t.Fatalf("failed to seed menu item: %v", err)
	}
	return item
}

func (f *fixture) seedTable(t *testing.T, number int, status models.TableStatus) *models.Table {
	t.Helper()
	table := &models.Table{Number: number, Status: string(status)}
	if err := f.db.Create(table).Error; err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}
	return table
}

func (f *fixture) seedMaterial(t *testing.T, name string, stock, minStock float64) *models.RawMaterial {
	t.Helper()
	material := &models.RawMaterial{Name: name, Unit: "kg", CurrentStock: stock, MinStock: minStock}
	if err := f.db.Create(material).Error; err != nil {
		t.Fatalf("failed to seed raw material: %v", err)
	}
	return material
}

func (f *fixture) seedIngredient(t *testing.T, menuItemID, materialID uint, amount float64) {
	t.Helper()
	link := &models.MenuItemIngredient{MenuItemID: menuItemID, RawMaterialID: materialID, AmountPerUnit: amount}
	if err := f.db.Create(link).Error; err != nil {
		t.Fatalf("failed to seed ingredient: %v", err)
	}
}

func (f *fixture) materialStock(t *testing.T, id uint) float64 {
	t.Helper()
	material, err := f.inventoryRepo.GetMaterial(id)
	if err != nil {
		t.Fatalf("failed to load raw material: %v", err)
	}
	return material.CurrentStock
}

func (f *fixture) tableStatus(t *testing.T, id uint) string {
	t.Helper()
	table, err := f.tableRepo.GetByID(id)
	if err != nil {
		t.Fatalf("failed to load table: %v", err)
	}
	return table.Status
}
