package main

import (
	"context"
	"log"
	"time"

	"resto_manager/internal/broadcast"
	"resto_manager/internal/config"
	"resto_manager/internal/database"
	"resto_manager/internal/handlers"
	"resto_manager/internal/redis"
	"resto_manager/internal/repository"
	"resto_manager/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Initialize broadcast fanout
	hub := broadcast.NewHub()
	var publisher broadcast.Publisher = hub
	if cfg.BroadcastBackend == "redis" {
		publisher = broadcast.NewRedisPublisher(redisClient.Underlying())
		go broadcast.RunBridge(context.Background(), redisClient.Underlying(), hub)
	}

	// Initialize repositories
	txRunner := repository.NewTxRunner(db)
	orderRepo := repository.NewOrderRepository(db)
	orderItemRepo := repository.NewOrderItemRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	menuRepo := repository.NewMenuRepository(db)
	tableRepo := repository.NewTableRepository(db)
	inventoryRepo := repository.NewInventoryRepository(db)
	customerRepo := repository.NewCustomerRepository(db)

	// Initialize services
	inventoryService := services.NewInventoryService(inventoryRepo, publisher)
	loyaltyService := services.NewLoyaltyService(customerRepo, txRunner, cfg.PointsPerCurrency)
	tableService := services.NewTableService(tableRepo, redisClient, publisher, time.Duration(cfg.SessionTTL)*time.Second)
	orderService := services.NewOrderService(
		orderRepo, orderItemRepo, paymentRepo, menuRepo, tableRepo,
		txRunner, inventoryService, redisClient, publisher,
		cfg.TaxRate, cfg.ManagerPINHash,
	)
	paymentService := services.NewPaymentService(
		orderRepo, orderItemRepo, paymentRepo, tableRepo,
		txRunner, loyaltyService, publisher, cfg.ManagerPINHash,
	)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService, paymentService)
	tableHandler := handlers.NewTableHandler(tableService)
	inventoryHandler := handlers.NewInventoryHandler(inventoryService)
	wsHandler := handlers.NewWSHandler(hub)

	// Setup routes
	router := gin.Default()

	router.GET("/ws", wsHandler.Serve)

	api := router.Group("/api")
	{
		api.POST("/orders", orderHandler.CreateOrder)
		api.GET("/orders", orderHandler.GetOrders)
		api.GET("/orders/active", orderHandler.GetActiveOrders)
		api.GET("/orders/:id", orderHandler.GetOrder)
		api.PATCH("/orders/:id/status", orderHandler.UpdateStatus)
		api.POST("/orders/:id/items", orderHandler.AddItems)
		api.PATCH("/orders/:id/items/:itemId/status", orderHandler.UpdateItemStatus)
		api.POST("/orders/:id/payment", orderHandler.SubmitPayment)
		api.GET("/orders/:id/payments", orderHandler.GetPayments)
		api.POST("/orders/:id/payment/:paymentId/refund", orderHandler.RefundPayment)
		api.POST("/orders/:id/cancel", orderHandler.CancelOrder)
		api.POST("/orders/:id/pickup", orderHandler.MarkPickedUp)
		api.POST("/orders/:id/deliver", orderHandler.MarkDelivered)

		api.GET("/menu", orderHandler.GetMenu)

		api.GET("/inventory/materials", inventoryHandler.GetMaterials)

		api.GET("/tables", tableHandler.GetTables)
		api.POST("/tables/:id/session", tableHandler.StartSession)
		api.DELETE("/tables/sessions/:token", tableHandler.EndSession)
		api.POST("/tables/:id/free", tableHandler.FreeTable)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := router.Run(":" + cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
