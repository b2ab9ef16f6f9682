package main

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"vanik-system/config"
	"vanik-system/internal/audit"
	"vanik-system/internal/database"
	"vanik-system/internal/gate"
	"vanik-system/internal/gateway/handlers"
	"vanik-system/internal/gateway/middleware"
	billing "vanik-system/internal/services/billing/handler"
	inventory "vanik-system/internal/services/inventory/handler"
	reports "vanik-system/internal/services/reports/handler"
	user "vanik-system/internal/services/user/handler"
	"vanik-system/internal/sequence"
	"vanik-system/internal/stockledger"
	"vanik-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetJwtSecret(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient := config.NewRedisClient(cfg.Redis)

	tokenTTL := 24 * time.Hour
	if cfg.Auth.TokenTTL != "" {
		if parsed, err := time.ParseDuration(cfg.Auth.TokenTTL); err == nil {
			tokenTTL = parsed
		} else {
			log.Printf("Invalid AUTH_TOKEN_TTL %q, using default", cfg.Auth.TokenTTL)
		}
	}

	ledger := stockledger.NewCoordinator(db)
	seq := sequence.NewGenerator(cfg.GST.Prefixes())
	checker := gate.NewChecker(db)
	auditor := audit.NewWriter(db)

	reportsService := reports.NewReportsHandler(db, checker, redisClient)
	billingService := billing.NewBillingHandler(db, ledger, seq, checker, auditor, reportsService, cfg.GST)
	inventoryService := inventory.NewInventoryHandler(db, ledger, checker, auditor, redisClient, cfg.GST.AllowedRates)
	userService := user.NewUserHandler(db, checker, redisClient, tokenTTL)

	billingHandler := handlers.NewBillingHTTPHandler(billingService)
	inventoryHandler := handlers.NewInventoryHTTPHandler(inventoryService)
	reportsHandler := handlers.NewReportsHTTPHandler(reportsService)
	userHandler := handlers.NewUserHTTPHandler(userService)

	r := gin.Default()

	r.Use(middleware.CORS())
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(cfg.HTTP.RateLimit))

	// --- Public API Group ---
	public := r.Group("/api/v1")
	{
		auth := public.Group("/auth")
		{
			auth.POST("/login", userHandler.Login)
			auth.POST("/register", userHandler.Register)
		}
	}

	// --- Protected API Group ---
	protected := r.Group("/api/v1")
	protected.Use(middleware.JWTAuth())
	{
		roles := protected.Group("/roles")
		{
			roles.POST("", userHandler.CreateRole)
			roles.GET("", userHandler.ListRoles)
		}

		invoices := protected.Group("/invoices")
		{
			invoices.POST("", billingHandler.CreateInvoice)
			invoices.PUT("/:id", billingHandler.UpdateInvoice)
		}

		purchases := protected.Group("/purchases")
		{
			purchases.POST("", billingHandler.CreatePurchase)
			purchases.PUT("/:id", billingHandler.UpdatePurchase)
		}

		documents := protected.Group("/documents")
		{
			documents.GET("", billingHandler.ListDocuments)
			documents.GET("/lookup", billingHandler.LookupDocument)
			documents.GET("/:id", billingHandler.GetDocument)
			documents.POST("/:id/cancel", billingHandler.CancelDocument)
		}

		items := protected.Group("/items")
		{
			items.POST("", inventoryHandler.CreateItem)
			items.GET("", inventoryHandler.ListItems)
			items.GET("/:id", inventoryHandler.GetItem)
			items.PUT("/:id", inventoryHandler.UpdateItem)
			items.POST("/:id/opening-stock", inventoryHandler.SetOpeningStock)
			items.POST("/:id/adjust", inventoryHandler.AdjustStock)
		}

		ledgerGroup := protected.Group("/ledger")
		{
			ledgerGroup.GET("", inventoryHandler.ListLedgerEntries)
		}

		customers := protected.Group("/customers")
		{
			customers.POST("", inventoryHandler.CreateCustomer)
			customers.GET("", inventoryHandler.ListCustomers)
			customers.GET("/:id", inventoryHandler.GetCustomer)
			customers.PUT("/:id", inventoryHandler.UpdateCustomer)
		}

		suppliers := protected.Group("/suppliers")
		{
			suppliers.POST("", inventoryHandler.CreateSupplier)
			suppliers.GET("", inventoryHandler.ListSuppliers)
			suppliers.GET("/:id", inventoryHandler.GetSupplier)
			suppliers.PUT("/:id", inventoryHandler.UpdateSupplier)
		}

		reportsGroup := protected.Group("/reports")
		{
			reportsGroup.GET("/hsn-summary", reportsHandler.HSNReport)
			reportsGroup.GET("/stock-valuation", reportsHandler.StockValuation)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	port := cfg.HTTP.Port
	log.Printf("Starting server on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
