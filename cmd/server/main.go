package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/nachodm/mostrador-backend/internal/auth"
	"github.com/nachodm/mostrador-backend/internal/backup"
	"github.com/nachodm/mostrador-backend/internal/customer"
	"github.com/nachodm/mostrador-backend/internal/debt"
	"github.com/nachodm/mostrador-backend/internal/inventory"
	"github.com/nachodm/mostrador-backend/internal/label"
	"github.com/nachodm/mostrador-backend/internal/product"
	"github.com/nachodm/mostrador-backend/internal/reports"
	"github.com/nachodm/mostrador-backend/internal/sale"
	"github.com/nachodm/mostrador-backend/internal/user"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
	"github.com/nachodm/mostrador-backend/pkg/middleware"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize database
	db, err := database.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed the admin account on a fresh install
	if err := database.EnsureDefaultAdmin(db); err != nil {
		log.Fatalf("Failed to ensure default admin: %v", err)
	}

	// Keep idle pool connections alive
	stopKeepAlive := database.StartKeepAlive(db, 5*time.Minute)
	defer stopKeepAlive()

	// Event dispatcher shared by services and handlers
	dispatcher := events.NewDispatcher()
	dispatcher.Subscribe(events.SaleCompleted{}.EventName(), func(e events.Event) {
		ev := e.(events.SaleCompleted)
		log.Printf("Sale %s completed: %.2f (%s)", ev.SaleID, ev.Total, ev.PaymentMethod)
	})
	dispatcher.Subscribe(events.PaymentRegistered{}.EventName(), func(e events.Event) {
		ev := e.(events.PaymentRegistered)
		log.Printf("Payment of %.2f registered for customer %s", ev.Applied, ev.CustomerID)
	})

	// Services
	saleService := sale.NewService(db, dispatcher)
	debtService := debt.NewService(db, dispatcher)

	// Setup Gin router
	r := gin.Default()

	// Middleware
	r.Use(middleware.CORS())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		v1.POST("/auth/login", authHandler.Login)

		// Protected routes
		protected := v1.Group("")
		protected.Use(middleware.AuthRequired())
		{
			protected.GET("/auth/me", authHandler.GetMe)
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			// Product routes
			productHandler := product.NewHandler(db, dispatcher)
			protected.GET("/products", productHandler.List)
			protected.POST("/products", productHandler.Create)
			protected.GET("/products/lookup", productHandler.Lookup)
			protected.GET("/products/search", productHandler.Search)
			protected.GET("/products/changes", productHandler.ListChanges)
			protected.GET("/products/:id", productHandler.Get)
			protected.PUT("/products/:id", productHandler.Update)
			protected.DELETE("/products/:id", middleware.RequireRole("admin"), productHandler.Delete)
			protected.POST("/products/import", middleware.RequireRole("admin"), productHandler.Import)

			// Sale routes
			saleHandler := sale.NewHandler(db, saleService)
			protected.GET("/sales", saleHandler.List)
			protected.POST("/sales", saleHandler.Create)
			protected.GET("/sales/:id", saleHandler.Get)

			// Customer and debt routes
			customerHandler := customer.NewHandler(db)
			protected.GET("/customers", customerHandler.List)
			protected.POST("/customers", customerHandler.Create)
			protected.GET("/customers/:id", customerHandler.Get)
			protected.PUT("/customers/:id", customerHandler.Update)
			protected.DELETE("/customers/:id", customerHandler.Delete)

			debtHandler := debt.NewHandler(db, debtService)
			protected.GET("/customers/:id/debts", debtHandler.ListDebts)
			protected.GET("/customers/:id/payments", debtHandler.ListPayments)
			protected.POST("/customers/:id/payments", debtHandler.RegisterPayment)

			// Inventory routes
			inventoryHandler := inventory.NewHandler(db, dispatcher)
			protected.GET("/inventory/summary", inventoryHandler.GetSummary)
			protected.GET("/inventory/alerts", inventoryHandler.GetAlerts)
			protected.PUT("/inventory/:id/stock", inventoryHandler.AdjustStock)

			// Reports routes
			reportsHandler := reports.NewHandler(db)
			protected.GET("/reports/revenue", reportsHandler.GetRevenue)
			protected.GET("/reports/top-products", reportsHandler.GetTopProducts)

			// Label generation
			labelHandler := label.NewHandler(db)
			protected.POST("/labels", labelHandler.Generate)

			// Drive backup (admin only)
			backupHandler := backup.NewHandler(backup.NewDriveUploaderFromEnv())
			protected.POST("/backup/sync", middleware.RequireRole("admin"), backupHandler.SyncNow)

			// User management (admin only)
			userHandler := user.NewHandler(db)
			admin := protected.Group("", middleware.RequireRole("admin"))
			admin.GET("/users", userHandler.List)
			admin.POST("/users", userHandler.Create)
			admin.POST("/users/:id/deactivate", userHandler.Deactivate)
		}
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
