package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nachodm/mostrador-backend/pkg/changelog"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
	"gorm.io/gorm"
)

// lowStockThreshold marks products needing a restock. Weight products are
// measured in kg, unit products in units; the threshold is shared.
const lowStockThreshold = 5.0

type Handler struct {
	db     *gorm.DB
	logger *changelog.Logger
	events *events.Dispatcher
}

func NewHandler(db *gorm.DB, dispatcher *events.Dispatcher) *Handler {
	return &Handler{
		db:     db,
		logger: changelog.NewLogger(db),
		events: dispatcher,
	}
}

type InventorySummary struct {
	TotalProducts   int     `json:"total_products"`
	TotalStockValue float64 `json:"total_stock_value"`
	LowStockCount   int     `json:"low_stock_count"`
	OutOfStockCount int     `json:"out_of_stock_count"`
}

// GetSummary returns inventory summary stats
func (h *Handler) GetSummary(c *gin.Context) {
	var summary InventorySummary

	var totalProducts int64
	h.db.Model(&database.Product{}).
		Where("is_active = ?", true).
		Count(&totalProducts)
	summary.TotalProducts = int(totalProducts)

	var stockValue struct {
		Total float64
	}
	h.db.Model(&database.Product{}).
		Select("COALESCE(SUM(available * cost_price), 0) as total").
		Where("is_active = ?", true).
		Scan(&stockValue)
	summary.TotalStockValue = stockValue.Total

	var lowStock int64
	h.db.Model(&database.Product{}).
		Where("is_active = ? AND available > 0 AND available < ?", true, lowStockThreshold).
		Count(&lowStock)
	summary.LowStockCount = int(lowStock)

	var outOfStock int64
	h.db.Model(&database.Product{}).
		Where("is_active = ? AND available <= 0", true).
		Count(&outOfStock)
	summary.OutOfStockCount = int(outOfStock)

	c.JSON(http.StatusOK, gin.H{"data": summary})
}

type AdjustStockRequest struct {
	Quantity float64 `json:"quantity" binding:"required"` // can be negative
	Note     string  `json:"note"`
}

// AdjustStock adds or removes stock for a product. The adjustment is
// rejected when it would drive availability negative.
func (h *Handler) AdjustStock(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product id"})
		return
	}

	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product database.Product
	if err := h.db.Where("id = ?", productID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	// Same conditional-update discipline as sale registration: never let a
	// concurrent writer slip availability below zero.
	res := h.db.Model(&database.Product{}).
		Where("id = ? AND available + ? >= 0", productID, req.Quantity).
		UpdateColumn("available", gorm.Expr("ROUND((available + ?)::numeric, 3)", req.Quantity))
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to adjust stock"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Stock cannot go below zero"})
		return
	}

	h.db.Where("id = ?", productID).First(&product)

	h.logger.LogChange(c, product.ID, "stock_adjust", "available", "", req.Note)
	h.events.Publish(events.StockAdjusted{ProductID: product.ID, NewAvailable: product.Available})

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// GetAlerts returns products that need attention
func (h *Handler) GetAlerts(c *gin.Context) {
	var lowStock []database.Product
	h.db.Where("is_active = ? AND available > 0 AND available < ?", true, lowStockThreshold).
		Order("available ASC").
		Limit(20).
		Find(&lowStock)

	var outOfStock []database.Product
	h.db.Where("is_active = ? AND available <= 0", true).
		Order("name ASC").
		Limit(20).
		Find(&outOfStock)

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"low_stock":    lowStock,
			"out_of_stock": outOfStock,
		},
	})
}
