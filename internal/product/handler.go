package product

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nachodm/mostrador-backend/internal/barcode"
	"github.com/nachodm/mostrador-backend/pkg/changelog"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
	"gorm.io/gorm"
)

const autocompleteTTL = 5 * time.Minute

type Handler struct {
	db     *gorm.DB
	logger *changelog.Logger
	events *events.Dispatcher
	cache  *nameCache
}

func NewHandler(db *gorm.DB, dispatcher *events.Dispatcher) *Handler {
	h := &Handler{
		db:     db,
		logger: changelog.NewLogger(db),
		events: dispatcher,
		cache:  newNameCache(autocompleteTTL),
	}
	dispatcher.Subscribe(events.ProductChanged{}.EventName(), func(events.Event) {
		h.cache.invalidate()
	})
	dispatcher.Subscribe(events.StockAdjusted{}.EventName(), func(events.Event) {
		h.cache.invalidate()
	})
	return h
}

type CreateProductRequest struct {
	Barcode       string  `json:"barcode"`
	Name          string  `json:"name" binding:"required"`
	SellByWeight  bool    `json:"sell_by_weight"`
	Available     float64 `json:"available"`
	CostPrice     float64 `json:"cost_price" binding:"required"`
	SalePrice     float64 `json:"sale_price" binding:"required"`
	MarginPercent float64 `json:"margin_percent"`
	Ingredients   string  `json:"ingredients"`
}

// List returns all products
func (h *Handler) List(c *gin.Context) {
	query := h.db.Order("name ASC")
	if c.Query("active") == "true" {
		query = query.Where("is_active = ?", true)
	}

	var products []database.Product
	if err := query.Find(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// Create adds a new product
func (h *Handler) Create(c *gin.Context) {
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	margin := req.MarginPercent
	if margin == 0 && req.CostPrice > 0 {
		margin = round2((req.SalePrice - req.CostPrice) / req.CostPrice * 100)
	}

	product := database.Product{
		Barcode:       req.Barcode,
		Name:          req.Name,
		SellByWeight:  req.SellByWeight,
		Available:     roundQty(req.Available),
		CostPrice:     req.CostPrice,
		SalePrice:     req.SalePrice,
		MarginPercent: margin,
		Ingredients:   req.Ingredients,
		IsActive:      true,
	}

	if err := h.db.Create(&product).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("A product named %q already exists", req.Name)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
		return
	}

	h.logger.LogChange(c, product.ID, "create", "", nil, product.Name)
	h.events.Publish(events.ProductChanged{ProductID: product.ID, Action: "create"})

	c.JSON(http.StatusCreated, gin.H{"data": product})
}

// Get returns a single product
func (h *Handler) Get(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Update modifies a product, recording field-level changes
func (h *Handler) Update(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	oldValues := map[string]interface{}{
		"barcode":        product.Barcode,
		"name":           product.Name,
		"sell_by_weight": product.SellByWeight,
		"cost_price":     product.CostPrice,
		"sale_price":     product.SalePrice,
		"margin_percent": product.MarginPercent,
		"ingredients":    product.Ingredients,
	}

	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product.Barcode = req.Barcode
	product.Name = req.Name
	product.SellByWeight = req.SellByWeight
	product.CostPrice = req.CostPrice
	product.SalePrice = req.SalePrice
	product.MarginPercent = req.MarginPercent
	product.Ingredients = req.Ingredients

	if err := h.db.Save(&product).Error; err != nil {
		if strings.Contains(err.Error(), "duplicate key") {
			c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("A product named %q already exists", req.Name)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
		return
	}

	h.logger.LogFieldDiffs(c, product.ID, oldValues, map[string]interface{}{
		"barcode":        product.Barcode,
		"name":           product.Name,
		"sell_by_weight": product.SellByWeight,
		"cost_price":     product.CostPrice,
		"sale_price":     product.SalePrice,
		"margin_percent": product.MarginPercent,
		"ingredients":    product.Ingredients,
	})
	h.events.Publish(events.ProductChanged{ProductID: product.ID, Action: "update"})

	c.JSON(http.StatusOK, gin.H{"data": product})
}

// Delete soft-deletes a product
func (h *Handler) Delete(c *gin.Context) {
	var product database.Product
	if err := h.db.Where("id = ?", c.Param("id")).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	if err := h.db.Delete(&product).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
		return
	}

	h.logger.LogChange(c, product.ID, "delete", "", product.Name, nil)
	h.events.Publish(events.ProductChanged{ProductID: product.ID, Action: "delete"})

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// Lookup resolves a scanned barcode or a typed name. Variable-weight codes
// are decoded first; everything else matches on barcode or exact name.
func (h *Handler) Lookup(c *gin.Context) {
	code := strings.TrimSpace(c.Query("code"))
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing code parameter"})
		return
	}

	if barcode.IsVariableWeight(code) {
		productCode, weightKg, err := barcode.Decode(code)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		var product database.Product
		if err := h.db.
			Where("barcode = ? OR barcode = ?", productCode, strings.TrimLeft(productCode, "0")).
			First(&product).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found for scanned code"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": gin.H{
			"product":         product,
			"variable_weight": true,
			"weight_kg":       weightKg,
		}})
		return
	}

	var product database.Product
	if err := h.db.Where("barcode = ? OR name ILIKE ?", code, code).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"product":         product,
		"variable_weight": false,
	}})
}

// Search returns product names matching the term, for autocomplete.
// Backed by the TTL cache so typing does not hammer the database.
func (h *Handler) Search(c *gin.Context) {
	term := strings.TrimSpace(c.Query("q"))
	if term == "" {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
		return
	}

	names, err := h.cache.get(func() ([]string, error) {
		var names []string
		err := h.db.Model(&database.Product{}).
			Where("is_active = ?", true).
			Order("name ASC").
			Pluck("name", &names).Error
		return names, err
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": filterNames(names, term)})
}

// ListChanges returns the product modification audit trail
func (h *Handler) ListChanges(c *gin.Context) {
	query := h.db.Preload("User").Order("created_at DESC").Limit(500)
	if productID := c.Query("product_id"); productID != "" {
		query = query.Where("product_id = ?", productID)
	}

	var changes []database.ProductChange
	if err := query.Find(&changes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch changes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": changes})
}
