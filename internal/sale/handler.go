package sale

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db      *gorm.DB
	service *Service
}

func NewHandler(db *gorm.DB, service *Service) *Handler {
	return &Handler{db: db, service: service}
}

type SaleLineRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"required"`
}

type CreateSaleRequest struct {
	Lines         []SaleLineRequest `json:"lines" binding:"required,min=1"`
	PaymentMethod string            `json:"payment_method" binding:"required"`
	CustomerID    *uuid.UUID        `json:"customer_id"`
}

// Create registers a new sale
func (h *Handler) Create(c *gin.Context) {
	var req CreateSaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID, _ := uuid.Parse(c.GetString("user_id"))

	lines := make([]Line, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = Line{ProductID: l.ProductID, Quantity: l.Quantity}
	}

	sale, err := h.service.Register(c.Request.Context(), RegisterInput{
		Lines:         lines,
		PaymentMethod: req.PaymentMethod,
		CustomerID:    req.CustomerID,
		UserID:        userID,
	})
	if err != nil {
		var stockErr *InsufficientStockError
		var notFoundErr *ProductNotFoundError
		switch {
		case errors.As(err, &stockErr):
			c.JSON(http.StatusConflict, gin.H{"error": stockErr.Error(), "product_id": stockErr.ProductID})
		case errors.As(err, &notFoundErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": notFoundErr.Error()})
		case errors.Is(err, ErrEmptySale),
			errors.Is(err, ErrInvalidQuantity),
			errors.Is(err, ErrCustomerRequired),
			errors.Is(err, ErrInvalidPaymentMethod):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register sale"})
		}
		return
	}

	// Reload with associations
	h.db.Where("id = ?", sale.ID).Preload("Items").Preload("Items.Product").Preload("Customer").First(sale)

	c.JSON(http.StatusCreated, gin.H{"data": sale})
}

// List returns recent sales, newest first
func (h *Handler) List(c *gin.Context) {
	query := h.db.Preload("Items").Preload("Items.Product").Preload("Customer")

	if date := c.Query("date"); date != "" {
		query = query.Where("DATE(created_at) = ?", date)
	}
	if method := c.Query("payment_method"); method != "" {
		query = query.Where("payment_method = ?", method)
	}

	var sales []database.Sale
	if err := query.Order("created_at DESC").Limit(200).Find(&sales).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sales"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sales})
}

// Get returns a single sale
func (h *Handler) Get(c *gin.Context) {
	saleID := c.Param("id")

	var sale database.Sale
	if err := h.db.Where("id = ?", saleID).
		Preload("Items").
		Preload("Items.Product").
		Preload("Customer").
		First(&sale).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Sale not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sale})
}
