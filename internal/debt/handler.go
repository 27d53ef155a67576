package debt

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

type RegisterPaymentRequest struct {
	Amount float64 `json:"amount" binding:"required"`
}

// RegisterPayment applies a payment against the customer's open debts
func (h *Handler) RegisterPayment(c *gin.Context) {
	customerID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid customer id"})
		return
	}

	var req RegisterPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.RegisterPayment(c.Request.Context(), customerID, req.Amount)
	switch {
	case errors.Is(err, ErrInvalidAmount):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment amount must be positive"})
		return
	case errors.Is(err, ErrNoPendingDebts):
		c.JSON(http.StatusConflict, gin.H{"error": "Customer has no pending debts"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register payment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": result})
}

// ListDebts returns the customer's debts, oldest first
func (h *Handler) ListDebts(c *gin.Context) {
	customerID := c.Param("id")
	onlyOpen := c.Query("open") == "true"

	query := h.db.Where("customer_id = ?", customerID)
	if onlyOpen {
		query = query.Where("remaining_amount > 0")
	}

	var debts []database.Debt
	if err := query.Order("created_at ASC").Find(&debts).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch debts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": debts})
}

// ListPayments returns the customer's payment history, newest first
func (h *Handler) ListPayments(c *gin.Context) {
	customerID := c.Param("id")

	var payments []database.Payment
	if err := h.db.Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch payments"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": payments})
}
