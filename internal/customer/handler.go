package customer

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"gorm.io/gorm"
)

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// CustomerWithBalance is a customer row plus debt/payment aggregates,
// as shown in the clients view.
type CustomerWithBalance struct {
	database.Customer
	TotalDebt float64 `json:"total_debt"`
	TotalPaid float64 `json:"total_paid"`
}

// List returns all customers with their outstanding balance
func (h *Handler) List(c *gin.Context) {
	search := c.Query("search")

	query := h.db.Model(&database.Customer{}).
		Select(`customers.*,
			COALESCE((SELECT SUM(remaining_amount) FROM debts WHERE debts.customer_id = customers.id AND debts.deleted_at IS NULL), 0) as total_debt,
			COALESCE((SELECT SUM(amount) FROM payments WHERE payments.customer_id = customers.id), 0) as total_paid`)

	if search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var customers []CustomerWithBalance
	if err := query.Order("name ASC").Find(&customers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch customers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customers})
}

// Create adds a new customer
func (h *Handler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer := database.Customer{Name: req.Name, Phone: req.Phone}
	if err := h.db.Create(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create customer"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": customer})
}

// Get returns a single customer
func (h *Handler) Get(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// Update modifies a customer
func (h *Handler) Update(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	customer.Name = req.Name
	customer.Phone = req.Phone

	if err := h.db.Save(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": customer})
}

// Delete soft-deletes a customer. Customers with open debts cannot be removed.
func (h *Handler) Delete(c *gin.Context) {
	var customer database.Customer
	if err := h.db.Where("id = ?", c.Param("id")).First(&customer).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer not found"})
		return
	}

	var openDebts int64
	h.db.Model(&database.Debt{}).
		Where("customer_id = ? AND remaining_amount > 0", customer.ID).
		Count(&openDebts)
	if openDebts > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Customer has pending debts"})
		return
	}

	if err := h.db.Delete(&customer).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete customer"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted"})
}
