// Package label builds the data payload for variable-weight product labels.
// The actual printing happens in an external label application that consumes
// a CSV row per label; this endpoint produces that row plus the encoded
// barcode.
package label

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/nachodm/mostrador-backend/internal/barcode"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"gorm.io/gorm"
)

var csvHeader = []string{"Codigo", "Nombre", "Ingredientes", "CodigoBarras", "Peso"}

type Handler struct {
	db *gorm.DB
}

func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

type LabelRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	WeightKg  float64   `json:"weight_kg" binding:"required"`
}

// Generate encodes the variable-weight barcode for a weighed product and
// returns the label payload. With ?format=csv the response is the CSV file
// the label template consumes.
func (h *Handler) Generate(c *gin.Context) {
	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var product database.Product
	if err := h.db.Where("id = ?", req.ProductID).First(&product).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if !product.SellByWeight {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is not sold by weight"})
		return
	}

	code, err := barcode.Encode(product.Barcode, req.WeightKg)
	if err != nil {
		switch {
		case errors.Is(err, barcode.ErrCodeRange):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fmt.Sprintf("Product code %q cannot be encoded: %v", product.Barcode, err)})
		case errors.Is(err, barcode.ErrWeightRange):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to encode barcode"})
		}
		return
	}

	if c.Query("format") == "csv" {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write(csvHeader)
		_ = w.Write([]string{
			product.Barcode,
			product.Name,
			product.Ingredients,
			code,
			fmt.Sprintf("%.3f", req.WeightKg),
		})
		w.Flush()

		c.Header("Content-Disposition", `attachment; filename="label.csv"`)
		c.Data(http.StatusOK, "text/csv", buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"product_code": product.Barcode,
		"product_name": product.Name,
		"ingredients":  product.Ingredients,
		"barcode":      code,
		"weight_kg":    req.WeightKg,
	}})
}
