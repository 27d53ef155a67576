package product

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
	"github.com/xuri/excelize/v2"
)

type ImportResult struct {
	TotalRows    int      `json:"total_rows"`
	SuccessCount int      `json:"success_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors"`
}

type importRow struct {
	Barcode      string
	Name         string
	CostPrice    float64
	SalePrice    float64
	Available    float64
	SellByWeight bool
}

// Import handles an .xlsx or .csv catalog upload. Expected columns:
// barcode, name, cost price, sale price, available, sell by weight.
// Existing products (matched by name) are updated, new ones created.
func (h *Handler) Import(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	defer file.Close()

	var rows []importRow
	fileName := strings.ToLower(header.Filename)

	switch {
	case strings.HasSuffix(fileName, ".xlsx"), strings.HasSuffix(fileName, ".xls"):
		rows, err = parseExcel(file)
	case strings.HasSuffix(fileName, ".csv"):
		rows, err = parseCSV(file)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file format. Please upload .xlsx or .csv"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Failed to parse file: %v", err)})
		return
	}

	result := ImportResult{TotalRows: len(rows), Errors: []string{}}

	for i, row := range rows {
		if row.Name == "" {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: product name is required", i+2))
			result.FailedCount++
			continue
		}
		if row.SalePrice <= 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: sale price must be positive", i+2))
			result.FailedCount++
			continue
		}

		var existing database.Product
		if err := h.db.Where("name = ?", row.Name).First(&existing).Error; err == nil {
			existing.Barcode = row.Barcode
			existing.CostPrice = row.CostPrice
			existing.SalePrice = row.SalePrice
			existing.Available = roundQty(row.Available)
			existing.SellByWeight = row.SellByWeight
			if err := h.db.Save(&existing).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+2, err))
				result.FailedCount++
				continue
			}
		} else {
			product := database.Product{
				Barcode:      row.Barcode,
				Name:         row.Name,
				CostPrice:    row.CostPrice,
				SalePrice:    row.SalePrice,
				Available:    roundQty(row.Available),
				SellByWeight: row.SellByWeight,
				IsActive:     true,
			}
			if err := h.db.Create(&product).Error; err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+2, err))
				result.FailedCount++
				continue
			}
		}
		result.SuccessCount++
	}

	h.cache.invalidate()
	h.events.Publish(events.ProductChanged{Action: "import"})

	c.JSON(http.StatusOK, gin.H{"data": result})
}

func parseExcel(r io.Reader) ([]importRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	return recordsToRows(records), nil
}

func parseCSV(r io.Reader) ([]importRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	return recordsToRows(records), nil
}

// recordsToRows converts raw cells to import rows, skipping the header.
func recordsToRows(records [][]string) []importRow {
	rows := make([]importRow, 0, len(records))
	for i, record := range records {
		if i == 0 {
			continue // header
		}
		rows = append(rows, importRow{
			Barcode:      cell(record, 0),
			Name:         cell(record, 1),
			CostPrice:    parseFloat(cell(record, 2)),
			SalePrice:    parseFloat(cell(record, 3)),
			Available:    parseFloat(cell(record, 4)),
			SellByWeight: parseBool(cell(record, 5)),
		})
	}
	return rows
}

func cell(record []string, i int) string {
	if i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func parseFloat(s string) float64 {
	s = strings.ReplaceAll(s, ",", ".")
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "si", "sí":
		return true
	}
	return false
}

func roundQty(q float64) float64 {
	return math.Round(q*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
