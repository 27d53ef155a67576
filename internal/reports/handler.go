package reports

import (
	"net/http"
	"time"

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

type RevenueReport struct {
	StartDate  string       `json:"start_date"`
	EndDate    string       `json:"end_date"`
	Revenue    float64      `json:"revenue"`
	Profit     float64      `json:"profit"`
	CashTotal  float64      `json:"cash_total"`
	SalesCount int          `json:"sales_count"`
	Sales      []SaleDetail `json:"sales"`
}

type SaleDetail struct {
	SaleID        string       `json:"sale_id"`
	Date          time.Time    `json:"date"`
	Total         float64      `json:"total"`
	PaymentMethod string       `json:"payment_method"`
	Profit        float64      `json:"profit"`
	Lines         []LineDetail `json:"lines"`
}

type LineDetail struct {
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	ByWeight    bool    `json:"by_weight"`
}

// GetRevenue returns revenue, profit and sale detail for a day or a period.
// Report queries opt into the slow statement timeout since they can scan
// months of sales.
func (h *Handler) GetRevenue(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var report RevenueReport
	report.StartDate = start.Format("2006-01-02")
	report.EndDate = end.Format("2006-01-02")

	txErr := h.db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SET LOCAL statement_timeout = ?", database.SlowStatementTimeout.Milliseconds()).Error; err != nil {
			return err
		}

		var totals struct {
			Revenue float64
			Count   int64
		}
		if err := tx.Model(&database.Sale{}).
			Select("COALESCE(SUM(total), 0) as revenue, COUNT(*) as count").
			Where("created_at >= ? AND created_at < ?", start, end).
			Scan(&totals).Error; err != nil {
			return err
		}
		report.Revenue = totals.Revenue
		report.SalesCount = int(totals.Count)

		var profit struct {
			Total float64
		}
		if err := tx.Model(&database.SaleItem{}).
			Select("COALESCE(SUM((sale_items.unit_price - sale_items.unit_cost) * sale_items.quantity), 0) as total").
			Joins("JOIN sales ON sale_items.sale_id = sales.id").
			Where("sales.created_at >= ? AND sales.created_at < ?", start, end).
			Scan(&profit).Error; err != nil {
			return err
		}
		report.Profit = profit.Total

		var cash struct {
			Total float64
		}
		if err := tx.Model(&database.Sale{}).
			Select("COALESCE(SUM(total), 0) as total").
			Where("created_at >= ? AND created_at < ? AND payment_method = ?", start, end, database.PaymentCash).
			Scan(&cash).Error; err != nil {
			return err
		}
		report.CashTotal = cash.Total

		var sales []database.Sale
		if err := tx.Where("created_at >= ? AND created_at < ?", start, end).
			Preload("Items").
			Preload("Items.Product").
			Order("created_at ASC").
			Find(&sales).Error; err != nil {
			return err
		}

		report.Sales = make([]SaleDetail, 0, len(sales))
		for _, s := range sales {
			detail := SaleDetail{
				SaleID:        s.ID.String(),
				Date:          s.CreatedAt,
				Total:         s.Total,
				PaymentMethod: s.PaymentMethod,
			}
			for _, item := range s.Items {
				detail.Profit += (item.UnitPrice - item.UnitCost) * item.Quantity
				detail.Lines = append(detail.Lines, LineDetail{
					ProductName: item.Product.Name,
					Quantity:    item.Quantity,
					UnitPrice:   item.UnitPrice,
					ByWeight:    item.Product.SellByWeight,
				})
			}
			report.Sales = append(report.Sales, detail)
		}

		return nil
	})
	if txErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": report})
}

// TopProduct is one row of the best-sellers report.
type TopProduct struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	TotalQty    float64 `json:"total_qty"`
	TotalSales  float64 `json:"total_sales"`
	Profit      float64 `json:"profit"`
}

// GetTopProducts returns sales grouped by product for a period
func (h *Handler) GetTopProducts(c *gin.Context) {
	start, end, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var products []TopProduct
	if err := h.db.Model(&database.SaleItem{}).
		Select(`sale_items.product_id,
			products.name as product_name,
			SUM(sale_items.quantity) as total_qty,
			SUM(sale_items.subtotal) as total_sales,
			SUM((sale_items.unit_price - sale_items.unit_cost) * sale_items.quantity) as profit`).
		Joins("JOIN sales ON sale_items.sale_id = sales.id").
		Joins("JOIN products ON sale_items.product_id = products.id").
		Where("sales.created_at >= ? AND sales.created_at < ?", start, end).
		Group("sale_items.product_id, products.name").
		Order("total_sales DESC").
		Limit(50).
		Scan(&products).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product report"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": products})
}

// parseRange reads date/start_date/end_date query params. A single `date`
// means that one day; otherwise the inclusive start..end period. Defaults
// to today.
func parseRange(c *gin.Context) (time.Time, time.Time, error) {
	const layout = "2006-01-02"
	now := time.Now()

	if date := c.Query("date"); date != "" {
		day, err := time.Parse(layout, date)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, day.AddDate(0, 0, 1), nil
	}

	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		start = parsed
	}
	if e := c.Query("end_date"); e != "" {
		parsed, err := time.Parse(layout, e)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end = parsed.AddDate(0, 0, 1)
	}

	return start, end, nil
}
