package sale

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
	"gorm.io/gorm"
)

var (
	// ErrEmptySale rejects sales with no lines.
	ErrEmptySale = errors.New("sale has no lines")
	// ErrInvalidQuantity rejects non-positive or non-integer unit quantities.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrCustomerRequired means a credit sale was attempted without a customer.
	ErrCustomerRequired = errors.New("credit sales require a customer")
	// ErrInvalidPaymentMethod rejects unknown payment methods.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// InsufficientStockError reports which product lacked stock so the whole
// rejected sale can be explained to the cashier.
type InsufficientStockError struct {
	ProductID uuid.UUID
	Name      string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q", e.Name)
}

// ProductNotFoundError reports a line referencing a missing or inactive product.
type ProductNotFoundError struct {
	ProductID uuid.UUID
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// Line is one requested product line.
type Line struct {
	ProductID uuid.UUID
	Quantity  float64
}

// RegisterInput is a complete sale request.
type RegisterInput struct {
	Lines         []Line
	PaymentMethod string
	CustomerID    *uuid.UUID
	UserID        uuid.UUID
}

// Service registers sales atomically.
type Service struct {
	db     *gorm.DB
	events *events.Dispatcher
}

func NewService(db *gorm.DB, dispatcher *events.Dispatcher) *Service {
	return &Service{db: db, events: dispatcher}
}

// Register validates and records a sale in one transaction: header, one
// item per line, stock decrements, and the debt row for credit sales.
// Stock is deducted with a conditional UPDATE checking the affected row
// count, so two concurrent sales can never drive availability negative.
// Any failure rolls the whole sale back.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*database.Sale, error) {
	if len(input.Lines) == 0 {
		return nil, ErrEmptySale
	}
	if !validMethod(input.PaymentMethod) {
		return nil, ErrInvalidPaymentMethod
	}
	if input.PaymentMethod == database.PaymentCredit && input.CustomerID == nil {
		return nil, ErrCustomerRequired
	}

	var sale database.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ids := make([]string, 0, len(input.Lines))
		for _, line := range input.Lines {
			ids = append(ids, line.ProductID.String())
		}

		// Batch-read every referenced product in one query.
		var products []database.Product
		if err := tx.Where("id = ANY(?) AND is_active = ?", pq.Array(ids), true).
			Find(&products).Error; err != nil {
			return err
		}
		byID := make(map[uuid.UUID]database.Product, len(products))
		for _, p := range products {
			byID[p.ID] = p
		}

		items := make([]database.SaleItem, 0, len(input.Lines))
		total := 0.0

		for _, line := range input.Lines {
			product, ok := byID[line.ProductID]
			if !ok {
				return &ProductNotFoundError{ProductID: line.ProductID}
			}

			qty := roundQty(line.Quantity)
			if qty <= 0 {
				return fmt.Errorf("%w: %v for %q", ErrInvalidQuantity, line.Quantity, product.Name)
			}
			if !product.SellByWeight && qty != math.Trunc(qty) {
				return fmt.Errorf("%w: %q is sold by unit", ErrInvalidQuantity, product.Name)
			}

			// Conditional decrement: affects zero rows when stock is short,
			// which closes the read-then-write race on availability.
			res := tx.Model(&database.Product{}).
				Where("id = ? AND available >= ?", product.ID, qty).
				UpdateColumn("available", gorm.Expr("ROUND((available - ?)::numeric, 3)", qty))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &InsufficientStockError{ProductID: product.ID, Name: product.Name}
			}

			subtotal := round2(qty * product.SalePrice)
			items = append(items, database.SaleItem{
				ProductID: product.ID,
				Quantity:  qty,
				UnitPrice: product.SalePrice,
				UnitCost:  product.CostPrice,
				Subtotal:  subtotal,
			})
			total = round2(total + subtotal)
		}

		sale = database.Sale{
			CustomerID:    input.CustomerID,
			UserID:        input.UserID,
			Items:         items,
			Total:         total,
			PaymentMethod: input.PaymentMethod,
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}

		if input.PaymentMethod == database.PaymentCredit {
			debt := database.Debt{
				CustomerID:      *input.CustomerID,
				SaleID:          sale.ID,
				OriginalAmount:  total,
				RemainingAmount: total,
				Status:          database.DebtPending,
			}
			if err := tx.Create(&debt).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(events.SaleCompleted{
		SaleID:        sale.ID,
		Total:         sale.Total,
		PaymentMethod: sale.PaymentMethod,
	})
	return &sale, nil
}

func validMethod(method string) bool {
	switch method {
	case database.PaymentCash, database.PaymentDebit, database.PaymentTransfer, database.PaymentCredit:
		return true
	}
	return false
}

// roundQty normalizes quantities to the 3-decimal precision of the
// available column.
func roundQty(q float64) float64 {
	return math.Round(q*1000) / 1000
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
