package debt

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/nachodm/mostrador-backend/pkg/database"
	"github.com/nachodm/mostrador-backend/pkg/events"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidAmount rejects non-positive payments before any DB access.
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrNoPendingDebts means the customer has nothing outstanding.
	ErrNoPendingDebts = errors.New("customer has no pending debts")
)

// Service applies customer payments against outstanding debts.
type Service struct {
	db     *gorm.DB
	events *events.Dispatcher
}

func NewService(db *gorm.DB, dispatcher *events.Dispatcher) *Service {
	return &Service{db: db, events: dispatcher}
}

// PaymentResult summarizes one registered payment.
type PaymentResult struct {
	Applied     float64      `json:"applied"`
	Unapplied   float64      `json:"unapplied"`
	Allocations []Allocation `json:"allocations"`
}

// RegisterPayment applies a payment FIFO against the customer's open debts
// in one atomic transaction. Debt rows are locked for the duration so
// concurrent payments against the same customer serialize. Overpayments are
// clamped to the total outstanding; the unapplied remainder is reported
// back so the caller can hand it over as change.
func (s *Service) RegisterPayment(ctx context.Context, customerID uuid.UUID, amount float64) (*PaymentResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var result *PaymentResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var debts []database.Debt
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("customer_id = ? AND remaining_amount > 0", customerID).
			Order("created_at ASC").
			Find(&debts).Error; err != nil {
			return err
		}
		if len(debts) == 0 {
			return ErrNoPendingDebts
		}

		open := make([]OpenDebt, len(debts))
		for i, d := range debts {
			open[i] = OpenDebt{ID: d.ID, SaleID: d.SaleID, Remaining: d.RemainingAmount}
		}

		allocations, applied := AllocatePayment(open, amount)

		for i, a := range allocations {
			payment := database.Payment{
				CustomerID: customerID,
				DebtID:     a.DebtID,
				SaleID:     a.SaleID,
				Amount:     a.Amount,
			}
			if err := tx.Create(&payment).Error; err != nil {
				return err
			}

			updates := map[string]interface{}{}
			if a.Settled {
				updates["remaining_amount"] = 0.0
				updates["status"] = database.DebtPaid
			} else {
				updates["remaining_amount"] = round2(debts[i].RemainingAmount - a.Amount)
				updates["status"] = database.DebtPartial
			}
			if err := tx.Model(&database.Debt{}).Where("id = ?", a.DebtID).Updates(updates).Error; err != nil {
				return err
			}
		}

		result = &PaymentResult{
			Applied:     applied,
			Unapplied:   round2(amount - applied),
			Allocations: allocations,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.events.Publish(events.PaymentRegistered{CustomerID: customerID, Applied: result.Applied})
	return result, nil
}

// Outstanding returns the customer's total remaining debt.
func (s *Service) Outstanding(ctx context.Context, customerID uuid.UUID) (float64, error) {
	var total struct {
		Total float64
	}
	err := s.db.WithContext(ctx).Model(&database.Debt{}).
		Select("COALESCE(SUM(remaining_amount), 0) as total").
		Where("customer_id = ?", customerID).
		Scan(&total).Error
	return total.Total, err
}
