package debt

import (
	"math"

	"github.com/google/uuid"
)

// OpenDebt is one outstanding debt as seen by the allocator. The slice
// passed to AllocatePayment must already be ordered oldest first.
type OpenDebt struct {
	ID        uuid.UUID
	SaleID    uuid.UUID
	Remaining float64
}

// Allocation is the portion of a payment applied against one debt.
type Allocation struct {
	DebtID  uuid.UUID `json:"debt_id"`
	SaleID  uuid.UUID `json:"sale_id"`
	Amount  float64   `json:"amount"`
	Settled bool      `json:"settled"`
}

// AllocatePayment applies a payment against outstanding debts oldest first
// until the amount is exhausted or every debt is cleared. Payments larger
// than the total outstanding are clamped to it; the returned applied total
// is what was actually consumed.
func AllocatePayment(debts []OpenDebt, amount float64) ([]Allocation, float64) {
	remaining := round2(amount)
	allocations := make([]Allocation, 0, len(debts))
	applied := 0.0

	for _, d := range debts {
		if remaining <= 0 {
			break
		}
		if d.Remaining <= 0 {
			continue
		}

		portion := round2(math.Min(remaining, d.Remaining))
		remaining = round2(remaining - portion)
		applied = round2(applied + portion)

		allocations = append(allocations, Allocation{
			DebtID:  d.ID,
			SaleID:  d.SaleID,
			Amount:  portion,
			Settled: portion >= d.Remaining,
		})
	}

	return allocations, applied
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
