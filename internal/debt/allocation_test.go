package debt

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDebts(amounts ...float64) []OpenDebt {
	debts := make([]OpenDebt, len(amounts))
	for i, a := range amounts {
		debts[i] = OpenDebt{ID: uuid.New(), SaleID: uuid.New(), Remaining: a}
	}
	return debts
}

func TestAllocatePayment_PartialAcrossTwoDebts(t *testing.T) {
	// Debts of $30 (older) and $50, payment of $40: the older debt settles
	// in full and the rest reduces the newer one.
	debts := openDebts(30, 50)

	allocations, applied := AllocatePayment(debts, 40)

	require.Len(t, allocations, 2)
	assert.Equal(t, 40.0, applied)

	assert.Equal(t, debts[0].ID, allocations[0].DebtID)
	assert.Equal(t, 30.0, allocations[0].Amount)
	assert.True(t, allocations[0].Settled)

	assert.Equal(t, debts[1].ID, allocations[1].DebtID)
	assert.Equal(t, 10.0, allocations[1].Amount)
	assert.False(t, allocations[1].Settled)
}

func TestAllocatePayment_Conservation(t *testing.T) {
	tests := []struct {
		name    string
		debts   []float64
		payment float64
	}{
		{"exact single", []float64{25}, 25},
		{"partial single", []float64{100}, 33.33},
		{"spans three", []float64{10, 20, 30}, 45},
		{"clears all exactly", []float64{10, 20, 30}, 60},
		{"cents", []float64{0.10, 0.20}, 0.15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			debts := openDebts(tt.debts...)
			outstanding := 0.0
			for _, d := range tt.debts {
				outstanding += d
			}

			allocations, applied := AllocatePayment(debts, tt.payment)

			sum := 0.0
			for _, a := range allocations {
				sum += a.Amount
			}
			assert.InDelta(t, tt.payment, sum, 0.001, "recorded payments must equal the payment")
			assert.InDelta(t, tt.payment, applied, 0.001)

			remaining := outstanding
			for _, a := range allocations {
				remaining -= a.Amount
			}
			assert.InDelta(t, outstanding-tt.payment, remaining, 0.001)
		})
	}
}

func TestAllocatePayment_OldestFirst(t *testing.T) {
	debts := openDebts(5, 10, 15, 20)

	allocations, _ := AllocatePayment(debts, 18)

	// Older debts are fully covered before any newer debt sees a cent.
	require.Len(t, allocations, 3)
	assert.Equal(t, debts[0].ID, allocations[0].DebtID)
	assert.True(t, allocations[0].Settled)
	assert.Equal(t, debts[1].ID, allocations[1].DebtID)
	assert.True(t, allocations[1].Settled)
	assert.Equal(t, debts[2].ID, allocations[2].DebtID)
	assert.Equal(t, 3.0, allocations[2].Amount)
	assert.False(t, allocations[2].Settled)
}

func TestAllocatePayment_OverpaymentClamped(t *testing.T) {
	debts := openDebts(30, 50)

	allocations, applied := AllocatePayment(debts, 500)

	assert.Equal(t, 80.0, applied)
	require.Len(t, allocations, 2)
	for _, a := range allocations {
		assert.True(t, a.Settled)
	}
}

func TestAllocatePayment_SkipsZeroedDebts(t *testing.T) {
	debts := openDebts(0, 40)

	allocations, applied := AllocatePayment(debts, 25)

	require.Len(t, allocations, 1)
	assert.Equal(t, debts[1].ID, allocations[0].DebtID)
	assert.Equal(t, 25.0, applied)
}

func TestAllocatePayment_NoDebts(t *testing.T) {
	allocations, applied := AllocatePayment(nil, 25)

	assert.Empty(t, allocations)
	assert.Zero(t, applied)
}
