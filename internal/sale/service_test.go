package sale

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoundQty(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.2345, 1.235}, // rounds to the 3 decimals the column stores
		{1.2344, 1.234},
		{0.0005, 0.001},
		{2, 2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, roundQty(tt.in))
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 10.35, round2(10.345))
	assert.Equal(t, 0.1, round2(0.1+0.2-0.2))
	assert.Equal(t, 41.25, round2(2.5*16.50))
}

func TestValidMethod(t *testing.T) {
	for _, method := range []string{"cash", "debit", "transfer", "credit"} {
		assert.True(t, validMethod(method), method)
	}
	assert.False(t, validMethod("check"))
	assert.False(t, validMethod(""))
}
