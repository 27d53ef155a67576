package product

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordsToRows(t *testing.T) {
	records := [][]string{
		{"barcode", "name", "cost", "price", "available", "by weight"},
		{"123", "Asado", "4500,50", "6800", "12.5", "si"},
		{"", "Coca Cola 1.5L", "900", "1500", "24", "no"},
		{"77", "Vacio"}, // short row
	}

	rows := recordsToRows(records)
	require.Len(t, rows, 3)

	assert.Equal(t, "123", rows[0].Barcode)
	assert.Equal(t, "Asado", rows[0].Name)
	assert.Equal(t, 4500.50, rows[0].CostPrice)
	assert.Equal(t, 6800.0, rows[0].SalePrice)
	assert.Equal(t, 12.5, rows[0].Available)
	assert.True(t, rows[0].SellByWeight)

	assert.Equal(t, "Coca Cola 1.5L", rows[1].Name)
	assert.False(t, rows[1].SellByWeight)

	assert.Equal(t, "Vacio", rows[2].Name)
	assert.Zero(t, rows[2].SalePrice)
}

func TestParseBool(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", "Si", "sí"} {
		assert.True(t, parseBool(s), s)
	}
	for _, s := range []string{"", "0", "no", "false"} {
		assert.False(t, parseBool(s), s)
	}
}
