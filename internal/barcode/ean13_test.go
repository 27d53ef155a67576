package barcode

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name        string
		productCode string
		weightKg    float64
		want        string
	}{
		{
			name:        "five digit code",
			productCode: "12345",
			weightKg:    1.25,
			want:        "2012345012509",
		},
		{
			name:        "short code is zero padded",
			productCode: "123",
			weightKg:    0.5,
			want:        "2000123005003",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.productCode, tt.weightKg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_RangeErrors(t *testing.T) {
	tests := []struct {
		name        string
		productCode string
		weightKg    float64
		wantErr     error
	}{
		{"code too long", "123456", 1.0, ErrCodeRange},
		{"code empty", "", 1.0, ErrCodeRange},
		{"code not numeric", "12a45", 1.0, ErrCodeRange},
		{"weight zero", "12345", 0, ErrWeightRange},
		{"weight negative", "12345", -0.5, ErrWeightRange},
		{"weight above 99.999 kg", "12345", 100.0, ErrWeightRange},
		{"weight rounds to zero grams", "12345", 0.0004, ErrWeightRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.productCode, tt.weightKg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode(t *testing.T) {
	code, weight, err := Decode("2012345012509")
	require.NoError(t, err)
	assert.Equal(t, "12345", code)
	assert.InDelta(t, 1.25, weight, 0.0001)
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{"too short", "201234501250", ErrInvalidCode},
		{"not numeric", "20123450125x9", ErrInvalidCode},
		{"wrong prefix", "2112345012506", ErrInvalidCode},
		{"bad check digit", "2012345012500", ErrCheckDigit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Decode(tt.code)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	codes := []string{"00000", "00001", "00423", "12345", "54321", "99999"}
	weights := []float64{0.001, 0.010, 0.125, 1.0, 1.25, 12.345, 99.999}

	for _, code := range codes {
		for _, weight := range weights {
			t.Run(fmt.Sprintf("%s_%.3fkg", code, weight), func(t *testing.T) {
				encoded, err := Encode(code, weight)
				require.NoError(t, err)
				require.Len(t, encoded, 13)

				gotCode, gotWeight, err := Decode(encoded)
				require.NoError(t, err)
				assert.Equal(t, code, gotCode)
				assert.InDelta(t, weight, gotWeight, 0.0005)
			})
		}
	}
}

func TestIsVariableWeight(t *testing.T) {
	assert.True(t, IsVariableWeight("2012345012509"))
	assert.False(t, IsVariableWeight("12345"))
	assert.False(t, IsVariableWeight("7791234567890"))
	assert.False(t, IsVariableWeight("20123450125x9"))
}
