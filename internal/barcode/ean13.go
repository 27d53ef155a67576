// Package barcode implements the variable-weight EAN-13 scheme used for
// products sold by weight: a 13-digit code packing a 5-digit product code
// and the measured weight in grams behind the in-store "20" prefix.
package barcode

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// VariableWeightPrefix marks in-store weight barcodes.
	VariableWeightPrefix = "20"

	codeDigits   = 5
	weightDigits = 5
	payloadLen   = 12
)

var (
	// ErrCodeRange means the product code does not fit in 5 digits.
	ErrCodeRange = errors.New("product code out of range")
	// ErrWeightRange means the weight does not fit in 5 digits of grams.
	ErrWeightRange = errors.New("weight out of range")
	// ErrInvalidCode means the scanned string is not a valid
	// variable-weight EAN-13.
	ErrInvalidCode = errors.New("invalid variable-weight barcode")
	// ErrCheckDigit means the scanned code failed check-digit validation.
	ErrCheckDigit = errors.New("check digit mismatch")
)

// Encode packs a numeric product code (up to 5 digits) and a weight in kg
// into a check-digit-protected EAN-13 string. Weights are encoded in grams,
// so anything outside [0.001, 99.999] kg is rejected rather than silently
// truncated.
func Encode(productCode string, weightKg float64) (string, error) {
	if productCode == "" || len(productCode) > codeDigits {
		return "", fmt.Errorf("%w: %q", ErrCodeRange, productCode)
	}
	for _, r := range productCode {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q", ErrCodeRange, productCode)
		}
	}

	grams := int(math.Round(weightKg * 1000))
	if grams < 1 || grams > 99999 {
		return "", fmt.Errorf("%w: %.3f kg", ErrWeightRange, weightKg)
	}

	payload := VariableWeightPrefix +
		fmt.Sprintf("%0*s", codeDigits, productCode) +
		fmt.Sprintf("%0*d", weightDigits, grams)

	return payload + strconv.Itoa(checkDigit(payload)), nil
}

// Decode is the inverse of Encode. It returns the zero-padded 5-digit
// product code and the weight in kg, validating the prefix and check digit.
func Decode(code string) (string, float64, error) {
	if len(code) != payloadLen+1 || !allDigits(code) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}
	if !strings.HasPrefix(code, VariableWeightPrefix) {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	payload := code[:payloadLen]
	if checkDigit(payload) != int(code[payloadLen]-'0') {
		return "", 0, fmt.Errorf("%w: %q", ErrCheckDigit, code)
	}

	productCode := code[2 : 2+codeDigits]
	grams, err := strconv.Atoi(code[2+codeDigits : payloadLen])
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	return productCode, float64(grams) / 1000, nil
}

// IsVariableWeight reports whether a scanned string looks like a
// variable-weight barcode, as opposed to a plain product code or name.
func IsVariableWeight(code string) bool {
	return len(code) == payloadLen+1 &&
		strings.HasPrefix(code, VariableWeightPrefix) &&
		allDigits(code)
}

// checkDigit computes the standard EAN-13 mod-10 weighted sum over a
// 12-digit payload: odd positions weigh 1, even positions weigh 3.
func checkDigit(payload string) int {
	sum := 0
	for i, r := range payload {
		d := int(r - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return (10 - sum%10) % 10
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
