package utils

import (
	"regexp"

	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }

func DecimalPtr(v decimal.Decimal) *decimal.Decimal { return &v }

var currencyCodePattern = regexp.MustCompile(`^[A-Za-z]{3}$`)

// IsValidCurrencyCode checks the ISO-ish three-letter shape. Codes are
// compared case-insensitively everywhere else.
func IsValidCurrencyCode(code string) bool {
	return currencyCodePattern.MatchString(code)
}
