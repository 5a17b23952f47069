package utils

import "testing"

func TestIsValidCurrencyCode(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"USD", true},
		{"eur", true},
		{"Jpy", true},
		{"", false},
		{"US", false},
		{"USDT", false},
		{"U$D", false},
		{"123", false},
	}
	for _, tt := range tests {
		if got := IsValidCurrencyCode(tt.code); got != tt.want {
			t.Errorf("IsValidCurrencyCode(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}
