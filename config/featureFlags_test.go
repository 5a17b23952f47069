package config

import "testing"

func TestDestructiveActionsEnabled(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"false", false},
		{"0", false},
		{"no", false},
		{"nonsense", false},
		{"true", true},
		{"TRUE", true},
		{"1", true},
		{"yes", true},
		{" y ", true},
	}
	for _, tt := range tests {
		t.Setenv("ALLOW_DESTRUCTIVE_ACTIONS", tt.value)
		if got := DestructiveActionsEnabled(); got != tt.want {
			t.Errorf("ALLOW_DESTRUCTIVE_ACTIONS=%q: got %v, want %v", tt.value, got, tt.want)
		}
	}
}

func TestDefaultDisplayCurrency(t *testing.T) {
	t.Setenv("DISPLAY_CURRENCY", "")
	if got := DefaultDisplayCurrency(); got != "USD" {
		t.Errorf("default = %q, want USD", got)
	}

	t.Setenv("DISPLAY_CURRENCY", "eur")
	if got := DefaultDisplayCurrency(); got != "EUR" {
		t.Errorf("got %q, want EUR (upper-cased)", got)
	}
}
