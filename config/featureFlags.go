package config

import (
	"os"
	"strings"
)

// DestructiveActionsEnabled gates link deletes and other destructive
// mutations. The value is read once at startup into a models.Capabilities
// that is threaded into each mutation call; nothing reads this flag ad hoc
// mid-request.
//
// Set via env:
// - ALLOW_DESTRUCTIVE_ACTIONS=true
func DestructiveActionsEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("ALLOW_DESTRUCTIVE_ACTIONS")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// DefaultDisplayCurrency is the target currency for approximate joint
// totals when the request does not name one.
//
// Set via env:
// - DISPLAY_CURRENCY=EUR (default USD)
func DefaultDisplayCurrency() string {
	v := strings.ToUpper(strings.TrimSpace(os.Getenv("DISPLAY_CURRENCY")))
	if v == "" {
		return "USD"
	}
	return v
}
