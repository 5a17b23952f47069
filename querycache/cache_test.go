package querycache

import "testing"

func TestKey_EncodesEveryParameter(t *testing.T) {
	a := Key("agency-1", "billings", 7, "2026-01-01", "2026-01-31", "USD")
	b := Key("agency-1", "billings", 7, "2026-01-01", "2026-01-31", "EUR")
	if a == b {
		t.Fatalf("display currency must be part of the key")
	}
	c := Key("agency-2", "billings", 7, "2026-01-01", "2026-01-31", "USD")
	if a == c {
		t.Fatalf("agency must be part of the key")
	}
}

func TestKey_NilFiltersStillDistinct(t *testing.T) {
	// A query with no workspace filter and one with workspace 0 are
	// different parameter sets and must not collide with workspace 10.
	all := Key("agency-1", "reports", "<nil>", "USD")
	one := Key("agency-1", "reports", 10, "USD")
	if all == one {
		t.Fatalf("filtered and unfiltered queries must use distinct keys")
	}
}
