package recon

import (
	"testing"

	"github.com/shopspring/decimal"
)

func usd(v float64) CurrencyValue { return CurrencyValue{Amount: decimal.NewFromFloat(v), Currency: "USD"} }
func eur(v float64) CurrencyValue { return CurrencyValue{Amount: decimal.NewFromFloat(v), Currency: "EUR"} }

func TestGroupByCurrency_SumsPerCurrency(t *testing.T) {
	group := GroupByCurrency([]CurrencyValue{usd(100), usd(50)})
	if len(group) != 1 {
		t.Fatalf("expected one entry, got %d", len(group))
	}
	if group[0].Currency != "USD" || !group[0].Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected {150 USD}, got {%s %s}", group[0].Amount, group[0].Currency)
	}
}

func TestGroupByCurrency_CaseInsensitive(t *testing.T) {
	group := GroupByCurrency([]CurrencyValue{
		{Amount: decimal.NewFromInt(100), Currency: "usd"},
		{Amount: decimal.NewFromInt(50), Currency: " USD "},
		{Amount: decimal.NewFromInt(30), Currency: "eur"},
	})
	if len(group) != 2 {
		t.Fatalf("expected two entries, got %d: %+v", len(group), group)
	}
	if group[0].Currency != "USD" || group[1].Currency != "EUR" {
		t.Fatalf("codes should be upper-cased in first-seen order: %+v", group)
	}
	if !group[0].Amount.Equal(decimal.NewFromInt(150)) {
		t.Fatalf("expected 150 USD, got %s", group[0].Amount)
	}
}

func TestApproximate_MultiCurrency(t *testing.T) {
	group := GroupByCurrency([]CurrencyValue{usd(100), eur(50)})
	rates := []RatePair{{From: "EUR", To: "USD", Rate: decimal.NewFromFloat(1.1)}}

	joint := Approximate(group, "USD", rates)
	if joint == nil {
		t.Fatalf("expected a joint value")
	}
	if joint.Currency != "USD" || !joint.Amount.Equal(decimal.NewFromInt(155)) {
		t.Fatalf("expected {155 USD}, got {%s %s}", joint.Amount, joint.Currency)
	}
}

func TestApproximate_MissingRateIsUndefinedNotError(t *testing.T) {
	group := GroupByCurrency([]CurrencyValue{usd(100), eur(50)})

	joint := Approximate(group, "USD", nil)
	if joint != nil {
		t.Fatalf("expected undefined joint value, got %+v", joint)
	}
	// The per-currency values stay usable.
	if len(group) != 2 {
		t.Fatalf("grouping must not depend on rates: %+v", group)
	}
}

func TestApproximate_SingleCurrencyFastPath(t *testing.T) {
	// Exact literal value, no rate lookup even with an empty rate set.
	group := []CurrencyValue{{Amount: decimal.RequireFromString("123.456"), Currency: "usd"}}

	joint := Approximate(group, "USD", nil)
	if joint == nil {
		t.Fatalf("expected a joint value")
	}
	if joint.Currency != "USD" || !joint.Amount.Equal(decimal.RequireFromString("123.456")) {
		t.Fatalf("fast path must not alter the amount: {%s %s}", joint.Amount, joint.Currency)
	}
}

func TestApproximate_SelfRateIsOne(t *testing.T) {
	// USD needs no USD->USD rate entry even in a multi-currency group.
	group := GroupByCurrency([]CurrencyValue{usd(10), eur(10)})
	rates := []RatePair{{From: "EUR", To: "USD", Rate: decimal.NewFromInt(2)}}

	joint := Approximate(group, "USD", rates)
	if joint == nil || !joint.Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected 30 USD, got %+v", joint)
	}
}

func TestRequiredPairs_DeduplicatesAndSkipsTarget(t *testing.T) {
	pairs := RequiredPairs([]CurrencyValue{usd(1), eur(1), eur(2), {Amount: decimal.NewFromInt(1), Currency: "gbp"}}, "usd")
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d: %v", len(pairs), pairs)
	}
	if pairs[0] != [2]string{"EUR", "USD"} || pairs[1] != [2]string{"GBP", "USD"} {
		t.Fatalf("unexpected pairs: %v", pairs)
	}
}
