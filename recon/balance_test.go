package recon

import (
	"testing"

	"github.com/shopspring/decimal"
)

func reconcileFor(reportAmount, counterpartAmount int64) Link {
	return ReconcileLink{
		Scope:             LinkScopeBilling,
		CounterpartID:     1,
		ReportID:          2,
		CounterpartAmount: decimal.NewFromInt(counterpartAmount),
		ReportAmount:      decimal.NewFromInt(reportAmount),
	}
}

func TestComputeBalance_StatusDerivation(t *testing.T) {
	cases := []struct {
		name      string
		netValue  int64
		linked    []int64
		status    Status
		matched   int64
		remaining int64
	}{
		{name: "fully matched", netValue: 100, linked: []int64{100}, status: StatusMatched, matched: 100, remaining: 0},
		{name: "partially matched", netValue: 100, linked: []int64{40}, status: StatusPartiallyMatched, matched: 40, remaining: 60},
		{name: "unmatched", netValue: 100, linked: nil, status: StatusUnmatched, matched: 0, remaining: 100},
		{name: "overmatched", netValue: 100, linked: []int64{150}, status: StatusOvermatched, matched: 150, remaining: -50},
		{name: "matched across links", netValue: 100, linked: []int64{60, 40}, status: StatusMatched, matched: 100, remaining: 0},
		// Order of the status rules, not magnitude, decides this one: a
		// zero-value entity with no links is Matched, never Unmatched.
		{name: "zero value no links", netValue: 0, linked: nil, status: StatusMatched, matched: 0, remaining: 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			entity := ReconciledEntity{ID: 1, NetValue: decimal.NewFromInt(tc.netValue), Currency: "USD"}
			for _, amount := range tc.linked {
				entity.Links = append(entity.Links, reconcileFor(amount, amount))
			}

			result := ComputeBalance(entity, ReportAmount)
			if result.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, result.Status)
			}
			if !result.MatchedAmount.Equal(decimal.NewFromInt(tc.matched)) {
				t.Fatalf("expected matched %d, got %s", tc.matched, result.MatchedAmount)
			}
			if !result.RemainingAmount.Equal(decimal.NewFromInt(tc.remaining)) {
				t.Fatalf("expected remaining %d, got %s", tc.remaining, result.RemainingAmount)
			}
			// matched + remaining == net value, always.
			if !result.MatchedAmount.Add(result.RemainingAmount).Equal(entity.NetValue) {
				t.Fatalf("matched %s + remaining %s != net %s", result.MatchedAmount, result.RemainingAmount, entity.NetValue)
			}
		})
	}
}

func TestComputeBalance_ExtractorPicksSide(t *testing.T) {
	// A billing of 110 covered by a report of 100: the billing side sums
	// billing amounts, the report side sums report amounts.
	link := reconcileFor(100, 110)
	billing := ReconciledEntity{ID: 1, NetValue: decimal.NewFromInt(110), Currency: "USD", Links: []Link{link}}
	report := ReconciledEntity{ID: 2, NetValue: decimal.NewFromInt(100), Currency: "USD", Links: []Link{link}}

	if got := ComputeBalance(billing, CounterpartAmount); got.Status != StatusMatched {
		t.Fatalf("billing side should be Matched, got %s (matched %s)", got.Status, got.MatchedAmount)
	}
	if got := ComputeBalance(report, ReportAmount); got.Status != StatusMatched {
		t.Fatalf("report side should be Matched, got %s (matched %s)", got.Status, got.MatchedAmount)
	}
}

func TestComputeBalance_ClarificationsCountAsMatched(t *testing.T) {
	entity := ReconciledEntity{
		ID:       1,
		NetValue: decimal.NewFromInt(100),
		Currency: "USD",
		Links: []Link{
			reconcileFor(80, 80),
			ClarifyReportLink{ID: 9, Scope: LinkScopeBilling, ReportID: 1, Amount: decimal.NewFromInt(20), Description: "internal discount"},
		},
	}

	result := ComputeBalance(entity, ReportAmount)
	if result.Status != StatusMatched {
		t.Fatalf("clarified remainder should close the balance, got %s", result.Status)
	}
	if !result.MatchedAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("expected matched 100, got %s", result.MatchedAmount)
	}
}
