package recon

import (
	"errors"
	"reflect"
	"testing"

	"github.com/shopspring/decimal"
)

func billingViewInput() BuildInput {
	return BuildInput{
		Side:            SideCounterpart,
		DisplayCurrency: "USD",
		Workspaces:      []Workspace{{ID: 1, Name: "Acme GmbH"}, {ID: 2, Name: "Initech"}},
		Rates:           []RatePair{{From: "EUR", To: "USD", Rate: decimal.NewFromFloat(1.1)}},
		MinorUnits:      map[string]int32{"USD": 2, "EUR": 2},
		Entities: []EntitySnapshot{
			{
				ID: 10, Name: "INV-2026-001", WorkspaceID: 1,
				NetValue: decimal.NewFromInt(100), Currency: "USD",
				Links: []RawLink{
					{
						ID: 100, Scope: LinkScopeBilling,
						CounterpartID:     intPtr(10),
						ReportID:          intPtr(20),
						CounterpartAmount: decPtr(decimal.NewFromInt(100)),
						ReportAmount:      decPtr(decimal.NewFromInt(100)),
					},
				},
			},
			{
				ID: 11, Name: "INV-2026-002", WorkspaceID: 2,
				NetValue: decimal.NewFromInt(50), Currency: "EUR",
				Links:    nil,
			},
		},
	}
}

func TestBuildView_EntriesAndTotals(t *testing.T) {
	view, err := BuildView(billingViewInput())
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}
	if len(view.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(view.Entries))
	}

	first := view.Entries[0]
	if first.Balance.Status != StatusMatched {
		t.Fatalf("fully linked billing should be Matched, got %s", first.Balance.Status)
	}
	if first.Workspace.Name != "Acme GmbH" {
		t.Fatalf("workspace not attached: %+v", first.Workspace)
	}
	if len(first.Counterparts) != 1 || first.Counterparts[0].ReportID != 20 {
		t.Fatalf("counterpart summary missing: %+v", first.Counterparts)
	}

	second := view.Entries[1]
	if second.Balance.Status != StatusUnmatched {
		t.Fatalf("unlinked billing should be Unmatched, got %s", second.Balance.Status)
	}

	// 100 USD net + 50 EUR net at 1.1 -> 155 USD joint.
	joint := view.NetTotal.ApproximatedJointValue
	if joint == nil {
		t.Fatalf("expected joint net total")
	}
	if !joint.Amount.Equal(decimal.NewFromInt(155)) || joint.Currency != "USD" {
		t.Fatalf("expected {155 USD}, got {%s %s}", joint.Amount, joint.Currency)
	}
	if len(view.NetTotal.Values) != 2 {
		t.Fatalf("expected per-currency net values for USD and EUR: %+v", view.NetTotal.Values)
	}
}

func TestBuildView_IsReferentiallyPure(t *testing.T) {
	a, err := BuildView(billingViewInput())
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}
	b, err := BuildView(billingViewInput())
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("deep-equal inputs must yield deep-equal views")
	}
}

func TestBuildView_RateChangeOnlyMovesTotals(t *testing.T) {
	base, err := BuildView(billingViewInput())
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}

	input := billingViewInput()
	input.Rates = []RatePair{{From: "EUR", To: "USD", Rate: decimal.NewFromFloat(2.0)}}
	shifted, err := BuildView(input)
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}

	if !reflect.DeepEqual(base.Entries, shifted.Entries) {
		t.Fatalf("per-entity balances must not depend on exchange rates")
	}
	if base.NetTotal.ApproximatedJointValue.Amount.Equal(shifted.NetTotal.ApproximatedJointValue.Amount) {
		t.Fatalf("joint total should move with the rate")
	}
}

func TestBuildView_MissingRateLeavesPerCurrencyValues(t *testing.T) {
	input := billingViewInput()
	input.Rates = nil

	view, err := BuildView(input)
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}
	if view.NetTotal.ApproximatedJointValue != nil {
		t.Fatalf("joint value must be undefined without an EUR->USD rate")
	}
	if len(view.NetTotal.Values) != 2 {
		t.Fatalf("per-currency values must survive a missing rate: %+v", view.NetTotal.Values)
	}
}

func TestBuildView_InvalidLinkAbortsWholeBuild(t *testing.T) {
	input := billingViewInput()
	input.Entities[1].Links = []RawLink{{ID: 999, Scope: LinkScopeBilling}}

	_, err := BuildView(input)
	var invalid *InvalidLinkError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidLinkError, got %v", err)
	}
	if invalid.LinkID != 999 {
		t.Fatalf("error should name the offending link, got %d", invalid.LinkID)
	}
}

func TestBuildView_MissingWorkspaceFails(t *testing.T) {
	input := billingViewInput()
	input.Workspaces = input.Workspaces[:1]

	_, err := BuildView(input)
	var missing *MissingWorkspaceError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingWorkspaceError, got %v", err)
	}
	if missing.EntityID != 11 || missing.WorkspaceID != 2 {
		t.Fatalf("error should name entity and workspace: %+v", missing)
	}
}

func TestBuildView_ReportSideUsesReportAmounts(t *testing.T) {
	input := BuildInput{
		Side:            SideReport,
		DisplayCurrency: "USD",
		Workspaces:      []Workspace{{ID: 1, Name: "Acme GmbH"}},
		MinorUnits:      map[string]int32{"USD": 2},
		Entities: []EntitySnapshot{
			{
				ID: 20, Name: "2026-02 contractor hours", WorkspaceID: 1,
				NetValue: decimal.NewFromInt(100), Currency: "USD",
				Links: []RawLink{
					{
						ID: 100, Scope: LinkScopeBilling,
						CounterpartID:     intPtr(10),
						ReportID:          intPtr(20),
						CounterpartAmount: decPtr(decimal.NewFromInt(110)),
						ReportAmount:      decPtr(decimal.NewFromInt(40)),
					},
				},
			},
		},
	}

	view, err := BuildView(input)
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}
	balance := view.Entries[0].Balance
	if balance.Status != StatusPartiallyMatched {
		t.Fatalf("expected PartiallyMatched, got %s", balance.Status)
	}
	if !balance.MatchedAmount.Equal(decimal.NewFromInt(40)) {
		t.Fatalf("report side must sum report amounts, got %s", balance.MatchedAmount)
	}
}

func TestBuildView_ForeignLinkRowsAreNotCounted(t *testing.T) {
	input := billingViewInput()
	// A link row whose billing fk points at some other billing.
	input.Entities[1].Links = []RawLink{
		{
			ID: 300, Scope: LinkScopeBilling,
			CounterpartID:     intPtr(999),
			ReportID:          intPtr(20),
			CounterpartAmount: decPtr(decimal.NewFromInt(50)),
			ReportAmount:      decPtr(decimal.NewFromInt(50)),
		},
	}

	view, err := BuildView(input)
	if err != nil {
		t.Fatalf("BuildView error: %v", err)
	}
	if view.Entries[1].Balance.Status != StatusUnmatched {
		t.Fatalf("a foreign link row must not count toward this billing, got %s", view.Entries[1].Balance.Status)
	}
}
