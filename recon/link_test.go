package recon

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func intPtr(v int) *int                         { return &v }
func strPtr(v string) *string                   { return &v }
func decPtr(v decimal.Decimal) *decimal.Decimal { return &v }

func TestClassifyLink_Reconcile(t *testing.T) {
	raw := RawLink{
		ID:                1,
		CreatedAt:         time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Scope:             LinkScopeBilling,
		CounterpartID:     intPtr(5),
		ReportID:          intPtr(7),
		CounterpartAmount: decPtr(decimal.NewFromInt(10)),
		ReportAmount:      decPtr(decimal.NewFromInt(10)),
	}

	link, err := ClassifyLink(raw)
	if err != nil {
		t.Fatalf("ClassifyLink error: %v", err)
	}
	rl, ok := link.(ReconcileLink)
	if !ok {
		t.Fatalf("expected ReconcileLink, got %T", link)
	}
	if rl.CounterpartID != 5 || rl.ReportID != 7 {
		t.Fatalf("ids not carried over: %+v", rl)
	}
	if !rl.CounterpartAmount.Equal(decimal.NewFromInt(10)) || !rl.ReportAmount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("amounts not carried over: %+v", rl)
	}
}

func TestClassifyLink_ClarifyBillingSide(t *testing.T) {
	raw := RawLink{
		ID:                2,
		Scope:             LinkScopeBilling,
		CounterpartID:     intPtr(5),
		CounterpartAmount: decPtr(decimal.NewFromInt(10)),
		Description:       strPtr("discount absorbed internally"),
	}

	link, err := ClassifyLink(raw)
	if err != nil {
		t.Fatalf("ClassifyLink error: %v", err)
	}
	cl, ok := link.(ClarifyCounterpartLink)
	if !ok {
		t.Fatalf("expected ClarifyCounterpartLink, got %T", link)
	}
	if cl.CounterpartID != 5 || !cl.Amount.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("clarify fields wrong: %+v", cl)
	}
}

func TestClassifyLink_ClarifyReportSide(t *testing.T) {
	raw := RawLink{
		ID:           3,
		Scope:        LinkScopeCost,
		ReportID:     intPtr(9),
		ReportAmount: decPtr(decimal.NewFromInt(25)),
		Description:  strPtr("written off"),
	}

	link, err := ClassifyLink(raw)
	if err != nil {
		t.Fatalf("ClassifyLink error: %v", err)
	}
	cl, ok := link.(ClarifyReportLink)
	if !ok {
		t.Fatalf("expected ClarifyReportLink, got %T", link)
	}
	if cl.ReportID != 9 {
		t.Fatalf("report id wrong: %+v", cl)
	}
}

func TestClassifyLink_Failures(t *testing.T) {
	cases := []struct {
		name   string
		raw    RawLink
		reason string
	}{
		{
			name:   "both references null",
			raw:    RawLink{ID: 10, Scope: LinkScopeBilling},
			reason: "link has neither billing nor report reference",
		},
		{
			name:   "both references null cost scope",
			raw:    RawLink{ID: 11, Scope: LinkScopeCost},
			reason: "link has neither cost nor report reference",
		},
		{
			name: "reconcile missing billing amount",
			raw: RawLink{
				ID:            12,
				Scope:         LinkScopeBilling,
				CounterpartID: intPtr(1),
				ReportID:      intPtr(2),
				ReportAmount:  decPtr(decimal.NewFromInt(5)),
			},
			reason: "missing BillingAmount",
		},
		{
			name: "reconcile missing report amount",
			raw: RawLink{
				ID:                13,
				Scope:             LinkScopeBilling,
				CounterpartID:     intPtr(1),
				ReportID:          intPtr(2),
				CounterpartAmount: decPtr(decimal.NewFromInt(5)),
			},
			reason: "missing ReportAmount",
		},
		{
			name: "reconcile missing cost amount",
			raw: RawLink{
				ID:           14,
				Scope:        LinkScopeCost,
				CounterpartID: intPtr(1),
				ReportID:     intPtr(2),
				ReportAmount: decPtr(decimal.NewFromInt(5)),
			},
			reason: "missing CostAmount",
		},
		{
			name: "clarify missing description",
			raw: RawLink{
				ID:                15,
				Scope:             LinkScopeBilling,
				CounterpartID:     intPtr(1),
				CounterpartAmount: decPtr(decimal.NewFromInt(5)),
			},
			reason: "clarification requires a description",
		},
		{
			name: "clarify missing amount",
			raw: RawLink{
				ID:            16,
				Scope:         LinkScopeBilling,
				CounterpartID: intPtr(1),
				Description:   strPtr("why"),
			},
			reason: "missing BillingAmount",
		},
		{
			name: "report clarify missing amount",
			raw: RawLink{
				ID:          17,
				Scope:       LinkScopeBilling,
				ReportID:    intPtr(1),
				Description: strPtr("why"),
			},
			reason: "missing ReportAmount",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ClassifyLink(tc.raw)
			if err == nil {
				t.Fatalf("expected classification failure")
			}
			var invalid *InvalidLinkError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidLinkError, got %T: %v", err, err)
			}
			if invalid.LinkID != tc.raw.ID {
				t.Fatalf("error should carry link id %d, got %d", tc.raw.ID, invalid.LinkID)
			}
			if invalid.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, invalid.Reason)
			}
		})
	}
}
