package export

import (
	"bytes"
	"testing"

	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

func TestWriteReconciliationXLSX(t *testing.T) {
	usd := func(v int64) decimal.Decimal { return decimal.NewFromInt(v) }
	view := &recon.View{
		DisplayCurrency: "USD",
		Entries: []recon.ViewEntry{
			{
				EntityID:   10,
				EntityName: "INV-2026-001",
				NetValue:   usd(100),
				Currency:   "USD",
				Balance: recon.BalanceResult{
					MatchedAmount:   usd(40),
					RemainingAmount: usd(60),
					Status:          recon.StatusPartiallyMatched,
				},
				Workspace: recon.Workspace{ID: 1, Name: "Acme GmbH"},
			},
		},
		NetTotal: recon.CurrencyValueGroup{
			Values:                 []recon.CurrencyValue{{Amount: usd(100), Currency: "USD"}},
			ApproximatedJointValue: &recon.CurrencyValue{Amount: usd(100), Currency: "USD"},
		},
	}

	var buf bytes.Buffer
	if err := WriteReconciliationXLSX(&buf, view); err != nil {
		t.Fatalf("WriteReconciliationXLSX error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("written file does not open: %v", err)
	}
	defer f.Close()

	name, err := f.GetCellValue("Reconciliation", "B2")
	if err != nil {
		t.Fatalf("GetCellValue error: %v", err)
	}
	if name != "INV-2026-001" {
		t.Fatalf("expected entity name in B2, got %q", name)
	}
	status, _ := f.GetCellValue("Reconciliation", "H2")
	if status != "PartiallyMatched" {
		t.Fatalf("expected status in H2, got %q", status)
	}
}
