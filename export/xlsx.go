package export

import (
	"fmt"
	"io"

	"bitbucket.org/agencydesk/backoffice_backend/recon"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Reconciliation"

// WriteReconciliationXLSX renders a built view as a spreadsheet: one row
// per entity plus a totals block underneath. Amounts are written as
// strings so decimal values survive untouched.
func WriteReconciliationXLSX(w io.Writer, view *recon.View) error {
	f := excelize.NewFile()
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"ID", "Name", "Workspace", "Currency", "Net", "Matched", "Remaining", "Status"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		f.SetCellValue(sheetName, cell, h)
	}

	row := 2
	for _, entry := range view.Entries {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), entry.EntityID)
		f.SetCellValue(sheetName, "B"+fmt.Sprint(row), entry.EntityName)
		f.SetCellValue(sheetName, "C"+fmt.Sprint(row), entry.Workspace.Name)
		f.SetCellValue(sheetName, "D"+fmt.Sprint(row), entry.Currency)
		f.SetCellValue(sheetName, "E"+fmt.Sprint(row), entry.NetValue.String())
		f.SetCellValue(sheetName, "F"+fmt.Sprint(row), entry.Balance.MatchedAmount.String())
		f.SetCellValue(sheetName, "G"+fmt.Sprint(row), entry.Balance.RemainingAmount.String())
		f.SetCellValue(sheetName, "H"+fmt.Sprint(row), string(entry.Balance.Status))
		row++
	}

	row++
	row = writeTotal(f, row, "Net total", view.NetTotal)
	row = writeTotal(f, row, "Matched total", view.MatchedTotal)
	writeTotal(f, row, "Remaining total", view.RemainingTotal)

	return f.Write(w)
}

func writeTotal(f *excelize.File, row int, label string, group recon.CurrencyValueGroup) int {
	f.SetCellValue(sheetName, "A"+fmt.Sprint(row), label)
	for _, v := range group.Values {
		f.SetCellValue(sheetName, "D"+fmt.Sprint(row), v.Currency)
		f.SetCellValue(sheetName, "E"+fmt.Sprint(row), v.Amount.String())
		row++
	}
	if joint := group.ApproximatedJointValue; joint != nil {
		f.SetCellValue(sheetName, "A"+fmt.Sprint(row), label+" (approx.)")
		f.SetCellValue(sheetName, "D"+fmt.Sprint(row), joint.Currency)
		f.SetCellValue(sheetName, "E"+fmt.Sprint(row), joint.Amount.String())
		row++
	}
	return row + 1
}
