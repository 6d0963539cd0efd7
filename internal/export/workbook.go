package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	financedomain "github.com/atelierlab/devisio/internal/finance/domain"
	"github.com/atelierlab/devisio/internal/finance/reconcile"
	"github.com/atelierlab/devisio/internal/quote/costing"
)

const (
	sheetSummary  = "Summary"
	sheetProfile  = "By profile"
	sheetCategory = "By category"
	sheetMonth    = "By month"
)

func renderFinanceWorkbook(report *financedomain.ReportResponse) (io.Reader, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetProfile, sheetCategory, sheetMonth} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	summary := [][]any{
		{"Budget source", string(report.Source)},
		{"Reference", report.SourceReference},
		{"Contract type", report.ContractType},
		{"Generated at", report.GeneratedAt.Format("2006-01-02 15:04")},
		{},
		{"Budget days", costing.Round2(report.Report.BudgetDays)},
		{"Consumed days", costing.Round2(report.Report.ConsumedDays)},
		{"Remaining days", costing.Round2(report.Report.RemainingDays)},
		{"Consumption %", costing.Round2(report.Report.ConsumptionPercent)},
		{},
		{"Budget HT", costing.Round2(report.Report.BudgetAmountHT)},
		{"Consumed HT", costing.Round2(report.Report.ConsumedAmountHT)},
		{"Remaining HT", costing.Round2(report.Report.RemainingAmountHT)},
	}
	for i, row := range summary {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheetSummary, cell, &row); err != nil {
			return nil, err
		}
	}
	for i, warning := range report.Report.Warnings {
		cell, err := excelize.CoordinatesToCellName(1, len(summary)+2+i)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheetSummary, cell, "Warning: "+warning); err != nil {
			return nil, err
		}
	}

	if err := writeLineSheet(f, sheetProfile, "Profile", report.Report.ByProfile); err != nil {
		return nil, err
	}
	if err := writeLineSheet(f, sheetCategory, "Category", report.Report.ByCategory); err != nil {
		return nil, err
	}
	if err := writeLineSheet(f, sheetMonth, "Month", report.Report.ByMonth); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeLineSheet(f *excelize.File, sheet, keyHeader string, lines []reconcile.Line) error {
	header := []any{keyHeader, "Budget days", "Consumed days", "Remaining days", "Percent", "Amount HT"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, line := range lines {
		row := []any{
			line.Key,
			costing.Round2(line.BudgetDays),
			costing.Round2(line.ConsumedDays),
			costing.Round2(line.RemainingDays),
			costing.Round2(line.Percent),
			costing.Round2(line.AmountHT),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
