package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/portfel/tracker/internal/domain"
)

// WriteXLSX writes a two-sheet portfolio report: one row per position and a
// totals sheet. Decimal figures are written as their exact string form so the
// spreadsheet never rounds what the engine computed exactly.
func WriteXLSX(w io.Writer, positions []domain.Position, summary domain.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writePositionsSheet(f, positions, summary.Currency); err != nil {
		return err
	}
	if err := writeSummarySheet(f, summary); err != nil {
		return err
	}

	// Drop the default sheet left over from NewFile.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writePositionsSheet(f *excelize.File, positions []domain.Position, reporting string) error {
	const sheet = "Positions"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating positions sheet: %w", err)
	}

	header := []any{
		"Type", "Symbol", "Name", "Qty", "Avg Cost", "Price", "Currency",
		"Value", "Value (" + reporting + ")",
		"Unrealized P/L (" + reporting + ")", "Realized P/L (" + reporting + ")",
		"Flags",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("writing positions header: %w", err)
	}

	for i, p := range positions {
		row := []any{
			string(p.Holding.Type),
			p.Holding.Symbol,
			p.Holding.Name,
			p.Qty.String(),
			p.AvgCost.String(),
			p.CurrentPrice.String(),
			p.Holding.Currency,
			p.ValueNative.String(),
			p.ValueReporting.String(),
			p.UnrealizedPL.String(),
			p.RealizedPL.String(),
			positionFlags(p),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing position row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "L", 16); err != nil {
		return fmt.Errorf("sizing positions columns: %w", err)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s domain.Summary) error {
	const sheet = "Summary"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}

	rows := [][]any{
		{"Net Worth", s.NetWorth.String(), s.Currency},
		{"Holdings Value", s.HoldingsValue.String(), s.Currency},
		{"Unrealized P/L", s.UnrealizedPL.String(), s.Currency},
		{"Realized P/L", s.RealizedPL.String(), s.Currency},
		{"Cash", s.Cash.String(), s.Currency},
	}
	if s.Degraded {
		rows = append(rows, []any{"Degraded", "yes", ""})
	}
	for _, warn := range s.Warnings {
		rows = append(rows, []any{"Warning", warn, ""})
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("computing cell name: %w", err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing summary row %d: %w", i+1, err)
		}
	}

	if err := f.SetColWidth(sheet, "A", "C", 24); err != nil {
		return fmt.Errorf("sizing summary columns: %w", err)
	}
	return nil
}

func positionFlags(p domain.Position) string {
	var flags string
	if p.PriceFallback {
		flags += "price-fallback "
	}
	if p.RateFallback {
		flags += "rate-fallback "
	}
	if p.Oversold.IsPositive() {
		flags += "oversold:" + p.Oversold.String()
	}
	return flags
}
