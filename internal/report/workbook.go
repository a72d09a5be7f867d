// =============================================================================
// Shop Payment Reports - XLSX Workbook
// =============================================================================
//
// This module renders the three reports into a single XLSX workbook for
// readers who work in a spreadsheet. The CSV reports stay the primary output;
// the workbook is written only when xlsx_report is enabled.
//
// WORKBOOK STRUCTURE:
//   | Sheet          | Columns                             |
//   |----------------|-------------------------------------|
//   | CustomerTotals | Name, Address, Total                |
//   | Top            | Rank, Name, Address, Total          |
//   | ShopTotals     | Shop, Card Total, Transfer Total    |
//
//   The Top sheet is omitted when the top report is empty.
//   Amounts are written as text in their canonical decimal form so the
//   workbook shows exactly the values of the CSV reports.
//
// =============================================================================

package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/shop-payment-reports/internal/types"
)

// Sheet names of the workbook.
const (
	SheetCustomerTotals = "CustomerTotals"
	SheetTop            = "Top"
	SheetShopTotals     = "ShopTotals"
)

// Workbook builds the XLSX workbook and returns its bytes.
func Workbook(customerTotals, top []types.CustomerTotal, shopTotals []types.ShopTotal) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet becomes the first report sheet.
	if err := f.SetSheetName(f.GetSheetName(0), SheetCustomerTotals); err != nil {
		return nil, fmt.Errorf("failed to name sheet %s: %w", SheetCustomerTotals, err)
	}

	rows := [][]string{{"Name", "Address", "Total"}}
	for _, t := range customerTotals {
		rows = append(rows, []string{t.Name, t.Address, t.Total.String()})
	}
	if err := writeRows(f, SheetCustomerTotals, rows); err != nil {
		return nil, err
	}

	if len(top) > 0 {
		rows = [][]string{{"Rank", "Name", "Address", "Total"}}
		for i, t := range top {
			rows = append(rows, []string{strconv.Itoa(i + 1), t.Name, t.Address, t.Total.String()})
		}
		if err := addSheet(f, SheetTop, rows); err != nil {
			return nil, err
		}
	}

	rows = [][]string{{"Shop", "Card Total", "Transfer Total"}}
	for _, t := range shopTotals {
		rows = append(rows, []string{t.ShopID, t.CardTotal.String(), t.TransferTotal.String()})
	}
	if err := addSheet(f, SheetShopTotals, rows); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// addSheet creates a sheet and fills it.
func addSheet(f *excelize.File, sheet string, rows [][]string) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	return writeRows(f, sheet, rows)
}

// writeRows writes rows starting at A1. The first row is styled as a header.
func writeRows(f *excelize.File, sheet string, rows [][]string) error {
	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("invalid cell %d,%d: %w", c+1, r+1, err)
			}
			if err := f.SetCellStr(sheet, cell, value); err != nil {
				return fmt.Errorf("failed to write %s!%s: %w", sheet, cell, err)
			}
		}
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return fmt.Errorf("invalid header range: %w", err)
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}

	return nil
}
