// =============================================================================
// Shop Payment Reports - XLSX Source Reader
// =============================================================================
//
// Some shops hand in their exports as spreadsheets instead of delimited text.
// This module turns the first sheet of such a workbook into the same lines
// the delimited reader produces, so both kinds of source run through the
// same validation.
//
// SHEET STRUCTURE:
//   The sheet uses the column order of the delimited source, one record per
//   row and no header row.
//
//   | Column A | Column B   | Column C | Column D | Column E    | Column F   | Column G   |
//   |----------|------------|----------|----------|-------------|------------|------------|
//   | WS01     | A01        | card     | 40000    |             | 1234-5678  | 2021.01.15 |
//   | WS01     | A03        | transfer | 3186     | 11773016-11 |            | 2021.01.18 |
//
// CONVERSION RULES:
//   - Cells are read as raw values, so amounts keep their digits and are not
//     rendered through the cell's number format.
//   - Rows shorter than the expected column count are padded with empty
//     cells, since a spreadsheet drops empty trailing cells. Longer rows are
//     kept as they are.
//   - A row with only empty cells becomes an empty line.
//   - Dates must be stored as text (yyyy.MM.dd); a date-typed cell yields its
//     serial number and is rejected by validation.
//
// =============================================================================

package xlsxparser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned for a workbook without any sheet.
var ErrNoSheet = errors.New("workbook has no sheets")

// IsWorkbook reports whether path names a workbook by its extension.
func IsWorkbook(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return true
	default:
		return false
	}
}

// ReadLines converts the first sheet of a workbook into delimited lines.
//
// PARAMETERS:
//   - r: The workbook content.
//   - delimiter: The field delimiter used to join the cells of a row.
//   - columns: The number of fields a record has.
//
// RETURNS:
//   - One line per row, up to the last non-empty row.
//   - An error if the workbook cannot be opened or read.
func ReadLines(r io.Reader, delimiter string, columns int) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, ErrNoSheet
	}

	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of %s: %w", sheetName, err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if isRowEmpty(row) {
			lines = append(lines, "")
			continue
		}
		lines = append(lines, strings.Join(padRow(row, columns), delimiter))
	}

	return lines, nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if all cells in a row are empty.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

// padRow extends row with empty cells up to width.
func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}
