package workspace

import (
	"context"
	"fmt"

	"google.golang.org/api/sheets/v4"
)

// ReadColumn returns one column's values top to bottom. Blank rows inside
// the used range come back as empty strings so indexes stay aligned with
// spreadsheet rows.
func (s *Services) ReadColumn(ctx context.Context, spreadsheetID, column, tab string) ([]string, error) {
	readRange := rangeRef(tab, column+":"+column)
	resp, err := s.sheets.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, accessError("spreadsheet "+spreadsheetID, err)
	}
	values := make([]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		if len(row) == 0 {
			values = append(values, "")
			continue
		}
		values = append(values, fmt.Sprint(row[0]))
	}
	return values, nil
}

// WriteCell writes a single value at the given column letter and 1-based
// row, as a raw (unparsed) value.
func (s *Services) WriteCell(ctx context.Context, spreadsheetID, column string, row int, tab, value string) error {
	target := rangeRef(tab, fmt.Sprintf("%s%d", column, row))
	payload := &sheets.ValueRange{Values: [][]any{{value}}}
	_, err := s.sheets.Spreadsheets.Values.Update(spreadsheetID, target, payload).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return accessError("spreadsheet "+spreadsheetID, err)
	}
	return nil
}

// FindRowByKey scans column values for an exact string match and returns the
// 1-based row number, or 0 when no row matches. Matching is deliberately
// strict: no trimming, no case folding.
func FindRowByKey(values []string, key string) int {
	for i, value := range values {
		if value == key {
			return i + 1
		}
	}
	return 0
}

// rangeRef builds an A1 range, quoting the tab name when one is set.
func rangeRef(tab, cells string) string {
	if tab == "" {
		return cells
	}
	return fmt.Sprintf("'%s'!%s", tab, cells)
}
