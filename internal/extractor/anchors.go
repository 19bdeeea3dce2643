package extractor

import (
	"ledger-audit/internal/workbook"
)

// MonthAnchorCells maps each month to the balance-column cell of the last
// dated row belonging to it. That is the cell a quarantine lands on when an
// analysis task covering the month comes back uncertain.
func (e *LedgerExtractor) MonthAnchorCells(sheet *workbook.Sheet) map[string]string {
	anchors := make(map[string]string)
	lastRow := make(map[string]int)

	for row := e.layout.DataStartRow; row <= sheet.MaxRow(); row++ {
		desc, _ := sheet.Value(workbook.Ref(e.layout.DescriptionColumn, row))
		if e.isMarkerRow(desc) {
			continue
		}
		rawDate, ok := sheet.Value(workbook.Ref(e.layout.DateColumn, row))
		if !ok {
			continue
		}
		month, ok := parseMonth(rawDate)
		if !ok {
			continue
		}
		lastRow[month] = row
	}

	for month, row := range lastRow {
		anchors[month] = workbook.Ref(e.layout.BalanceColumn, row)
	}
	return anchors
}
