// Package marker implements the quarantine discipline for uncertain values:
// flag the cell, annotate it, erase the value, and keep an immutable audit
// record. No substitute value is ever written into a quarantined cell.
package marker

import (
	"fmt"
	"sync"
	"time"

	"ledger-audit/internal/auditerror"
	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
	"ledger-audit/internal/workbook"
)

// UncertaintyMarker quarantines cells and accumulates the audit trail.
// Safe for concurrent use; scheduler workers mark cells in parallel.
type UncertaintyMarker struct {
	mu      sync.Mutex
	records []models.MarkingRecord
	stats   models.MarkingStats
	logger  logging.Logger
	now     func() time.Time
}

// New returns an empty marker.
func New(logger logging.Logger) *UncertaintyMarker {
	return &UncertaintyMarker{
		stats:  models.NewMarkingStats(),
		logger: logger,
		now:    time.Now,
	}
}

// Mark quarantines one cell, capturing whatever value it currently holds as
// the original. Marking an already-empty or already-marked cell is valid and
// still produces a record.
func (m *UncertaintyMarker) Mark(sheet *workbook.Sheet, cellRef string, account models.AccountCode, issueType, detail string) error {
	original, _ := sheet.Value(cellRef)
	return m.mark(sheet, cellRef, account, issueType, detail, original)
}

// MarkWithOriginal quarantines one cell recording a caller-supplied original
// value, for cases where the caller already consumed the cell.
func (m *UncertaintyMarker) MarkWithOriginal(sheet *workbook.Sheet, cellRef string, account models.AccountCode, issueType, detail, original string) error {
	return m.mark(sheet, cellRef, account, issueType, detail, original)
}

func (m *UncertaintyMarker) mark(sheet *workbook.Sheet, cellRef string, account models.AccountCode, issueType, detail, original string) error {
	if err := sheet.Flag(cellRef); err != nil {
		return &auditerror.MarkingError{Sheet: sheet.Name(), Cell: cellRef, Msg: err.Error()}
	}
	note := fmt.Sprintf("[%s] %s", issueType, detail)
	if err := sheet.SetNote(cellRef, note); err != nil {
		return &auditerror.MarkingError{Sheet: sheet.Name(), Cell: cellRef, Msg: err.Error()}
	}
	if err := sheet.ClearValue(cellRef); err != nil {
		return &auditerror.MarkingError{Sheet: sheet.Name(), Cell: cellRef, Msg: err.Error()}
	}

	record := models.MarkingRecord{
		Timestamp:     m.now(),
		SheetName:     sheet.Name(),
		Cell:          cellRef,
		AccountCode:   string(account),
		IssueType:     issueType,
		Detail:        detail,
		OriginalValue: original,
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	m.stats.TotalMarked++
	m.stats.ByIssueType[issueType]++
	m.stats.ByAccount[string(account)]++
	m.stats.BySheet[sheet.Name()]++
	m.mu.Unlock()

	m.logger.Info("Quarantined cell",
		logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
		logging.Field{Key: logging.FieldCell, Value: cellRef},
		logging.Field{Key: logging.FieldIssue, Value: issueType},
		logging.Field{Key: logging.FieldAccount, Value: string(account)})
	return nil
}

// MarkRange quarantines a rectangular range best-effort: a cell that cannot
// be marked is logged and skipped, the rest of the range still gets marked.
// Returns the number of cells marked.
func (m *UncertaintyMarker) MarkRange(sheet *workbook.Sheet, startRef, endRef string, account models.AccountCode, issueType, detail string) int {
	startCol, startRow, err := workbook.ParseRef(startRef)
	if err != nil {
		m.logger.Error("Invalid range start",
			logging.Field{Key: logging.FieldCell, Value: startRef})
		return 0
	}
	endCol, endRow, err := workbook.ParseRef(endRef)
	if err != nil {
		m.logger.Error("Invalid range end",
			logging.Field{Key: logging.FieldCell, Value: endRef})
		return 0
	}
	if endRow < startRow || endCol < startCol {
		return 0
	}

	marked := 0
	for row := startRow; row <= endRow; row++ {
		for col := startCol; col <= endCol; col++ {
			ref := workbook.FormatRef(col, row)
			if err := m.Mark(sheet, ref, account, issueType, detail); err != nil {
				m.logger.WithError(err).Warn("Skipping unmarkable cell",
					logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
					logging.Field{Key: logging.FieldCell, Value: ref})
				continue
			}
			marked++
		}
	}
	return marked
}

// MarkContamination flags the sheet for a reconciliation alert. The anchor
// cell gets the alert banner as a note; the cell values themselves are left
// untouched so the evidence survives for inspection.
func (m *UncertaintyMarker) MarkContamination(sheet *workbook.Sheet, alert models.ContaminationAlert) error {
	const anchor = "A1"
	note := fmt.Sprintf("CONTAMINATION [%s/%s] %s-%s: %s",
		alert.Kind, alert.Risk, alert.Year, alert.Month, alert.Detail)
	if err := sheet.Flag(anchor); err != nil {
		return &auditerror.MarkingError{Sheet: sheet.Name(), Cell: anchor, Msg: err.Error()}
	}
	if err := sheet.SetNote(anchor, note); err != nil {
		return &auditerror.MarkingError{Sheet: sheet.Name(), Cell: anchor, Msg: err.Error()}
	}

	record := models.MarkingRecord{
		Timestamp:     m.now(),
		SheetName:     sheet.Name(),
		Cell:          anchor,
		AccountCode:   string(alert.Account),
		IssueType:     string(alert.Kind),
		Detail:        alert.Detail,
		OriginalValue: "",
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	m.stats.TotalMarked++
	m.stats.ByIssueType[string(alert.Kind)]++
	m.stats.ByAccount[string(alert.Account)]++
	m.stats.BySheet[sheet.Name()]++
	m.mu.Unlock()

	m.logger.Error("Contamination marked on sheet",
		logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
		logging.Field{Key: logging.FieldIssue, Value: string(alert.Kind)},
		logging.Field{Key: logging.FieldAccount, Value: string(alert.Account)})
	return nil
}

// Records returns a copy of the audit trail in marking order.
func (m *UncertaintyMarker) Records() []models.MarkingRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.MarkingRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Stats returns a copy of the aggregate counters.
func (m *UncertaintyMarker) Stats() models.MarkingStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := models.NewMarkingStats()
	stats.TotalMarked = m.stats.TotalMarked
	for k, v := range m.stats.ByIssueType {
		stats.ByIssueType[k] = v
	}
	for k, v := range m.stats.ByAccount {
		stats.ByAccount[k] = v
	}
	for k, v := range m.stats.BySheet {
		stats.BySheet[k] = v
	}
	return stats
}

// Summary renders a short human-readable digest of marking activity.
func (m *UncertaintyMarker) Summary() string {
	stats := m.Stats()
	return fmt.Sprintf("%d cells quarantined across %d sheets (%d issue types)",
		stats.TotalMarked, len(stats.BySheet), len(stats.ByIssueType))
}

// WriteSummarySheet appends an audit sheet to the workbook listing every
// marking record.
func (m *UncertaintyMarker) WriteSummarySheet(wb *workbook.Workbook, sheetName string) {
	sheet := wb.AddSheet(sheetName)
	sheet.AppendRow("Timestamp", "Sheet", "Cell", "Account", "Issue", "Detail", "Original Value")
	for _, r := range m.Records() {
		sheet.AppendRow(
			r.Timestamp.Format(time.RFC3339),
			r.SheetName,
			r.Cell,
			r.AccountCode,
			r.IssueType,
			r.Detail,
			r.OriginalValue,
		)
	}
}
