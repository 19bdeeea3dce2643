package marker

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
	"ledger-audit/internal/workbook"
)

func newMarkedSheet(t *testing.T) *workbook.Sheet {
	t.Helper()
	wb := workbook.New()
	sheet := wb.AddSheet("Cash (10010)")
	require.NoError(t, sheet.SetValue("G6", "1250.00"))
	return sheet
}

func TestMark_QuarantineDiscipline(t *testing.T) {
	m := New(&logging.MockLogger{})
	sheet := newMarkedSheet(t)

	err := m.Mark(sheet, "G6", "10010", "UNCERTAIN_ANALYSIS", "analysis uncertain for 2025-01")
	require.NoError(t, err)

	// Value erased, flag and note in place, no substitute written
	_, hasValue := sheet.Value("G6")
	assert.False(t, hasValue)
	assert.True(t, sheet.Flagged("G6"))
	assert.Equal(t, "[UNCERTAIN_ANALYSIS] analysis uncertain for 2025-01", sheet.Note("G6"))

	// The record captured the original value
	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "Cash (10010)", records[0].SheetName)
	assert.Equal(t, "G6", records[0].Cell)
	assert.Equal(t, "10010", records[0].AccountCode)
	assert.Equal(t, "UNCERTAIN_ANALYSIS", records[0].IssueType)
	assert.Equal(t, "1250.00", records[0].OriginalValue)
	assert.False(t, records[0].Timestamp.IsZero())
}

func TestMark_EmptyCellStillProducesRecord(t *testing.T) {
	m := New(&logging.MockLogger{})
	wb := workbook.New()
	sheet := wb.AddSheet("Cash (10010)")

	err := m.Mark(sheet, "G9", "10010", "MISSING_HEADER", "expected header absent")
	require.NoError(t, err)

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "", records[0].OriginalValue)
	assert.True(t, sheet.Flagged("G9"))
}

func TestMark_DoubleMarkAppendsRecords(t *testing.T) {
	m := New(&logging.MockLogger{})
	sheet := newMarkedSheet(t)

	require.NoError(t, m.Mark(sheet, "G6", "10010", "UNCERTAIN_ANALYSIS", "first pass"))
	require.NoError(t, m.Mark(sheet, "G6", "10010", "UNCERTAIN_ANALYSIS", "second pass"))

	records := m.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "1250.00", records[0].OriginalValue)
	// Second marking sees the already-erased cell
	assert.Equal(t, "", records[1].OriginalValue)
	assert.Equal(t, 2, m.Stats().TotalMarked)
}

func TestMarkWithOriginal(t *testing.T) {
	m := New(&logging.MockLogger{})
	wb := workbook.New()
	sheet := wb.AddSheet("Cash (10010)")

	err := m.MarkWithOriginal(sheet, "E6", "10010", "UNCERTAIN_ANALYSIS", "consumed upstream", "42.00")
	require.NoError(t, err)

	records := m.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "42.00", records[0].OriginalValue)
}

func TestMarkRange(t *testing.T) {
	m := New(&logging.MockLogger{})
	wb := workbook.New()
	sheet := wb.AddSheet("Cash (10010)")
	for row := 6; row <= 8; row++ {
		sheet.SetValueAt(row, 5, "x")
		sheet.SetValueAt(row, 6, "y")
	}

	marked := m.MarkRange(sheet, "E6", "F8", "10010", "UNCERTAIN_ANALYSIS", "range quarantine")
	assert.Equal(t, 6, marked)
	assert.Len(t, m.Records(), 6)
	assert.True(t, sheet.Flagged("E7"))
	assert.True(t, sheet.Flagged("F8"))

	// Invalid and inverted ranges mark nothing
	assert.Equal(t, 0, m.MarkRange(sheet, "bogus", "F8", "10010", "X", "d"))
	assert.Equal(t, 0, m.MarkRange(sheet, "F8", "E6", "10010", "X", "d"))
}

func TestMarkContamination_LeavesValuesIntact(t *testing.T) {
	m := New(&logging.MockLogger{})
	sheet := newMarkedSheet(t)

	alert := models.ContaminationAlert{
		Kind:      models.ContaminationSignReversal,
		Risk:      models.RiskMedium,
		Account:   "10010",
		Year:      "2025",
		Month:     "01",
		Processed: decimal.NewFromInt(-1250),
		Original:  decimal.NewFromInt(1250),
		Detail:    "processed figure is the negation of the source",
	}
	require.NoError(t, m.MarkContamination(sheet, alert))

	// The banner lands on A1; the evidence cell keeps its value
	assert.True(t, sheet.Flagged("A1"))
	assert.Contains(t, sheet.Note("A1"), "CONTAMINATION [SIGN_REVERSAL/MEDIUM]")
	v, ok := sheet.Value("G6")
	assert.True(t, ok)
	assert.Equal(t, "1250.00", v)

	stats := m.Stats()
	assert.Equal(t, 1, stats.TotalMarked)
	assert.Equal(t, 1, stats.ByIssueType["SIGN_REVERSAL"])
}

func TestStats_Aggregation(t *testing.T) {
	m := New(&logging.MockLogger{})
	wb := workbook.New()
	cash := wb.AddSheet("Cash (10010)")
	sales := wb.AddSheet("Sales (40010)")

	require.NoError(t, m.Mark(cash, "G6", "10010", "UNCERTAIN_ANALYSIS", "a"))
	require.NoError(t, m.Mark(cash, "G7", "10010", "UNCERTAIN_ANALYSIS", "b"))
	require.NoError(t, m.Mark(sales, "E6", "40010", "MISSING_HEADER", "c"))

	stats := m.Stats()
	assert.Equal(t, 3, stats.TotalMarked)
	assert.Equal(t, 2, stats.ByIssueType["UNCERTAIN_ANALYSIS"])
	assert.Equal(t, 1, stats.ByIssueType["MISSING_HEADER"])
	assert.Equal(t, 2, stats.ByAccount["10010"])
	assert.Equal(t, 2, stats.BySheet["Cash (10010)"])

	// The returned stats are a copy
	stats.ByAccount["10010"] = 99
	assert.Equal(t, 2, m.Stats().ByAccount["10010"])

	assert.Contains(t, m.Summary(), "3 cells quarantined across 2 sheets")
}

func TestWriteSummarySheet(t *testing.T) {
	m := New(&logging.MockLogger{})
	m.now = func() time.Time { return time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC) }

	wb := workbook.New()
	cash := wb.AddSheet("Cash (10010)")
	require.NoError(t, cash.SetValue("G6", "1250.00"))
	require.NoError(t, m.Mark(cash, "G6", "10010", "UNCERTAIN_ANALYSIS", "review"))

	m.WriteSummarySheet(wb, "Quarantine Audit")

	sheet, ok := wb.Sheet("Quarantine Audit")
	require.True(t, ok)

	header, _ := sheet.ValueAt(1, 1)
	assert.Equal(t, "Timestamp", header)
	ts, _ := sheet.ValueAt(2, 1)
	assert.Equal(t, "2025-03-01T09:00:00Z", ts)
	cell, _ := sheet.ValueAt(2, 3)
	assert.Equal(t, "G6", cell)
	original, _ := sheet.ValueAt(2, 7)
	assert.Equal(t, "1250.00", original)
}
