// Package extractor derives carry-forward and monthly figures from ledger
// sheets. It never guesses: a value it cannot read strictly stays unknown.
package extractor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
	"ledger-audit/internal/workbook"
)

// LedgerExtractor reads figures out of sheets laid out per its Layout.
type LedgerExtractor struct {
	layout Layout
	logger logging.Logger
}

// New returns an extractor for the given layout.
func New(layout Layout, logger logging.Logger) *LedgerExtractor {
	return &LedgerExtractor{layout: layout, logger: logger}
}

// Layout returns the layout the extractor was built with.
func (e *LedgerExtractor) Layout() Layout {
	return e.layout
}

// ExtractCarryForward reads the opening balance. The label cell must hold the
// exact configured literal and the value cell must parse as a decimal;
// anything else yields Unknown. Unknown is never coerced to zero.
func (e *LedgerExtractor) ExtractCarryForward(sheet *workbook.Sheet) models.OptionalAmount {
	labelRef := workbook.Ref(e.layout.DescriptionColumn, e.layout.CarryForwardRow)
	valueRef := workbook.Ref(e.layout.BalanceColumn, e.layout.CarryForwardRow)

	label, ok := sheet.Value(labelRef)
	if !ok || strings.TrimSpace(label) != e.layout.CarryForwardLabel {
		e.logger.Warn("Carry-forward label missing or unexpected",
			logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
			logging.Field{Key: logging.FieldCell, Value: labelRef})
		return models.UnknownAmount()
	}

	raw, ok := sheet.Value(valueRef)
	if !ok {
		e.logger.Warn("Carry-forward value cell empty",
			logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
			logging.Field{Key: logging.FieldCell, Value: valueRef})
		return models.UnknownAmount()
	}
	d, err := parseDecimal(raw)
	if err != nil {
		e.logger.Warn("Carry-forward value not numeric",
			logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
			logging.Field{Key: logging.FieldCell, Value: valueRef},
			logging.Field{Key: logging.FieldReason, Value: err.Error()})
		return models.UnknownAmount()
	}
	return models.SomeAmount(d)
}

// monthState carries the per-month accumulation of the extraction scan.
type monthState struct {
	month       string
	lastBalance decimal.Decimal
	seenBalance bool
	debitTotal  decimal.Decimal
	creditTotal decimal.Decimal
}

func (st *monthState) reset(month string) {
	*st = monthState{month: month}
}

// ExtractMonthlyData scans the data rows once and produces the per-month
// figures for the account family:
//
//   - BS months record the last balance seen before the month-total marker.
//     A month that never reaches a marker row contributes nothing.
//   - PL months record the marker row's debit minus credit when the marker
//     carries a non-zero net, otherwise the accumulated debits minus credits.
//     A zero net is omitted entirely.
//
// A month change without a marker flushes PL accumulation only; end of data
// does the same.
func (e *LedgerExtractor) ExtractMonthlyData(sheet *workbook.Sheet, class models.Classification) models.MonthlyFigures {
	figures := make(models.MonthlyFigures)
	var st monthState

	for row := e.layout.DataStartRow; row <= sheet.MaxRow(); row++ {
		desc, _ := sheet.Value(workbook.Ref(e.layout.DescriptionColumn, row))
		if e.isMarkerRow(desc) {
			if st.month != "" {
				e.closeMonthAtMarker(sheet, row, class, &st, figures)
				st.reset("")
			}
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

		if st.month != "" && month != st.month {
			// Dangling month: no marker ever closed it.
			e.flushWithoutMarker(class, &st, figures)
			st.reset(month)
		} else if st.month == "" {
			st.reset(month)
		}

		e.accumulate(sheet, row, class, &st)
	}

	if st.month != "" {
		e.flushWithoutMarker(class, &st, figures)
	}
	return figures
}

func (e *LedgerExtractor) isMarkerRow(description string) bool {
	return e.layout.MonthTotalMarker != "" &&
		strings.Contains(description, e.layout.MonthTotalMarker)
}

func (e *LedgerExtractor) accumulate(sheet *workbook.Sheet, row int, class models.Classification, st *monthState) {
	switch class {
	case models.ClassPL:
		if raw, ok := sheet.Value(workbook.Ref(e.layout.DebitColumn, row)); ok {
			if d, err := parseDecimal(raw); err == nil {
				st.debitTotal = st.debitTotal.Add(d)
			}
		}
		if raw, ok := sheet.Value(workbook.Ref(e.layout.CreditColumn, row)); ok {
			if d, err := parseDecimal(raw); err == nil {
				st.creditTotal = st.creditTotal.Add(d)
			}
		}
	default:
		// BS and VAT track the running balance.
		if raw, ok := sheet.Value(workbook.Ref(e.layout.BalanceColumn, row)); ok {
			if d, err := parseDecimal(raw); err == nil {
				st.lastBalance = d
				st.seenBalance = true
			}
		}
	}
}

func (e *LedgerExtractor) closeMonthAtMarker(sheet *workbook.Sheet, markerRow int, class models.Classification, st *monthState, figures models.MonthlyFigures) {
	switch class {
	case models.ClassPL:
		net := st.debitTotal.Sub(st.creditTotal)
		markerNet, ok := e.markerRowNet(sheet, markerRow)
		if ok && !markerNet.IsZero() {
			net = markerNet
		}
		if !net.IsZero() {
			figures[st.month] = net
		}
	default:
		if st.seenBalance {
			figures[st.month] = st.lastBalance
		}
	}
}

func (e *LedgerExtractor) flushWithoutMarker(class models.Classification, st *monthState, figures models.MonthlyFigures) {
	if class != models.ClassPL {
		// A BS month without its marker has no authoritative balance.
		return
	}
	net := st.debitTotal.Sub(st.creditTotal)
	if !net.IsZero() {
		figures[st.month] = net
	}
}

// markerRowNet reads debit minus credit off the marker row itself. The second
// return is false when neither cell holds a number.
func (e *LedgerExtractor) markerRowNet(sheet *workbook.Sheet, row int) (decimal.Decimal, bool) {
	var net decimal.Decimal
	found := false
	if raw, ok := sheet.Value(workbook.Ref(e.layout.DebitColumn, row)); ok {
		if d, err := parseDecimal(raw); err == nil {
			net = net.Add(d)
			found = true
		}
	}
	if raw, ok := sheet.Value(workbook.Ref(e.layout.CreditColumn, row)); ok {
		if d, err := parseDecimal(raw); err == nil {
			net = net.Sub(d)
			found = true
		}
	}
	return net, found
}

// parseMonth accepts MM-DD dates with a month of 1..12 and returns the
// normalized two-digit month.
func parseMonth(raw string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	if len(parts) != 2 {
		return "", false
	}
	m, err := strconv.Atoi(parts[0])
	if err != nil || m < 1 || m > 12 {
		return "", false
	}
	if _, err := strconv.Atoi(parts[1]); err != nil {
		return "", false
	}
	return fmt.Sprintf("%02d", m), true
}

// parseDecimal parses a cell value as a decimal, tolerating thousands
// separators.
func parseDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty value")
	}
	return decimal.NewFromString(cleaned)
}
