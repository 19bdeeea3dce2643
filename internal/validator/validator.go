// Package validator performs the basic per-account validation pass and the
// final cross-contamination reconciliation.
package validator

import (
	"fmt"
	"strings"

	"ledger-audit/internal/extractor"
	"ledger-audit/internal/logging"
	"ledger-audit/internal/marker"
	"ledger-audit/internal/models"
	"ledger-audit/internal/workbook"
)

// AccountResolver identifies and classifies account sheets.
type AccountResolver interface {
	ExtractAccountCode(sheetName string) (models.AccountCode, bool)
	Classify(code models.AccountCode) models.Classification
}

// Validator runs structural and extraction checks over account sheets.
// Problems are itemized on the result; validation itself never errors out on
// bad data, only on programming mistakes.
type Validator struct {
	resolver  AccountResolver
	extractor *extractor.LedgerExtractor
	marker    *marker.UncertaintyMarker
	logger    logging.Logger
}

// New wires a validator.
func New(resolver AccountResolver, ex *extractor.LedgerExtractor, mk *marker.UncertaintyMarker, logger logging.Logger) *Validator {
	return &Validator{
		resolver:  resolver,
		extractor: ex,
		marker:    mk,
		logger:    logger,
	}
}

// ValidateAccount runs the full basic validation of one sheet: account code,
// classification, structure, carry-forward, and monthly extraction. Every
// problem is recorded as an issue; a missing header additionally quarantines
// the header cell.
func (v *Validator) ValidateAccount(wb *workbook.Workbook, sheetName string) models.ValidationResult {
	result := models.ValidationResult{
		SheetName:   sheetName,
		AccountType: models.ClassUnknown,
		MonthlyData: make(models.MonthlyFigures),
	}

	sheet, ok := wb.Sheet(sheetName)
	if !ok {
		result.Issues = append(result.Issues, fmt.Sprintf("sheet %q not found", sheetName))
		return result
	}

	code, found := v.resolver.ExtractAccountCode(sheetName)
	if !found {
		result.Issues = append(result.Issues, "no account code in sheet name")
	} else {
		result.AccountCode = code
		result.AccountType = v.resolver.Classify(code)
		if result.AccountType == models.ClassUnknown {
			result.Issues = append(result.Issues,
				fmt.Sprintf("account code %s outside known classification ranges", code))
		}
	}

	v.checkStructure(sheet, code, &result)

	result.CarryForward = v.extractor.ExtractCarryForward(sheet)
	if !result.CarryForward.Known() {
		result.Issues = append(result.Issues, "carry-forward amount could not be read")
	}

	result.MonthlyData = v.extractor.ExtractMonthlyData(sheet, result.AccountType)

	result.ValidationPassed = len(result.Issues) == 0
	v.logger.Info("Validated account sheet",
		logging.Field{Key: logging.FieldSheet, Value: sheetName},
		logging.Field{Key: logging.FieldAccount, Value: string(code)},
		logging.Field{Key: logging.FieldStatus, Value: result.ValidationPassed},
		logging.Field{Key: logging.FieldCount, Value: len(result.Issues)})
	return result
}

// checkStructure verifies the header row. Each missing or wrong header is an
// issue, and the offending cell is quarantined.
func (v *Validator) checkStructure(sheet *workbook.Sheet, code models.AccountCode, result *models.ValidationResult) {
	layout := v.extractor.Layout()
	for i, want := range layout.RequiredHeaders {
		ref := workbook.FormatRef(i+1, layout.HeaderRow)
		got, ok := sheet.Value(ref)
		if ok && strings.TrimSpace(got) == want {
			continue
		}
		issue := fmt.Sprintf("header %s: expected %q, got %q", ref, want, got)
		result.Issues = append(result.Issues, issue)
		if err := v.marker.Mark(sheet, ref, code, "MISSING_HEADER", issue); err != nil {
			v.logger.WithError(err).Warn("Could not quarantine header cell",
				logging.Field{Key: logging.FieldSheet, Value: sheet.Name()},
				logging.Field{Key: logging.FieldCell, Value: ref})
		}
	}
}
