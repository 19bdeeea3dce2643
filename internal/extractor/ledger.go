package extractor

import (
	"strings"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
	"ledger-audit/internal/workbook"
)

// AccountResolver identifies and classifies account sheets. Satisfied by
// classifier.AccountClassifier.
type AccountResolver interface {
	ExtractAccountCode(sheetName string) (models.AccountCode, bool)
	Classify(code models.AccountCode) models.Classification
}

// ExtractAll walks every account sheet and produces a consolidated figure
// set keyed by account, year, and month. Sheets whose name contains one of
// the skip keywords (summaries, analysis output) and sheets without an
// account code are left out. This is the independent ledger view the
// reconciliation phase compares processed data against.
func (e *LedgerExtractor) ExtractAll(wb *workbook.Workbook, resolver AccountResolver, year string, skipKeywords []string) models.FigureSet {
	set := make(models.FigureSet)

	for _, name := range wb.SheetNames() {
		if containsAny(name, skipKeywords) {
			e.logger.Debug("Skipping non-account sheet",
				logging.Field{Key: logging.FieldSheet, Value: name})
			continue
		}
		code, ok := resolver.ExtractAccountCode(name)
		if !ok {
			continue
		}
		sheet, _ := wb.Sheet(name)
		class := resolver.Classify(code)
		figures := e.ExtractMonthlyData(sheet, class)
		set.Merge(code, year, figures)

		e.logger.Debug("Extracted account figures",
			logging.Field{Key: logging.FieldSheet, Value: name},
			logging.Field{Key: logging.FieldAccount, Value: string(code)},
			logging.Field{Key: logging.FieldCount, Value: len(figures)})
	}
	return set
}

func containsAny(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
