// Package classifier assigns account codes to their accounting family.
package classifier

import (
	"regexp"
	"strconv"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
)

var accountCodePattern = regexp.MustCompile(`\((\d+)\)`)

// codeRange is a half-open interval [Low, High) of account codes.
type codeRange struct {
	Low  int
	High int
}

func (r codeRange) contains(code int) bool {
	return code >= r.Low && code < r.High
}

// rangeTable holds the classification intervals. VAT codes are exact values
// and take precedence over any interval they fall inside.
type rangeTable struct {
	VATCodes  []int
	BSRanges  []codeRange
	PLRevenue []codeRange
	PLExpense []codeRange
}

func defaultRanges() rangeTable {
	return rangeTable{
		VATCodes: []int{13500, 25500},
		BSRanges: []codeRange{
			{10000, 25000}, // assets
			{25000, 30000}, // liabilities
			{33000, 38000}, // equity
		},
		PLRevenue: []codeRange{
			{40000, 42100},
			{90000, 92100},
		},
		PLExpense: []codeRange{
			{45000, 46100},
			{52000, 53100},
			{80000, 84100},
			{93000, 96100},
		},
	}
}

// AccountClassifier extracts account codes from sheet names and classifies
// them. Classification is a total function: every input maps to exactly one
// family, with UNKNOWN as the catch-all.
type AccountClassifier struct {
	ranges rangeTable
	logger logging.Logger
}

// New returns a classifier with the built-in code ranges.
func New(logger logging.Logger) *AccountClassifier {
	return &AccountClassifier{ranges: defaultRanges(), logger: logger}
}

// ExtractAccountCode pulls the first parenthesized digit group out of a sheet
// name. A name without one is a normal outcome, reported as not found and
// logged at warning level, never as an error.
func (c *AccountClassifier) ExtractAccountCode(sheetName string) (models.AccountCode, bool) {
	m := accountCodePattern.FindStringSubmatch(sheetName)
	if m == nil {
		c.logger.Warn("No account code in sheet name",
			logging.Field{Key: logging.FieldSheet, Value: sheetName})
		return "", false
	}
	return models.AccountCode(m[1]), true
}

// Classify maps an account code to its family. Non-numeric codes are UNKNOWN.
func (c *AccountClassifier) Classify(code models.AccountCode) models.Classification {
	n, err := strconv.Atoi(string(code))
	if err != nil {
		return models.ClassUnknown
	}

	for _, vat := range c.ranges.VATCodes {
		if n == vat {
			return models.ClassVAT
		}
	}
	for _, r := range c.ranges.BSRanges {
		if r.contains(n) {
			return models.ClassBS
		}
	}
	for _, r := range c.ranges.PLRevenue {
		if r.contains(n) {
			return models.ClassPL
		}
	}
	for _, r := range c.ranges.PLExpense {
		if r.contains(n) {
			return models.ClassPL
		}
	}
	return models.ClassUnknown
}

// IsRevenue reports whether a code falls in a revenue interval. VAT codes are
// not revenue even when an interval would cover them.
func (c *AccountClassifier) IsRevenue(code models.AccountCode) bool {
	n, err := strconv.Atoi(string(code))
	if err != nil {
		return false
	}
	for _, vat := range c.ranges.VATCodes {
		if n == vat {
			return false
		}
	}
	for _, r := range c.ranges.PLRevenue {
		if r.contains(n) {
			return true
		}
	}
	return false
}
