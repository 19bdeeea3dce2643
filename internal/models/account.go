// Package models defines the core value types shared across the pipeline.
package models

// Classification is the account family an account code belongs to.
type Classification string

const (
	// ClassBS covers balance sheet accounts (assets, liabilities, equity).
	ClassBS Classification = "BS"
	// ClassPL covers profit and loss accounts (revenue, expenses).
	ClassPL Classification = "PL"
	// ClassVAT covers the VAT clearing accounts.
	ClassVAT Classification = "VAT"
	// ClassUnknown is the classification of any code outside the known ranges.
	ClassUnknown Classification = "UNKNOWN"
)

// String returns the classification label.
func (c Classification) String() string {
	return string(c)
}

// AccountCode is the numeric account identifier extracted from a sheet name,
// kept as the original digit string (leading zeros preserved).
type AccountCode string

// ValidationResult is the per-account outcome of basic validation. Issues are
// recorded, never raised: a sheet with problems still yields a result.
type ValidationResult struct {
	SheetName        string         `json:"sheet_name"`
	AccountCode      AccountCode    `json:"account_code"`
	AccountType      Classification `json:"account_type"`
	CarryForward     OptionalAmount `json:"carry_forward"`
	MonthlyData      MonthlyFigures `json:"monthly_data"`
	Issues           []string       `json:"issues"`
	ValidationPassed bool           `json:"validation_passed"`
}
