package models

import "github.com/shopspring/decimal"

// ContaminationKind names a reconciliation failure pattern.
type ContaminationKind string

const (
	// ContaminationInjection: processed data holds a figure where the source
	// ledger has none.
	ContaminationInjection ContaminationKind = "EXTERNAL_DATA_INJECTION"
	// ContaminationSignReversal: equal magnitude, opposite sign.
	ContaminationSignReversal ContaminationKind = "SIGN_REVERSAL"
	// ContaminationRevenueNegative: a revenue account carrying a negative
	// processed figure.
	ContaminationRevenueNegative ContaminationKind = "REVENUE_NEGATIVE"
	// ContaminationDuplicateAmount: the same non-zero figure appearing on
	// several accounts for the same month.
	ContaminationDuplicateAmount ContaminationKind = "DUPLICATE_AMOUNT"
)

// Risk grades how severe a contamination alert is.
type Risk string

const (
	RiskHigh   Risk = "HIGH"
	RiskMedium Risk = "MEDIUM"
	RiskLow    Risk = "LOW"
)

// ContaminationAlert is one finding of the reconciliation pass. Any non-empty
// set of alerts aborts the pipeline.
type ContaminationAlert struct {
	Kind      ContaminationKind `json:"kind"`
	Risk      Risk              `json:"risk"`
	Account   AccountCode       `json:"account"`
	Year      string            `json:"year"`
	Month     string            `json:"month"`
	Processed decimal.Decimal   `json:"processed"`
	Original  decimal.Decimal   `json:"original"`
	Detail    string            `json:"detail"`
	// Accounts is populated for duplicate-amount alerts, which span several
	// accounts sharing one value.
	Accounts []AccountCode `json:"accounts,omitempty"`
}
