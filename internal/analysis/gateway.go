// Package analysis defines the seam to the external pattern-analysis
// service. Scheduling logic never talks to a concrete backend; it sees only
// the AnalysisGateway interface, and uncertainty is a first-class response
// rather than an error.
package analysis

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"ledger-audit/internal/models"
)

// Confidence grades how much trust a response deserves. UNCERTAIN responses
// feed the quarantine path, never a retry.
type Confidence string

const (
	ConfidenceHigh      Confidence = "HIGH"
	ConfidenceMedium    Confidence = "MEDIUM"
	ConfidenceLow       Confidence = "LOW"
	ConfidenceUncertain Confidence = "UNCERTAIN"
)

// Request task types.
const (
	TaskAnalyzePatterns = "analyze_patterns"
	TaskVerifyVAT       = "verify_vat"
	TaskDetectAnomalies = "detect_anomalies"
)

// Request is one unit of work sent through the gateway.
type Request struct {
	Type           string
	AccountCode    models.AccountCode
	Classification models.Classification
	Payload        map[string]any
	Context        map[string]string
	BatchSize      int
	Priority       models.Priority
}

// Response is the gateway's answer. Implementations must never let an
// internal failure escape: anything that goes wrong comes back as an
// unsuccessful response with UNCERTAIN confidence.
type Response struct {
	Success        bool
	Result         map[string]any
	Confidence     Confidence
	UncertainItems []string
	Duration       time.Duration
	ErrorMessage   string
}

// VATTransaction is one row submitted for VAT verification.
type VATTransaction struct {
	Date        string          `csv:"date" json:"date"`
	Description string          `csv:"description" json:"description"`
	Amount      decimal.Decimal `csv:"amount" json:"amount"`
	Partner     string          `csv:"partner" json:"partner"`
}

// AnalysisGateway is the external-collaborator boundary.
type AnalysisGateway interface {
	// AnalyzePatterns examines one account's monthly figures for anomalies.
	AnalyzePatterns(ctx context.Context, account models.AccountCode, class models.Classification, figures models.MonthlyFigures) Response

	// VerifyVAT cross-checks VAT transactions.
	VerifyVAT(ctx context.Context, transactions []VATTransaction) Response

	// DetectAnomalies compares processed figures against the source view.
	DetectAnomalies(ctx context.Context, processed, original models.FigureSet) Response
}

// failureResponse builds the canonical degraded response.
func failureResponse(start time.Time, msg string) Response {
	return Response{
		Success:      false,
		Confidence:   ConfidenceUncertain,
		Duration:     time.Since(start),
		ErrorMessage: msg,
	}
}
