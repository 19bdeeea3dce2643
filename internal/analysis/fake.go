package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
)

// FakeGateway is a deterministic AnalysisGateway for tests and offline runs.
// It returns canned responses configured up front, so scheduler and pipeline
// behavior can be exercised without a network.
type FakeGateway struct {
	// Confidence applied to successful responses. Defaults to HIGH.
	Confidence Confidence
	// UncertainItems returned verbatim on every response.
	UncertainItems []string
	// FailUntilAttempt makes calls fail while the call count is below it,
	// to exercise the retry path. Zero means never fail.
	FailUntilAttempt int
	// Latency is added to every response duration.
	Latency time.Duration

	logger logging.Logger
	mu     sync.Mutex
	calls  int
}

// NewFakeGateway returns a gateway that always succeeds with HIGH confidence.
func NewFakeGateway(logger logging.Logger) *FakeGateway {
	return &FakeGateway{Confidence: ConfidenceHigh, logger: logger}
}

// Calls returns how many requests the gateway has served.
func (f *FakeGateway) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *FakeGateway) respond(taskType string, items int) Response {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()
	start := time.Now().Add(-f.Latency)

	if f.FailUntilAttempt > 0 && call < f.FailUntilAttempt {
		return failureResponse(start, fmt.Sprintf("simulated failure on call %d", call))
	}

	confidence := f.Confidence
	if confidence == "" {
		confidence = ConfidenceHigh
	}
	if f.logger != nil {
		f.logger.Debug("Fake analysis response",
			logging.Field{Key: logging.FieldOperation, Value: taskType},
			logging.Field{Key: logging.FieldCount, Value: items})
	}
	return Response{
		Success: true,
		Result: map[string]any{
			"verdict": "OK",
			"notes":   "offline analysis stub",
		},
		Confidence:     confidence,
		UncertainItems: append([]string(nil), f.UncertainItems...),
		Duration:       time.Since(start),
	}
}

// AnalyzePatterns returns the canned response.
func (f *FakeGateway) AnalyzePatterns(_ context.Context, _ models.AccountCode, _ models.Classification, figures models.MonthlyFigures) Response {
	return f.respond(TaskAnalyzePatterns, len(figures))
}

// VerifyVAT returns the canned response.
func (f *FakeGateway) VerifyVAT(_ context.Context, transactions []VATTransaction) Response {
	return f.respond(TaskVerifyVAT, len(transactions))
}

// DetectAnomalies returns the canned response.
func (f *FakeGateway) DetectAnomalies(_ context.Context, processed, _ models.FigureSet) Response {
	return f.respond(TaskDetectAnomalies, len(processed))
}
