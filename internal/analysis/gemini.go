package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
)

// GeminiGateway implements AnalysisGateway against the Gemini API. Every
// failure path, including panics from the client library, degrades into an
// unsuccessful UNCERTAIN response.
type GeminiGateway struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  logging.Logger
}

// NewGeminiGateway connects to the Gemini API.
func NewGeminiGateway(ctx context.Context, apiKey, model string, timeout time.Duration, logger logging.Logger) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &GeminiGateway{
		client:  client,
		model:   model,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Close releases the underlying API client.
func (g *GeminiGateway) Close() error {
	return g.client.Close()
}

// AnalyzePatterns examines one account's monthly figures for anomalies.
func (g *GeminiGateway) AnalyzePatterns(ctx context.Context, account models.AccountCode, class models.Classification, figures models.MonthlyFigures) Response {
	payload := make(map[string]string, len(figures))
	for _, month := range figures.Months() {
		payload[month] = figures[month].String()
	}
	prompt := fmt.Sprintf(`You are an accounting auditor. Review the monthly figures of account %s (family %s) for anomalies: implausible jumps, sign changes, or values inconsistent with the account family.

Monthly figures (month: amount):
%s

Respond with exactly these lines:
VERDICT: OK or ANOMALY
CONFIDENCE: HIGH, MEDIUM, LOW or UNCERTAIN
UNCERTAIN_MONTHS: comma-separated months you could not judge, or NONE
NOTES: one short sentence`, account, class, formatPayload(payload))

	return g.generate(ctx, TaskAnalyzePatterns, prompt)
}

// VerifyVAT cross-checks VAT transactions.
func (g *GeminiGateway) VerifyVAT(ctx context.Context, transactions []VATTransaction) Response {
	start := time.Now()
	data, err := json.Marshal(transactions)
	if err != nil {
		return failureResponse(start, fmt.Sprintf("encoding transactions: %v", err))
	}
	prompt := fmt.Sprintf(`You are an accounting auditor. Verify these VAT transactions for consistency between amounts, partners and descriptions.

Transactions (JSON):
%s

Respond with exactly these lines:
VERDICT: OK or ANOMALY
CONFIDENCE: HIGH, MEDIUM, LOW or UNCERTAIN
UNCERTAIN_MONTHS: comma-separated transaction dates you could not judge, or NONE
NOTES: one short sentence`, data)

	return g.generate(ctx, TaskVerifyVAT, prompt)
}

// DetectAnomalies compares processed figures against the source view.
func (g *GeminiGateway) DetectAnomalies(ctx context.Context, processed, original models.FigureSet) Response {
	var b strings.Builder
	for _, k := range processed.Keys() {
		orig, ok := original[k]
		origStr := "missing"
		if ok {
			origStr = orig.String()
		}
		fmt.Fprintf(&b, "%s: processed=%s original=%s\n", k, processed[k], origStr)
	}
	prompt := fmt.Sprintf(`You are an accounting auditor. Compare processed ledger figures against the source extraction and flag divergences.

Figures (account/year-month: processed vs original):
%s
Respond with exactly these lines:
VERDICT: OK or ANOMALY
CONFIDENCE: HIGH, MEDIUM, LOW or UNCERTAIN
UNCERTAIN_MONTHS: comma-separated keys you could not judge, or NONE
NOTES: one short sentence`, b.String())

	return g.generate(ctx, TaskDetectAnomalies, prompt)
}

// generate runs one prompt and normalizes the outcome into a Response.
func (g *GeminiGateway) generate(ctx context.Context, taskType, prompt string) (resp Response) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Analysis backend panicked",
				logging.Field{Key: logging.FieldOperation, Value: taskType},
				logging.Field{Key: logging.FieldReason, Value: fmt.Sprint(r)})
			resp = failureResponse(start, fmt.Sprintf("backend panic: %v", r))
		}
	}()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	model := g.client.GenerativeModel(g.model)
	result, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		g.logger.WithError(err).Warn("Analysis request failed",
			logging.Field{Key: logging.FieldOperation, Value: taskType})
		return failureResponse(start, err.Error())
	}

	text := extractText(result)
	if text == "" {
		return failureResponse(start, "empty response from analysis backend")
	}

	verdict, confidence, uncertain, notes := parseVerdict(text)
	g.logger.Debug("Analysis response",
		logging.Field{Key: logging.FieldOperation, Value: taskType},
		logging.Field{Key: logging.FieldStatus, Value: verdict},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(start).Milliseconds()})

	return Response{
		Success: true,
		Result: map[string]any{
			"verdict": verdict,
			"notes":   notes,
		},
		Confidence:     confidence,
		UncertainItems: uncertain,
		Duration:       time.Since(start),
	}
}

func extractText(result *genai.GenerateContentResponse) string {
	if result == nil || len(result.Candidates) == 0 {
		return ""
	}
	candidate := result.Candidates[0]
	if candidate.Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	return strings.TrimSpace(b.String())
}

// parseVerdict reads the line-oriented reply format. Missing or malformed
// lines degrade to UNCERTAIN rather than failing.
func parseVerdict(text string) (verdict string, confidence Confidence, uncertain []string, notes string) {
	verdict = "UNKNOWN"
	confidence = ConfidenceUncertain

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "VERDICT:"):
			verdict = strings.TrimSpace(strings.TrimPrefix(line, "VERDICT:"))
		case strings.HasPrefix(line, "CONFIDENCE:"):
			switch strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "CONFIDENCE:"))) {
			case "HIGH":
				confidence = ConfidenceHigh
			case "MEDIUM":
				confidence = ConfidenceMedium
			case "LOW":
				confidence = ConfidenceLow
			default:
				confidence = ConfidenceUncertain
			}
		case strings.HasPrefix(line, "UNCERTAIN_MONTHS:"):
			raw := strings.TrimSpace(strings.TrimPrefix(line, "UNCERTAIN_MONTHS:"))
			if raw != "" && !strings.EqualFold(raw, "NONE") {
				for _, item := range strings.Split(raw, ",") {
					if item = strings.TrimSpace(item); item != "" {
						uncertain = append(uncertain, item)
					}
				}
			}
		case strings.HasPrefix(line, "NOTES:"):
			notes = strings.TrimSpace(strings.TrimPrefix(line, "NOTES:"))
		}
	}
	return verdict, confidence, uncertain, notes
}

func formatPayload(payload map[string]string) string {
	months := make([]string, 0, len(payload))
	for m := range payload {
		months = append(months, m)
	}
	// Months are two-digit strings, lexicographic order is chronological.
	sort.Strings(months)
	var b strings.Builder
	for _, m := range months {
		fmt.Fprintf(&b, "%s: %s\n", m, payload[m])
	}
	return b.String()
}
