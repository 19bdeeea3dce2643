package pipeline

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledger-audit/internal/analysis"
	"ledger-audit/internal/auditerror"
	"ledger-audit/internal/classifier"
	"ledger-audit/internal/config"
	"ledger-audit/internal/extractor"
	"ledger-audit/internal/fileutils"
	"ledger-audit/internal/logging"
	"ledger-audit/internal/marker"
	"ledger-audit/internal/models"
	"ledger-audit/internal/report"
	"ledger-audit/internal/scheduler"
	"ledger-audit/internal/validator"
	"ledger-audit/internal/workbook"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	artifacts := t.TempDir()
	cfg := &config.Config{}
	cfg.Ledger.Year = "2025"
	cfg.Ledger.SkipSheetKeywords = []string{"summary", "audit"}
	cfg.Pipeline.Workers = 2
	cfg.Pipeline.MaxRetries = 2
	cfg.Pipeline.TimeoutSeconds = 30
	cfg.Output.BackupOriginal = false
	cfg.Output.ReportFile = filepath.Join(artifacts, "audit-report.json")
	cfg.Output.MarkingCSV = filepath.Join(artifacts, "marking-records.csv")
	cfg.Output.SummarySheet = "Quarantine Audit"
	return cfg
}

func newOrchestrator(t *testing.T, cfg *config.Config, gateway analysis.AnalysisGateway) *Orchestrator {
	t.Helper()
	logger := &logging.MockLogger{}
	cls := classifier.New(logger)
	ex := extractor.New(extractor.DefaultLayout(), logger)
	mk := marker.New(logger)
	sched := scheduler.New(gateway, scheduler.Options{
		Workers:    cfg.Pipeline.Workers,
		MaxRetries: cfg.Pipeline.MaxRetries,
	}, logger)
	val := validator.New(cls, ex, mk, logger)
	det := validator.NewContaminationDetector(cls, logger)
	return New(cfg, cls, ex, val, det, mk, sched, report.NewGenerator(logger), logger)
}

// writeLedgerSheet builds one well-formed account sheet with a single closed
// month.
func writeLedgerSheet(t *testing.T, wb *workbook.Workbook, name, balance string) {
	t.Helper()
	sheet := wb.AddSheet(name)
	sheet.AppendRow("Date", "Description", "Code", "Partner", "Debit", "Credit", "Balance")
	require.NoError(t, sheet.SetValue("B5", "prior-period carry-forward"))
	require.NoError(t, sheet.SetValue("G5", "1000.00"))
	require.NoError(t, sheet.SetValue("A6", "01-05"))
	require.NoError(t, sheet.SetValue("B6", "Entry"))
	require.NoError(t, sheet.SetValue("G6", balance))
	require.NoError(t, sheet.SetValue("B7", "MONTHLY TOTAL"))
}

func writeInputWorkbook(t *testing.T, balances map[string]string) string {
	t.Helper()
	wb := workbook.New()
	for name, balance := range balances {
		writeLedgerSheet(t, wb, name, balance)
	}
	dir := filepath.Join(t.TempDir(), "ledger")
	require.NoError(t, workbook.SaveDir(wb, dir, &logging.MockLogger{}))
	return dir
}

func TestRun_CleanPipeline(t *testing.T) {
	cfg := testConfig(t)
	gateway := analysis.NewFakeGateway(&logging.MockLogger{})
	o := newOrchestrator(t, cfg, gateway)

	input := writeInputWorkbook(t, map[string]string{
		"Cash (10010)":  "1100.00",
		"Bank (10020)":  "5400.00",
		"Sales (40010)": "250.00",
	})
	output := filepath.Join(t.TempDir(), "processed")

	rep, err := o.Run(context.Background(), input, output)
	require.NoError(t, err)
	require.NotNil(t, rep)

	// All three phases completed and the run graded clean
	require.Len(t, rep.Phases, 3)
	assert.Equal(t, "basic_validation", rep.Phases[0].Name)
	assert.Equal(t, "clean", rep.Phases[2].Status)
	assert.Len(t, rep.Accounts, 3)
	assert.Equal(t, 100, rep.Quality.Score)
	assert.False(t, rep.Quality.Contaminated)
	assert.Positive(t, rep.SchedulerStats.Completed)

	// Processed workbook written with the audit summary sheet appended
	processed, err := workbook.LoadDir(output, &logging.MockLogger{})
	require.NoError(t, err)
	assert.Contains(t, processed.SheetNames(), "Quarantine Audit")

	// Report artifact written
	assert.True(t, fileutils.FileExists(cfg.Output.ReportFile))
}

func TestRun_UncertainAnalysisQuarantinesFigures(t *testing.T) {
	cfg := testConfig(t)
	gateway := analysis.NewFakeGateway(&logging.MockLogger{})
	gateway.Confidence = analysis.ConfidenceUncertain
	o := newOrchestrator(t, cfg, gateway)

	input := writeInputWorkbook(t, map[string]string{
		"Cash (10010)": "1100.00",
	})
	output := filepath.Join(t.TempDir(), "processed")

	rep, err := o.Run(context.Background(), input, output)
	require.NoError(t, err)

	// The uncertain month was withdrawn and its anchor cell quarantined
	assert.Equal(t, 1, rep.SchedulerStats.Uncertain)
	assert.Equal(t, 1, rep.MarkingStats.TotalMarked)
	assert.Less(t, rep.Quality.Score, 100)

	processed, err := workbook.LoadDir(output, &logging.MockLogger{})
	require.NoError(t, err)
	sheet, ok := processed.Sheet("Cash (10010)")
	require.True(t, ok)
	assert.True(t, sheet.Flagged("G6"))
	_, hasValue := sheet.Value("G6")
	assert.False(t, hasValue)
	assert.Contains(t, sheet.Note("G6"), "UNCERTAIN_ANALYSIS")

	// The marking audit trail was exported
	assert.True(t, fileutils.FileExists(cfg.Output.MarkingCSV))
}

func TestRun_ContaminationWithholdsOutput(t *testing.T) {
	cfg := testConfig(t)
	gateway := analysis.NewFakeGateway(&logging.MockLogger{})
	o := newOrchestrator(t, cfg, gateway)

	// The same non-zero figure on two accounts in the same month trips the
	// duplicate-amount reconciliation rule
	input := writeInputWorkbook(t, map[string]string{
		"Cash (10010)": "777.00",
		"Bank (10020)": "777.00",
	})
	output := filepath.Join(t.TempDir(), "processed")

	rep, err := o.Run(context.Background(), input, output)
	require.Error(t, err)

	var contamination *auditerror.ContaminationError
	require.True(t, errors.As(err, &contamination))
	require.Len(t, contamination.Alerts, 1)
	assert.Equal(t, "DUPLICATE_AMOUNT", contamination.Alerts[0].Kind)

	// The report still describes the run, but no processed workbook exists
	require.NotNil(t, rep)
	assert.True(t, rep.Quality.Contaminated)
	assert.Equal(t, "contaminated", rep.Phases[2].Status)
	assert.False(t, fileutils.DirectoryExists(output))

	// Diagnostics are still written
	assert.True(t, fileutils.FileExists(cfg.Output.ReportFile))
}

func TestRun_FailedValidationExcludedFromAnalysis(t *testing.T) {
	cfg := testConfig(t)
	gateway := analysis.NewFakeGateway(&logging.MockLogger{})
	o := newOrchestrator(t, cfg, gateway)

	wb := workbook.New()
	writeLedgerSheet(t, wb, "Cash (10010)", "1100.00")
	// Same data shape, but the header row is missing entirely
	broken := wb.AddSheet("Petty cash (10020)")
	require.NoError(t, broken.SetValue("B5", "prior-period carry-forward"))
	require.NoError(t, broken.SetValue("G5", "500.00"))
	require.NoError(t, broken.SetValue("A6", "01-10"))
	require.NoError(t, broken.SetValue("G6", "650.00"))
	require.NoError(t, broken.SetValue("B7", "MONTHLY TOTAL"))
	// Well-formed sheet whose code classifies nowhere
	writeLedgerSheet(t, wb, "Odd (99999)", "300.00")

	input := filepath.Join(t.TempDir(), "ledger")
	require.NoError(t, workbook.SaveDir(wb, input, &logging.MockLogger{}))
	output := filepath.Join(t.TempDir(), "processed")

	rep, err := o.Run(context.Background(), input, output)
	require.NoError(t, err)

	// Only the clean sheet reaches batch analysis
	assert.Equal(t, 1, rep.SchedulerStats.TotalTasks)
	assert.Equal(t, 1, gateway.Calls())

	// And only its figures make the processed view
	loaded, err := workbook.LoadDir(input, &logging.MockLogger{})
	require.NoError(t, err)
	_, processed := o.runValidation(loaded)
	require.Len(t, processed, 1)
	_, ok := processed[models.FigureKey{Account: "10010", Year: "2025", Month: "01"}]
	assert.True(t, ok)
}

func TestRun_TwiceOverQuarantinedWorkbookDoesNotDrift(t *testing.T) {
	cfg := testConfig(t)
	gateway := analysis.NewFakeGateway(&logging.MockLogger{})
	gateway.Confidence = analysis.ConfidenceUncertain
	o := newOrchestrator(t, cfg, gateway)

	input := writeInputWorkbook(t, map[string]string{"Cash (10010)": "1100.00"})
	first := filepath.Join(t.TempDir(), "first")

	rep1, err := o.Run(context.Background(), input, first)
	require.NoError(t, err)
	require.Equal(t, 1, rep1.MarkingStats.TotalMarked)

	// Second run consumes the quarantined output of the first. Quarantined
	// months have lost their anchor figures, so nothing new is analyzed or
	// marked and the classification stays put.
	cfg2 := testConfig(t)
	gateway2 := analysis.NewFakeGateway(&logging.MockLogger{})
	gateway2.Confidence = analysis.ConfidenceUncertain
	o2 := newOrchestrator(t, cfg2, gateway2)
	second := filepath.Join(t.TempDir(), "second")

	rep2, err := o2.Run(context.Background(), first, second)
	require.NoError(t, err)

	assert.Zero(t, rep2.SchedulerStats.TotalTasks)
	assert.Zero(t, rep2.MarkingStats.TotalMarked)

	require.Len(t, rep2.Accounts, 1)
	assert.Equal(t, rep1.Accounts[0].AccountType, rep2.Accounts[0].AccountType)
	assert.True(t, rep2.Accounts[0].ValidationPassed)

	// The original quarantine survives untouched
	out1, err := workbook.LoadDir(first, &logging.MockLogger{})
	require.NoError(t, err)
	out2, err := workbook.LoadDir(second, &logging.MockLogger{})
	require.NoError(t, err)
	s1, _ := out1.Sheet("Cash (10010)")
	s2, _ := out2.Sheet("Cash (10010)")
	assert.Equal(t, s1.FlaggedRefs(), s2.FlaggedRefs())
	assert.Equal(t, s1.Note("G6"), s2.Note("G6"))
}

func TestRun_BackupOriginal(t *testing.T) {
	cfg := testConfig(t)
	cfg.Output.BackupOriginal = true
	gateway := analysis.NewFakeGateway(&logging.MockLogger{})
	o := newOrchestrator(t, cfg, gateway)

	input := writeInputWorkbook(t, map[string]string{"Cash (10010)": "1100.00"})
	output := filepath.Join(t.TempDir(), "processed")

	_, err := o.Run(context.Background(), input, output)
	require.NoError(t, err)

	backups, err := filepath.Glob(input + ".backup-*")
	require.NoError(t, err)
	assert.Len(t, backups, 1)
}

func TestRun_MissingInput(t *testing.T) {
	cfg := testConfig(t)
	o := newOrchestrator(t, cfg, analysis.NewFakeGateway(&logging.MockLogger{}))

	_, err := o.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRunValidateOnly(t *testing.T) {
	cfg := testConfig(t)
	o := newOrchestrator(t, cfg, analysis.NewFakeGateway(&logging.MockLogger{}))

	input := writeInputWorkbook(t, map[string]string{
		"Cash (10010)":   "1100.00",
		"Yearly Summary": "0",
	})

	rep, err := o.RunValidateOnly(input)
	require.NoError(t, err)

	// The summary sheet is skipped, only the account sheet is validated
	require.Len(t, rep.Accounts, 1)
	assert.Equal(t, "Cash (10010)", rep.Accounts[0].SheetName)
	assert.True(t, rep.Accounts[0].ValidationPassed)
	require.Len(t, rep.Phases, 1)
	assert.Equal(t, "basic_validation", rep.Phases[0].Name)
}
