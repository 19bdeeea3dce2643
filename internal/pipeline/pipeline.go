// Package pipeline orchestrates the three processing phases: basic
// validation, batched external analysis, and the final reconciliation that
// guards against cross contamination.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

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

// Orchestrator drives one processing run end to end.
type Orchestrator struct {
	cfg        *config.Config
	classifier *classifier.AccountClassifier
	extractor  *extractor.LedgerExtractor
	validator  *validator.Validator
	detector   *validator.ContaminationDetector
	marker     *marker.UncertaintyMarker
	scheduler  *scheduler.BatchScheduler
	reports    *report.Generator
	logger     logging.Logger
}

// New wires an orchestrator from its collaborators.
func New(
	cfg *config.Config,
	cls *classifier.AccountClassifier,
	ex *extractor.LedgerExtractor,
	val *validator.Validator,
	det *validator.ContaminationDetector,
	mk *marker.UncertaintyMarker,
	sched *scheduler.BatchScheduler,
	reports *report.Generator,
	logger logging.Logger,
) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		classifier: cls,
		extractor:  ex,
		validator:  val,
		detector:   det,
		marker:     mk,
		scheduler:  sched,
		reports:    reports,
		logger:     logger,
	}
}

// Run executes all three phases against the workbook at inputDir and, when
// everything is clean, writes the processed workbook to outputDir plus the
// report artifacts. On contamination the processed workbook is never
// written and the returned error is a *auditerror.ContaminationError.
func (o *Orchestrator) Run(ctx context.Context, inputDir, outputDir string) (*report.ProcessingReport, error) {
	started := time.Now()
	rep := &report.ProcessingReport{
		Session:   fmt.Sprintf("audit-%s", started.Format("20060102-150405")),
		StartedAt: started,
		InputPath: inputDir,
	}

	if !fileutils.DirectoryExists(inputDir) {
		return nil, fmt.Errorf("input workbook directory does not exist: %s", inputDir)
	}

	if o.cfg.Output.BackupOriginal {
		backup, err := fileutils.BackupDirectory(inputDir)
		if err != nil {
			return nil, fmt.Errorf("backing up input workbook: %w", err)
		}
		o.logger.Info("Backed up input workbook",
			logging.Field{Key: logging.FieldFile, Value: backup})
	}

	wb, err := workbook.LoadDir(inputDir, o.logger)
	if err != nil {
		return nil, err
	}

	// Phase 1: basic validation.
	phaseStart := time.Now()
	results, processed := o.runValidation(wb)
	rep.Accounts = results
	rep.Phases = append(rep.Phases, report.PhaseOutcome{
		Name:     "basic_validation",
		Status:   "completed",
		Duration: time.Since(phaseStart),
		Detail:   fmt.Sprintf("%d account sheets validated", len(results)),
	})

	// Phase 2: batched external analysis.
	phaseStart = time.Now()
	stats := o.runAnalysis(ctx, wb, results, processed)
	rep.SchedulerStats = stats
	status := "completed"
	if stats.TimeoutReached {
		status = "timed_out"
	}
	rep.Phases = append(rep.Phases, report.PhaseOutcome{
		Name:     "batch_analysis",
		Status:   status,
		Duration: time.Since(phaseStart),
		Detail: fmt.Sprintf("%d tasks: %d completed, %d uncertain, %d failed",
			stats.TotalTasks, stats.Completed, stats.Uncertain, stats.Failed),
	})

	// Phase 3: reconciliation against a fresh extraction of the source.
	phaseStart = time.Now()
	source, err := workbook.LoadDir(inputDir, o.logger)
	if err != nil {
		return nil, fmt.Errorf("reloading source workbook: %w", err)
	}
	original := o.extractor.ExtractAll(source, o.classifier, o.cfg.Ledger.Year, o.cfg.Ledger.SkipSheetKeywords)
	alerts := o.detector.Detect(processed, original)

	if len(alerts) > 0 {
		o.markContamination(wb, alerts)
		rep.Contamination = alerts
		rep.Phases = append(rep.Phases, report.PhaseOutcome{
			Name:     "reconciliation",
			Status:   "contaminated",
			Duration: time.Since(phaseStart),
			Detail:   fmt.Sprintf("%d alerts", len(alerts)),
		})
		o.finishReport(rep, stats, true)
		o.writeArtifacts(rep)
		return rep, contaminationError(alerts)
	}

	rep.Phases = append(rep.Phases, report.PhaseOutcome{
		Name:     "reconciliation",
		Status:   "clean",
		Duration: time.Since(phaseStart),
	})

	// Only a clean run produces the processed workbook.
	o.marker.WriteSummarySheet(wb, o.cfg.Output.SummarySheet)
	if err := workbook.SaveDir(wb, outputDir, o.logger); err != nil {
		return nil, fmt.Errorf("writing processed workbook: %w", err)
	}

	o.finishReport(rep, stats, false)
	o.writeArtifacts(rep)

	o.logger.Info("Processing run finished",
		logging.Field{Key: logging.FieldStatus, Value: rep.Quality.Grade},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(started).Milliseconds()})
	return rep, nil
}

// RunValidateOnly executes phase 1 alone and reports the results without
// touching any output artifact.
func (o *Orchestrator) RunValidateOnly(inputDir string) (*report.ProcessingReport, error) {
	started := time.Now()
	rep := &report.ProcessingReport{
		Session:   fmt.Sprintf("validate-%s", started.Format("20060102-150405")),
		StartedAt: started,
		InputPath: inputDir,
	}

	wb, err := workbook.LoadDir(inputDir, o.logger)
	if err != nil {
		return nil, err
	}

	results, _ := o.runValidation(wb)
	rep.Accounts = results
	rep.Phases = append(rep.Phases, report.PhaseOutcome{
		Name:     "basic_validation",
		Status:   "completed",
		Duration: time.Since(started),
		Detail:   fmt.Sprintf("%d account sheets validated", len(results)),
	})
	o.finishReport(rep, scheduler.CompletionStats{}, false)
	return rep, nil
}

// runValidation validates every account sheet and consolidates the monthly
// figures into the processed view. Sheets that fail validation, and sheets
// whose account could not be classified, stay out of the processed view:
// their issues are already marked on the workbook and nothing downstream may
// consume their figures.
func (o *Orchestrator) runValidation(wb *workbook.Workbook) ([]models.ValidationResult, models.FigureSet) {
	var results []models.ValidationResult
	processed := make(models.FigureSet)

	for _, name := range wb.SheetNames() {
		if sheetSkipped(name, o.cfg.Ledger.SkipSheetKeywords) {
			continue
		}
		result := o.validator.ValidateAccount(wb, name)
		results = append(results, result)
		if !result.ValidationPassed || result.AccountType == models.ClassUnknown {
			o.logger.Warn("Excluding sheet from downstream analysis",
				logging.Field{Key: logging.FieldSheet, Value: name},
				logging.Field{Key: logging.FieldCount, Value: len(result.Issues)})
			continue
		}
		processed.Merge(result.AccountCode, o.cfg.Ledger.Year, result.MonthlyData)
	}
	return results, processed
}

// runAnalysis submits batches for every validated account, waits for the
// scheduler, and quarantines everything that came back uncertain. Figures
// belonging to quarantined months are withdrawn from the processed view.
func (o *Orchestrator) runAnalysis(ctx context.Context, wb *workbook.Workbook, results []models.ValidationResult, processed models.FigureSet) scheduler.CompletionStats {
	o.scheduler.Start(ctx)

	taskSheets := make(map[string]string)
	taskMonths := make(map[string][]string)
	for _, result := range results {
		if !result.ValidationPassed || result.AccountType == models.ClassUnknown {
			continue
		}
		if len(result.MonthlyData) == 0 {
			continue
		}
		tasks := scheduler.CreateBatches(result.AccountCode, result.AccountType, result.MonthlyData, analysis.TaskAnalyzePatterns)
		for _, task := range tasks {
			figures := task.Payload["figures"].(models.MonthlyFigures)
			taskSheets[task.ID] = result.SheetName
			taskMonths[task.ID] = figures.Months()
			if err := o.scheduler.Submit(task); err != nil {
				o.logger.WithError(err).Error("Could not submit analysis task",
					logging.Field{Key: logging.FieldTaskID, Value: task.ID})
			}
		}
	}

	timeout := time.Duration(o.cfg.Pipeline.TimeoutSeconds) * time.Second
	stats := o.scheduler.WaitForCompletion(timeout)
	o.scheduler.Shutdown()

	for _, taskID := range o.scheduler.UncertainTasks() {
		o.quarantineTask(wb, taskID, taskSheets[taskID], taskMonths[taskID], processed)
	}
	for _, task := range o.scheduler.FailedTasks() {
		o.quarantineTask(wb, task.ID, taskSheets[task.ID], taskMonths[task.ID], processed)
	}
	return stats
}

// quarantineTask marks the month anchor cells covered by one unresolved task
// and withdraws those figures from the processed view.
func (o *Orchestrator) quarantineTask(wb *workbook.Workbook, taskID, sheetName string, months []string, processed models.FigureSet) {
	sheet, ok := wb.Sheet(sheetName)
	if !ok {
		return
	}
	code, found := o.classifier.ExtractAccountCode(sheetName)
	if !found {
		return
	}

	anchors := o.extractor.MonthAnchorCells(sheet)
	detail := fmt.Sprintf("analysis task %s did not produce a trustworthy result", taskID)

	for _, month := range months {
		delete(processed, models.FigureKey{Account: code, Year: o.cfg.Ledger.Year, Month: month})
		ref, ok := anchors[month]
		if !ok {
			continue
		}
		if err := o.marker.Mark(sheet, ref, code, "UNCERTAIN_ANALYSIS", detail); err != nil {
			o.logger.WithError(err).Warn("Could not quarantine month anchor",
				logging.Field{Key: logging.FieldSheet, Value: sheetName},
				logging.Field{Key: logging.FieldMonth, Value: month})
		}
	}
}

func (o *Orchestrator) markContamination(wb *workbook.Workbook, alerts []models.ContaminationAlert) {
	for _, alert := range alerts {
		for _, name := range wb.SheetNames() {
			code, found := o.classifier.ExtractAccountCode(name)
			if !found || code != alert.Account {
				continue
			}
			sheet, _ := wb.Sheet(name)
			if err := o.marker.MarkContamination(sheet, alert); err != nil {
				o.logger.WithError(err).Warn("Could not mark contamination",
					logging.Field{Key: logging.FieldSheet, Value: name})
			}
		}
	}
}

func (o *Orchestrator) finishReport(rep *report.ProcessingReport, stats scheduler.CompletionStats, contaminated bool) {
	markingStats := o.marker.Stats()
	rep.MarkingStats = markingStats
	rep.Quality = report.ComputeQuality(markingStats.TotalMarked, stats.Uncertain, contaminated)
	rep.Recommendation = report.Recommendations(rep.Quality, stats)
	rep.FinishedAt = time.Now()
}

// writeArtifacts writes the report and audit trail. These are diagnostics,
// produced even for contaminated runs; only the processed workbook is held
// back.
func (o *Orchestrator) writeArtifacts(rep *report.ProcessingReport) {
	if o.cfg.Output.ReportFile != "" {
		if err := o.reports.WriteJSON(rep, o.cfg.Output.ReportFile); err != nil {
			o.logger.WithError(err).Error("Could not write report")
		}
	}
	if o.cfg.Output.MarkingCSV != "" {
		records := o.marker.Records()
		if len(records) > 0 {
			if err := o.reports.WriteMarkingCSV(records, o.cfg.Output.MarkingCSV); err != nil {
				o.logger.WithError(err).Error("Could not write marking audit trail")
			}
		}
	}
}

func contaminationError(alerts []models.ContaminationAlert) error {
	summaries := make([]auditerror.ContaminationSummary, len(alerts))
	for i, a := range alerts {
		summaries[i] = auditerror.ContaminationSummary{
			Kind:    string(a.Kind),
			Account: string(a.Account),
			Year:    a.Year,
			Month:   a.Month,
			Detail:  a.Detail,
		}
	}
	return &auditerror.ContaminationError{Alerts: summaries}
}

func sheetSkipped(name string, keywords []string) bool {
	lower := strings.ToLower(name)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
