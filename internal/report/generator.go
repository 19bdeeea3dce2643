// Package report renders the final audit artifacts: the JSON processing
// report and the CSV marking audit trail.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"ledger-audit/internal/logging"
	"ledger-audit/internal/models"
	"ledger-audit/internal/scheduler"
)

// PhaseOutcome describes one pipeline phase in the report.
type PhaseOutcome struct {
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Duration time.Duration `json:"duration"`
	Detail   string        `json:"detail,omitempty"`
}

// QualityMetrics is the final grading of a processing run.
type QualityMetrics struct {
	Score          int    `json:"score"`
	Grade          string `json:"grade"`
	MarkedCells    int    `json:"marked_cells"`
	UncertainTasks int    `json:"uncertain_tasks"`
	Contaminated   bool   `json:"contaminated"`
}

// ProcessingReport is the complete run summary.
type ProcessingReport struct {
	Session        string                      `json:"session"`
	StartedAt      time.Time                   `json:"started_at"`
	FinishedAt     time.Time                   `json:"finished_at"`
	InputPath      string                      `json:"input_path"`
	Phases         []PhaseOutcome              `json:"phases"`
	Accounts       []models.ValidationResult   `json:"accounts"`
	SchedulerStats scheduler.CompletionStats   `json:"scheduler_stats"`
	MarkingStats   models.MarkingStats         `json:"marking_stats"`
	Contamination  []models.ContaminationAlert `json:"contamination,omitempty"`
	Quality        QualityMetrics              `json:"quality"`
	Recommendation []string                    `json:"recommendations"`
}

// Generator writes report artifacts.
type Generator struct {
	logger logging.Logger
}

// NewGenerator creates a report generator.
func NewGenerator(logger logging.Logger) *Generator {
	return &Generator{logger: logger.WithField("component", "ReportGenerator")}
}

// GenerateJSON renders the report as indented JSON.
func (g *Generator) GenerateJSON(report *ProcessingReport) ([]byte, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		g.logger.WithError(err).Error("Failed to marshal JSON report")
		return nil, fmt.Errorf("failed to marshal JSON report: %w", err)
	}
	return data, nil
}

// WriteJSON renders the report and writes it to a file.
func (g *Generator) WriteJSON(report *ProcessingReport, path string) error {
	data, err := g.GenerateJSON(report)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		g.logger.WithError(err).Error("Failed to write report file")
		return fmt.Errorf("writing report file: %w", err)
	}
	g.logger.Info("Wrote processing report",
		logging.Field{Key: logging.FieldFile, Value: path})
	return nil
}

// WriteMarkingCSV exports the marking audit trail as CSV.
func (g *Generator) WriteMarkingCSV(records []models.MarkingRecord, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("creating report directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		g.logger.WithError(err).Error("Failed to create marking CSV")
		return fmt.Errorf("creating marking CSV: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			g.logger.WithError(err).Warn("Failed to close file")
		}
	}()

	writer := csv.NewWriter(file)
	if err := gocsv.MarshalCSV(&records, gocsv.NewSafeCSVWriter(writer)); err != nil {
		g.logger.WithError(err).Error("Failed to marshal marking records")
		return fmt.Errorf("writing marking CSV: %w", err)
	}

	g.logger.Info("Wrote marking audit trail",
		logging.Field{Key: logging.FieldFile, Value: path},
		logging.Field{Key: logging.FieldCount, Value: len(records)})
	return nil
}

// ComputeQuality applies the grading rule: two points per quarantined cell
// capped at 30, five per uncertain task capped at 25, forty for any
// contamination.
func ComputeQuality(markedCells, uncertainTasks int, contaminated bool) QualityMetrics {
	score := 100

	markPenalty := markedCells * 2
	if markPenalty > 30 {
		markPenalty = 30
	}
	score -= markPenalty

	uncertainPenalty := uncertainTasks * 5
	if uncertainPenalty > 25 {
		uncertainPenalty = 25
	}
	score -= uncertainPenalty

	if contaminated {
		score -= 40
	}
	if score < 0 {
		score = 0
	}

	grade := "D"
	switch {
	case score >= 90:
		grade = "A"
	case score >= 80:
		grade = "B"
	case score >= 70:
		grade = "C"
	}

	return QualityMetrics{
		Score:          score,
		Grade:          grade,
		MarkedCells:    markedCells,
		UncertainTasks: uncertainTasks,
		Contaminated:   contaminated,
	}
}

// Recommendations derives follow-up advice from the run outcome.
func Recommendations(quality QualityMetrics, stats scheduler.CompletionStats) []string {
	var recs []string
	if quality.Contaminated {
		recs = append(recs, "Cross contamination detected: discard processed output and re-run from the source ledger.")
	}
	if quality.MarkedCells > 0 {
		recs = append(recs, fmt.Sprintf("Review the %d quarantined cells in the audit trail before publishing figures.", quality.MarkedCells))
	}
	if stats.Failed > 0 {
		recs = append(recs, fmt.Sprintf("%d analysis tasks failed permanently; inspect the task log and re-submit.", stats.Failed))
	}
	if stats.TimeoutReached {
		recs = append(recs, "Batch analysis timed out; raise pipeline.timeout_seconds or reduce batch volume.")
	}
	if stats.UncertaintyRate > 0.2 {
		recs = append(recs, "More than 20% of analysis tasks were uncertain; consider smaller batch sizes.")
	}
	if len(recs) == 0 {
		recs = append(recs, "No issues found; processed figures are safe to publish.")
	}
	return recs
}
