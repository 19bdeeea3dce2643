// Package container provides dependency injection for the ledger-audit
// application. It centralizes the creation and wiring of all application
// dependencies, making them explicit and testable.
package container

import (
	"context"
	"fmt"
	"time"

	"ledger-audit/internal/analysis"
	"ledger-audit/internal/classifier"
	"ledger-audit/internal/config"
	"ledger-audit/internal/extractor"
	"ledger-audit/internal/logging"
	"ledger-audit/internal/marker"
	"ledger-audit/internal/pipeline"
	"ledger-audit/internal/report"
	"ledger-audit/internal/scheduler"
	"ledger-audit/internal/validator"
)

// Container holds all application dependencies and provides methods to
// access them. It is immutable after creation: fields are private and only
// reachable through getters, so nothing rewires a dependency mid-run.
type Container struct {
	logger       logging.Logger
	config       *config.Config
	classifier   *classifier.AccountClassifier
	extractor    *extractor.LedgerExtractor
	marker       *marker.UncertaintyMarker
	gateway      analysis.AnalysisGateway
	scheduler    *scheduler.BatchScheduler
	orchestrator *pipeline.Orchestrator

	gemini *analysis.GeminiGateway
}

// NewContainer creates and wires all application dependencies. The analysis
// gateway is the Gemini implementation when AI is enabled with an API key,
// otherwise the deterministic offline stub.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	// Create logger first as it's needed by other components
	logger := logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)

	cls := classifier.New(logger)
	if cfg.Ledger.ClassificationFile != "" {
		if err := cls.LoadOverrides(cfg.Ledger.ClassificationFile); err != nil {
			return nil, fmt.Errorf("loading classification overrides: %w", err)
		}
	}

	ex := extractor.New(layoutFromConfig(cfg), logger)
	mk := marker.New(logger)

	var gateway analysis.AnalysisGateway
	var gemini *analysis.GeminiGateway
	if cfg.AI.Enabled && cfg.AI.APIKey != "" {
		var err error
		gemini, err = analysis.NewGeminiGateway(ctx, cfg.AI.APIKey, cfg.AI.Model,
			time.Duration(cfg.AI.TimeoutSeconds)*time.Second, logger)
		if err != nil {
			return nil, fmt.Errorf("creating analysis gateway: %w", err)
		}
		gateway = gemini
		logger.Info("External analysis enabled",
			logging.Field{Key: "model", Value: cfg.AI.Model})
	} else {
		gateway = analysis.NewFakeGateway(logger)
		logger.Info("External analysis disabled, using offline stub")
	}

	sched := scheduler.New(gateway, scheduler.Options{
		Workers:    cfg.Pipeline.Workers,
		MaxRetries: cfg.Pipeline.MaxRetries,
	}, logger)

	val := validator.New(cls, ex, mk, logger)
	det := validator.NewContaminationDetector(cls, logger)
	reports := report.NewGenerator(logger)

	orch := pipeline.New(cfg, cls, ex, val, det, mk, sched, reports, logger)

	logger.Info("Container initialized successfully",
		logging.Field{Key: "ai_enabled", Value: cfg.AI.Enabled},
		logging.Field{Key: "workers", Value: cfg.Pipeline.Workers})

	return &Container{
		logger:       logger,
		config:       cfg,
		classifier:   cls,
		extractor:    ex,
		marker:       mk,
		gateway:      gateway,
		scheduler:    sched,
		orchestrator: orch,
		gemini:       gemini,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetClassifier returns the account classifier.
func (c *Container) GetClassifier() *classifier.AccountClassifier {
	return c.classifier
}

// GetExtractor returns the ledger extractor.
func (c *Container) GetExtractor() *extractor.LedgerExtractor {
	return c.extractor
}

// GetMarker returns the uncertainty marker.
func (c *Container) GetMarker() *marker.UncertaintyMarker {
	return c.marker
}

// GetGateway returns the analysis gateway in use.
func (c *Container) GetGateway() analysis.AnalysisGateway {
	return c.gateway
}

// GetScheduler returns the batch scheduler.
func (c *Container) GetScheduler() *scheduler.BatchScheduler {
	return c.scheduler
}

// GetOrchestrator returns the pipeline orchestrator.
func (c *Container) GetOrchestrator() *pipeline.Orchestrator {
	return c.orchestrator
}

// Close performs cleanup of container resources.
func (c *Container) Close() error {
	if c.gemini != nil {
		if err := c.gemini.Close(); err != nil {
			c.logger.WithError(err).Warn("Failed to close analysis gateway")
		}
	}
	c.logger.Info("Container closed")
	return nil
}

// layoutFromConfig maps the ledger section of the configuration onto the
// extractor layout, keeping the built-in defaults for anything unset.
func layoutFromConfig(cfg *config.Config) extractor.Layout {
	layout := extractor.DefaultLayout()
	if cfg.Ledger.HeaderRow > 0 {
		layout.HeaderRow = cfg.Ledger.HeaderRow
	}
	if cfg.Ledger.CarryForwardRow > 0 {
		layout.CarryForwardRow = cfg.Ledger.CarryForwardRow
	}
	if cfg.Ledger.DataStartRow > 0 {
		layout.DataStartRow = cfg.Ledger.DataStartRow
	}
	if cfg.Ledger.DateColumn != "" {
		layout.DateColumn = cfg.Ledger.DateColumn
	}
	if cfg.Ledger.DescriptionColumn != "" {
		layout.DescriptionColumn = cfg.Ledger.DescriptionColumn
	}
	if cfg.Ledger.DebitColumn != "" {
		layout.DebitColumn = cfg.Ledger.DebitColumn
	}
	if cfg.Ledger.CreditColumn != "" {
		layout.CreditColumn = cfg.Ledger.CreditColumn
	}
	if cfg.Ledger.BalanceColumn != "" {
		layout.BalanceColumn = cfg.Ledger.BalanceColumn
	}
	if cfg.Ledger.CarryForwardLabel != "" {
		layout.CarryForwardLabel = cfg.Ledger.CarryForwardLabel
	}
	if cfg.Ledger.MonthTotalMarker != "" {
		layout.MonthTotalMarker = cfg.Ledger.MonthTotalMarker
	}
	return layout
}
