// Package config provides Viper-based hierarchical configuration management
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Config represents the complete application configuration
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Ledger struct {
		Year              string `mapstructure:"year" yaml:"year"`
		HeaderRow         int    `mapstructure:"header_row" yaml:"header_row"`
		CarryForwardRow   int    `mapstructure:"carry_forward_row" yaml:"carry_forward_row"`
		DataStartRow      int    `mapstructure:"data_start_row" yaml:"data_start_row"`
		DateColumn        string `mapstructure:"date_column" yaml:"date_column"`
		DescriptionColumn string `mapstructure:"description_column" yaml:"description_column"`
		DebitColumn       string `mapstructure:"debit_column" yaml:"debit_column"`
		CreditColumn      string `mapstructure:"credit_column" yaml:"credit_column"`
		BalanceColumn     string `mapstructure:"balance_column" yaml:"balance_column"`
		CarryForwardLabel string `mapstructure:"carry_forward_label" yaml:"carry_forward_label"`
		MonthTotalMarker  string `mapstructure:"month_total_marker" yaml:"month_total_marker"`
		// SkipSheetKeywords excludes summary and analysis sheets from the
		// account passes.
		SkipSheetKeywords []string `mapstructure:"skip_sheet_keywords" yaml:"skip_sheet_keywords"`
		// ClassificationFile optionally overrides the built-in account
		// code ranges.
		ClassificationFile string `mapstructure:"classification_file" yaml:"classification_file"`
	} `mapstructure:"ledger" yaml:"ledger"`

	Pipeline struct {
		Workers        int `mapstructure:"workers" yaml:"workers"`
		MaxRetries     int `mapstructure:"max_retries" yaml:"max_retries"`
		TimeoutSeconds int `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	} `mapstructure:"pipeline" yaml:"pipeline"`

	AI struct {
		Enabled        bool   `mapstructure:"enabled" yaml:"enabled"`
		Model          string `mapstructure:"model" yaml:"model"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
		APIKey         string `mapstructure:"api_key" yaml:"-"` // Never serialize API key
	} `mapstructure:"ai" yaml:"ai"`

	Output struct {
		BackupOriginal bool   `mapstructure:"backup_original" yaml:"backup_original"`
		ReportFile     string `mapstructure:"report_file" yaml:"report_file"`
		MarkingCSV     string `mapstructure:"marking_csv" yaml:"marking_csv"`
		SummarySheet   string `mapstructure:"summary_sheet" yaml:"summary_sheet"`
	} `mapstructure:"output" yaml:"output"`
}

// InitializeConfig initializes Viper configuration with hierarchical loading
func InitializeConfig() (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.ledger-audit")
	v.AddConfigPath(".ledger-audit")
	v.AddConfigPath(".")

	// 3. Environment variables
	v.SetEnvPrefix("LEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// 4. Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Log the error but don't fail - continue with defaults and env vars
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
		// Config file not found or invalid is OK, we'll use defaults and env vars
	}

	// 5. Handle special case for API key (always from env, not prefixed)
	if err := v.BindEnv("ai.api_key", "GEMINI_API_KEY"); err != nil {
		fmt.Printf("Warning: failed to bind GEMINI_API_KEY environment variable: %v\n", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 6. Validate configuration
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	// Ledger layout defaults
	v.SetDefault("ledger.year", "2025")
	v.SetDefault("ledger.header_row", 1)
	v.SetDefault("ledger.carry_forward_row", 5)
	v.SetDefault("ledger.data_start_row", 6)
	v.SetDefault("ledger.date_column", "A")
	v.SetDefault("ledger.description_column", "B")
	v.SetDefault("ledger.debit_column", "E")
	v.SetDefault("ledger.credit_column", "F")
	v.SetDefault("ledger.balance_column", "G")
	v.SetDefault("ledger.carry_forward_label", "prior-period carry-forward")
	v.SetDefault("ledger.month_total_marker", "MONTHLY TOTAL")
	v.SetDefault("ledger.skip_sheet_keywords", []string{"summary", "analysis", "audit", "report"})
	v.SetDefault("ledger.classification_file", "")

	// Pipeline defaults
	v.SetDefault("pipeline.workers", 3)
	v.SetDefault("pipeline.max_retries", 3)
	v.SetDefault("pipeline.timeout_seconds", 1800)

	// AI defaults
	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.model", "gemini-2.0-flash")
	v.SetDefault("ai.timeout_seconds", 30)

	// Output defaults
	v.SetDefault("output.backup_original", true)
	v.SetDefault("output.report_file", "audit-report.json")
	v.SetDefault("output.marking_csv", "marking-records.csv")
	v.SetDefault("output.summary_sheet", "Quarantine Audit")
}

// validateConfig validates the configuration values
func validateConfig(config *Config) error {
	// Validate log level
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	// Validate log format
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	// Validate ledger layout
	if config.Ledger.HeaderRow < 1 {
		return fmt.Errorf("ledger.header_row must be at least 1, got: %d", config.Ledger.HeaderRow)
	}
	if config.Ledger.DataStartRow <= config.Ledger.CarryForwardRow {
		return fmt.Errorf("ledger.data_start_row (%d) must come after ledger.carry_forward_row (%d)",
			config.Ledger.DataStartRow, config.Ledger.CarryForwardRow)
	}
	for _, col := range []string{
		config.Ledger.DateColumn,
		config.Ledger.DescriptionColumn,
		config.Ledger.DebitColumn,
		config.Ledger.CreditColumn,
		config.Ledger.BalanceColumn,
	} {
		if len(col) == 0 || len(col) > 2 {
			return fmt.Errorf("ledger column must be a letter, got: %q", col)
		}
	}

	// Validate pipeline settings
	if config.Pipeline.Workers < 1 || config.Pipeline.Workers > 64 {
		return fmt.Errorf("pipeline.workers must be between 1 and 64, got: %d", config.Pipeline.Workers)
	}
	if config.Pipeline.MaxRetries < 0 || config.Pipeline.MaxRetries > 10 {
		return fmt.Errorf("pipeline.max_retries must be between 0 and 10, got: %d", config.Pipeline.MaxRetries)
	}
	if config.Pipeline.TimeoutSeconds < 1 {
		return fmt.Errorf("pipeline.timeout_seconds must be positive, got: %d", config.Pipeline.TimeoutSeconds)
	}

	// Validate AI configuration
	if config.AI.Enabled {
		if config.AI.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY required when AI is enabled")
		}
		if config.AI.TimeoutSeconds < 1 || config.AI.TimeoutSeconds > 300 {
			return fmt.Errorf("ai.timeout_seconds must be between 1 and 300, got: %d", config.AI.TimeoutSeconds)
		}
	}

	return nil
}

// ConfigureLoggingFromConfig configures logging based on the Config struct
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	// Parse and set log level
	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Configure log format
	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
