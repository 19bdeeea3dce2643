// Package root contains the root command for the application
package root

import (
	"ledger-audit/internal/config"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// CommonFlags represents the flags that are common to multiple commands
type CommonFlags struct {
	Input  string
	Output string
}

var (
	// Log is the shared logger instance for commands
	Log = logrus.New()

	// Cmd is the root command
	Cmd = &cobra.Command{
		Use:   "ledger-audit",
		Short: "Validate accounting ledger workbooks and quarantine uncertain figures.",
		Long: `ledger-audit validates general ledger workbooks sheet by sheet, runs the
figures through an external analysis service in prioritized batches, and
reconciles the processed data against an independent extraction of the
source. Uncertain values are quarantined with a full audit trail; any sign
of cross contamination aborts the run before output is written.`,
		Run: func(cmd *cobra.Command, args []string) {
			Log.Info("Welcome to ledger-audit!")
			Log.Info("Use --help to see available commands")
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Initialize and configure logging
			config.LoadEnv()
			Log = config.ConfigureLogging()
		},
	}

	// SharedFlags holds common flags accessible to all commands
	SharedFlags = CommonFlags{}
)

// Init initializes the root command and all flags
func Init() {
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Input, "input", "i", "", "Input workbook directory")
	Cmd.PersistentFlags().StringVarP(&SharedFlags.Output, "output", "o", "", "Output directory for the processed workbook")
}
