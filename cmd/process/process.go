// Package process implements the full three-phase processing command.
package process

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"ledger-audit/cmd/root"
	"ledger-audit/internal/auditerror"
	"ledger-audit/internal/config"
	"ledger-audit/internal/container"
	"ledger-audit/internal/validation"
)

// Cmd represents the process command
var Cmd = &cobra.Command{
	Use:   "process",
	Short: "Run the full validation, analysis and reconciliation pipeline",
	Long: `Run all three phases against a workbook: basic validation of every
account sheet, batched external analysis with quarantine of uncertain
results, and reconciliation against an independent extraction. The processed
workbook is only written when reconciliation is clean.`,
	Run: processFunc,
}

func processFunc(cmd *cobra.Command, args []string) {
	input := root.SharedFlags.Input
	output := root.SharedFlags.Output
	if input == "" {
		root.Log.Fatal("--input workbook directory is required")
	}
	if output == "" {
		root.Log.Fatal("--output directory is required")
	}
	if err := validation.IsValidWorkbookDir(input); err != nil {
		root.Log.Fatalf("Invalid input: %v", err)
	}

	cfg, err := config.InitializeConfig()
	if err != nil {
		root.Log.Fatalf("Failed to initialize configuration: %v", err)
	}

	ctx := context.Background()
	c, err := container.NewContainer(ctx, cfg)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.Warnf("Cleanup failed: %v", err)
		}
	}()

	rep, err := c.GetOrchestrator().Run(ctx, input, output)
	if err != nil {
		var contamination *auditerror.ContaminationError
		if errors.As(err, &contamination) {
			root.Log.Errorf("Run aborted: %v", contamination)
			root.Log.Error("Processed output was NOT written; review the audit report")
			if err := c.Close(); err != nil {
				root.Log.Warnf("Cleanup failed: %v", err)
			}
			os.Exit(1)
		}
		root.Log.Fatalf("Processing failed: %v", err)
	}

	root.Log.Infof("Processing completed: quality %d (%s), %d cells quarantined",
		rep.Quality.Score, rep.Quality.Grade, rep.Quality.MarkedCells)
}
