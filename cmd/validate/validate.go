// Package validate implements the phase-1-only validation command.
package validate

import (
	"context"

	"github.com/spf13/cobra"

	"ledger-audit/cmd/root"
	"ledger-audit/internal/config"
	"ledger-audit/internal/container"
	"ledger-audit/internal/validation"
)

// Cmd represents the validate command
var Cmd = &cobra.Command{
	Use:   "validate",
	Short: "Run basic validation only",
	Long: `Validate every account sheet of a workbook: account code extraction,
classification, structure, carry-forward and monthly figures. No external
analysis runs and no output workbook is written.`,
	Run: validateFunc,
}

func validateFunc(cmd *cobra.Command, args []string) {
	input := root.SharedFlags.Input
	if input == "" {
		root.Log.Fatal("--input workbook directory is required")
	}
	if err := validation.IsValidWorkbookDir(input); err != nil {
		root.Log.Fatalf("Invalid input: %v", err)
	}

	cfg, err := config.InitializeConfig()
	if err != nil {
		root.Log.Fatalf("Failed to initialize configuration: %v", err)
	}

	c, err := container.NewContainer(context.Background(), cfg)
	if err != nil {
		root.Log.Fatalf("Failed to initialize application: %v", err)
	}
	defer func() {
		if err := c.Close(); err != nil {
			root.Log.Warnf("Cleanup failed: %v", err)
		}
	}()

	rep, err := c.GetOrchestrator().RunValidateOnly(input)
	if err != nil {
		root.Log.Fatalf("Validation failed: %v", err)
	}

	passed := 0
	for _, account := range rep.Accounts {
		if account.ValidationPassed {
			passed++
			continue
		}
		root.Log.Warnf("Sheet %s: %d issues", account.SheetName, len(account.Issues))
		for _, issue := range account.Issues {
			root.Log.Warnf("  - %s", issue)
		}
	}
	root.Log.Infof("Validated %d account sheets, %d passed", len(rep.Accounts), passed)
}
