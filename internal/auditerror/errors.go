// Package auditerror defines the typed errors used across the validation
// pipeline. Callers are expected to match on them with errors.As.
package auditerror

import (
	"fmt"
	"strings"
)

// ExtractionError represents a failure to extract a value from a ledger sheet.
type ExtractionError struct {
	Sheet string
	Cell  string
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s: failed to extract %s at %s: %v",
		e.Sheet, e.Field, e.Cell, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// SheetValidationError represents a structural validation failure on a sheet.
type SheetValidationError struct {
	Sheet  string
	Reason string
}

func (e *SheetValidationError) Error() string {
	return fmt.Sprintf("validation failed for sheet %s: %s", e.Sheet, e.Reason)
}

// TaskError represents a batch task that failed after exhausting its retries.
type TaskError struct {
	TaskID   string
	TaskType string
	Attempts int
	Err      error
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("task %s (%s) failed after %d attempts: %v",
		e.TaskID, e.TaskType, e.Attempts, e.Err)
}

func (e *TaskError) Unwrap() error {
	return e.Err
}

// MarkingError represents a failure to quarantine a cell.
type MarkingError struct {
	Sheet string
	Cell  string
	Msg   string
}

func (e *MarkingError) Error() string {
	return fmt.Sprintf("marking failed at %s!%s: %s", e.Sheet, e.Cell, e.Msg)
}

// ContaminationError is returned when reconciliation finds evidence that
// processed data diverged from the source ledger. It is always fatal: the
// pipeline must not write its output artifact once one is raised.
type ContaminationError struct {
	Alerts []ContaminationSummary
}

// ContaminationSummary is the alert projection carried inside a
// ContaminationError, enough for an operator to locate the damage.
type ContaminationSummary struct {
	Kind    string
	Account string
	Year    string
	Month   string
	Detail  string
}

func (e *ContaminationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cross contamination detected (%d alerts)", len(e.Alerts))
	for i, a := range e.Alerts {
		if i >= 5 {
			fmt.Fprintf(&b, "; and %d more", len(e.Alerts)-i)
			break
		}
		fmt.Fprintf(&b, "; [%s] account=%s %s-%s: %s",
			a.Kind, a.Account, a.Year, a.Month, a.Detail)
	}
	return b.String()
}
