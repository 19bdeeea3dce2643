package models

import "time"

// MarkingRecord is the immutable audit entry produced every time a cell is
// quarantined. CSV tags drive the audit trail export.
type MarkingRecord struct {
	Timestamp     time.Time `csv:"timestamp" json:"timestamp"`
	SheetName     string    `csv:"sheet" json:"sheet"`
	Cell          string    `csv:"cell" json:"cell"`
	AccountCode   string    `csv:"account_code" json:"account_code"`
	IssueType     string    `csv:"issue_type" json:"issue_type"`
	Detail        string    `csv:"detail" json:"detail"`
	OriginalValue string    `csv:"original_value" json:"original_value"`
}

// MarkingStats aggregates quarantine activity for reporting.
type MarkingStats struct {
	TotalMarked int            `json:"total_marked"`
	ByIssueType map[string]int `json:"by_issue_type"`
	ByAccount   map[string]int `json:"by_account"`
	BySheet     map[string]int `json:"by_sheet"`
}

// NewMarkingStats returns an empty stats accumulator.
func NewMarkingStats() MarkingStats {
	return MarkingStats{
		ByIssueType: make(map[string]int),
		ByAccount:   make(map[string]int),
		BySheet:     make(map[string]int),
	}
}
