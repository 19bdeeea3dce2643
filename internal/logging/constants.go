package logging

// Standardized field names for structured logging.
// These constants ensure consistency across the application's log output,
// making logs easier to parse, filter, and analyze.
const (
	FieldFile      = "file_path"
	FieldSheet     = "sheet"
	FieldCell      = "cell"
	FieldAccount   = "account_code"
	FieldAccountTy = "account_type"
	FieldMonth     = "month"
	FieldIssue     = "issue_type"
	FieldTaskID    = "task_id"
	FieldBatchID   = "batch_id"
	FieldPriority  = "priority"
	FieldPhase     = "phase"
	FieldReason    = "reason"
	FieldOperation = "operation"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldCount     = "count"
)
