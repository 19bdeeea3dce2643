package models

import "time"

// Priority orders batch tasks in the scheduler queue. Lower values run first.
type Priority int

const (
	PriorityCritical Priority = 1
	PriorityHigh     Priority = 2
	PriorityNormal   Priority = 3
	PriorityLow      Priority = 4
)

// String returns the priority label.
func (p Priority) String() string {
	switch p {
	case PriorityCritical:
		return "CRITICAL"
	case PriorityHigh:
		return "HIGH"
	case PriorityNormal:
		return "NORMAL"
	case PriorityLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// Escalate returns the next higher priority, capped at CRITICAL.
func (p Priority) Escalate() Priority {
	if p <= PriorityCritical {
		return PriorityCritical
	}
	return p - 1
}

// TaskStatus is the lifecycle state of a batch task.
type TaskStatus string

const (
	StatusPending    TaskStatus = "PENDING"
	StatusProcessing TaskStatus = "PROCESSING"
	StatusCompleted  TaskStatus = "COMPLETED"
	StatusFailed     TaskStatus = "FAILED"
	StatusUncertain  TaskStatus = "UNCERTAIN"
)

// BatchTask is one unit of analysis work submitted to the scheduler.
type BatchTask struct {
	ID             string
	Type           string
	AccountCode    AccountCode
	Classification Classification
	Payload        map[string]any
	Priority       Priority
	Status         TaskStatus
	RetryCount     int
	MaxRetries     int
	CreatedAt      time.Time
}

// BatchResult records the outcome of one task execution.
type BatchResult struct {
	TaskID         string
	Status         TaskStatus
	Result         map[string]any
	Confidence     string
	UncertainItems []string
	ErrorMessage   string
	ProcessingTime time.Duration
	CompletedAt    time.Time
}
