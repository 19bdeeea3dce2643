// Package logging defines the structured logging contract of the audit
// pipeline. Every component receives its Logger at construction and logs
// through it; nothing in the module reaches for a global sink. LogrusAdapter
// is the production implementation, MockLogger the in-memory one for tests.
package logging

// Logger is the structured sink the pipeline components log through.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)

	// Fatal and Fatalf terminate the process; only the CLI entry points may
	// call them.
	Fatal(msg string, fields ...Field)
	Fatalf(format string, args ...interface{})

	// The With variants return a derived logger that carries the extra
	// context on every subsequent entry.
	WithError(err error) Logger
	WithField(key string, value interface{}) Logger
	WithFields(fields ...Field) Logger
}

// Field is one key-value pair of structured context. Keys come from the
// Field* constants in constants.go so that sheet, account, and task
// identifiers stay greppable across the whole log output.
type Field struct {
	Key   string
	Value interface{}
}
