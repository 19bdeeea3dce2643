package logging

import (
	"bytes"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedAdapter(t *testing.T, level logrus.Level) (Logger, *bytes.Buffer) {
	t.Helper()
	backend := logrus.New()
	var buf bytes.Buffer
	backend.SetOutput(&buf)
	backend.SetLevel(level)
	backend.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return NewLogrusAdapterFromLogger(backend), &buf
}

func TestNewLogrusAdapter(t *testing.T) {
	tests := []struct {
		name        string
		level       string
		format      string
		expectLevel logrus.Level
	}{
		{name: "debug text", level: "debug", format: "text", expectLevel: logrus.DebugLevel},
		{name: "info json", level: "info", format: "json", expectLevel: logrus.InfoLevel},
		{name: "warn text", level: "warn", format: "text", expectLevel: logrus.WarnLevel},
		{name: "error json", level: "error", format: "json", expectLevel: logrus.ErrorLevel},
		{name: "unknown level falls back to info", level: "chatty", format: "text", expectLevel: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogrusAdapter(tt.level, tt.format)

			adapter, ok := logger.(*LogrusAdapter)
			require.True(t, ok)
			assert.Equal(t, tt.expectLevel, adapter.backend.Level)

			if tt.format == "json" {
				assert.IsType(t, &logrus.JSONFormatter{}, adapter.backend.Formatter)
			} else {
				assert.IsType(t, &logrus.TextFormatter{}, adapter.backend.Formatter)
			}
		})
	}
}

func TestNewLogrusAdapterFromLogger(t *testing.T) {
	t.Run("wraps the given backend", func(t *testing.T) {
		backend := logrus.New()
		backend.SetLevel(logrus.DebugLevel)

		adapter, ok := NewLogrusAdapterFromLogger(backend).(*LogrusAdapter)
		require.True(t, ok)
		assert.Same(t, backend, adapter.backend)
	})

	t.Run("nil backend gets a default logger", func(t *testing.T) {
		adapter, ok := NewLogrusAdapterFromLogger(nil).(*LogrusAdapter)
		require.True(t, ok)
		assert.NotNil(t, adapter.backend)
	})
}

func TestLogrusAdapter_LevelsAndFields(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(Logger, string, ...Field)
		message string
		field   Field
	}{
		{
			name:    "Debug",
			logFunc: func(l Logger, msg string, fields ...Field) { l.Debug(msg, fields...) },
			message: "Extracted account figures",
			field:   Field{Key: FieldAccount, Value: "10010"},
		},
		{
			name:    "Info",
			logFunc: func(l Logger, msg string, fields ...Field) { l.Info(msg, fields...) },
			message: "Validated account sheet",
			field:   Field{Key: FieldSheet, Value: "Cash (10010)"},
		},
		{
			name:    "Warn",
			logFunc: func(l Logger, msg string, fields ...Field) { l.Warn(msg, fields...) },
			message: "Carry-forward label missing or unexpected",
			field:   Field{Key: FieldCell, Value: "B5"},
		},
		{
			name:    "Error",
			logFunc: func(l Logger, msg string, fields ...Field) { l.Error(msg, fields...) },
			message: "Could not submit analysis task",
			field:   Field{Key: FieldTaskID, Value: "analyze_patterns-10010-001"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferedAdapter(t, logrus.DebugLevel)

			tt.logFunc(logger, tt.message, tt.field)

			output := buf.String()
			assert.Contains(t, output, tt.message)
			assert.Contains(t, output, tt.field.Key)
		})
	}
}

func TestLogrusAdapter_WithError(t *testing.T) {
	logger, buf := newBufferedAdapter(t, logrus.ErrorLevel)

	logger.WithError(errors.New("sheet not found")).Error("Could not quarantine month anchor")

	output := buf.String()
	assert.Contains(t, output, "Could not quarantine month anchor")
	assert.Contains(t, output, "sheet not found")
}

func TestLogrusAdapter_DerivedContext(t *testing.T) {
	logger, buf := newBufferedAdapter(t, logrus.InfoLevel)

	scoped := logger.
		WithField("component", "BatchScheduler").
		WithFields(
			Field{Key: FieldTaskID, Value: "analyze_patterns-13500-002"},
			Field{Key: FieldPriority, Value: "HIGH"},
		)
	scoped.Info("Task completed")
	// The parent logger does not inherit the derived context
	logger.Info("Scheduler drained")

	output := buf.String()
	assert.Contains(t, output, "Task completed")
	assert.Contains(t, output, "BatchScheduler")
	assert.Contains(t, output, "analyze_patterns-13500-002")
	assert.Contains(t, output, "HIGH")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 2)
	assert.NotContains(t, string(lines[1]), "BatchScheduler")
}

func TestToLogrusFields(t *testing.T) {
	fields := []Field{
		{Key: FieldSheet, Value: "Cash (10010)"},
		{Key: FieldCount, Value: 12},
		{Key: FieldStatus, Value: true},
	}

	converted := toLogrusFields(fields)

	require.Len(t, converted, 3)
	assert.Equal(t, "Cash (10010)", converted[FieldSheet])
	assert.Equal(t, 12, converted[FieldCount])
	assert.Equal(t, true, converted[FieldStatus])

	assert.Empty(t, toLogrusFields(nil))
}

func TestLogrusAdapter_ImplementsInterface(t *testing.T) {
	var _ Logger = (*LogrusAdapter)(nil)
	var _ Logger = (*MockLogger)(nil)
}
