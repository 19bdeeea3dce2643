package logging

import (
	"github.com/sirupsen/logrus"
)

// LogrusAdapter backs the Logger interface with logrus. Derived loggers share
// one underlying logrus.Logger and differ only in their entry context, so a
// WithField chain is cheap.
type LogrusAdapter struct {
	backend *logrus.Logger
	entry   *logrus.Entry
}

// NewLogrusAdapter builds an adapter from the configured log level ("debug",
// "info", "warn", "error") and format ("text" or "json"). An unparseable
// level falls back to info.
func NewLogrusAdapter(level, format string) Logger {
	backend := logrus.New()

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		backend.Warnf("Unknown log level %q, using info", level)
		parsed = logrus.InfoLevel
	}
	backend.SetLevel(parsed)

	if format == "json" {
		backend.SetFormatter(&logrus.JSONFormatter{})
	} else {
		backend.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return &LogrusAdapter{backend: backend, entry: logrus.NewEntry(backend)}
}

// NewLogrusAdapterFromLogger wraps an already configured logrus.Logger, as
// the CLI does with its bootstrap logger. Nil gets a fresh default logger.
func NewLogrusAdapterFromLogger(backend *logrus.Logger) Logger {
	if backend == nil {
		backend = logrus.New()
	}
	return &LogrusAdapter{backend: backend, entry: logrus.NewEntry(backend)}
}

func (l *LogrusAdapter) Debug(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Debug(msg)
}

func (l *LogrusAdapter) Info(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Info(msg)
}

func (l *LogrusAdapter) Warn(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Warn(msg)
}

func (l *LogrusAdapter) Error(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Error(msg)
}

func (l *LogrusAdapter) Fatal(msg string, fields ...Field) {
	l.entry.WithFields(toLogrusFields(fields)).Fatal(msg)
}

func (l *LogrusAdapter) Fatalf(format string, args ...interface{}) {
	l.entry.Fatalf(format, args...)
}

func (l *LogrusAdapter) WithError(err error) Logger {
	return &LogrusAdapter{backend: l.backend, entry: l.entry.WithError(err)}
}

func (l *LogrusAdapter) WithField(key string, value interface{}) Logger {
	return &LogrusAdapter{backend: l.backend, entry: l.entry.WithField(key, value)}
}

func (l *LogrusAdapter) WithFields(fields ...Field) Logger {
	return &LogrusAdapter{backend: l.backend, entry: l.entry.WithFields(toLogrusFields(fields))}
}

// toLogrusFields flattens Field pairs into the map logrus expects.
func toLogrusFields(fields []Field) logrus.Fields {
	out := make(logrus.Fields, len(fields))
	for _, f := range fields {
		out[f.Key] = f.Value
	}
	return out
}
