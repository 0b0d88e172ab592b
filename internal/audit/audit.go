// Package audit writes the structured run log: what was fetched, what the
// plan contained, and every destructive step taken.
package audit

import (
	"io"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Event names. Every line carries one in the "event" field.
const (
	EventFetchCompleted    = "fetch.completed"
	EventPlanComputed      = "plan.computed"
	EventApplyRefused      = "apply.refused"
	EventApplyBatch        = "apply.batch"
	EventApplyCompleted    = "apply.completed"
	EventApplyFailed       = "apply.failed"
	EventVerifyWarning     = "verify.warning"
	EventVerifyUnparseable = "verify.unparseable"
	EventSnapshotCompleted = "snapshot.completed"
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

// Logger is a run-scoped structured logger.
type Logger struct {
	entry *logrus.Entry
}

// New logs JSON lines to w. With verbose set it switches to human-readable
// text and includes debug events.
func New(w io.Writer, verbose bool) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	if verbose {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(logrus.InfoLevel)
	}
	return FromLogrus(l)
}

// FromLogrus wraps an existing logrus logger.
func FromLogrus(l *logrus.Logger) *Logger {
	return &Logger{entry: logrus.NewEntry(l)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return FromLogrus(l)
}

// WithRun tags every subsequent line with run_id.
func (l *Logger) WithRun(runID string) *Logger {
	return l.With(Fields{"run_id": runID})
}

// With returns a logger that adds fields to every line.
func (l *Logger) With(fields Fields) *Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// Event records a normal step.
func (l *Logger) Event(event string, fields Fields) {
	l.entry.WithFields(fields).WithField("event", event).Info(event)
}

// Debug records detail only shown with --verbose.
func (l *Logger) Debug(event string, fields Fields) {
	l.entry.WithFields(fields).WithField("event", event).Debug(event)
}

// Warn records something an operator should look at.
func (l *Logger) Warn(event string, fields Fields) {
	l.entry.WithFields(fields).WithField("event", event).Warn(event)
}

// Error records a failed step.
func (l *Logger) Error(event string, err error, fields Fields) {
	l.entry.WithFields(fields).WithField("event", event).WithError(err).Error(event)
}

// NewRunID returns a time-ordered run identifier.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
