package logger

import (
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/submission"
)

// MultiLogger fans every call out to each wrapped logger in order.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger wraps loggers, skipping nil entries.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) LogTrace(msg string) { m.each(func(l Logger) { l.LogTrace(msg) }) }
func (m *MultiLogger) LogDebug(msg string) { m.each(func(l Logger) { l.LogDebug(msg) }) }
func (m *MultiLogger) LogInfo(msg string)  { m.each(func(l Logger) { l.LogInfo(msg) }) }
func (m *MultiLogger) LogWarn(msg string)  { m.each(func(l Logger) { l.LogWarn(msg) }) }
func (m *MultiLogger) LogError(msg string) { m.each(func(l Logger) { l.LogError(msg) }) }

func (m *MultiLogger) LogDraftSaved(d models.Draft) {
	m.each(func(l Logger) { l.LogDraftSaved(d) })
}

func (m *MultiLogger) LogDraftRestored(d models.Draft) {
	m.each(func(l Logger) { l.LogDraftRestored(d) })
}

func (m *MultiLogger) LogSubmissionStart(p models.SubmissionPayload) {
	m.each(func(l Logger) { l.LogSubmissionStart(p) })
}

func (m *MultiLogger) LogChartUnavailable(err error) {
	m.each(func(l Logger) { l.LogChartUnavailable(err) })
}

func (m *MultiLogger) LogDeliveryFailed(err error) {
	m.each(func(l Logger) { l.LogDeliveryFailed(err) })
}

func (m *MultiLogger) LogSubmissionComplete(r submission.Result) {
	m.each(func(l Logger) { l.LogSubmissionComplete(r) })
}

func (m *MultiLogger) LogSubmissionFailed(err error) {
	m.each(func(l Logger) { l.LogSubmissionFailed(err) })
}

// NoOpLogger is a Logger implementation that discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (NoOpLogger) LogTrace(string)                             {}
func (NoOpLogger) LogDebug(string)                             {}
func (NoOpLogger) LogInfo(string)                              {}
func (NoOpLogger) LogWarn(string)                              {}
func (NoOpLogger) LogError(string)                             {}
func (NoOpLogger) LogDraftSaved(models.Draft)                  {}
func (NoOpLogger) LogDraftRestored(models.Draft)               {}
func (NoOpLogger) LogSubmissionStart(models.SubmissionPayload) {}
func (NoOpLogger) LogChartUnavailable(error)                   {}
func (NoOpLogger) LogDeliveryFailed(error)                     {}
func (NoOpLogger) LogSubmissionComplete(submission.Result)     {}
func (NoOpLogger) LogSubmissionFailed(error)                   {}
