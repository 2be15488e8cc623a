package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/submission"
	"github.com/mattn/go-isatty"
)

// ConsoleLogger writes "[HH:MM:SS] [LEVEL] message" lines to a writer.
// Color output is enabled automatically when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to writer. A nil
// writer discards everything. logLevel is one of trace, debug, info, warn,
// error (case-insensitive); anything else means info.
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is a TTY that should receive color. NO_COLOR
// is honoured through color.NoColor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

func (cl *ConsoleLogger) logWithLevel(level, message string) {
	if cl.writer == nil || !shouldLog(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	if cl.colorOutput {
		fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, colorLevel(level), message)
		return
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", ts, level, message)
}

func colorLevel(level string) string {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		return color.New(color.FgCyan).Sprint(level)
	case "INFO":
		return color.New(color.FgBlue).Sprint(level)
	case "WARN":
		return color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		return color.New(color.FgRed).Sprint(level)
	default:
		return level
	}
}

// paint applies c when color output is on.
func (cl *ConsoleLogger) paint(c color.Attribute, s string) string {
	if !cl.colorOutput {
		return s
	}
	return color.New(c).Sprint(s)
}

// LogDraftSaved logs a saved draft at INFO level.
func (cl *ConsoleLogger) LogDraftSaved(d models.Draft) {
	cl.LogInfo(fmt.Sprintf("Draft %s saved at question %d (%d answers, %d observations)",
		d.ID, d.Position+1, len(d.Answers), len(d.Observations)))
}

// LogDraftRestored logs a resumed draft at INFO level.
func (cl *ConsoleLogger) LogDraftRestored(d models.Draft) {
	cl.LogInfo(fmt.Sprintf("Resumed draft %s from %s at question %d",
		d.ID, d.SavedAt, d.Position+1))
}

// LogSubmissionStart logs the assembled payload summary at INFO level.
func (cl *ConsoleLogger) LogSubmissionStart(p models.SubmissionPayload) {
	cl.LogInfo(fmt.Sprintf("Submitting %s for %s (%s / %s): %d answers, %d observations",
		p.ID, p.Identity.UserName, p.Identity.ProviderName, p.Identity.FinancialEntityName,
		len(p.Answers), len(p.Observations)))
}

// LogChartUnavailable logs a missing chart at WARN level.
func (cl *ConsoleLogger) LogChartUnavailable(err error) {
	cl.LogWarn(fmt.Sprintf("Chart unavailable, report continues without it: %v", err))
}

// LogDeliveryFailed logs a failed report delivery at WARN level.
func (cl *ConsoleLogger) LogDeliveryFailed(err error) {
	cl.LogWarn(fmt.Sprintf("Report not delivered: %v", err))
}

// LogSubmissionComplete logs the outcome and per-category scores.
func (cl *ConsoleLogger) LogSubmissionComplete(r submission.Result) {
	status := cl.paint(color.FgGreen, "report delivered")
	if !r.Delivered {
		status = cl.paint(color.FgYellow, "report NOT delivered")
	}
	cl.LogInfo(fmt.Sprintf("Submission %s completed in %s, %s", r.Payload.ID, formatDuration(r.Duration), status))
	for _, line := range scoreLines(r) {
		cl.LogInfo("  " + line)
	}
}

// LogSubmissionFailed logs an assembly failure at ERROR level.
func (cl *ConsoleLogger) LogSubmissionFailed(err error) {
	cl.LogError(fmt.Sprintf("Submission failed, you can retry: %v", err))
}
