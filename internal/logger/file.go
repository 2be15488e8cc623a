package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/submission"
)

// FileLogger writes a timestamped run log under logDir, keeps a latest.log
// symlink pointing at it, and stores one detail file per completed
// submission in logDir/submissions.
type FileLogger struct {
	logDir         string
	runLog         *os.File
	runFile        string
	submissionsDir string
	logLevel       string
	mu             sync.Mutex
}

// NewFileLogger creates a FileLogger writing to logDir at the given level.
func NewFileLogger(logDir, logLevel string) (*FileLogger, error) {
	submissionsDir := filepath.Join(logDir, "submissions")
	if err := os.MkdirAll(submissionsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timeNow().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:         logDir,
		runLog:         file,
		runFile:        runFile,
		submissionsDir: submissionsDir,
		logLevel:       normalizeLogLevel(logLevel),
	}
	fl.write(fmt.Sprintf("=== DORA Assessment Run Log ===\nStarted at: %s\n\n", timeNow().Format(models.TimestampLayout)))
	return fl, nil
}

// RunFile returns the path of this run's log file.
func (fl *FileLogger) RunFile() string { return fl.runFile }

// LogTrace logs a trace-level message.
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level, message string) {
	if !shouldLog(fl.logLevel, strings.ToLower(level)) {
		return
	}
	fl.write(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogDraftSaved records a saved draft.
func (fl *FileLogger) LogDraftSaved(d models.Draft) {
	fl.LogInfo(fmt.Sprintf("draft saved: id=%s user=%q position=%d answers=%d observations=%d saved_at=%s",
		d.ID, d.Identity.UserName, d.Position, len(d.Answers), len(d.Observations), d.SavedAt))
}

// LogDraftRestored records a resumed draft.
func (fl *FileLogger) LogDraftRestored(d models.Draft) {
	fl.LogInfo(fmt.Sprintf("draft restored: id=%s user=%q position=%d saved_at=%s",
		d.ID, d.Identity.UserName, d.Position, d.SavedAt))
}

// LogSubmissionStart records the start of a submission.
func (fl *FileLogger) LogSubmissionStart(p models.SubmissionPayload) {
	fl.LogInfo(fmt.Sprintf("submission started: id=%s user=%q provider=%q entity=%q answers=%d observations=%d",
		p.ID, p.Identity.UserName, p.Identity.ProviderName, p.Identity.FinancialEntityName,
		len(p.Answers), len(p.Observations)))
}

// LogChartUnavailable records a missing chart.
func (fl *FileLogger) LogChartUnavailable(err error) {
	fl.LogWarn(fmt.Sprintf("chart unavailable: %v", err))
}

// LogDeliveryFailed records a failed delivery.
func (fl *FileLogger) LogDeliveryFailed(err error) {
	fl.LogWarn(fmt.Sprintf("delivery failed: %v", err))
}

// LogSubmissionComplete writes a summary to the run log and the full payload
// with scores to submissions/<id>.log.
func (fl *FileLogger) LogSubmissionComplete(r submission.Result) {
	fl.LogInfo(fmt.Sprintf("submission completed: id=%s delivered=%t chart=%t duration=%s",
		r.Payload.ID, r.Delivered, r.Chart != nil, formatDuration(r.Duration)))

	if err := fl.writeSubmissionDetail(r); err != nil {
		fl.LogError(fmt.Sprintf("failed to write submission detail: %v", err))
	}
}

// LogSubmissionFailed records an assembly failure.
func (fl *FileLogger) LogSubmissionFailed(err error) {
	fl.LogError(fmt.Sprintf("submission failed: %v", err))
}

func (fl *FileLogger) writeSubmissionDetail(r submission.Result) error {
	payload, err := json.MarshalIndent(r.Payload, "", "  ")
	if err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Submission %s ===\n", r.Payload.ID)
	fmt.Fprintf(&b, "Submitted at: %s\n", r.Payload.SubmittedAt)
	fmt.Fprintf(&b, "Delivered: %t\n", r.Delivered)
	if r.DeliveryErr != nil {
		fmt.Fprintf(&b, "Delivery error: %v\n", r.DeliveryErr)
	}
	if r.ChartErr != nil {
		fmt.Fprintf(&b, "Chart error: %v\n", r.ChartErr)
	}
	b.WriteString("\nScores:\n")
	for _, line := range scoreLines(r) {
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\nPayload:\n")
	b.Write(payload)
	b.WriteString("\n")

	fl.mu.Lock()
	defer fl.mu.Unlock()
	path := filepath.Join(fl.submissionsDir, r.Payload.ID+".log")
	return os.WriteFile(path, []byte(b.String()), 0644)
}

// Close closes the run log.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return nil
	}
	fmt.Fprintf(fl.runLog, "\nFinished at: %s\n", timeNow().Format(models.TimestampLayout))
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) write(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog != nil {
		fl.runLog.WriteString(message)
	}
}
