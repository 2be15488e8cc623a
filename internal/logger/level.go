// Package logger provides logging implementations for questionnaire runs.
//
// Loggers record session milestones (drafts saved and restored) and every
// stage of a submission. Implementations are thread-safe and write to the
// console, to per-run files, or to both through MultiLogger.
package logger

import (
	"fmt"
	"strings"
	"time"

	"github.com/harrison/dora/internal/models"
	"github.com/harrison/dora/internal/submission"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Logger is the full logging surface used by the CLI: leveled messages,
// session milestones, and the submission events.
type Logger interface {
	submission.Logger

	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	LogDraftSaved(draft models.Draft)
	LogDraftRestored(draft models.Draft)
}

// normalizeLogLevel lowercases level and defaults unknown values to "info".
func normalizeLogLevel(level string) string {
	switch normalized := strings.ToLower(strings.TrimSpace(level)); normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	default:
		return "info"
	}
}

// ValidLevel reports whether level names a supported log level.
func ValidLevel(level string) bool {
	l := strings.ToLower(strings.TrimSpace(level))
	return normalizeLogLevel(l) == l
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func shouldLog(configured, message string) bool {
	return logLevelToInt(message) >= logLevelToInt(configured)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return timeNow().Format("15:04:05")
}

// formatDuration converts a time.Duration to a short human-readable string.
// Examples: "450ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	}
}

// describeScore renders one category score for log output.
func describeScore(label string, mean float64, pct float64, hasPct, hasData bool, answered, total int) string {
	switch {
	case !hasData:
		return fmt.Sprintf("%s: no data (0/%d)", label, total)
	case hasPct:
		return fmt.Sprintf("%s: %.2f (%.0f%%) [%d/%d]", label, mean, pct, answered, total)
	default:
		return fmt.Sprintf("%s: %.2f [%d/%d]", label, mean, answered, total)
	}
}

func scoreLines(result submission.Result) []string {
	lines := make([]string, 0, len(result.Scores))
	for _, s := range result.Scores {
		pct, ok := s.Percent()
		lines = append(lines, describeScore(s.Label, s.Mean, pct, ok, s.HasData, s.Answered, s.Total))
	}
	return lines
}
