// Package storage persists drafts and completed submissions. Two backends
// are provided: SQLite for shared installations and a directory of JSON
// files guarded by file locks.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/harrison/dora/internal/models"
)

// timeNow is a package-level variable for testability.
var timeNow = time.Now

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
)

var (
	// ErrNotFound is returned when a draft or submission does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidID is returned for empty IDs or IDs that are not safe to
	// use as file names.
	ErrInvalidID = errors.New("invalid id")
)

// SubmissionRecord is a stored submission payload.
type SubmissionRecord struct {
	Payload    models.SubmissionPayload
	RecordedAt time.Time
}

// Store receives drafts from the session and supplies at most one back for
// resume. Completed submissions are recorded for audit.
type Store interface {
	SaveDraft(ctx context.Context, draft models.Draft) error
	LoadDraft(ctx context.Context, id string) (*models.Draft, error)
	// LatestDraft returns the most recently saved, not completed draft of
	// userName, or ErrNotFound.
	LatestDraft(ctx context.Context, userName string) (*models.Draft, error)
	// ListDrafts returns every draft, newest first.
	ListDrafts(ctx context.Context) ([]models.Draft, error)
	DeleteDraft(ctx context.Context, id string) error
	RecordSubmission(ctx context.Context, payload models.SubmissionPayload) error
	// ListSubmissions returns every recorded submission, newest first.
	ListSubmissions(ctx context.Context) ([]SubmissionRecord, error)
	Close() error
}

// Open returns the Store for backend rooted at path. For the SQLite backend
// path is the database file; for the file backend it is a directory.
func Open(backend, path string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendSQLite, "":
		return NewSQLiteStore(path)
	case BackendFile:
		return NewFileStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q (supported: %s, %s)", backend, BackendSQLite, BackendFile)
	}
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return nil
}
