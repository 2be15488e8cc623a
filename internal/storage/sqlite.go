package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/dora/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is a Store backed by a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// applies pending migrations. ":memory:" opens a private in-memory database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Each new connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA busy_timeout=5000", // must be first
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, dbPath: dbPath}
	if err := s.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return s, nil
}

// execWithRetry executes a statement, backing off exponentially while the
// database is locked by another process.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path.
func (s *SQLiteStore) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveDraft inserts the draft or replaces the stored draft with the same ID.
func (s *SQLiteStore) SaveDraft(ctx context.Context, d models.Draft) error {
	if err := checkID(d.ID); err != nil {
		return err
	}
	answers, err := json.Marshal(models.CopyAnswers(d.Answers))
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	observations, err := json.Marshal(models.CopyObservations(d.Observations))
	if err != nil {
		return fmt.Errorf("encode observations: %w", err)
	}

	query := `
INSERT OR REPLACE INTO drafts
    (id, user_name, provider_name, financial_entity_name, answers, observations, position, saved_at, completed)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		d.ID, d.Identity.UserName, d.Identity.ProviderName, d.Identity.FinancialEntityName,
		string(answers), string(observations), d.Position, d.SavedAt, d.Completed)
	if err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

const draftColumns = `id, user_name, provider_name, financial_entity_name, answers, observations, position, saved_at, completed`

// LoadDraft returns the draft with the given ID.
func (s *SQLiteStore) LoadDraft(ctx context.Context, id string) (*models.Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, id)
	d, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	return d, nil
}

// LatestDraft returns the newest resumable draft for userName. saved_at has
// one-second resolution; INSERT OR REPLACE assigns a fresh rowid on every
// save, so rowid orders drafts saved within the same second.
func (s *SQLiteStore) LatestDraft(ctx context.Context, userName string) (*models.Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+draftColumns+` FROM drafts
WHERE user_name = ? AND completed = 0
ORDER BY saved_at DESC, rowid DESC LIMIT 1`, userName)
	d, err := scanDraft(row)
	if err != nil {
		return nil, fmt.Errorf("latest draft for %q: %w", userName, err)
	}
	return d, nil
}

// ListDrafts returns all drafts, newest first.
func (s *SQLiteStore) ListDrafts(ctx context.Context) ([]models.Draft, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+draftColumns+` FROM drafts ORDER BY saved_at DESC, rowid DESC`)
	if err != nil {
		return nil, fmt.Errorf("query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []models.Draft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDraft removes a draft. Deleting a missing draft returns ErrNotFound.
func (s *SQLiteStore) DeleteDraft(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete draft %s: %w", id, ErrNotFound)
	}
	return nil
}

// RecordSubmission stores a completed submission. Recording the same
// payload ID twice is an error.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, p models.SubmissionPayload) error {
	if err := checkID(p.ID); err != nil {
		return err
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}

	query := `
INSERT INTO submissions (id, user_name, provider_name, financial_entity_name, payload, submitted_at, recorded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		p.ID, p.Identity.UserName, p.Identity.ProviderName, p.Identity.FinancialEntityName,
		string(data), p.SubmittedAt, timeNow().UTC())
	if err != nil {
		return fmt.Errorf("record submission %s: %w", p.ID, err)
	}
	return nil
}

// ListSubmissions returns recorded submissions, newest first.
func (s *SQLiteStore) ListSubmissions(ctx context.Context) ([]SubmissionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload, recorded_at FROM submissions ORDER BY submitted_at DESC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query submissions: %w", err)
	}
	defer rows.Close()

	var records []SubmissionRecord
	for rows.Next() {
		var data string
		var rec SubmissionRecord
		if err := rows.Scan(&data, &rec.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &rec.Payload); err != nil {
			return nil, fmt.Errorf("decode submission: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submissions: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDraft(row rowScanner) (*models.Draft, error) {
	var d models.Draft
	var answers, observations string
	err := row.Scan(&d.ID, &d.Identity.UserName, &d.Identity.ProviderName, &d.Identity.FinancialEntityName,
		&answers, &observations, &d.Position, &d.SavedAt, &d.Completed)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan draft: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &d.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal([]byte(observations), &d.Observations); err != nil {
		return nil, fmt.Errorf("decode observations: %w", err)
	}
	return &d, nil
}
