package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// migrations is the ordered list of schema migrations. Append only.
var migrations = []Migration{
	{
		Version:     1,
		Description: "drafts and submissions",
		SQL: `
CREATE TABLE IF NOT EXISTS drafts (
    id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,
    provider_name TEXT NOT NULL DEFAULT '',
    financial_entity_name TEXT NOT NULL DEFAULT '',
    answers TEXT NOT NULL,
    observations TEXT NOT NULL,
    position INTEGER NOT NULL,
    saved_at TEXT NOT NULL,
    completed BOOLEAN NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_drafts_user_saved ON drafts(user_name, saved_at DESC);

CREATE TABLE IF NOT EXISTS submissions (
    id TEXT PRIMARY KEY,
    user_name TEXT NOT NULL,
    provider_name TEXT NOT NULL DEFAULT '',
    financial_entity_name TEXT NOT NULL DEFAULT '',
    payload TEXT NOT NULL,
    submitted_at TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "index submissions by entity and time",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_submissions_submitted ON submissions(submitted_at DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_entity ON submissions(financial_entity_name);
`,
	},
}

// MigrationVersion is an applied migration.
type MigrationVersion struct {
	Version   int
	AppliedAt time.Time
}

// ApplyMigrations applies every pending migration in a single transaction so
// concurrent first runs against the same file serialise.
func (s *SQLiteStore) ApplyMigrations(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	applied, err := appliedVersionsTx(ctx, tx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
			return fmt.Errorf("apply migration %d (%s): %w", m.Version, m.Description, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO schema_version (version) VALUES (?)`, m.Version); err != nil {
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migrations: %w", err)
	}
	return nil
}

func appliedVersionsTx(ctx context.Context, tx *sql.Tx) (map[int]bool, error) {
	rows, err := tx.QueryContext(ctx, `SELECT version FROM schema_version`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// AppliedVersions lists applied migrations in version order.
func (s *SQLiteStore) AppliedVersions(ctx context.Context) ([]MigrationVersion, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT version, applied_at FROM schema_version ORDER BY version ASC`)
	if err != nil {
		return nil, fmt.Errorf("query schema versions: %w", err)
	}
	defer rows.Close()

	var versions []MigrationVersion
	for rows.Next() {
		var v MigrationVersion
		if err := rows.Scan(&v.Version, &v.AppliedAt); err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}
	return versions, nil
}

// LatestVersion returns the highest applied migration version.
func (s *SQLiteStore) LatestVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("query latest version: %w", err)
	}
	return version, nil
}
