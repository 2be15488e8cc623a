package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/harrison/dora/internal/filelock"
	"github.com/harrison/dora/internal/models"
)

// FileStore keeps each draft and submission as a JSON file under a root
// directory. Every file is written atomically under its own lock, so
// several processes may share the directory.
type FileStore struct {
	root string
}

type submissionFile struct {
	Payload    models.SubmissionPayload `json:"payload"`
	RecordedAt time.Time                `json:"recorded_at"`
}

// NewFileStore creates the drafts/ and submissions/ directories under root.
func NewFileStore(root string) (*FileStore, error) {
	for _, sub := range []string{"drafts", "submissions"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0755); err != nil {
			return nil, fmt.Errorf("create %s directory: %w", sub, err)
		}
	}
	return &FileStore{root: root}, nil
}

// Root returns the store directory.
func (s *FileStore) Root() string { return s.root }

// Close is a no-op; FileStore holds no open handles between calls.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) draftPath(id string) string {
	return filepath.Join(s.root, "drafts", id+".json")
}

func (s *FileStore) submissionPath(id string) string {
	return filepath.Join(s.root, "submissions", id+".json")
}

// SaveDraft writes the draft, replacing any previous save with the same ID.
func (s *FileStore) SaveDraft(ctx context.Context, d models.Draft) error {
	if err := checkID(d.ID); err != nil {
		return err
	}
	d.Answers = models.CopyAnswers(d.Answers)
	d.Observations = models.CopyObservations(d.Observations)
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := filelock.LockAndWrite(s.draftPath(d.ID), data); err != nil {
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

// LoadDraft reads the draft with the given ID.
func (s *FileStore) LoadDraft(ctx context.Context, id string) (*models.Draft, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	d, err := readJSON[models.Draft](s.draftPath(id))
	if err != nil {
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}
	return d, nil
}

// LatestDraft scans all drafts for the newest resumable one of userName.
func (s *FileStore) LatestDraft(ctx context.Context, userName string) (*models.Draft, error) {
	drafts, err := s.ListDrafts(ctx)
	if err != nil {
		return nil, err
	}
	for _, d := range drafts {
		if d.Identity.UserName == userName && !d.Completed {
			return &d, nil
		}
	}
	return nil, fmt.Errorf("latest draft for %q: %w", userName, ErrNotFound)
}

// ListDrafts returns all drafts, newest first. Drafts saved within the same
// second are ordered by file modification time.
func (s *FileStore) ListDrafts(ctx context.Context) ([]models.Draft, error) {
	type entry struct {
		draft   models.Draft
		modTime time.Time
	}
	var entries []entry
	err := s.walk(filepath.Join(s.root, "drafts"), func(path string) error {
		d, err := readJSON[models.Draft](path)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		e := entry{draft: *d}
		if info, err := os.Stat(path); err == nil {
			e.modTime = info.ModTime()
		}
		entries = append(entries, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.draft.SavedAt != b.draft.SavedAt {
			return a.draft.SavedAt > b.draft.SavedAt
		}
		if !a.modTime.Equal(b.modTime) {
			return a.modTime.After(b.modTime)
		}
		return a.draft.ID < b.draft.ID
	})

	drafts := make([]models.Draft, len(entries))
	for i, e := range entries {
		drafts[i] = e.draft
	}
	return drafts, nil
}

// DeleteDraft removes a draft and its lock file.
func (s *FileStore) DeleteDraft(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	path := s.draftPath(id)
	err := filelock.WithLock(path, func() error {
		return os.Remove(path)
	})
	if errors.Is(err, fs.ErrNotExist) {
		os.Remove(path + filelock.LockSuffix)
		return fmt.Errorf("delete draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	os.Remove(path + filelock.LockSuffix)
	return nil
}

// RecordSubmission writes the payload. Recording the same ID twice is an
// error.
func (s *FileStore) RecordSubmission(ctx context.Context, p models.SubmissionPayload) error {
	if err := checkID(p.ID); err != nil {
		return err
	}
	path := s.submissionPath(p.ID)
	data, err := json.MarshalIndent(submissionFile{Payload: p, RecordedAt: timeNow().UTC()}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode submission: %w", err)
	}
	return filelock.WithLock(path, func() error {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("record submission %s: already exists", p.ID)
		}
		if err := filelock.AtomicWrite(path, data, 0644); err != nil {
			return fmt.Errorf("record submission %s: %w", p.ID, err)
		}
		return nil
	})
}

// ListSubmissions returns recorded submissions, newest first.
func (s *FileStore) ListSubmissions(ctx context.Context) ([]SubmissionRecord, error) {
	var records []SubmissionRecord
	err := s.walk(filepath.Join(s.root, "submissions"), func(path string) error {
		f, err := readJSON[submissionFile](path)
		if err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		records = append(records, SubmissionRecord{Payload: f.Payload, RecordedAt: f.RecordedAt})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Payload, records[j].Payload
		if a.SubmittedAt != b.SubmittedAt {
			return a.SubmittedAt > b.SubmittedAt
		}
		return a.ID < b.ID
	})
	return records, nil
}

// walk calls fn for every *.json file directly under dir.
func (s *FileStore) walk(dir string, fn func(path string) error) error {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			continue
		}
		if err := fn(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func readJSON[T any](path string) (*T, error) {
	data, err := filelock.ReadLocked(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &v, nil
}
