// Package filelock serialises access to on-disk drafts, submissions and
// reports across goroutines and processes.
package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// LockSuffix is appended to a data file's path to name its lock file.
const LockSuffix = ".lock"

// FileLock wraps a flock file lock.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// NewFileLock creates a lock backed by the file at path.
func NewFileLock(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Path returns the lock file path.
func (fl *FileLock) Path() string { return fl.path }

// Lock acquires an exclusive lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// RLock acquires a shared lock, blocking until it is available.
func (fl *FileLock) RLock() error {
	if err := fl.flock.RLock(); err != nil {
		return fmt.Errorf("failed to acquire read lock on %s: %w", fl.path, err)
	}
	return nil
}

// LockContext retries an exclusive lock every retry until it is acquired or
// ctx is done.
func (fl *FileLock) LockContext(ctx context.Context, retry time.Duration) error {
	acquired, err := fl.flock.TryLockContext(ctx, retry)
	if err != nil {
		return fmt.Errorf("failed to acquire lock on %s: %w", fl.path, err)
	}
	if !acquired {
		return fmt.Errorf("lock on %s not acquired", fl.path)
	}
	return nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock on %s: %w", fl.path, err)
	}
	return nil
}

// AtomicWrite writes data to path via a temp file in the same directory and
// a rename, so readers see either the old content or the new, never a mix.
// Parent directories are created as needed.
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file to %s: %w", path, err)
	}

	committed = true
	return nil
}

// WithLock runs fn while holding the exclusive lock for path
// (path + LockSuffix).
func WithLock(path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	lock := NewFileLock(path + LockSuffix)
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}

// LockAndWrite atomically writes data to path under its exclusive lock.
func LockAndWrite(path string, data []byte) error {
	return WithLock(path, func() error {
		return AtomicWrite(path, data, 0644)
	})
}

// LockRetryInterval is how often LockAndWriteContext retries a held lock.
const LockRetryInterval = 50 * time.Millisecond

// LockAndWriteContext is LockAndWrite that gives up waiting for the lock
// when ctx is done.
func LockAndWriteContext(ctx context.Context, path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	lock := NewFileLock(path + LockSuffix)
	if err := lock.LockContext(ctx, LockRetryInterval); err != nil {
		return err
	}
	defer lock.Unlock()
	return AtomicWrite(path, data, 0644)
}

// ReadLocked reads path under a shared lock. A missing parent directory is
// reported like a missing file.
func ReadLocked(path string) ([]byte, error) {
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		return nil, err
	}
	lock := NewFileLock(path + LockSuffix)
	if err := lock.RLock(); err != nil {
		return nil, err
	}
	defer lock.Unlock()
	return os.ReadFile(path)
}
