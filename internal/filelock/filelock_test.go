package filelock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "drafts.lock"))
	require.NoError(t, lock.Lock())
	require.NoError(t, lock.Unlock())
	require.NoError(t, lock.RLock())
	require.NoError(t, lock.Unlock())
}

func TestLockContext_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drafts.lock")

	holder := NewFileLock(path)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := NewFileLock(path).LockContext(ctx, 10*time.Millisecond)
	assert.Error(t, err)
}

func TestLockContext_Acquires(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "drafts.lock"))
	require.NoError(t, lock.LockContext(context.Background(), 10*time.Millisecond))
	require.NoError(t, lock.Unlock())
}

func TestLockAndWriteContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "report.html")

	require.NoError(t, LockAndWriteContext(context.Background(), path, []byte("<html></html>")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestLockAndWriteContext_GivesUpWhileHeld(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")

	holder := NewFileLock(path + LockSuffix)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := LockAndWriteContext(ctx, path, []byte("late"))
	assert.Error(t, err)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "nothing is written without the lock")
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "draft.json")

	require.NoError(t, AtomicWrite(path, []byte(`{"v":1}`), 0600))
	require.NoError(t, AtomicWrite(path, []byte(`{"v":2}`), 0600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"v":2}`, string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestWithLock_Serialises(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counter.txt")
	require.NoError(t, os.WriteFile(path, []byte("0"), 0644))

	const workers = 8
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(path, func() error {
				data, err := os.ReadFile(path)
				if err != nil {
					return err
				}
				n, err := strconv.Atoi(string(data))
				if err != nil {
					return err
				}
				return AtomicWrite(path, []byte(strconv.Itoa(n+1)), 0644)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	data, err := ReadLocked(path)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprint(workers), string(data))
}

func TestLockAndWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, LockAndWrite(path, []byte("<html></html>")))

	data, err := ReadLocked(path)
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(data))
}

func TestWithLock_PropagatesError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x")
	err := WithLock(path, func() error { return fmt.Errorf("boom") })
	assert.EqualError(t, err, "boom")
}
