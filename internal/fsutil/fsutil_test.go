package fsutil

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestWriteFileAtomicReplacesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "index.json")

	require.NoError(t, WriteFileAtomic(path, []byte("one"), 0o644))
	require.NoError(t, WriteFileAtomic(path, []byte("two"), 0o600))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
}

func TestWriteFileAtomicRenameFailureKeepsOriginal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.json")
	require.NoError(t, os.WriteFile(path, []byte("original"), 0o644))

	orig := osRename
	osRename = func(string, string) error { return errors.New("boom") }
	t.Cleanup(func() { osRename = orig })

	err := WriteFileAtomic(path, []byte("replacement"), 0o644)
	require.Error(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "original", string(data))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestWithFileLockRunsFnAndReleases(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".index.json.lock")
	calls := 0
	for i := 0; i < 2; i++ {
		require.NoError(t, WithFileLock(context.Background(), lockPath, func() error {
			calls++
			return nil
		}))
	}
	require.Equal(t, 2, calls)
}

func TestWithFileLockPropagatesFnError(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "x.lock")
	want := errors.New("inner")
	err := WithFileLock(context.Background(), lockPath, func() error { return want })
	require.ErrorIs(t, err, want)
}

// holdLock makes every non-blocking flock attempt report a busy lock.
func holdLock(t *testing.T) {
	t.Helper()
	orig := flockFn
	t.Cleanup(func() { flockFn = orig })
	flockFn = func(fd int, how int) error {
		if how&unix.LOCK_UN != 0 {
			return nil
		}
		return unix.EWOULDBLOCK
	}
}

func TestWithFileLockTimesOutWhenHeld(t *testing.T) {
	holdLock(t)
	origWait, origPoll := lockWait, lockPoll
	t.Cleanup(func() { lockWait, lockPoll = origWait, origPoll })
	lockWait = 10 * time.Millisecond
	lockPoll = time.Millisecond

	err := WithFileLock(context.Background(), filepath.Join(t.TempDir(), "held.lock"), func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "timed out")
}

func TestWithFileLockStopsWaitingOnCancel(t *testing.T) {
	holdLock(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := WithFileLock(ctx, filepath.Join(t.TempDir(), "held.lock"), func() error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), lockWait)
}

func TestWithFileLockExcludesConcurrentHolders(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "shared.lock")
	release := make(chan struct{})
	held := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- WithFileLock(context.Background(), lockPath, func() error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := WithFileLock(ctx, lockPath, func() error {
		t.Fatal("second holder must wait")
		return nil
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)
	require.NoError(t, WithFileLock(context.Background(), lockPath, func() error { return nil }))
}

func TestLockPath(t *testing.T) {
	require.Equal(t, filepath.Join("/a/b", ".version_history.json.lock"), LockPath("/a/b/version_history.json"))
}

func TestCopyTreePreservesSymlinksVerbatim(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "bin", "moon"), []byte("#!/bin/sh\n"), 0o755))
	require.NoError(t, os.Symlink("moon", filepath.Join(src, "bin", "moon-alias")))
	require.NoError(t, os.Symlink("/does/not/exist", filepath.Join(src, "dangling")))

	dst := filepath.Join(t.TempDir(), "copy")
	require.NoError(t, CopyTree(src, dst))

	link, err := os.Readlink(filepath.Join(dst, "bin", "moon-alias"))
	require.NoError(t, err)
	require.Equal(t, "moon", link)

	dangling, err := os.Readlink(filepath.Join(dst, "dangling"))
	require.NoError(t, err)
	require.Equal(t, "/does/not/exist", dangling)

	info, err := os.Stat(filepath.Join(dst, "bin", "moon"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestCopyTreeOverwritesButKeepsOtherEntries(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "a.txt"), []byte("old"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "b.txt"), []byte("keep"), 0o644))

	require.NoError(t, CopyTree(src, dst))

	a, err := os.ReadFile(filepath.Join(dst, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "new", string(a))
	b, err := os.ReadFile(filepath.Join(dst, "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "keep", string(b))
}

func TestDirSize(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "releases", "v1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.json"), make([]byte, 10), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "releases", "v1", "a.tar.gz"), make([]byte, 32), 0o644))
	require.NoError(t, os.Symlink("index.json", filepath.Join(root, "link")))

	size, err := DirSize(root)
	require.NoError(t, err)
	require.Equal(t, int64(42), size)
}
