package fsutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

var flockFn = unix.Flock

var (
	lockWait = 30 * time.Second
	lockPoll = 100 * time.Millisecond
)

// WithFileLock runs fn while holding an exclusive flock on path, creating the
// file and its directory when missing. A busy lock is retried until ctx is
// done or lockWait elapses. fn never runs without the lock.
func WithFileLock(ctx context.Context, path string, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf(messages.FsutilCreateDirFmt, filepath.Dir(path), err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf(messages.FsutilOpenLockFmt, path, err)
	}
	defer func() { _ = file.Close() }()

	fd := int(file.Fd())
	if err := waitForLock(ctx, fd); err != nil {
		return fmt.Errorf(messages.FsutilLockFmt, path, err)
	}
	defer func() { _ = flockFn(fd, unix.LOCK_UN) }()
	return fn()
}

// LockPath returns the sidecar lock file used to guard target.
func LockPath(target string) string {
	return filepath.Join(filepath.Dir(target), "."+filepath.Base(target)+".lock")
}

func waitForLock(ctx context.Context, fd int) error {
	deadline := time.NewTimer(lockWait)
	defer deadline.Stop()
	tick := time.NewTicker(lockPoll)
	defer tick.Stop()
	for {
		err := flockFn(fd, unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			return nil
		}
		if !errors.Is(err, unix.EWOULDBLOCK) && !errors.Is(err, unix.EAGAIN) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf(messages.FsutilLockTimeoutFmt, lockWait)
		case <-tick.C:
		}
	}
}
