package install

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/moonbit-up/internal/history"
	"github.com/conn-castle/moonbit-up/internal/testutil"
)

type rollbackFixture struct {
	home    string
	root    string
	store   *history.Store
	backupA string
	backupB string
}

// newRollbackFixture writes history [A(backup=bA), B(backup=bB)] and a current
// install reporting B.
func newRollbackFixture(t *testing.T) rollbackFixture {
	t.Helper()
	home := t.TempDir()
	f := rollbackFixture{
		home:    home,
		root:    filepath.Join(home, ".moon"),
		store:   history.NewStore(filepath.Join(home, "config", "version_history.json")),
		backupA: filepath.Join(home, ".moon.backup.20250101_000000"),
		backupB: filepath.Join(home, ".moon.backup.20250201_000000"),
	}
	testutil.WriteVersionStub(t, f.backupA, "0.1.20241201")
	require.NoError(t, os.MkdirAll(filepath.Join(f.backupA, "lib"), 0o755))
	require.NoError(t, os.Symlink("../missing-target", filepath.Join(f.backupA, "lib", "dangling")))
	testutil.WriteVersionStub(t, f.backupB, "0.1.20250101")
	testutil.WriteVersionStub(t, f.root, "0.1.20250201")
	require.NoError(t, os.WriteFile(filepath.Join(f.root, "stray.txt"), []byte("x"), 0o644))

	_, err := f.store.Append("0.1.20250101", f.backupA)
	require.NoError(t, err)
	_, err = f.store.Append("0.1.20250201", f.backupB)
	require.NoError(t, err)
	return f
}

func (f rollbackFixture) manager(t *testing.T, mutate func(*RollbackOptions)) *RollbackManager {
	t.Helper()
	opts := RollbackOptions{
		Root:    f.root,
		History: f.store,
		Prober:  BinaryProber{Root: f.root},
	}
	if mutate != nil {
		mutate(&opts)
	}
	m, err := NewRollbackManager(opts)
	require.NoError(t, err)
	return m
}

func TestRollbackRestoresPreviousBackupWithoutRecording(t *testing.T) {
	f := newRollbackFixture(t)

	result, err := f.manager(t, nil).Rollback(context.Background())
	require.NoError(t, err)
	require.Equal(t, "0.1.20250101", result.Previous.Version)
	require.Equal(t, "0.1.20241201", result.Version)

	require.NoFileExists(t, filepath.Join(f.root, "stray.txt"))
	link, err := os.Readlink(filepath.Join(f.root, "lib", "dangling"))
	require.NoError(t, err)
	require.Equal(t, "../missing-target", link)

	records, err := f.store.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.DirExists(t, f.backupA)
}

func TestRollbackCanRecordRestoredVersion(t *testing.T) {
	f := newRollbackFixture(t)

	_, err := f.manager(t, func(opts *RollbackOptions) {
		opts.Recorder = f.store
	}).Rollback(context.Background())
	require.NoError(t, err)

	records, err := f.store.Load()
	require.NoError(t, err)
	require.Len(t, records, 3)
	require.Equal(t, "0.1.20241201", records[2].Version)
	require.Equal(t, f.backupA, records[2].Backup())
}

func TestRollbackRequiresTwoRecords(t *testing.T) {
	home := t.TempDir()
	store := history.NewStore(filepath.Join(home, "version_history.json"))
	_, err := store.Append("0.1.20250101", "")
	require.NoError(t, err)
	root := filepath.Join(home, ".moon")
	testutil.WriteVersionStub(t, root, "0.1.20250101")

	m, err := NewRollbackManager(RollbackOptions{Root: root, History: store, Prober: BinaryProber{Root: root}})
	require.NoError(t, err)
	_, err = m.Rollback(context.Background())
	require.ErrorIs(t, err, history.ErrNoPreviousVersion)
	require.FileExists(t, filepath.Join(root, "bin", "moon"))
}

func TestRollbackWithoutBackupPath(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "version_history.json")
	doc := map[string]any{"versions": []map[string]any{
		{"version": "a", "installed_at": "2025-01-01T00:00:00Z", "backup_path": nil},
		{"version": "b", "installed_at": "2025-02-01T00:00:00Z", "backup_path": nil},
	}}
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	root := filepath.Join(home, ".moon")
	testutil.WriteVersionStub(t, root, "b")

	m, err := NewRollbackManager(RollbackOptions{Root: root, History: history.NewStore(path), Prober: BinaryProber{Root: root}})
	require.NoError(t, err)
	_, err = m.Rollback(context.Background())
	require.ErrorIs(t, err, ErrNoBackup)
	require.FileExists(t, filepath.Join(root, "bin", "moon"))
}

func TestRollbackWithDeletedBackup(t *testing.T) {
	f := newRollbackFixture(t)
	require.NoError(t, os.RemoveAll(f.backupA))

	_, err := f.manager(t, nil).Rollback(context.Background())
	require.ErrorIs(t, err, ErrNoBackup)
	require.FileExists(t, filepath.Join(f.root, "stray.txt"))
}

func TestRollbackVerifyFailureIsError(t *testing.T) {
	f := newRollbackFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.backupA, "bin", "moon"), []byte(testutil.VersionStubScript("x", 1)), 0o755))

	_, err := f.manager(t, nil).Rollback(context.Background())
	require.Error(t, err)
	step, _ := FailedStep(err)
	require.Equal(t, StepVerify, step)
}

func TestRollbackRestoreFailureNamesStep(t *testing.T) {
	f := newRollbackFixture(t)
	sys := newFaultSystem()
	sys.copyErrs[f.backupA] = errors.New("io error")

	_, err := f.manager(t, func(opts *RollbackOptions) {
		opts.System = sys
	}).Rollback(context.Background())
	require.Error(t, err)
	step, _ := FailedStep(err)
	require.Equal(t, StepRestore, step)
	require.Contains(t, sys.removed, f.root)
}
