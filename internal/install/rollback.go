package install

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/history"
	"github.com/conn-castle/moonbit-up/internal/messages"
)

// ErrNoBackup reports that the previous install has no usable backup.
var ErrNoBackup = errors.New(messages.InstallNoBackup)

// HistoryReader exposes the record before the latest install.
type HistoryReader interface {
	Previous() (history.Record, error)
}

// RollbackOptions wires a RollbackManager.
type RollbackOptions struct {
	Root    string
	History HistoryReader
	Prober  Prober
	System  System
	// Recorder, when set, appends the restored version to history. Rollbacks
	// are not recorded by default.
	Recorder Recorder
	Progress io.Writer
	Logger   *zap.SugaredLogger
}

// RollbackResult describes a completed rollback.
type RollbackResult struct {
	Previous history.Record
	// Version is what the restored binary reports, if anything.
	Version string
}

// RollbackManager restores the installation that preceded the latest install.
type RollbackManager struct {
	opts RollbackOptions
}

// NewRollbackManager validates opts and returns a RollbackManager.
func NewRollbackManager(opts RollbackOptions) (*RollbackManager, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf(messages.InstallRootRequired)
	}
	if opts.History == nil || opts.Prober == nil {
		return nil, fmt.Errorf(messages.InstallDependencyRequired)
	}
	if opts.System == nil {
		opts.System = RealSystem{}
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &RollbackManager{opts: opts}, nil
}

// Previous returns the record a rollback would restore, without touching disk.
func (m *RollbackManager) Previous() (history.Record, error) {
	prev, err := m.opts.History.Previous()
	if err != nil {
		return history.Record{}, err
	}
	backup := prev.Backup()
	if backup == "" {
		return prev, ErrNoBackup
	}
	if !exists(m.opts.System, backup) {
		return prev, fmt.Errorf(messages.InstallBackupMissingFmt, ErrNoBackup, backup)
	}
	return prev, nil
}

// Rollback deletes the installation root and copies the previous backup in
// its place, keeping symlinks verbatim, then re-verifies the toolchain.
// Precondition failures return before anything on disk changes.
func (m *RollbackManager) Rollback(ctx context.Context) (RollbackResult, error) {
	prev, err := m.Previous()
	if err != nil {
		return RollbackResult{}, err
	}
	result := RollbackResult{Previous: prev}
	sys := m.opts.System
	backup := prev.Backup()

	_, _ = fmt.Fprintf(m.opts.Progress, messages.RollbackRestoringFmt, prev.Version, backup)
	if err := sys.RemoveAll(m.opts.Root); err != nil {
		return result, stepError(StepRestore, fmt.Errorf(messages.InstallRemoveFmt, m.opts.Root, err))
	}
	if err := sys.CopyTree(backup, m.opts.Root); err != nil {
		return result, stepError(StepRestore, err)
	}

	version, err := m.opts.Prober.Verify(ctx)
	if err != nil {
		return result, stepError(StepVerify, err)
	}
	result.Version = version
	if m.opts.Recorder != nil {
		recorded := version
		if recorded == "" {
			recorded = prev.Version
		}
		if _, err := m.opts.Recorder.Append(recorded, backup); err != nil {
			return result, stepError(StepHistory, err)
		}
	}
	m.opts.Logger.Infof("rolled back %s to %s", m.opts.Root, prev.Version)
	return result, nil
}
