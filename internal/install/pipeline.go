package install

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/history"
	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/release"
	"github.com/conn-castle/moonbit-up/internal/resolve"
)

// Resolver maps a version request to a download reference.
type Resolver interface {
	Resolve(ctx context.Context, requested string) (resolve.Resolution, error)
}

// Downloader copies an artifact to a local path, verifying sha256 when given.
type Downloader interface {
	Download(ctx context.Context, source string, dest string, sha256 string) error
}

// Recorder appends install records.
type Recorder interface {
	Append(version string, backupPath string) (history.Record, error)
}

// Options wires an Installer.
type Options struct {
	// Root is the installation directory.
	Root string
	// BackupParent receives .moon.backup.* directories.
	BackupParent  string
	Resolver      Resolver
	Downloader    Downloader
	History       Recorder
	Prober        Prober
	Prerequisites Prerequisites
	Wrapper       Wrapper
	System        System
	// BackupEnabled turns backups off entirely when false.
	BackupEnabled bool
	// VerifyChecksums checks downloads against the index checksum when one is published.
	VerifyChecksums bool
	// ScratchDir holds temporary downloads; empty means the OS temp dir.
	ScratchDir string
	Now        func() time.Time
	// Progress receives one line per step.
	Progress io.Writer
	Logger   *zap.SugaredLogger
}

// Result describes a completed install.
type Result struct {
	Resolution resolve.Resolution
	// PreviousVersion is what was installed before, if anything answered.
	PreviousVersion string
	// Version is the version recorded in history.
	Version          string
	AlreadyInstalled bool
	BackupPath       string
	Preserved        []string
	Wrapped          []string
	// Warnings are partial failures that did not stop the install.
	Warnings []string
}

// Installer runs the install sequence. It never rolls back on failure;
// every step is safe to repeat, so a failed install is retried by running
// it again.
type Installer struct {
	opts Options
}

// New validates opts and returns an Installer.
func New(opts Options) (*Installer, error) {
	if opts.Root == "" {
		return nil, fmt.Errorf(messages.InstallRootRequired)
	}
	if opts.Resolver == nil || opts.Downloader == nil || opts.History == nil || opts.Prober == nil {
		return nil, fmt.Errorf(messages.InstallDependencyRequired)
	}
	if opts.BackupParent == "" {
		opts.BackupParent = filepath.Dir(opts.Root)
	}
	if opts.Prerequisites == nil {
		opts.Prerequisites = NoPrerequisites{}
	}
	if opts.Wrapper == nil {
		opts.Wrapper = NoWrapper{}
	}
	if opts.System == nil {
		opts.System = RealSystem{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Progress == nil {
		opts.Progress = io.Discard
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Installer{opts: opts}, nil
}

func (i *Installer) progress(format string, args ...any) {
	_, _ = fmt.Fprintf(i.opts.Progress, format, args...)
}

// Install installs requested into the root. Steps run strictly in order and the
// first terminal failure is returned as a *StepError. The scratch directory is
// removed on every return path.
func (i *Installer) Install(ctx context.Context, requested string, skipBackup bool) (Result, error) {
	var result Result
	sys := i.opts.System
	log := i.opts.Logger

	i.progress(messages.InstallResolvingFmt, displayRequest(requested))
	res, err := i.opts.Resolver.Resolve(ctx, requested)
	if err != nil {
		return result, stepError(StepResolve, err)
	}
	result.Resolution = res
	switch res.Kind {
	case resolve.KindGuessed:
		result.Warnings = append(result.Warnings, fmt.Sprintf(messages.InstallWarnGuessedFmt, res.Version, res.URL))
	case resolve.KindFallback:
		result.Warnings = append(result.Warnings, fmt.Sprintf(messages.InstallWarnFallbackFmt, res.URL))
	}
	i.progress(messages.InstallTargetFmt, res.Version)

	if current, ok := i.opts.Prober.Current(ctx); ok {
		result.PreviousVersion = current
		i.progress(messages.InstallCurrentFmt, current)
		if release.SameRelease(current, res.Version) {
			result.AlreadyInstalled = true
			result.Version = current
			return result, nil
		}
	}

	if err := i.opts.Prerequisites.Ensure(ctx); err != nil {
		return result, stepError(StepPrerequisites, err)
	}

	if exists(sys, i.opts.Root) {
		switch {
		case skipBackup || !i.opts.BackupEnabled:
			result.Warnings = append(result.Warnings, messages.InstallWarnBackupSkipped)
		default:
			i.progress(messages.InstallBackingUpFmt, i.opts.Root)
			backup, err := createBackup(sys, i.opts.Root, i.opts.BackupParent, i.opts.Now())
			if err != nil {
				log.Warnf("backup failed: %v", err)
				result.Warnings = append(result.Warnings, fmt.Sprintf(messages.InstallWarnBackupFailedFmt, err))
			} else {
				result.BackupPath = backup
			}
		}
	}

	scratch, err := sys.MkdirTemp(i.opts.ScratchDir, "moonup-")
	if err != nil {
		return result, stepError(StepDownload, fmt.Errorf(messages.InstallCreateScratchFmt, err))
	}
	defer func() {
		if err := sys.RemoveAll(scratch); err != nil {
			log.Warnf("remove scratch directory %s: %v", scratch, err)
		}
	}()

	archive := filepath.Join(scratch, archiveName(res))
	checksum := ""
	if i.opts.VerifyChecksums {
		checksum = res.SHA256
	}
	i.progress(messages.InstallDownloadingFmt, res.URL)
	if err := i.opts.Downloader.Download(ctx, res.URL, archive, checksum); err != nil {
		return result, stepError(StepDownload, err)
	}

	i.progress(messages.InstallExtracting)
	if err := i.extract(archive, filepath.Join(scratch, "extract")); err != nil {
		return result, stepError(StepExtract, err)
	}

	preserved, err := preserveUserData(sys, result.BackupPath, i.opts.Root)
	result.Preserved = preserved
	for _, itemErr := range multierr.Errors(err) {
		result.Warnings = append(result.Warnings, fmt.Sprintf(messages.InstallWarnPreserveFmt, itemErr))
	}

	wrapped, err := i.opts.Wrapper.Wrap(i.opts.Root)
	result.Wrapped = wrapped
	if err != nil {
		return result, stepError(StepWrappers, err)
	}

	i.progress(messages.InstallVerifying)
	verified, err := i.opts.Prober.Verify(ctx)
	if err != nil {
		return result, stepError(StepVerify, err)
	}

	installed := verified
	if installed == "" {
		installed = res.Version
	}
	if _, err := i.opts.History.Append(installed, result.BackupPath); err != nil {
		return result, stepError(StepHistory, err)
	}
	result.Version = installed
	log.Infof("installed %s into %s", installed, i.opts.Root)
	return result, nil
}

func (i *Installer) extract(archive string, scratch string) error {
	sys := i.opts.System
	if err := extractTarGz(archive, scratch); err != nil {
		return err
	}
	payload, err := payloadRoot(scratch)
	if err != nil {
		return err
	}
	if _, err := replaceToolchainDirs(sys, payload, i.opts.Root); err != nil {
		return err
	}
	return markExecutable(sys, i.opts.Root)
}

func archiveName(res resolve.Resolution) string {
	if res.Asset != "" {
		return filepath.Base(res.Asset)
	}
	return "toolchain.tar.gz"
}

func displayRequest(requested string) string {
	if requested == "" {
		return resolve.Latest
	}
	return requested
}
