package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/release"
)

var (
	// ErrNotInitialized reports a sync against a mirror with no index.
	ErrNotInitialized = errors.New(messages.MirrorNotInitialized)
	// ErrNoVersionsMatched reports a create whose explicit version list
	// matched nothing upstream.
	ErrNoVersionsMatched = errors.New(messages.MirrorNoVersionsMatched)
)

// Downloader fetches one artifact to a local path.
type Downloader interface {
	Download(ctx context.Context, source string, dest string, sha256 string) error
}

// Manager reconciles a Store with the upstream index.
type Manager struct {
	Store    Store
	Upstream release.Fetcher
	// DownloadBaseURL is where upstream artifacts live, as <base>/v<version>/<name>.
	DownloadBaseURL string
	Downloader      Downloader
	PlatformKey     string
	// ScratchDir holds downloads before they move into the store.
	ScratchDir string
	Now        func() time.Time
	Progress   io.Writer
	Logger     *zap.SugaredLogger
}

// CreateOptions selects the versions mirror create copies.
type CreateOptions struct {
	// Versions lists explicit versions; empty means the newest upstream release.
	Versions []string
	// All mirrors every upstream release and overrides Versions.
	All bool
}

// Report summarises a create or sync.
type Report struct {
	// Added lists versions added to the index by this run.
	Added []string
	// Downloaded lists versions whose artifact was transferred.
	Downloaded []string
	// Skipped lists versions whose artifact was already stored intact.
	Skipped []string
	// Missing lists requested versions that upstream does not list.
	Missing []string
	// Retained lists local entries that upstream no longer lists.
	Retained []string
	// Failures holds one error per version that could not be stored. Those
	// versions stay out of the index so the next sync retries them.
	Failures error
}

// Failed returns the per-version failures.
func (r Report) Failed() []error {
	return multierr.Errors(r.Failures)
}

func (m *Manager) logger() *zap.SugaredLogger {
	if m.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return m.Logger
}

func (m *Manager) platformKey() string {
	if m.PlatformKey == "" {
		return release.DefaultPlatformKey
	}
	return m.PlatformKey
}

func (m *Manager) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

func (m *Manager) progress(format string, args ...any) {
	if m.Progress != nil {
		_, _ = fmt.Fprintf(m.Progress, format, args...)
	}
}

// Create initializes the mirror, or extends an existing one, with the
// selected upstream versions. Artifacts already stored intact are not
// transferred again.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) (Report, error) {
	var report Report
	err := m.Store.Lock(ctx, func() error {
		upstream, err := m.fetchUpstream(ctx)
		if err != nil {
			return err
		}
		selected, missing := selectEntries(upstream.Releases(m.platformKey()), opts)
		report.Missing = missing
		for _, version := range missing {
			m.progress(messages.MirrorMissingUpstreamFmt, version)
		}
		if len(selected) == 0 {
			if len(opts.Versions) > 0 && !opts.All {
				return ErrNoVersionsMatched
			}
			return fmt.Errorf(messages.ResolveEmptyIndexFmt, m.platformKey())
		}

		local, _, err := m.Store.ReadIndex(ctx)
		if err != nil {
			return err
		}
		stored := m.transfer(ctx, selected, &report)

		keep := map[string]bool{}
		for _, version := range local.Versions(m.platformKey()) {
			keep[version] = true
		}
		for _, entry := range selected {
			if stored[entry.Version] && !keep[entry.Version] {
				report.Added = append(report.Added, entry.Version)
			}
			keep[entry.Version] = keep[entry.Version] || stored[entry.Version]
		}
		return m.writeIndex(ctx, local, upstream, keep, &report)
	})
	return report, err
}

// Sync downloads every upstream version the mirror lacks and rewrites the
// index. Entries the mirror already lists are kept, including ones upstream
// has since dropped.
func (m *Manager) Sync(ctx context.Context) (Report, error) {
	var report Report
	err := m.Store.Lock(ctx, func() error {
		local, ok, err := m.Store.ReadIndex(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotInitialized
		}
		upstream, err := m.fetchUpstream(ctx)
		if err != nil {
			return err
		}

		keep := map[string]bool{}
		for _, version := range local.Versions(m.platformKey()) {
			keep[version] = true
		}
		var pending []release.Entry
		for _, entry := range upstream.Releases(m.platformKey()) {
			if !keep[entry.Version] {
				pending = append(pending, entry)
			}
		}
		if len(pending) == 0 {
			m.progress(messages.MirrorUpToDate)
			return nil
		}
		m.progress(messages.MirrorNewVersionsFmt, len(pending))

		stored := m.transfer(ctx, pending, &report)
		for _, entry := range pending {
			if stored[entry.Version] {
				keep[entry.Version] = true
				report.Added = append(report.Added, entry.Version)
			}
		}
		return m.writeIndex(ctx, local, upstream, keep, &report)
	})
	return report, err
}

func (m *Manager) fetchUpstream(ctx context.Context) (release.Index, error) {
	upstream, err := m.Upstream.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf(messages.MirrorUpstreamFmt, err)
	}
	return upstream, nil
}

// selectEntries picks entries for opts, in upstream order, and returns the
// requested versions upstream does not list.
func selectEntries(releases []release.Entry, opts CreateOptions) ([]release.Entry, []string) {
	switch {
	case opts.All:
		return releases, nil
	case len(opts.Versions) == 0:
		if len(releases) == 0 {
			return nil, nil
		}
		return releases[:1], nil
	}
	wanted := map[string]bool{}
	for _, version := range opts.Versions {
		wanted[version] = true
	}
	var selected []release.Entry
	for _, entry := range releases {
		if wanted[entry.Version] {
			selected = append(selected, entry)
			delete(wanted, entry.Version)
		}
	}
	var missing []string
	for _, version := range opts.Versions {
		if wanted[version] {
			missing = append(missing, version)
			delete(wanted, version)
		}
	}
	return selected, missing
}

// transfer stores each entry's artifact one at a time, checking the store
// before downloading. It returns the versions that are stored intact.
func (m *Manager) transfer(ctx context.Context, entries []release.Entry, report *Report) map[string]bool {
	stored := map[string]bool{}
	if len(entries) == 0 {
		return stored
	}
	scratch, err := os.MkdirTemp(m.ScratchDir, "moonup-mirror-")
	if err != nil {
		report.Failures = multierr.Append(report.Failures, fmt.Errorf(messages.MirrorCreateScratchFmt, err))
		return stored
	}
	defer func() { _ = os.RemoveAll(scratch) }()

	for _, entry := range entries {
		if !release.IsPathElement(entry.Version) || !release.IsPathElement(entry.Name) {
			m.fail(report, entry, fmt.Errorf(messages.MirrorUnsafeEntryFmt, entry.Version, entry.Name))
			continue
		}
		present, err := m.Store.HasArtifact(ctx, entry.Version, entry.Name, entry.SHA256)
		if err != nil {
			m.fail(report, entry, err)
			continue
		}
		if present {
			m.progress(messages.MirrorSkippingFmt, entry.Version)
			report.Skipped = append(report.Skipped, entry.Version)
			stored[entry.Version] = true
			continue
		}
		m.progress(messages.MirrorDownloadingFmt, entry.Version, entry.Name)
		local := filepath.Join(scratch, entry.Version+"-"+filepath.Base(entry.Name))
		source := release.DownloadURL(m.DownloadBaseURL, entry.Version, entry.Name)
		if err := m.Downloader.Download(ctx, source, local, entry.SHA256); err != nil {
			m.fail(report, entry, fmt.Errorf(messages.MirrorDownloadFmt, source, err))
			continue
		}
		if err := m.Store.PutArtifact(ctx, entry.Version, entry.Name, local, entry.SHA256); err != nil {
			m.fail(report, entry, err)
			continue
		}
		report.Downloaded = append(report.Downloaded, entry.Version)
		stored[entry.Version] = true
	}
	return stored
}

func (m *Manager) fail(report *Report, entry release.Entry, err error) {
	m.logger().Warnf("mirror %s: version %s: %v", m.Store.Location(), entry.Version, err)
	m.progress(messages.MirrorDownloadFailedFmt, entry.Version, err)
	report.Failures = multierr.Append(report.Failures, err)
}

// writeIndex rebuilds the platform's release list from upstream metadata for
// every kept version in upstream order, then appends kept local entries that
// upstream no longer lists. Other platform keys in the local index are left
// untouched.
func (m *Manager) writeIndex(ctx context.Context, local release.Index, upstream release.Index, keep map[string]bool, report *Report) error {
	key := m.platformKey()
	listed := map[string]bool{}
	var releases []release.Entry
	for _, entry := range upstream.Releases(key) {
		listed[entry.Version] = true
		if keep[entry.Version] {
			releases = append(releases, entry)
		}
	}
	for _, entry := range local.Releases(key) {
		if !listed[entry.Version] {
			releases = append(releases, entry)
			report.Retained = append(report.Retained, entry.Version)
		}
	}

	out := release.Index{}
	for k, platform := range local {
		out[k] = platform
	}
	out[key] = release.Platform{
		LastModified: release.Timestamp(m.now()),
		Releases:     releases,
	}
	return m.Store.WriteIndex(ctx, out)
}

// Info describes a mirror.
type Info struct {
	Location     string `json:"location" yaml:"location"`
	Releases     int    `json:"releases" yaml:"releases"`
	LastModified string `json:"last_modified" yaml:"last_modified"`
	Latest       string `json:"latest,omitempty" yaml:"latest,omitempty"`
	Oldest       string `json:"oldest,omitempty" yaml:"oldest,omitempty"`
	SizeBytes    int64  `json:"size_bytes" yaml:"size_bytes"`
}

// Info reads the mirror index and measures the store.
func (m *Manager) Info(ctx context.Context) (Info, error) {
	idx, ok, err := m.Store.ReadIndex(ctx)
	if err != nil {
		return Info{}, err
	}
	if !ok {
		return Info{}, ErrNotInitialized
	}
	platform := idx[m.platformKey()]
	info := Info{
		Location:     m.Store.Location(),
		Releases:     len(platform.Releases),
		LastModified: platform.LastModified,
	}
	if n := len(platform.Releases); n > 0 {
		info.Latest = platform.Releases[0].Version
		info.Oldest = platform.Releases[n-1].Version
	}
	if info.SizeBytes, err = m.Store.Usage(ctx); err != nil {
		return Info{}, err
	}
	return info, nil
}
