package install

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/moonbit-up/internal/history"
	"github.com/conn-castle/moonbit-up/internal/release"
	"github.com/conn-castle/moonbit-up/internal/resolve"
	"github.com/conn-castle/moonbit-up/internal/testutil"
)

// faultSystem injects errors for chosen paths on top of a real filesystem.
type faultSystem struct {
	base         System
	mkdirTempErr error
	removeErrs   map[string]error
	copyErrs     map[string]error
	renameErrs   map[string]error
	removed      []string
}

func newFaultSystem() *faultSystem {
	return &faultSystem{
		base:       RealSystem{},
		removeErrs: map[string]error{},
		copyErrs:   map[string]error{},
		renameErrs: map[string]error{},
	}
}

func (f *faultSystem) Lstat(name string) (os.FileInfo, error) {
	return f.base.Lstat(name)
}

func (f *faultSystem) MkdirAll(path string, perm os.FileMode) error {
	return f.base.MkdirAll(path, perm)
}

func (f *faultSystem) MkdirTemp(dir string, pattern string) (string, error) {
	if f.mkdirTempErr != nil {
		return "", f.mkdirTempErr
	}
	return f.base.MkdirTemp(dir, pattern)
}

func (f *faultSystem) RemoveAll(path string) error {
	f.removed = append(f.removed, filepath.Clean(path))
	if err, ok := f.removeErrs[filepath.Clean(path)]; ok {
		return err
	}
	return f.base.RemoveAll(path)
}

func (f *faultSystem) Rename(oldpath string, newpath string) error {
	if err, ok := f.renameErrs[filepath.Clean(oldpath)]; ok {
		return err
	}
	return f.base.Rename(oldpath, newpath)
}

func (f *faultSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return f.base.WriteFile(name, data, perm)
}

func (f *faultSystem) Chmod(name string, mode os.FileMode) error {
	return f.base.Chmod(name, mode)
}

func (f *faultSystem) CopyTree(src string, dst string) error {
	if err, ok := f.copyErrs[filepath.Clean(src)]; ok {
		return err
	}
	return f.base.CopyTree(src, dst)
}

// harness serves toolchain archives over HTTP and wires an Installer against
// them with a real history store under a temp home.
type harness struct {
	t        *testing.T
	home     string
	root     string
	scratch  string
	server   *httptest.Server
	archives map[string][]byte
	index    release.Index
	store    *history.Store
	sys      *faultSystem
	progress bytes.Buffer
	clock    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	h := &harness{
		t:        t,
		home:     home,
		root:     filepath.Join(home, ".moon"),
		scratch:  filepath.Join(home, "scratch"),
		archives: map[string][]byte{},
		index:    release.Index{release.DefaultPlatformKey: {}},
		store:    history.NewStore(filepath.Join(home, "config", "version_history.json")),
		sys:      newFaultSystem(),
		clock:    testClock(),
	}
	require.NoError(t, os.MkdirAll(h.scratch, 0o755))
	h.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, ok := h.archives[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(data)
	}))
	t.Cleanup(h.server.Close)
	return h
}

// toolchain returns archive entries for a runnable toolchain reporting version.
func toolchain(version string) map[string]testutil.TarEntry {
	return map[string]testutil.TarEntry{
		"bin/moon":             {Body: testutil.VersionStubScript(version, 0), Mode: 0o644},
		"bin/moonc":            {Body: "moonc " + version, Mode: 0o644},
		"lib/core/builtin.mbt": {Body: "core " + version},
		"include/moonbit.h":    {Body: "// " + version},
		"lib/core/alias.mbt":   {Link: "builtin.mbt"},
	}
}

// serve makes entries downloadable at the conventional URL for version
// without listing it in the index.
func (h *harness) serve(version string, entries map[string]testutil.TarEntry) release.Entry {
	data := testutil.TarGz(h.t, entries)
	name := release.GuessAssetName(version)
	h.archives["/v"+version+"/"+name] = data
	return release.Entry{Version: version, Name: name, SHA256: testutil.SHA256(data)}
}

// publish serves entries as version's archive and lists it in the index.
// Each call puts the new version first, as upstream does.
func (h *harness) publish(version string, entries map[string]testutil.TarEntry) release.Entry {
	entry := h.serve(version, entries)
	platform := h.index[release.DefaultPlatformKey]
	platform.Releases = append([]release.Entry{entry}, platform.Releases...)
	h.index[release.DefaultPlatformKey] = platform
	return entry
}

func (h *harness) options() Options {
	return Options{
		Root:         h.root,
		BackupParent: h.home,
		Resolver: &resolve.Resolver{
			Fetcher:         release.StaticFetcher{Index: h.index},
			DownloadBaseURL: h.server.URL,
		},
		Downloader:      release.NewDownloader(nil),
		History:         h.store,
		Prober:          BinaryProber{Root: h.root},
		System:          h.sys,
		BackupEnabled:   true,
		VerifyChecksums: true,
		ScratchDir:      h.scratch,
		Now: func() time.Time {
			return h.clock
		},
		Progress: &h.progress,
	}
}

func (h *harness) installer(mutate func(*Options)) *Installer {
	h.t.Helper()
	opts := h.options()
	if mutate != nil {
		mutate(&opts)
	}
	inst, err := New(opts)
	require.NoError(h.t, err)
	return inst
}

func (h *harness) install(requested string, skipBackup bool) (Result, error) {
	return h.installer(nil).Install(context.Background(), requested, skipBackup)
}

func (h *harness) records() []history.Record {
	h.t.Helper()
	records, err := h.store.Load()
	require.NoError(h.t, err)
	return records
}

func (h *harness) backups() []string {
	h.t.Helper()
	matches, err := filepath.Glob(filepath.Join(h.home, backupPrefix+"*"))
	require.NoError(h.t, err)
	return matches
}

func (h *harness) requireScratchEmpty() {
	h.t.Helper()
	entries, err := os.ReadDir(h.scratch)
	require.NoError(h.t, err)
	require.Empty(h.t, entries)
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

type fakeResolver struct {
	res resolve.Resolution
	err error
}

func (f fakeResolver) Resolve(context.Context, string) (resolve.Resolution, error) {
	return f.res, f.err
}

type fakePrerequisites struct {
	err   error
	calls int
}

func (f *fakePrerequisites) Ensure(context.Context) error {
	f.calls++
	return f.err
}

func testClock() time.Time {
	return time.Date(2025, 10, 30, 12, 0, 0, 0, time.UTC)
}
