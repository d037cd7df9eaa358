package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/conn-castle/moonbit-up/internal/config"
	"github.com/conn-castle/moonbit-up/internal/platform"
	"github.com/conn-castle/moonbit-up/internal/release"
	"github.com/conn-castle/moonbit-up/internal/testutil"
)

// cli runs the command tree against an httptest upstream with a temporary
// install root and config directory.
type cli struct {
	t         *testing.T
	home      string
	moonHome  string
	configDir string
	server    *httptest.Server

	mu       sync.Mutex
	index    release.Index
	archives map[string][]byte
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	home := t.TempDir()
	c := &cli{
		t:         t,
		home:      home,
		moonHome:  filepath.Join(home, ".moon"),
		configDir: filepath.Join(home, "config"),
		index:     release.Index{},
		archives:  map[string][]byte{},
	}
	c.server = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.server.Close)

	origHome, origEnv, origDetect, origInteractive := userHomeDir, lookupEnv, detectPlatform, isInteractive
	t.Cleanup(func() {
		userHomeDir, lookupEnv, detectPlatform, isInteractive = origHome, origEnv, origDetect, origInteractive
	})
	userHomeDir = func() (string, error) { return home, nil }
	lookupEnv = func(string) (string, bool) { return "", false }
	detectPlatform = func(context.Context) (platform.Info, error) {
		return platform.Info{OS: "linux", Arch: "amd64"}, nil
	}
	isInteractive = func() bool { return false }

	noColor := color.NoColor
	t.Cleanup(func() { color.NoColor = noColor })
	color.NoColor = true

	cfg := config.Default()
	cfg.Mirror.IndexURL = c.server.URL + "/index.json"
	cfg.Mirror.DownloadBaseURL = c.server.URL + "/releases"
	cfg.Nightly.DistServer = c.server.URL + "/nightly"
	cfg.Nightly.DownloadBaseURL = c.server.URL + "/nightly"
	require.NoError(t, config.Save(c.configPath(), cfg))
	return c
}

func (c *cli) configPath() string {
	return filepath.Join(c.configDir, "config.toml")
}

func (c *cli) handle(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.URL.Path == "/index.json" {
		data, err := release.Encode(c.index)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write(data)
		return
	}
	data, ok := c.archives[r.URL.Path]
	if !ok {
		http.NotFound(w, r)
		return
	}
	_, _ = w.Write(data)
}

// publish lists version first in the upstream index and serves its archive.
func (c *cli) publish(version string) release.Entry {
	c.t.Helper()
	data := testutil.TarGz(c.t, map[string]testutil.TarEntry{
		"bin/moon":          {Body: testutil.VersionStubScript(version, 0)},
		"lib/core/core.mbt": {Body: "core " + version},
		"include/moonbit.h": {Body: "// " + version},
	})
	name := release.GuessAssetName(version)
	entry := release.Entry{Version: version, Name: name, SHA256: testutil.SHA256(data)}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.archives["/releases/v"+version+"/"+name] = data
	p := c.index[release.DefaultPlatformKey]
	p.LastModified = "2025-01-01T00:00:00Z"
	p.Releases = append([]release.Entry{entry}, p.Releases...)
	c.index[release.DefaultPlatformKey] = p
	return entry
}

// run executes moonup with args followed by the global location flags.
func (c *cli) run(args ...string) (string, string, error) {
	c.t.Helper()
	full := append([]string{"moonup"}, args...)
	full = append(full, "--moon-home", c.moonHome, "--config-dir", c.configDir)
	var stdout, stderr bytes.Buffer
	err := execute(full, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func (c *cli) mustRun(args ...string) string {
	c.t.Helper()
	stdout, stderr, err := c.run(args...)
	require.NoError(c.t, err, "stdout: %s\nstderr: %s", stdout, stderr)
	return stdout
}
