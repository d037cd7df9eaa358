package release

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSourceFetcherHTTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "moonbit-up" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(sampleIndex))
	}))
	t.Cleanup(server.Close)

	idx, err := NewFetcher(server.URL, nil).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, idx.Releases(DefaultPlatformKey), 2)
}

func TestSourceFetcherHTTPErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   string
	}{
		{name: "not found", status: http.StatusNotFound, want: "not found"},
		{name: "server error", status: http.StatusBadGateway, want: "unexpected status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			t.Cleanup(server.Close)

			_, err := NewFetcher(server.URL, nil).Fetch(context.Background())
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSourceFetcherSingleAttempt(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	_, err := NewFetcher(server.URL, nil).Fetch(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestSourceFetcherLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleIndex), 0o644))

	for _, source := range []string{path, "file://" + path} {
		idx, err := NewFetcher(source, nil).Fetch(context.Background())
		require.NoError(t, err, source)
		require.Len(t, idx.Releases(DefaultPlatformKey), 2)
	}

	_, err := NewFetcher(filepath.Join(dir, "missing.json"), nil).Fetch(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "not found")
}

func TestSourceFetcherRequiresSource(t *testing.T) {
	_, err := NewFetcher("  ", nil).Fetch(context.Background())
	require.Error(t, err)
}

func TestExists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead && r.URL.Path == "/present.tar.gz" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	ok, err := Exists(context.Background(), server.URL+"/present.tar.gz")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = Exists(context.Background(), server.URL+"/absent.tar.gz")
	require.NoError(t, err)
	require.False(t, ok)

	local := filepath.Join(t.TempDir(), "a.tar.gz")
	ok, err = Exists(context.Background(), "file://"+local)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "/srv/mirror/index.json", LocalPath("file:///srv/mirror/index.json"))
	require.Equal(t, "relative/index.json", LocalPath("relative/index.json"))
	require.True(t, IsLocal("/abs/path"))
	require.False(t, IsLocal("https://example.com/index.json"))
}
