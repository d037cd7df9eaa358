package main

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMainVersion(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, execute([]string{"moonup", "--version"}, &out, &out))
	require.True(t, strings.HasPrefix(out.String(), "moonup "), out.String())
	require.Contains(t, out.String(), Version)
}

func TestMainUnknownCommand(t *testing.T) {
	var out bytes.Buffer
	require.Error(t, execute([]string{"moonup", "unknown"}, &out, &out))
}

func TestRunMainSuccess(t *testing.T) {
	var out bytes.Buffer
	called := false
	runMain([]string{"moonup", "--version"}, &out, &out, func(int) { called = true })
	require.False(t, called)
}

func TestRunMainError(t *testing.T) {
	var out bytes.Buffer
	code := 0
	runMain([]string{"moonup", "unknown"}, &out, &out, func(c int) { code = c })
	require.Equal(t, 1, code)
	require.Contains(t, out.String(), "unknown command")
}

func TestRunMainSilentExit(t *testing.T) {
	orig := executeFunc
	t.Cleanup(func() { executeFunc = orig })
	executeFunc = func([]string, io.Writer, io.Writer) error {
		return &SilentExitError{Code: 3}
	}

	var out bytes.Buffer
	code := 0
	runMain([]string{"moonup"}, &out, &out, func(c int) { code = c })
	require.Equal(t, 3, code)
	require.Empty(t, out.String())
}

func TestRunMainWrappedSilentExit(t *testing.T) {
	orig := executeFunc
	t.Cleanup(func() { executeFunc = orig })
	executeFunc = func([]string, io.Writer, io.Writer) error {
		return errors.Join(errors.New("context"), &SilentExitError{Code: 2})
	}

	code := 0
	runMain([]string{"moonup"}, io.Discard, io.Discard, func(c int) { code = c })
	require.Equal(t, 2, code)
}

func TestMainCallsExecute(t *testing.T) {
	originalArgs := os.Args
	t.Cleanup(func() { os.Args = originalArgs })
	os.Args = []string{"moonup", "--version"}
	main()
}

func TestVersionString(t *testing.T) {
	origVersion, origCommit, origDate := Version, Commit, BuildDate
	t.Cleanup(func() { Version, Commit, BuildDate = origVersion, origCommit, origDate })

	tests := []struct {
		name    string
		version string
		commit  string
		date    string
		want    string
	}{
		{name: "dev", version: "dev", commit: "unknown", date: "unknown", want: "dev"},
		{name: "tagged", version: "v1.2.3", commit: "unknown", date: "", want: "1.2.3"},
		{name: "commit", version: "v1.2.3", commit: "abc1234", date: "unknown", want: "1.2.3 (commit abc1234)"},
		{name: "full", version: "1.2.3", commit: "abc1234", date: "2026-01-02", want: "1.2.3 (commit abc1234, built 2026-01-02)"},
		{name: "not semver", version: "nightly-7", commit: "", date: "", want: "nightly-7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version, Commit, BuildDate = tt.version, tt.commit, tt.date
			require.Equal(t, tt.want, versionString())
		})
	}
}
