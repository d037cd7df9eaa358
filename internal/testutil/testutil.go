package testutil

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
)

// WriteStub writes an executable shell stub that exits successfully.
// t is the active test; dir is the output directory; name is the executable file name.
func WriteStub(t *testing.T, dir string, name string) {
	t.Helper()
	WriteStubWithExit(t, dir, name, 0)
}

// WriteStubWithExit writes an executable shell stub that exits with the provided code.
// t is the active test; dir is the output directory; name is the executable file name.
func WriteStubWithExit(t *testing.T, dir string, name string, exitCode int) {
	t.Helper()
	writeExecutable(t, filepath.Join(dir, name), fmt.Sprintf("#!/bin/sh\nexit %d\n", exitCode))
}

// VersionStubScript returns a shell script that prints a moon version banner
// for version and exits with exitCode.
func VersionStubScript(version string, exitCode int) string {
	return fmt.Sprintf("#!/bin/sh\necho \"moon %s (0000000 2025-01-01)\"\nexit %d\n", version, exitCode)
}

// WriteVersionStub writes <root>/bin/moon as a stub that reports version.
func WriteVersionStub(t *testing.T, root string, version string) {
	t.Helper()
	writeExecutable(t, filepath.Join(root, "bin", "moon"), VersionStubScript(version, 0))
}

// TarEntry is one file in an archive built by TarGz. An empty Link makes a
// regular file; a zero Mode defaults to 0o644.
type TarEntry struct {
	Body string
	Mode int64
	Link string
}

// TarGz builds a gzip-compressed tar archive from entries keyed by path.
func TarGz(t *testing.T, entries map[string]TarEntry) []byte {
	t.Helper()
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range names {
		entry := entries[name]
		mode := entry.Mode
		if mode == 0 {
			mode = 0o644
		}
		header := &tar.Header{Name: name, Mode: mode}
		if entry.Link != "" {
			header.Typeflag = tar.TypeSymlink
			header.Linkname = entry.Link
		} else {
			header.Typeflag = tar.TypeReg
			header.Size = int64(len(entry.Body))
		}
		if err := tw.WriteHeader(header); err != nil {
			t.Fatalf("write tar header %s: %v", name, err)
		}
		if entry.Link == "" {
			if _, err := tw.Write([]byte(entry.Body)); err != nil {
				t.Fatalf("write tar body %s: %v", name, err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("close tar: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("close gzip: %v", err)
	}
	return buf.Bytes()
}

// SHA256 returns the lowercase hex digest of data.
func SHA256(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func writeExecutable(t *testing.T, path string, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create stub dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
}
