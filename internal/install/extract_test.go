package install

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/moonbit-up/internal/testutil"
)

func writeArchive(t *testing.T, entries map[string]testutil.TarEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "toolchain.tar.gz")
	require.NoError(t, os.WriteFile(path, testutil.TarGz(t, entries), 0o644))
	return path
}

func TestExtractTarGzRejectsTraversal(t *testing.T) {
	archive := writeArchive(t, map[string]testutil.TarEntry{
		"../escape.txt": {Body: "nope"},
	})
	dest := filepath.Join(t.TempDir(), "out")

	err := extractTarGz(archive, dest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "escapes the extraction directory")
	require.NoFileExists(t, filepath.Join(filepath.Dir(dest), "escape.txt"))
}

func TestExtractTarGzRejectsEscapingSymlinks(t *testing.T) {
	outside := t.TempDir()
	tests := []struct {
		name string
		link string
	}{
		{name: "absolute", link: outside},
		{name: "parent", link: "../../outside"},
		{name: "nested parent", link: "lib/../../outside"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			archive := writeArchive(t, map[string]testutil.TarEntry{
				"bin":          {Link: tt.link},
				"bin/evil.txt": {Body: "nope"},
			})
			dest := filepath.Join(t.TempDir(), "out")

			err := extractTarGz(archive, dest)
			require.Error(t, err)
			require.Contains(t, err.Error(), "escapes the extraction directory")
			require.NoFileExists(t, filepath.Join(outside, "evil.txt"))
			_, err = os.Lstat(filepath.Join(dest, "bin"))
			require.ErrorIs(t, err, os.ErrNotExist)
		})
	}
}

func TestExtractTarGzRefusesWritesBelowSymlink(t *testing.T) {
	outside := t.TempDir()
	dest := filepath.Join(t.TempDir(), "out")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	require.NoError(t, os.Symlink(outside, filepath.Join(dest, "bin")))
	archive := writeArchive(t, map[string]testutil.TarEntry{
		"bin/evil.txt": {Body: "nope"},
	})

	err := extractTarGz(archive, dest)
	require.Error(t, err)
	require.Contains(t, err.Error(), "below a symlink")
	require.NoFileExists(t, filepath.Join(outside, "evil.txt"))
}

func TestExtractTarGzKeepsRelativeSymlinks(t *testing.T) {
	archive := writeArchive(t, map[string]testutil.TarEntry{
		"lib/core/builtin.mbt": {Body: "core"},
		"lib/core/alias.mbt":   {Link: "builtin.mbt"},
		"lib/current":          {Link: "core"},
	})
	dest := t.TempDir()

	require.NoError(t, extractTarGz(archive, dest))
	link, err := os.Readlink(filepath.Join(dest, "lib", "current"))
	require.NoError(t, err)
	require.Equal(t, "core", link)
	require.Equal(t, "core", readFile(t, filepath.Join(dest, "lib", "current", "alias.mbt")))
}

func TestExtractTarGzRejectsCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte("not gzip"), 0o644))

	require.Error(t, extractTarGz(path, t.TempDir()))
}

func TestPayloadRootFindsNestedDirectory(t *testing.T) {
	archive := writeArchive(t, map[string]testutil.TarEntry{
		"moonbit-linux-x64/bin/moon": {Body: "x"},
	})
	dest := t.TempDir()
	require.NoError(t, extractTarGz(archive, dest))

	payload, err := payloadRoot(dest)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dest, "moonbit-linux-x64"), payload)
}

func TestPayloadRootRejectsUnknownLayout(t *testing.T) {
	dest := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dest, "b"), 0o755))

	_, err := payloadRoot(dest)
	require.Error(t, err)
}

func TestReplaceToolchainDirsDropsStaleFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bin", "stale"), []byte("old"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "registry"), 0o755))

	payload := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(payload, "bin"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(payload, "bin", "moon"), []byte("new"), 0o644))

	replaced, err := replaceToolchainDirs(RealSystem{}, payload, root)
	require.NoError(t, err)
	require.Equal(t, []string{"bin"}, replaced)
	require.NoFileExists(t, filepath.Join(root, "bin", "stale"))
	require.FileExists(t, filepath.Join(root, "bin", "moon"))
	require.DirExists(t, filepath.Join(root, "registry"))

	require.NoError(t, markExecutable(RealSystem{}, root))
	info, err := os.Stat(filepath.Join(root, "bin", "moon"))
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestMarkExecutableWithoutBinIsNoOp(t *testing.T) {
	require.NoError(t, markExecutable(RealSystem{}, t.TempDir()))
}
