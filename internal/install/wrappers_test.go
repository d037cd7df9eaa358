package install

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/conn-castle/moonbit-up/internal/testutil"
)

func TestQEMUWrapperWrapsOnce(t *testing.T) {
	root := t.TempDir()
	testutil.WriteVersionStub(t, root, "0.1.20250101")
	testutil.WriteStub(t, filepath.Join(root, "bin"), "moonfmt")
	w := QEMUWrapper{LibsDir: "/opt/it's libs"}

	wrapped, err := w.Wrap(root)
	require.NoError(t, err)
	require.Equal(t, []string{"moon", "moonfmt"}, wrapped)

	script := readFile(t, filepath.Join(root, "bin", "moon"))
	require.True(t, strings.HasPrefix(script, "#!/bin/bash\n"))
	require.Contains(t, script, `export QEMU_LD_PREFIX='/opt/it'\''s libs'`)

	wrapped, err = w.Wrap(root)
	require.NoError(t, err)
	require.Empty(t, wrapped)
	require.Equal(t, script, readFile(t, filepath.Join(root, "bin", "moon")))
}

func TestQEMUWrapperScriptExecsRealBinary(t *testing.T) {
	if _, err := exec.LookPath("bash"); err != nil {
		t.Skip("bash not available")
	}
	root := t.TempDir()
	testutil.WriteVersionStub(t, root, "0.1.20250101")
	_, err := QEMUWrapper{LibsDir: t.TempDir()}.Wrap(root)
	require.NoError(t, err)

	out, err := exec.Command(filepath.Join(root, "bin", "moon"), "version").Output()
	require.NoError(t, err)
	require.Contains(t, string(out), "moon 0.1.20250101")
}

func TestQEMUWrapperRenameFailure(t *testing.T) {
	root := t.TempDir()
	testutil.WriteVersionStub(t, root, "0.1.20250101")
	sys := newFaultSystem()
	sys.renameErrs[filepath.Join(root, "bin", "moon")] = os.ErrPermission

	_, err := QEMUWrapper{LibsDir: "/libs", System: sys}.Wrap(root)
	require.ErrorIs(t, err, os.ErrPermission)
}

func TestNoWrapper(t *testing.T) {
	wrapped, err := NoWrapper{}.Wrap(t.TempDir())
	require.NoError(t, err)
	require.Nil(t, wrapped)
}
