// Package fsutil holds filesystem helpers shared by the history store, the installer,
// and the mirror: atomic writes, advisory locks, and tree copies.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

var (
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
)

// WriteFileAtomic writes data to filename through a temp file in the same directory
// followed by a rename, so readers never observe a partially written file.
func WriteFileAtomic(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf(messages.FsutilCreateDirFmt, dir, err)
	}
	tmp, err := osCreateTemp(dir, "."+filepath.Base(filename)+".tmp-*")
	if err != nil {
		return fmt.Errorf(messages.FsutilCreateTempFmt, filename, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.FsutilWriteTempFmt, filename, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.FsutilSyncTempFmt, filename, err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.FsutilChmodTempFmt, filename, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf(messages.FsutilCloseTempFmt, filename, err)
	}
	if err := osRename(tmpName, filename); err != nil {
		return fmt.Errorf(messages.FsutilRenameTempFmt, filename, err)
	}
	committed = true
	return nil
}
