package install

import (
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

const (
	backupPrefix     = ".moon.backup."
	backupTimeLayout = "20060102_150405"
)

// backupPath picks <parent>/.moon.backup.<YYYYMMDD_HHMMSS>, adding a numeric
// suffix when a backup from the same second already exists.
func backupPath(sys System, parent string, now time.Time) string {
	base := filepath.Join(parent, backupPrefix+now.Format(backupTimeLayout))
	candidate := base
	for n := 1; exists(sys, candidate); n++ {
		candidate = base + "_" + strconv.Itoa(n)
	}
	return candidate
}

// createBackup copies root to a fresh backup directory under parent. A partial
// copy is removed before the error is returned.
func createBackup(sys System, root string, parent string, now time.Time) (string, error) {
	dest := backupPath(sys, parent, now)
	if err := sys.CopyTree(root, dest); err != nil {
		_ = sys.RemoveAll(dest)
		return "", fmt.Errorf(messages.InstallBackupCopyFmt, root, dest, err)
	}
	return dest, nil
}
