package install

import (
	"fmt"
	"path/filepath"

	"go.uber.org/multierr"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

type preservedItem struct {
	rel string
	// onlyIfAbsent skips the item when the new install already ships it.
	onlyIfAbsent bool
}

// userData lists what survives an upgrade, relative to the installation root.
var userData = []preservedItem{
	{rel: "registry"},
	{rel: "credentials.json"},
	{rel: filepath.Join("lib", "core"), onlyIfAbsent: true},
}

// preserveUserData copies user data from backup into root. Each item is
// independent: a failure is collected and the remaining items still run.
func preserveUserData(sys System, backup string, root string) ([]string, error) {
	if backup == "" || !exists(sys, backup) {
		return nil, nil
	}
	var preserved []string
	var errs error
	for _, item := range userData {
		src := filepath.Join(backup, item.rel)
		if !exists(sys, src) {
			continue
		}
		dst := filepath.Join(root, item.rel)
		if item.onlyIfAbsent && exists(sys, dst) {
			continue
		}
		if err := sys.CopyTree(src, dst); err != nil {
			errs = multierr.Append(errs, fmt.Errorf(messages.InstallPreserveItemFmt, item.rel, err))
			continue
		}
		preserved = append(preserved, item.rel)
	}
	return preserved, errs
}
