package install

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Wrapper puts a launcher in front of every toolchain executable.
// Wrap must skip executables it has already wrapped.
type Wrapper interface {
	Wrap(root string) ([]string, error)
}

// NoWrapper leaves executables untouched.
type NoWrapper struct{}

// Wrap does nothing.
func (NoWrapper) Wrap(string) ([]string, error) {
	return nil, nil
}

// Executables lists the toolchain binaries that get wrapped.
var Executables = []string{
	"moon", "moonc", "moonfmt", "mooninfo", "mooncake",
	"moon_cove_report", "moonbit-lsp", "moondoc", "moonrun", "moon-ide",
}

const realSuffix = ".real"

// QEMUWrapper renames each executable to <name>.real and installs a bash
// launcher that exports QEMU_LD_PREFIX before exec'ing it.
type QEMUWrapper struct {
	LibsDir string
	System  System
}

// Wrap wraps every known executable under root/bin and returns the names it wrapped.
func (w QEMUWrapper) Wrap(root string) ([]string, error) {
	sys := w.System
	if sys == nil {
		sys = RealSystem{}
	}
	binDir := filepath.Join(root, "bin")
	var wrapped []string
	for _, name := range Executables {
		binary := filepath.Join(binDir, name)
		real := binary + realSuffix
		if exists(sys, real) || !exists(sys, binary) {
			continue
		}
		if err := sys.Rename(binary, real); err != nil {
			return wrapped, fmt.Errorf(messages.InstallWrapRenameFmt, name, err)
		}
		if err := sys.WriteFile(binary, []byte(wrapperScript(w.LibsDir)), 0o755); err != nil {
			return wrapped, fmt.Errorf(messages.InstallWrapWriteFmt, name, err)
		}
		if err := sys.Chmod(binary, 0o755); err != nil {
			return wrapped, fmt.Errorf(messages.InstallWrapWriteFmt, name, err)
		}
		wrapped = append(wrapped, name)
	}
	return wrapped, nil
}

func wrapperScript(libsDir string) string {
	return fmt.Sprintf(`#!/bin/bash
SCRIPT_DIR="$(cd "$(dirname "${BASH_SOURCE[0]}")" && pwd)"
BINARY_NAME="$(basename "${BASH_SOURCE[0]}")"
export QEMU_LD_PREFIX=%s
exec "$SCRIPT_DIR/$BINARY_NAME%s" "$@"
`, shellQuote(libsDir), realSuffix)
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
