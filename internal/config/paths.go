package config

import (
	"fmt"
	"path/filepath"

	"github.com/mitchellh/go-homedir"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Paths holds every on-disk location the tool reads or writes. Components
// receive a Paths value at construction and never consult the environment.
type Paths struct {
	// InstallRoot is the toolchain installation directory (bin, lib, include).
	InstallRoot string
	// BackupParent is the directory that receives timestamped backups.
	BackupParent  string
	ConfigDir     string
	ConfigPath    string
	HistoryPath   string
	CompatLibsDir string
}

// DefaultPaths returns the standard layout under a user home directory.
func DefaultPaths(home string) Paths {
	configDir := filepath.Join(home, ".config", "moonbit-up")
	return Paths{
		InstallRoot:   filepath.Join(home, ".moon"),
		BackupParent:  home,
		ConfigDir:     configDir,
		ConfigPath:    filepath.Join(configDir, "config.toml"),
		HistoryPath:   filepath.Join(configDir, "version_history.json"),
		CompatLibsDir: filepath.Join(home, "moonbit-amd64-libs"),
	}
}

// WithInstallRoot returns p with the installation root moved to root.
// Backups follow the root so they stay on the same filesystem.
func (p Paths) WithInstallRoot(root string) Paths {
	p.InstallRoot = root
	p.BackupParent = filepath.Dir(root)
	return p
}

// WithConfigDir returns p with config.toml and the history file under dir.
func (p Paths) WithConfigDir(dir string) Paths {
	p.ConfigDir = dir
	p.ConfigPath = filepath.Join(dir, "config.toml")
	p.HistoryPath = filepath.Join(dir, "version_history.json")
	return p
}

// ExpandHome expands a leading ~ in path to the user's home directory.
func ExpandHome(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf(messages.ConfigExpandPathFmt, path, err)
	}
	return expanded, nil
}
