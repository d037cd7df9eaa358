// Package config loads, validates, and edits the moonbit-up config.toml and
// resolves the on-disk locations every component is constructed with.
package config

// Default endpoints for the release index and artifact downloads.
const (
	DefaultIndexURL               = "https://raw.githubusercontent.com/chawyehsu/moonbit-binaries/gh-pages/index.json"
	DefaultDownloadBaseURL        = "https://github.com/chawyehsu/moonbit-binaries/releases/download"
	DefaultNightlyDistServer      = "https://moonup.csu.moe/v3"
	DefaultNightlyDownloadBaseURL = "https://github.com/chawyehsu/moonbit-dist-nightly/releases/download"
)

// Config is the user-editable configuration stored in config.toml.
type Config struct {
	Mirror       MirrorConfig       `toml:"mirror"`
	Nightly      NightlyConfig      `toml:"nightly"`
	Installation InstallationConfig `toml:"installation"`
}

// MirrorConfig points at the upstream release index and its artifacts.
type MirrorConfig struct {
	IndexURL        string `toml:"index_url"`
	DownloadBaseURL string `toml:"download_base_url"`
}

// NightlyConfig points at the nightly distribution server.
type NightlyConfig struct {
	DistServer      string `toml:"dist_server"`
	DownloadBaseURL string `toml:"download_base_url"`
}

// InstallationConfig controls optional installer behavior.
type InstallationConfig struct {
	BackupEnabled   bool `toml:"backup_enabled"`
	VerifyChecksums bool `toml:"verify_checksums"`
}

// Default returns the built-in configuration used when no config file exists.
func Default() Config {
	return Config{
		Mirror: MirrorConfig{
			IndexURL:        DefaultIndexURL,
			DownloadBaseURL: DefaultDownloadBaseURL,
		},
		Nightly: NightlyConfig{
			DistServer:      DefaultNightlyDistServer,
			DownloadBaseURL: DefaultNightlyDownloadBaseURL,
		},
		Installation: InstallationConfig{
			BackupEnabled:   true,
			VerifyChecksums: true,
		},
	}
}
