package messages

// CLI messages for user-facing commands and prompts.
const (
	// RootUse is the CLI command name.
	RootUse   = "moonup"
	RootShort = "MoonBit toolchain manager"
	RootLong  = "Install, update, and roll back the MoonBit toolchain, and keep a mirror of its releases.\n\nRun without a subcommand to install the latest release."

	RootFlagMoonHome  = "Toolchain installation directory (default $MOON_HOME or ~/.moon)"
	RootFlagConfigDir = "Directory holding config.toml and the install history (default ~/.config/moonbit-up)"
	RootFlagLogLevel  = "Diagnostic log level: debug, info, warn, or error"
	RootHomeDirFmt    = "resolve home directory: %w"
	RootLogLevelFmt   = "invalid log level %q: %w"
	RootPlatformFmt   = "detect host platform: %w"

	// VersionCommitFmt formats the commit hash for version display.
	VersionCommitFmt = "commit %s"
	VersionBuildFmt  = "built %s"
	VersionFullFmt   = "%s (%s)"
	VersionTemplate  = "moonup {{.Version}}\n"

	InstallUse           = "install [version]"
	InstallShort         = "Install or update the MoonBit toolchain"
	InstallLong          = "Install a toolchain release. The version is \"latest\" (default), \"nightly\", or an exact release such as 0.1.20250101."
	InstallFlagNoBackup  = "Skip backing up the current installation"
	InstallSucceededFmt  = "Installed MoonBit %s into %s\n"
	InstallUpToDateFmt   = "MoonBit %s is already installed\n"
	InstallBackupAtFmt   = "Backup saved to %s\n"
	InstallWrappedFmt    = "Wrapped %d executable(s) for emulation\n"
	InstallNextStep      = "Run `moon version` to verify the installation."
	InstallWarningFmt    = "Warning: %s\n"
	InstallFailedPrefix  = "Installation failed"
	InstallEmulationNote = "Host %s runs the linux-x64 toolchain under emulation\n"

	RollbackUse          = "rollback"
	RollbackShort        = "Restore the installation that preceded the latest install"
	RollbackFlagYes      = "Do not ask for confirmation"
	RollbackConfirmFmt   = "Replace %s with the backup of %s (%s)?"
	RollbackCancelled    = "Rollback cancelled."
	RollbackSucceededFmt = "Rolled back to %s\n"
	RollbackNeedsYes     = "rollback requires confirmation; re-run with --yes when not attached to a terminal"

	CurrentUse            = "current"
	CurrentShort          = "Show the installed MoonBit version and install history"
	CurrentVersionFmt     = "Current MoonBit version: %s\n"
	CurrentNotInstalled   = "MoonBit is not currently installed. Run `moonup` to install it."
	CurrentHistoryHeading = "\nInstallation history:\n"
	CurrentUpdateFmt      = "The latest release is %s (run `moonup update`)\n"
	CurrentUpdateCheckFmt = "could not check for a newer release: %v"

	HistoryUse        = "history"
	HistoryShort      = "Show the installation history"
	HistoryFlagOutput = "Output format: table, json, or yaml"
	HistoryEmpty      = "No installation history."
	HistoryHeader     = "VERSION\tINSTALLED AT\tBACKUP"
	HistoryRowFmt     = "%s\t%s\t%s\n"
	HistoryNoBackup   = "-"
	OutputFormatFmt   = "unsupported output format %q (expected table, json, or yaml)"

	ListUse          = "list"
	ListShort        = "List releases available from the release index"
	ListFlagLimit    = "Number of releases to show"
	ListFlagAll      = "Show every release"
	ListHeaderFmt    = "Available releases (%d of %d):\n"
	ListRowFmt       = "  %s%s%s\n"
	ListDateFmt      = "  (%s)"
	ListInstalledTag = "  [installed]"
	ListEmpty        = "The release index lists no releases."

	ConfigUse        = "config"
	ConfigShort      = "Show or edit moonup configuration"
	ConfigShowUse    = "show"
	ConfigShowShort  = "Print the effective configuration"
	ConfigGetUse     = "get <key>"
	ConfigGetShort   = "Print one configuration value"
	ConfigSetUse     = "set <key> <value>"
	ConfigSetShort   = "Change one configuration value"
	ConfigResetUse   = "reset"
	ConfigResetShort = "Restore the default configuration"
	ConfigPathFmt    = "# %s\n"
	ConfigUnchanged  = "Configuration unchanged."
	ConfigSavedFmt   = "Saved %s\n"

	MirrorUse            = "mirror"
	MirrorShort          = "Create and maintain a mirror of the release index and artifacts"
	MirrorCreateUse      = "create <path|s3://bucket/prefix>"
	MirrorCreateShort    = "Create a mirror, or add releases to one"
	MirrorSyncUse        = "sync <path|s3://bucket/prefix>"
	MirrorSyncShort      = "Download releases the mirror is missing"
	MirrorInfoUse        = "info <path|s3://bucket/prefix>"
	MirrorInfoShort      = "Describe a mirror"
	MirrorServeUse       = "serve <path|s3://bucket/prefix>"
	MirrorServeShort     = "Serve a mirror over HTTP"
	MirrorFlagVersion    = "Release to mirror; repeatable (default: the latest release)"
	MirrorFlagAll        = "Mirror every upstream release"
	MirrorFlagOutput     = "Output format: table, json, or yaml"
	MirrorFlagAddr       = "Listen address"
	MirrorFlagSchedule   = "Cron schedule for background sync, e.g. \"@every 6h\""
	MirrorFlagS3Endpoint = "Custom S3 endpoint for S3-compatible storage"
	MirrorFlagStrict     = "Exit non-zero when any release fails to download"
	MirrorCreatedFmt     = "Mirror %s: %d downloaded, %d already present, %d listed\n"
	MirrorSyncedFmt      = "Mirror %s: %d new release(s) added\n"
	MirrorRetainedFmt    = "Kept %d release(s) no longer listed upstream\n"
	MirrorFailuresFmt    = "%d release(s) could not be mirrored and will be retried on the next sync"
	MirrorInfoFmt        = "Location:      %s\nReleases:      %d\nLast modified: %s\nLatest:        %s\nOldest:        %s\nSize:          %s\n"
	MirrorUsageHintFmt   = "Point moonup at this mirror with:\n  moonup config set mirror.index_url %s/index.json\n  moonup config set mirror.download_base_url %s/releases\n"

	// PromptYesDefaultFmt formats yes/no prompts with yes as default.
	PromptYesDefaultFmt   = "%s [Y/n]: "
	PromptNoDefaultFmt    = "%s [y/N]: "
	PromptInvalidResponse = "invalid response %q"
	PromptRetryYesNo      = "Please enter y or n."
)
