package messages

// System messages for filesystem helpers and host detection.
const (
	// FsutilCreateDirFmt formats directory creation failures.
	FsutilCreateDirFmt   = "create directory %s: %w"
	FsutilCreateTempFmt  = "create temp file for %s: %w"
	FsutilWriteTempFmt   = "write temp file for %s: %w"
	FsutilSyncTempFmt    = "sync temp file for %s: %w"
	FsutilChmodTempFmt   = "chmod temp file for %s: %w"
	FsutilCloseTempFmt   = "close temp file for %s: %w"
	FsutilRenameTempFmt  = "move temp file into place at %s: %w"
	FsutilOpenLockFmt    = "open lock %s: %w"
	FsutilLockFmt        = "lock %s: %w"
	FsutilLockTimeoutFmt = "timed out waiting for lock after %s"
	FsutilStatFmt        = "stat %s: %w"
	FsutilReadlinkFmt    = "read symlink %s: %w"
	FsutilSymlinkFmt     = "create symlink %s: %w"
	FsutilRemoveFmt      = "remove %s: %w"
	FsutilOpenFmt        = "open %s: %w"
	FsutilCopyFmt        = "copy %s to %s: %w"
	FsutilWalkFmt        = "walk %s: %w"

	// PlatformUnsupportedOSFmt formats host detection failures.
	PlatformUnsupportedOSFmt   = "unsupported OS %q"
	PlatformUnsupportedArchFmt = "unsupported architecture %q"
)
