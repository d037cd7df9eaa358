package messages

// Install and rollback messages.
const (
	InstallRootRequired       = "installation root is required"
	InstallDependencyRequired = "installer is missing a required dependency"

	// Terminal step failures. Each takes the underlying error.
	InstallResolveFailedFmt       = "could not resolve version: %v"
	InstallPrerequisitesFailedFmt = "prerequisites not met: %v"
	InstallDownloadFailedFmt      = "download failed: %v"
	InstallExtractFailedFmt       = "extraction failed: %v"
	InstallWrappersFailedFmt      = "could not create wrappers: %v"
	InstallVerifyFailedFmt        = "installation verification failed: %v"
	InstallHistoryFailedFmt       = "could not record install in history: %v"
	InstallRestoreFailedFmt       = "could not restore backup: %v"
	InstallStepFailedFmt          = "%s failed: %v"

	// Progress lines.
	InstallResolvingFmt   = "Resolving %s...\n"
	InstallTargetFmt      = "Target version: %s\n"
	InstallCurrentFmt     = "Current version: %s\n"
	InstallBackingUpFmt   = "Backing up %s...\n"
	InstallDownloadingFmt = "Downloading %s...\n"
	InstallExtracting     = "Extracting...\n"
	InstallVerifying      = "Verifying installation...\n"
	RollbackRestoringFmt  = "Restoring %s from %s...\n"

	// Warnings collected on the install result.
	InstallWarnGuessedFmt      = "version %s is not in the release index; trying guessed URL %s"
	InstallWarnFallbackFmt     = "release index unavailable; falling back to %s"
	InstallWarnBackupSkipped   = "backup skipped; rollback to the current installation will not be possible"
	InstallWarnBackupFailedFmt = "backup failed, continuing without one: %v"
	InstallWarnPreserveFmt     = "user data not preserved: %v"

	InstallBackupCopyFmt    = "copy %s to %s: %w"
	InstallBackupMissingFmt = "%w: %s does not exist"
	InstallNoBackup         = "previous installation has no backup"
	InstallPreserveItemFmt  = "%s: %w"
	InstallCreateScratchFmt = "create scratch directory: %w"

	InstallBinaryMissingFmt = "%s not found"
	InstallProbeTimeoutFmt  = "%s version timed out after %s"
	InstallProbeFailedFmt   = "%s version: %w: %s"

	InstallCompatDockerMissingFmt = "amd64 compatibility libraries are missing from %s and docker is not available to extract them"
	InstallCompatExtractFmt       = "extract compatibility libraries: %w: %s"
	InstallCompatLoaderMissingFmt = "compatibility loader %s is missing after extraction"

	InstallWrapRenameFmt = "rename %s: %w"
	InstallWrapWriteFmt  = "write wrapper for %s: %w"

	InstallOpenArchiveFmt        = "open archive %s: %w"
	InstallReadArchiveFmt        = "read %s: %w"
	InstallWriteEntryFmt         = "write %s: %w"
	InstallIllegalArchivePathFmt = "archive entry %q escapes the extraction directory"
	InstallIllegalSymlinkFmt     = "archive symlink %q -> %q escapes the extraction directory"
	InstallSymlinkParentFmt      = "archive entry %q is below a symlink"
	InstallArchiveLayoutFmt      = "archive does not contain any of %s"
	InstallCreateDirFmt          = "create directory %s: %w"
	InstallRemoveFmt             = "remove %s: %w"
	InstallReadDirFmt            = "read directory %s: %w"
	InstallChmodFmt              = "chmod %s: %w"
)
