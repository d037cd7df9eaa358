package messages

// Release index, download, and resolution messages.
const (
	// ReleaseSourceRequired indicates the index source is empty.
	ReleaseSourceRequired         = "release index source is required"
	ReleaseDecodeIndexFmt         = "decode release index %s: %w"
	ReleaseEncodeIndexFmt         = "encode release index: %w"
	ReleaseEntryMissingVersionFmt = "release index %s: platform %s has an entry without a version"
	ReleaseUnsafeVersionFmt       = "release index %s: platform %s: version %q is not a single path element"
	ReleaseUnsafeNameFmt          = "release index %s: platform %s: version %s: artifact name %q is not a single path element"
	ReleaseDuplicateVersionFmt    = "release index %s: platform %s lists version %s more than once"
	ReleaseSourceNotFoundFmt      = "%s not found"
	ReleaseOpenSourceFmt          = "open %s: %w"
	ReleaseReadSourceFmt          = "read %s: %w"
	ReleaseCreateRequestFmt       = "create request for %s: %w"
	ReleaseRequestFailedFmt       = "request %s: %w"
	ReleaseTimeoutFmt             = "request %s timed out"
	ReleaseUnexpectedStatusFmt    = "request %s: unexpected status %s"
	ReleaseIndexTooLargeFmt       = "release index %s exceeds %d bytes"
	ReleaseCreateDirFmt           = "create directory %s: %w"
	ReleaseCreateTempFileFmt      = "create temp file: %w"
	ReleaseSyncTempFileFmt        = "sync temp file: %w"
	ReleaseCloseTempFileFmt       = "close temp file: %w"
	ReleaseMoveIntoPlaceFmt       = "move download into place at %s: %w"
	ReleaseDownloadTooLargeFmt    = "download %s is too large (%d bytes > %d bytes)"
	ReleaseOpenFileFmt            = "open %s: %w"
	ReleaseHashFileFmt            = "hash %s: %w"
	ReleaseChecksumMismatchFmt    = "%w for %s: expected %s, got %s"

	// NightlyFetchIndexFmt formats nightly channel index failures.
	NightlyFetchIndexFmt      = "fetch nightly channel index: %w"
	NightlyDecodeIndexFmt     = "decode nightly channel index %s: %w"
	NightlyChannelNotFoundFmt = "channel %q is not published by %s"
	NightlyChannelMissingDate = "nightly channel entry has no date"
	NightlyNoAssetFmt         = "no nightly asset found for %s (tried %s)"
	NightlyUnsupportedHostFmt = "no nightly build for %s/%s"

	// ResolveNightlyFmt formats nightly resolution failures.
	ResolveNightlyFmt = "resolve nightly: %w"
)

// Resolution messages.
const (
	// ResolveEmptyIndexFmt indicates the index has no releases for the platform.
	ResolveEmptyIndexFmt       = "release index has no releases for %s"
	ResolveNightlyUnconfigured = "nightly channel is not configured"
)

// VersionInvalidFmt formats semantic version parse failures.
const VersionInvalidFmt = "invalid version %q: %w"
