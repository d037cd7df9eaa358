package messages

// Mirror messages.
const (
	MirrorNotInitialized     = "mirror is not initialized; run mirror create first"
	MirrorNoVersionsMatched  = "none of the requested versions are listed upstream"
	MirrorLocationRequired   = "mirror location is required"
	MirrorUpstreamFmt        = "fetch upstream index: %w"
	MirrorReadIndexFmt       = "read mirror index %s: %w"
	MirrorWriteIndexFmt      = "write mirror index %s: %w"
	MirrorDownloadFmt        = "download %s: %w"
	MirrorStoreArtifactFmt   = "store %s: %w"
	MirrorUnsafeEntryFmt     = "version %q artifact %q does not name a single path element"
	MirrorCreateScratchFmt   = "create scratch directory: %w"
	MirrorUsageFmt           = "measure mirror %s: %w"
	MirrorInvalidS3URLFmt    = "invalid S3 location %q: expected s3://bucket[/prefix]"
	MirrorLoadAWSConfigFmt   = "load AWS configuration: %w"
	MirrorS3GetFmt           = "get s3://%s/%s: %w"
	MirrorS3PutFmt           = "put s3://%s/%s: %w"
	MirrorS3HeadFmt          = "head s3://%s/%s: %w"
	MirrorS3ListFmt          = "list s3://%s/%s: %w"
	MirrorOpenArtifactFmt    = "open %s: %w"
	MirrorInvalidScheduleFmt = "invalid sync schedule %q: %w"
	MirrorInvalidPath        = "invalid path"

	MirrorUpToDate           = "Mirror is up to date.\n"
	MirrorNewVersionsFmt     = "Found %d new version(s).\n"
	MirrorDownloadingFmt     = "Downloading %s (%s)...\n"
	MirrorSkippingFmt        = "Already present: %s\n"
	MirrorMissingUpstreamFmt = "Not listed upstream: %s\n"
	MirrorDownloadFailedFmt  = "Failed to download %s: %v\n"
)
