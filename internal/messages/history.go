package messages

// Version history messages.
const (
	// HistoryNoPreviousVersion indicates fewer than two installs are recorded.
	HistoryNoPreviousVersion = "no previous version to roll back to"
	HistoryVersionRequired   = "history record requires a version"
	HistoryReadFmt           = "read version history %s: %w"
	HistoryDecodeFmt         = "decode version history %s: %w"
	HistoryEncodeFmt         = "encode version history: %w"
	HistoryWriteFmt          = "write version history %s: %w"
)
