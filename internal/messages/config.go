package messages

// Config messages for configuration loading and validation.
const (
	// ConfigReadFileFmt formats config read failures.
	ConfigReadFileFmt         = "read config file %s: %w"
	ConfigWriteFileFmt        = "write config file %s: %w"
	ConfigInvalidConfigFmt    = "invalid config %s: %w"
	ConfigUnrecognizedKeysFmt = "config %s contains unrecognized keys: %w"
	ConfigEncodeFmt           = "encode config: %w"
	ConfigInvalidEndpointFmt  = "config %s: %s: %w"
	ConfigEndpointEmpty       = "value is empty"
	ConfigEndpointSchemeFmt   = "unsupported scheme %q (expected http, https, or file)"
	ConfigInvalidValueFmt     = "invalid value for %s (%q): %w"
	ConfigUnknownKeyFmt       = "unknown config key %q (known keys: %s)"
	ConfigExpandPathFmt       = "expand path %s: %w"
)
