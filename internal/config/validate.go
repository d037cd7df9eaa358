package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

var sourceSchemes = map[string]struct{}{
	"http":  {},
	"https": {},
	"file":  {},
}

// Validate ensures every endpoint is set and uses a supported scheme.
func (c Config) Validate(source string) error {
	checks := []struct {
		key   string
		value string
	}{
		{"mirror.index_url", c.Mirror.IndexURL},
		{"mirror.download_base_url", c.Mirror.DownloadBaseURL},
		{"nightly.dist_server", c.Nightly.DistServer},
		{"nightly.download_base_url", c.Nightly.DownloadBaseURL},
	}
	for _, check := range checks {
		if err := validateEndpoint(check.value); err != nil {
			return fmt.Errorf(messages.ConfigInvalidEndpointFmt, source, check.key, err)
		}
	}
	return nil
}

func validateEndpoint(raw string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fmt.Errorf(messages.ConfigEndpointEmpty)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return err
	}
	if _, ok := sourceSchemes[parsed.Scheme]; !ok {
		return fmt.Errorf(messages.ConfigEndpointSchemeFmt, parsed.Scheme)
	}
	return nil
}
