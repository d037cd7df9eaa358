// Package version parses moonup's own build version. Toolchain versions are
// opaque and never go through here.
package version

import (
	"fmt"
	"strings"

	semver "github.com/blang/semver/v4"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// Dev is the version reported by builds without release metadata.
const Dev = "dev"

// IsDev reports whether raw names a development build.
func IsDev(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed == "" || strings.EqualFold(trimmed, Dev)
}

// Normalize strips a leading "v" and validates raw as a semantic version.
func Normalize(raw string) (string, error) {
	parsed, err := semver.ParseTolerant(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf(messages.VersionInvalidFmt, raw, err)
	}
	return parsed.String(), nil
}
