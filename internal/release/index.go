// Package release models the upstream release index and moves its documents
// and artifacts between network, local files, and disk.
package release

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// DefaultPlatformKey is the index key for the only published toolchain build.
// Other hosts run it through emulation.
const DefaultPlatformKey = "linux-x64"

// Entry identifies one installable artifact. Version is an opaque token and is
// only ever compared for equality.
type Entry struct {
	Version string `json:"version"`
	Name    string `json:"name"`
	SHA256  string `json:"sha256"`
}

// Platform is the release list for one platform key. Releases keep upstream
// order, which is newest first by convention; nothing here re-sorts them.
type Platform struct {
	LastModified string  `json:"last_modified"`
	Releases     []Entry `json:"releases"`
}

// Index maps platform keys to their releases.
type Index map[string]Platform

// Releases returns the release list for key, or nil when the key is absent.
func (idx Index) Releases(key string) []Entry {
	if idx == nil {
		return nil
	}
	return idx[key].Releases
}

// Find returns the entry whose version equals version exactly.
func (idx Index) Find(key string, version string) (Entry, bool) {
	for _, entry := range idx.Releases(key) {
		if entry.Version == version {
			return entry, true
		}
	}
	return Entry{}, false
}

// Versions returns the version identifiers for key in index order.
func (idx Index) Versions(key string) []string {
	releases := idx.Releases(key)
	out := make([]string, 0, len(releases))
	for _, entry := range releases {
		out = append(out, entry.Version)
	}
	return out
}

// Decode parses an index document. source is used in error messages.
func Decode(data []byte, source string) (Index, error) {
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf(messages.ReleaseDecodeIndexFmt, source, err)
	}
	if idx == nil {
		idx = Index{}
	}
	for key, platform := range idx {
		seen := make(map[string]struct{}, len(platform.Releases))
		for _, entry := range platform.Releases {
			if strings.TrimSpace(entry.Version) == "" {
				return nil, fmt.Errorf(messages.ReleaseEntryMissingVersionFmt, source, key)
			}
			if !IsPathElement(entry.Version) {
				return nil, fmt.Errorf(messages.ReleaseUnsafeVersionFmt, source, key, entry.Version)
			}
			if entry.Name != "" && !IsPathElement(entry.Name) {
				return nil, fmt.Errorf(messages.ReleaseUnsafeNameFmt, source, key, entry.Version, entry.Name)
			}
			if _, dup := seen[entry.Version]; dup {
				return nil, fmt.Errorf(messages.ReleaseDuplicateVersionFmt, source, key, entry.Version)
			}
			seen[entry.Version] = struct{}{}
		}
	}
	return idx, nil
}

// IsPathElement reports whether s names exactly one path element. Versions
// and artifact names become directories and files under an install or mirror
// root and must not reach outside it.
func IsPathElement(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`) && filepath.Base(s) == s
}

// SameRelease reports whether an installed version, as the toolchain reports
// it, names the indexed version. The toolchain drops the +build suffix that
// index versions carry, so 0.1.20250101 matches 0.1.20250101+62b9a1a85.
func SameRelease(installed, indexed string) bool {
	if installed == "" || indexed == "" {
		return false
	}
	if installed == indexed {
		return true
	}
	base, _, found := strings.Cut(indexed, "+")
	return found && base == installed
}

// Encode renders idx as indented JSON with a trailing newline.
func Encode(idx Index) ([]byte, error) {
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return nil, fmt.Errorf(messages.ReleaseEncodeIndexFmt, err)
	}
	return append(data, '\n'), nil
}

// Timestamp formats t the way index and history documents store times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

var embeddedDate = regexp.MustCompile(`\d{8}`)

// ReleaseDate extracts the 8-digit date embedded in a version such as
// 0.1.20241223+62b9a1a85 and returns it as 2024-12-23.
func ReleaseDate(version string) (string, bool) {
	for _, candidate := range embeddedDate.FindAllString(version, -1) {
		parsed, err := time.Parse("20060102", candidate)
		if err != nil {
			continue
		}
		return parsed.Format("2006-01-02"), true
	}
	return "", false
}
