package release

import (
	"fmt"
	"strings"
)

// DownloadURL builds <base>/v<version>/<asset>.
func DownloadURL(base string, version string, asset string) string {
	return fmt.Sprintf("%s/v%s/%s", strings.TrimRight(base, "/"), version, asset)
}

// GuessAssetName returns the conventional archive name for version on the
// default platform. It is only a guess and may not exist upstream.
func GuessAssetName(version string) string {
	return fmt.Sprintf("moonbit-v%s-%s.tar.gz", version, DefaultPlatformKey)
}
