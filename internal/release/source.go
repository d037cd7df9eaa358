package release

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

var (
	indexHTTPClient    = &http.Client{Timeout: 30 * time.Second}
	artifactHTTPClient = &http.Client{Timeout: 10 * time.Minute}
)

const userAgent = "moonbit-up"

// IsLocal reports whether source names a local file rather than a network URL.
func IsLocal(source string) bool {
	parsed, err := url.Parse(source)
	if err != nil {
		return true
	}
	return parsed.Scheme == "" || parsed.Scheme == "file"
}

// LocalPath returns the filesystem path for a file:// URL or a plain path.
func LocalPath(source string) string {
	parsed, err := url.Parse(source)
	if err != nil || parsed.Scheme == "" {
		return source
	}
	if parsed.Scheme == "file" {
		if parsed.Host != "" && parsed.Host != "localhost" {
			return "//" + parsed.Host + parsed.Path
		}
		return parsed.Path
	}
	return source
}

// open returns a reader for source. Network sources must answer 200.
func open(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if IsLocal(source) {
		path := LocalPath(source)
		file, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf(messages.ReleaseSourceNotFoundFmt, source)
			}
			return nil, fmt.Errorf(messages.ReleaseOpenSourceFmt, source, err)
		}
		return file, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf(messages.ReleaseCreateRequestFmt, source, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := client.Do(req)
	if err != nil {
		if isTimeoutError(err) {
			return nil, fmt.Errorf(messages.ReleaseTimeoutFmt, source)
		}
		return nil, fmt.Errorf(messages.ReleaseRequestFailedFmt, source, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		_ = resp.Body.Close()
		return nil, fmt.Errorf(messages.ReleaseSourceNotFoundFmt, source)
	}
	if resp.StatusCode != http.StatusOK {
		status := resp.Status
		_ = resp.Body.Close()
		return nil, fmt.Errorf(messages.ReleaseUnexpectedStatusFmt, source, status)
	}
	return resp.Body, nil
}

// isTimeoutError reports whether err is a network timeout.
func isTimeoutError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// Exists sends a HEAD request to a network source, or stats a local one, and
// reports whether it answers with a 2xx status.
func Exists(ctx context.Context, source string) (bool, error) {
	if IsLocal(source) {
		_, err := os.Stat(LocalPath(source))
		if err == nil {
			return true, nil
		}
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf(messages.ReleaseOpenSourceFmt, source, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, source, nil)
	if err != nil {
		return false, fmt.Errorf(messages.ReleaseCreateRequestFmt, source, err)
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := indexHTTPClient.Do(req)
	if err != nil {
		return false, fmt.Errorf(messages.ReleaseRequestFailedFmt, source, err)
	}
	_ = resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300, nil
}
