// Package nightly resolves builds published on the nightly distribution channel.
package nightly

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/platform"
	"github.com/conn-castle/moonbit-up/internal/release"
)

// ChannelNightly is the channel name for daily builds.
const ChannelNightly = "nightly"

// Channel is one entry of the distribution index.
type Channel struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Date    string `json:"date,omitempty"`
}

// DistIndex is the distribution server's channel list.
type DistIndex struct {
	Version  int       `json:"version"`
	Channels []Channel `json:"channels"`
}

// Lookup returns the channel named name.
func (idx DistIndex) Lookup(name string) (Channel, bool) {
	for _, ch := range idx.Channels {
		if ch.Name == name {
			return ch, true
		}
	}
	return Channel{}, false
}

// Build is a resolved nightly artifact.
type Build struct {
	Version string
	Date    string
	Asset   string
	URL     string
}

// Client talks to the distribution server and the nightly release host.
type Client struct {
	DistServer      string
	DownloadBaseURL string
	Logger          *zap.SugaredLogger
}

var probeAsset = release.Exists

// IndexURL returns the distribution index location.
func (c *Client) IndexURL() string {
	return strings.TrimRight(c.DistServer, "/") + "/index.json"
}

// FetchIndex downloads and decodes the distribution index.
func (c *Client) FetchIndex(ctx context.Context) (DistIndex, error) {
	source := c.IndexURL()
	data, err := release.ReadDocument(ctx, source)
	if err != nil {
		return DistIndex{}, fmt.Errorf(messages.NightlyFetchIndexFmt, err)
	}
	var idx DistIndex
	if err := json.Unmarshal(data, &idx); err != nil {
		return DistIndex{}, fmt.Errorf(messages.NightlyDecodeIndexFmt, source, err)
	}
	return idx, nil
}

// Resolve finds the newest build on channel for the host and confirms the
// artifact exists upstream.
func (c *Client) Resolve(ctx context.Context, channel string, host platform.Info) (Build, error) {
	logger := c.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	idx, err := c.FetchIndex(ctx)
	if err != nil {
		return Build{}, err
	}
	ch, ok := idx.Lookup(channel)
	if !ok {
		return Build{}, fmt.Errorf(messages.NightlyChannelNotFoundFmt, channel, c.IndexURL())
	}
	if strings.TrimSpace(ch.Date) == "" {
		return Build{}, fmt.Errorf(messages.NightlyChannelMissingDate)
	}
	triple, err := TargetTriple(host)
	if err != nil {
		return Build{}, err
	}
	tag := "nightly-" + ch.Date
	candidates := CandidateAssetNames(triple, ch.Date)
	logger.Debugf("probing %d nightly assets under %s", len(candidates), tag)
	url, asset, err := c.probeFirstExisting(ctx, tag, candidates)
	if err != nil {
		return Build{}, err
	}
	return Build{Version: ch.Version, Date: ch.Date, Asset: asset, URL: url}, nil
}

// probeFirstExisting returns the first candidate that answers a HEAD request.
func (c *Client) probeFirstExisting(ctx context.Context, tag string, candidates []string) (string, string, error) {
	base := strings.TrimRight(c.DownloadBaseURL, "/")
	for _, name := range candidates {
		url := fmt.Sprintf("%s/%s/%s", base, tag, name)
		ok, err := probeAsset(ctx, url)
		if err != nil {
			if ctx.Err() != nil {
				return "", "", ctx.Err()
			}
			continue
		}
		if ok {
			return url, name, nil
		}
	}
	return "", "", fmt.Errorf(messages.NightlyNoAssetFmt, tag, strings.Join(candidates, ", "))
}

// TargetTriple maps a host to the toolchain's target triple. Linux arm64
// hosts get the x86_64 build because it runs under emulation.
func TargetTriple(host platform.Info) (string, error) {
	switch host.OS {
	case "linux":
		return "x86_64-unknown-linux", nil
	case "darwin":
		if host.Arch == "arm64" {
			return "aarch64-apple-darwin", nil
		}
		return "x86_64-apple-darwin", nil
	}
	return "", fmt.Errorf(messages.NightlyUnsupportedHostFmt, host.OS, host.Arch)
}

// CandidateAssetNames lists archive names to try, dated nightly names first
// and the undated stable name last.
func CandidateAssetNames(triple string, date string) []string {
	names := make([]string, 0, 2)
	if date != "" {
		names = append(names, fmt.Sprintf("moonbit-nightly-%s-%s.tar.gz", date, triple))
	}
	return append(names, fmt.Sprintf("moonbit-%s.tar.gz", triple))
}
