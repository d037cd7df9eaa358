// Package resolve turns a requested toolchain version into a download reference.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/nightly"
	"github.com/conn-castle/moonbit-up/internal/platform"
	"github.com/conn-castle/moonbit-up/internal/release"
)

// Requests with special meaning.
const (
	Latest  = "latest"
	Nightly = nightly.ChannelNightly
)

// DefaultFallbackURL is the vendor's always-current archive, used when the
// index cannot be read while resolving "latest".
const DefaultFallbackURL = "https://cli.moonbitlang.com/binaries/latest/moonbit-linux-x86_64.tar.gz"

// Kind tells callers how much to trust a Resolution.
type Kind int

const (
	// KindResolved means the reference came from an index entry.
	KindResolved Kind = iota + 1
	// KindGuessed means the version was not in the index and the URL was
	// templated from naming conventions. It may not exist.
	KindGuessed
	// KindFallback means the index was unavailable and the vendor's
	// "latest" archive is used. Version is the literal "latest".
	KindFallback
)

func (k Kind) String() string {
	switch k {
	case KindResolved:
		return "resolved"
	case KindGuessed:
		return "guessed"
	case KindFallback:
		return "fallback"
	}
	return "unknown"
}

// Resolution is a concrete download reference for a request.
type Resolution struct {
	Requested string
	Version   string
	Asset     string
	URL       string
	// SHA256 is set only when the index published a checksum.
	SHA256 string
	Kind   Kind
	// Cause records why resolution degraded, when it did because of an error.
	Cause error
}

// Verified reports whether the reference came from the index.
func (r Resolution) Verified() bool {
	return r.Kind == KindResolved
}

// NightlyResolver finds builds on a distribution channel.
type NightlyResolver interface {
	Resolve(ctx context.Context, channel string, host platform.Info) (nightly.Build, error)
}

// Resolver resolves requests against a release index. Each call fetches the
// index at most once and never retries.
type Resolver struct {
	Fetcher         release.Fetcher
	DownloadBaseURL string
	FallbackURL     string
	PlatformKey     string
	Nightly         NightlyResolver
	Host            platform.Info
	Logger          *zap.SugaredLogger
}

func (r *Resolver) logger() *zap.SugaredLogger {
	if r.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return r.Logger
}

func (r *Resolver) platformKey() string {
	if r.PlatformKey == "" {
		return release.DefaultPlatformKey
	}
	return r.PlatformKey
}

// Resolve maps requested to a Resolution. "latest" and explicit versions never
// fail: they degrade to KindFallback or KindGuessed. Only channel requests can
// return an error, because no safe guess exists for them.
func (r *Resolver) Resolve(ctx context.Context, requested string) (Resolution, error) {
	requested = strings.TrimSpace(requested)
	switch requested {
	case "", Latest:
		return r.resolveLatest(ctx), nil
	case Nightly:
		return r.resolveChannel(ctx, requested)
	}
	return r.resolveExplicit(ctx, requested), nil
}

func (r *Resolver) resolveLatest(ctx context.Context) Resolution {
	idx, err := r.Fetcher.Fetch(ctx)
	if err == nil {
		if releases := idx.Releases(r.platformKey()); len(releases) > 0 {
			return r.fromEntry(Latest, releases[0])
		}
		err = fmt.Errorf(messages.ResolveEmptyIndexFmt, r.platformKey())
	}
	r.logger().Warnf("release index unavailable, using fallback archive: %v", err)
	fallback := r.FallbackURL
	if fallback == "" {
		fallback = DefaultFallbackURL
	}
	return Resolution{
		Requested: Latest,
		Version:   Latest,
		Asset:     fallback[strings.LastIndex(fallback, "/")+1:],
		URL:       fallback,
		Kind:      KindFallback,
		Cause:     err,
	}
}

func (r *Resolver) resolveExplicit(ctx context.Context, requested string) Resolution {
	idx, err := r.Fetcher.Fetch(ctx)
	if err == nil {
		if entry, ok := idx.Find(r.platformKey(), requested); ok {
			return r.fromEntry(requested, entry)
		}
		r.logger().Warnf("version %s not found in release index, guessing download URL", requested)
	} else {
		r.logger().Warnf("release index unavailable, guessing download URL for %s: %v", requested, err)
	}
	asset := release.GuessAssetName(requested)
	return Resolution{
		Requested: requested,
		Version:   requested,
		Asset:     asset,
		URL:       release.DownloadURL(r.DownloadBaseURL, requested, asset),
		Kind:      KindGuessed,
		Cause:     err,
	}
}

func (r *Resolver) resolveChannel(ctx context.Context, channel string) (Resolution, error) {
	if r.Nightly == nil {
		return Resolution{}, fmt.Errorf(messages.ResolveNightlyFmt, fmt.Errorf(messages.ResolveNightlyUnconfigured))
	}
	build, err := r.Nightly.Resolve(ctx, channel, r.Host)
	if err != nil {
		return Resolution{}, fmt.Errorf(messages.ResolveNightlyFmt, err)
	}
	return Resolution{
		Requested: channel,
		Version:   build.Version,
		Asset:     build.Asset,
		URL:       build.URL,
		Kind:      KindResolved,
	}, nil
}

func (r *Resolver) fromEntry(requested string, entry release.Entry) Resolution {
	return Resolution{
		Requested: requested,
		Version:   entry.Version,
		Asset:     entry.Name,
		URL:       release.DownloadURL(r.DownloadBaseURL, entry.Version, entry.Name),
		SHA256:    entry.SHA256,
		Kind:      KindResolved,
	}
}
