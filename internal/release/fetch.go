package release

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

const maxIndexBytes = int64(16 * 1024 * 1024)

// Fetcher retrieves a release index.
type Fetcher interface {
	Fetch(ctx context.Context) (Index, error)
}

// SourceFetcher reads an index from an http(s) URL, a file:// URL, or a plain path.
// Each Fetch is a single attempt.
type SourceFetcher struct {
	Source string
	Logger *zap.SugaredLogger
}

// NewFetcher returns a SourceFetcher for source.
func NewFetcher(source string, logger *zap.SugaredLogger) *SourceFetcher {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &SourceFetcher{Source: strings.TrimSpace(source), Logger: logger}
}

// Fetch reads and decodes the index document.
func (f *SourceFetcher) Fetch(ctx context.Context) (Index, error) {
	f.Logger.Debugf("fetching release index from %s", f.Source)
	data, err := ReadDocument(ctx, f.Source)
	if err != nil {
		return nil, err
	}
	idx, err := Decode(data, f.Source)
	if err != nil {
		return nil, err
	}
	f.Logger.Debugf("release index from %s lists %d platforms", f.Source, len(idx))
	return idx, nil
}

// ReadDocument reads a small JSON document from a network or local source.
func ReadDocument(ctx context.Context, source string) ([]byte, error) {
	if source == "" {
		return nil, fmt.Errorf(messages.ReleaseSourceRequired)
	}
	body, err := open(ctx, indexHTTPClient, source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	data, err := io.ReadAll(io.LimitReader(body, maxIndexBytes+1))
	if err != nil {
		return nil, fmt.Errorf(messages.ReleaseReadSourceFmt, source, err)
	}
	if int64(len(data)) > maxIndexBytes {
		return nil, fmt.Errorf(messages.ReleaseIndexTooLargeFmt, source, maxIndexBytes)
	}
	return data, nil
}

// StaticFetcher returns a fixed index. It serves callers that already hold one.
type StaticFetcher struct {
	Index Index
	Err   error
}

// Fetch returns the configured index or error.
func (s StaticFetcher) Fetch(context.Context) (Index, error) {
	return s.Index, s.Err
}
