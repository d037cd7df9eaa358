package release

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// ErrChecksumMismatch reports that a file's SHA-256 differs from the expected value.
var ErrChecksumMismatch = errors.New("checksum mismatch")

const defaultMaxDownloadBytes = int64(2 * 1024 * 1024 * 1024) // 2 GiB

var (
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
)

// Downloader fetches artifacts to disk. A download is a single attempt; the
// destination only appears once the bytes are complete and verified.
type Downloader struct {
	MaxBytes int64
	Logger   *zap.SugaredLogger
}

// NewDownloader returns a Downloader with default limits.
func NewDownloader(logger *zap.SugaredLogger) *Downloader {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Downloader{MaxBytes: defaultMaxDownloadBytes, Logger: logger}
}

// Download writes source to dest. When expectedSHA256 is non-empty the bytes
// must hash to it or dest is left untouched.
func (d *Downloader) Download(ctx context.Context, source string, dest string, expectedSHA256 string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf(messages.ReleaseCreateDirFmt, filepath.Dir(dest), err)
	}
	tmp, err := osCreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return fmt.Errorf(messages.ReleaseCreateTempFileFmt, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpName)
		}
	}()

	d.Logger.Debugf("downloading %s to %s", source, dest)
	if err := d.copyTo(ctx, source, tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf(messages.ReleaseSyncTempFileFmt, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf(messages.ReleaseCloseTempFileFmt, err)
	}
	if expectedSHA256 != "" {
		if err := VerifyFile(tmpName, expectedSHA256); err != nil {
			return err
		}
	}
	if err := osRename(tmpName, dest); err != nil {
		return fmt.Errorf(messages.ReleaseMoveIntoPlaceFmt, dest, err)
	}
	committed = true
	return nil
}

func (d *Downloader) copyTo(ctx context.Context, source string, dest *os.File) error {
	maxBytes := d.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxDownloadBytes
	}
	body, err := open(ctx, artifactHTTPClient, source)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	n, err := io.Copy(dest, io.LimitReader(body, maxBytes+1))
	if err != nil {
		if isTimeoutError(err) {
			return fmt.Errorf(messages.ReleaseTimeoutFmt, source)
		}
		return fmt.Errorf(messages.ReleaseReadSourceFmt, source, err)
	}
	if n > maxBytes {
		return fmt.Errorf(messages.ReleaseDownloadTooLargeFmt, source, n, maxBytes)
	}
	return nil
}

// FileSHA256 returns the lowercase hex SHA-256 of the file at path.
func FileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf(messages.ReleaseOpenFileFmt, path, err)
	}
	defer func() { _ = file.Close() }()
	return ReaderSHA256(file, path)
}

// ReaderSHA256 hashes r. name is used in error messages.
func ReaderSHA256(r io.Reader, name string) (string, error) {
	hasher := sha256.New()
	if _, err := io.Copy(hasher, r); err != nil {
		return "", fmt.Errorf(messages.ReleaseHashFileFmt, name, err)
	}
	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// VerifyFile compares the SHA-256 of path with expected, ignoring case.
func VerifyFile(path string, expected string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}
	if !strings.EqualFold(actual, strings.TrimSpace(expected)) {
		return fmt.Errorf(messages.ReleaseChecksumMismatchFmt, ErrChecksumMismatch, path, expected, actual)
	}
	return nil
}
