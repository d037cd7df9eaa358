// Package mirror keeps a copy of the upstream release index and artifacts
// current, on local disk or in S3.
package mirror

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/conn-castle/moonbit-up/internal/fsutil"
	"github.com/conn-castle/moonbit-up/internal/messages"
	"github.com/conn-castle/moonbit-up/internal/release"
)

// IndexFile is the mirror index name, relative to the mirror root.
const IndexFile = "index.json"

// ReleasesDir holds one v<version> directory per mirrored version.
const ReleasesDir = "releases"

// ArtifactKey returns the slash-separated location of an artifact relative
// to the mirror root.
func ArtifactKey(version string, name string) string {
	return path.Join(ReleasesDir, "v"+version, name)
}

// Store is where a mirror lives.
type Store interface {
	// Location names the store for messages.
	Location() string
	// ReadIndex returns the mirror index; ok is false when there is none.
	ReadIndex(ctx context.Context) (idx release.Index, ok bool, err error)
	// WriteIndex replaces the index. Readers never observe a partial document.
	WriteIndex(ctx context.Context, idx release.Index) error
	// HasArtifact reports whether the artifact is already stored. With a
	// checksum the stored bytes must match it; without one any non-empty
	// artifact counts.
	HasArtifact(ctx context.Context, version string, name string, sha256 string) (bool, error)
	// PutArtifact moves the local file at src into the store.
	PutArtifact(ctx context.Context, version string, name string, src string, sha256 string) error
	// Open reads a stored object by its key relative to the mirror root.
	Open(ctx context.Context, key string) (io.ReadCloser, int64, error)
	// Usage returns the total size of everything stored.
	Usage(ctx context.Context) (int64, error)
	// Lock runs fn while holding the mirror's writer lock.
	Lock(ctx context.Context, fn func() error) error
}

// FSStore is a mirror rooted at a local directory.
type FSStore struct {
	Root string
}

// NewFSStore returns a store rooted at root.
func NewFSStore(root string) *FSStore {
	return &FSStore{Root: filepath.Clean(root)}
}

// Location returns the mirror root.
func (s *FSStore) Location() string {
	return s.Root
}

func (s *FSStore) indexPath() string {
	return filepath.Join(s.Root, IndexFile)
}

// ReadIndex reads root/index.json.
func (s *FSStore) ReadIndex(context.Context) (release.Index, bool, error) {
	data, err := os.ReadFile(s.indexPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf(messages.MirrorReadIndexFmt, s.indexPath(), err)
	}
	idx, err := release.Decode(data, s.indexPath())
	if err != nil {
		return nil, false, err
	}
	return idx, true, nil
}

// WriteIndex atomically replaces root/index.json.
func (s *FSStore) WriteIndex(_ context.Context, idx release.Index) error {
	data, err := release.Encode(idx)
	if err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.indexPath(), data, 0o644); err != nil {
		return fmt.Errorf(messages.MirrorWriteIndexFmt, s.indexPath(), err)
	}
	return nil
}

func (s *FSStore) artifactPath(version string, name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(ArtifactKey(version, name)))
}

// HasArtifact checks the artifact on disk, hashing it when sha256 is known.
func (s *FSStore) HasArtifact(_ context.Context, version string, name string, sha256 string) (bool, error) {
	p := s.artifactPath(version, name)
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return false, nil
	}
	if sha256 == "" {
		return info.Size() > 0, nil
	}
	if err := release.VerifyFile(p, sha256); err != nil {
		if errors.Is(err, release.ErrChecksumMismatch) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PutArtifact renames src into place, copying when src is on another device.
func (s *FSStore) PutArtifact(_ context.Context, version string, name string, src string, _ string) error {
	dst := s.artifactPath(version, name)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf(messages.MirrorStoreArtifactFmt, dst, err)
	}
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	tmp := dst + ".partial"
	if err := fsutil.CopyFile(src, tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf(messages.MirrorStoreArtifactFmt, dst, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf(messages.MirrorStoreArtifactFmt, dst, err)
	}
	return nil
}

// Open opens a file under the mirror root. Keys may not escape the root.
func (s *FSStore) Open(_ context.Context, key string) (io.ReadCloser, int64, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(clean, "/.") {
		return nil, 0, fmt.Errorf(messages.MirrorOpenArtifactFmt, key, fs.ErrNotExist)
	}
	p := filepath.Join(s.Root, filepath.FromSlash(clean))
	file, err := os.Open(p)
	if err != nil {
		return nil, 0, fmt.Errorf(messages.MirrorOpenArtifactFmt, key, err)
	}
	info, err := file.Stat()
	if err != nil || !info.Mode().IsRegular() {
		_ = file.Close()
		return nil, 0, fmt.Errorf(messages.MirrorOpenArtifactFmt, key, fs.ErrNotExist)
	}
	return file, info.Size(), nil
}

// Usage sums the size of regular files under the root.
func (s *FSStore) Usage(context.Context) (int64, error) {
	size, err := fsutil.DirSize(s.Root)
	if err != nil {
		return 0, fmt.Errorf(messages.MirrorUsageFmt, s.Root, err)
	}
	return size, nil
}

// Lock takes an exclusive flock on a sidecar of index.json.
func (s *FSStore) Lock(ctx context.Context, fn func() error) error {
	return fsutil.WithFileLock(ctx, fsutil.LockPath(s.indexPath()), fn)
}
