package fsutil

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// CopyTree copies src into dst, creating dst if needed. Symbolic links are
// recreated with their original target text and never followed. Existing
// files in dst with the same relative path are overwritten; other entries
// in dst are left alone.
func CopyTree(src string, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return fmt.Errorf(messages.FsutilStatFmt, src, err)
	}
	if !info.IsDir() {
		return copyEntry(src, dst, info)
	}
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return fmt.Errorf(messages.FsutilStatFmt, path, err)
		}
		return copyEntry(path, target, info)
	})
}

func copyEntry(src string, dst string, info fs.FileInfo) error {
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		link, err := os.Readlink(src)
		if err != nil {
			return fmt.Errorf(messages.FsutilReadlinkFmt, src, err)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf(messages.FsutilCreateDirFmt, filepath.Dir(dst), err)
		}
		if err := os.RemoveAll(dst); err != nil {
			return fmt.Errorf(messages.FsutilRemoveFmt, dst, err)
		}
		if err := os.Symlink(link, dst); err != nil {
			return fmt.Errorf(messages.FsutilSymlinkFmt, dst, err)
		}
		return nil
	case info.IsDir():
		if err := os.MkdirAll(dst, info.Mode().Perm()|0o700); err != nil {
			return fmt.Errorf(messages.FsutilCreateDirFmt, dst, err)
		}
		return nil
	case info.Mode().IsRegular():
		return CopyFile(src, dst, info.Mode().Perm())
	default:
		// Devices, sockets and pipes have no place in a toolchain tree.
		return nil
	}
}

// CopyFile copies a single regular file, replacing dst if it exists.
func CopyFile(src string, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf(messages.FsutilOpenFmt, src, err)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf(messages.FsutilCreateDirFmt, filepath.Dir(dst), err)
	}
	if existing, err := os.Lstat(dst); err == nil && existing.Mode()&os.ModeSymlink != 0 {
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf(messages.FsutilRemoveFmt, dst, err)
		}
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf(messages.FsutilOpenFmt, dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf(messages.FsutilCopyFmt, src, dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf(messages.FsutilCopyFmt, src, dst, err)
	}
	return os.Chmod(dst, perm)
}

// DirSize sums the sizes of the regular files under root.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf(messages.FsutilWalkFmt, root, err)
	}
	return total, nil
}

// Exists reports whether path exists without following a final symlink.
func Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
