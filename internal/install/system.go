package install

import (
	"os"

	"github.com/conn-castle/moonbit-up/internal/fsutil"
)

// System abstracts the filesystem operations the installer performs on the
// installation root, so tests can inject failures at a single step.
type System interface {
	Lstat(name string) (os.FileInfo, error)
	MkdirAll(path string, perm os.FileMode) error
	MkdirTemp(dir string, pattern string) (string, error)
	RemoveAll(path string) error
	Rename(oldpath string, newpath string) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	Chmod(name string, mode os.FileMode) error
	CopyTree(src string, dst string) error
}

// RealSystem implements System using the OS filesystem.
type RealSystem struct{}

// Lstat returns a FileInfo describing the named file without following symlinks.
func (RealSystem) Lstat(name string) (os.FileInfo, error) {
	return os.Lstat(name)
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (RealSystem) MkdirAll(path string, perm os.FileMode) error {
	return os.MkdirAll(path, perm)
}

// MkdirTemp creates a new temporary directory.
func (RealSystem) MkdirTemp(dir string, pattern string) (string, error) {
	return os.MkdirTemp(dir, pattern)
}

// RemoveAll removes path and any children it contains.
func (RealSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Rename renames (moves) oldpath to newpath.
func (RealSystem) Rename(oldpath string, newpath string) error {
	return os.Rename(oldpath, newpath)
}

// WriteFile writes data to the named file.
func (RealSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Chmod changes the mode of the named file.
func (RealSystem) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

// CopyTree copies src to dst, keeping symlinks as links.
func (RealSystem) CopyTree(src string, dst string) error {
	return fsutil.CopyTree(src, dst)
}

func exists(sys System, path string) bool {
	_, err := sys.Lstat(path)
	return err == nil
}
