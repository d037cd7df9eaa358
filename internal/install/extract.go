package install

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/moonbit-up/internal/messages"
)

// ToolchainDirs are the archive subdirectories copied into the installation root.
var ToolchainDirs = []string{"bin", "lib", "include"}

// extractTarGz unpacks archivePath into destDir, refusing entries that would
// land outside destDir.
func extractTarGz(archivePath string, destDir string) error {
	archive, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf(messages.InstallOpenArchiveFmt, archivePath, err)
	}
	defer func() { _ = archive.Close() }()

	gz, err := gzip.NewReader(archive)
	if err != nil {
		return fmt.Errorf(messages.InstallReadArchiveFmt, archivePath, err)
	}
	defer func() { _ = gz.Close() }()

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf(messages.InstallCreateDirFmt, destDir, err)
	}
	cleanDest := filepath.Clean(destDir)
	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf(messages.InstallReadArchiveFmt, archivePath, err)
		}
		target, err := entryPath(cleanDest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf(messages.InstallCreateDirFmt, target, err)
			}
		case tar.TypeReg:
			if err := writeEntry(tr, target, fs.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if filepath.IsAbs(header.Linkname) || !within(cleanDest, filepath.Join(filepath.Dir(target), header.Linkname)) {
				return fmt.Errorf(messages.InstallIllegalSymlinkFmt, header.Name, header.Linkname)
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf(messages.InstallCreateDirFmt, filepath.Dir(target), err)
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				return fmt.Errorf(messages.InstallWriteEntryFmt, target, err)
			}
		case tar.TypeLink:
			source, err := entryPath(cleanDest, header.Linkname)
			if err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Link(source, target); err != nil {
				return fmt.Errorf(messages.InstallWriteEntryFmt, target, err)
			}
		default:
			continue
		}
	}
}

// entryPath joins name onto destDir. It refuses names that leave destDir
// lexically and names whose parent directories include a symlink extracted
// by an earlier entry.
func entryPath(destDir string, name string) (string, error) {
	target := filepath.Join(destDir, name)
	if !within(destDir, target) {
		return "", fmt.Errorf(messages.InstallIllegalArchivePathFmt, name)
	}
	if target == destDir {
		return target, nil
	}
	rel, err := filepath.Rel(destDir, filepath.Dir(target))
	if err != nil {
		return "", fmt.Errorf(messages.InstallIllegalArchivePathFmt, name)
	}
	if rel == "." {
		return target, nil
	}
	dir := destDir
	for _, part := range strings.Split(rel, string(os.PathSeparator)) {
		dir = filepath.Join(dir, part)
		info, err := os.Lstat(dir)
		if err != nil {
			break
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			return "", fmt.Errorf(messages.InstallSymlinkParentFmt, name)
		}
	}
	return target, nil
}

func within(root string, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}

func writeEntry(r io.Reader, target string, perm fs.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.InstallCreateDirFmt, filepath.Dir(target), err)
	}
	if perm == 0 {
		perm = 0o644
	}
	if info, err := os.Lstat(target); err == nil && info.Mode()&fs.ModeSymlink != 0 {
		if err := os.Remove(target); err != nil {
			return fmt.Errorf(messages.InstallWriteEntryFmt, target, err)
		}
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf(messages.InstallWriteEntryFmt, target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf(messages.InstallWriteEntryFmt, target, err)
	}
	return out.Close()
}

// payloadRoot finds the directory holding the toolchain subdirectories. Some
// archives wrap them in a single top-level directory.
func payloadRoot(extracted string) (string, error) {
	if hasToolchainDir(extracted) {
		return extracted, nil
	}
	entries, err := os.ReadDir(extracted)
	if err != nil {
		return "", fmt.Errorf(messages.InstallReadArchiveFmt, extracted, err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		nested := filepath.Join(extracted, entries[0].Name())
		if hasToolchainDir(nested) {
			return nested, nil
		}
	}
	return "", fmt.Errorf(messages.InstallArchiveLayoutFmt, strings.Join(ToolchainDirs, ", "))
}

func hasToolchainDir(dir string) bool {
	for _, name := range ToolchainDirs {
		if info, err := os.Stat(filepath.Join(dir, name)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// replaceToolchainDirs swaps each toolchain subdirectory of root for the one
// in payload. Existing subdirectories are deleted first, never merged.
func replaceToolchainDirs(sys System, payload string, root string) ([]string, error) {
	if err := sys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf(messages.InstallCreateDirFmt, root, err)
	}
	var replaced []string
	for _, name := range ToolchainDirs {
		src := filepath.Join(payload, name)
		if !exists(sys, src) {
			continue
		}
		dst := filepath.Join(root, name)
		if err := sys.RemoveAll(dst); err != nil {
			return replaced, fmt.Errorf(messages.InstallRemoveFmt, dst, err)
		}
		if err := sys.CopyTree(src, dst); err != nil {
			return replaced, err
		}
		replaced = append(replaced, name)
	}
	return replaced, nil
}

// markExecutable adds execute bits to every regular file directly under root/bin.
func markExecutable(sys System, root string) error {
	binDir := filepath.Join(root, "bin")
	entries, err := os.ReadDir(binDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf(messages.InstallReadDirFmt, binDir, err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return fmt.Errorf(messages.InstallReadDirFmt, binDir, err)
		}
		path := filepath.Join(binDir, entry.Name())
		if err := sys.Chmod(path, info.Mode().Perm()|0o755); err != nil {
			return fmt.Errorf(messages.InstallChmodFmt, path, err)
		}
	}
	return nil
}
