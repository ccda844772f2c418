package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FirstFile returns the name of the first regular, non-hidden file in dir.
// "First" means first in whatever order the filesystem enumerates entries;
// the order is not guaranteed to be sorted and callers rely only on getting
// "a/the file" of a single-file slot, not the most recent one. Returns
// ErrNotFound when the directory is empty or unreadable.
func FirstFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("list %s: %w", dir, ErrNotFound)
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		return e.Name(), nil
	}
	return "", fmt.Errorf("no file in %s: %w", dir, ErrNotFound)
}

// PathExists reports whether path exists, with ~ expanded to the user's home
// directory.
func PathExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(ExpandHome(path))
	return err == nil
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

// CopyInto copies src into destDir keeping its base name. Both paths may use
// ~ for the home directory.
func CopyInto(src, destDir string) error {
	src = ExpandHome(src)
	destDir = ExpandHome(destDir)

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(filepath.Join(destDir, filepath.Base(src)))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// CopyFile copies src to dest, creating or truncating dest.
func CopyFile(src, dest string) error {
	in, err := os.Open(ExpandHome(src))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(ExpandHome(dest))
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

// WithinSizeLimit reports whether path is a regular file smaller than
// maxMB megabytes.
func WithinSizeLimit(path string, maxMB int64) bool {
	info, err := os.Stat(ExpandHome(path))
	if err != nil || info.IsDir() {
		return false
	}
	return info.Size() < maxMB*1024*1024
}
