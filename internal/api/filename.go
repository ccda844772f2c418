package api

import (
	"net/url"
	"path"
	"regexp"
)

// Filenames for downloaded files are taken from the final path segment of
// the cloud URL. The URL is not under our control, so the extracted name is
// neutralized against illegal characters and path traversal before it is
// ever joined onto a local directory.
var (
	illegalChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1F]`)
	traversal     = regexp.MustCompile(`\.\.`)
	leadingSlash  = regexp.MustCompile(`^[\\/]`)
)

// SanitizeFilename replaces characters that are illegal on common
// filesystems, collapses ".." segments and strips a leading path separator.
func SanitizeFilename(name string) string {
	name = illegalChars.ReplaceAllString(name, "_")
	name = traversal.ReplaceAllString(name, "_")
	name = leadingSlash.ReplaceAllString(name, "_")
	return name
}

// FilenameFromURL extracts a safe local filename from a download URL.
func FilenameFromURL(rawURL string) string {
	name := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		name = u.Path
	}
	return SanitizeFilename(path.Base(name))
}
