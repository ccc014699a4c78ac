// Package fileutil holds the file handling helpers for uploaded videos:
// name validation, collision-free stored names, and streamed writes that
// never leave a partial file behind.
package fileutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".webm": true,
	".flv":  true,
	".ts":   true,
	".m4v":  true,
	".wmv":  true,
	".mpg":  true,
	".mpeg": true,
}

// AllowedVideoExtension reports whether the filename carries a recognized
// video container extension.
func AllowedVideoExtension(name string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(name))]
}

// SanitizeBaseName strips any path components from a client-supplied
// filename and returns just the base name. Empty or dot-only names come
// back as "upload".
func SanitizeBaseName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "upload"
	}
	return base
}

// StoredName returns a collision-free on-disk name for an upload,
// preserving the original extension.
func StoredName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return uuid.NewString() + ext
}

// SaveStream writes r to path and returns the byte count. A failed or
// truncated write removes the partial file before returning the error.
func SaveStream(path string, r io.Reader) (int64, error) {
	out, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}
	written, err := io.Copy(out, r)
	if err != nil {
		out.Close()
		os.Remove(path)
		return 0, fmt.Errorf("write upload file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close upload file: %w", err)
	}
	return written, nil
}

// RemoveQuietly unlinks each path, ignoring files that are already gone.
func RemoveQuietly(paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			continue
		}
	}
}
