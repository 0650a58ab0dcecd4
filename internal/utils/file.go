package utils

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// imageExts are the file extensions accepted as pipeline input, compared
// case-insensitively and without the dot.
var imageExts = []string{"jpg", "jpeg", "png", "webp"}

// ignoredArtifacts are known non-image files that show up in shared
// directories. This is a deliberate denylist, not an image-validity check.
var ignoredArtifacts = map[string]struct{}{
	"desktop.ini": {},
	"thumbs.db":   {},
	".ds_store":   {},
	".gitkeep":    {},
}

// EnsureDir creates a directory if it doesn't exist.
func EnsureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0o755)
	}
	return nil
}

// FileExtension returns the lowercased file extension without the dot.
func FileExtension(filename string) string {
	ext := filepath.Ext(filename)
	if len(ext) > 0 {
		return strings.ToLower(ext[1:])
	}
	return ""
}

// IsImageFile checks if a file has an accepted image extension.
func IsImageFile(filename string) bool {
	ext := FileExtension(filename)
	for _, imgExt := range imageExts {
		if ext == imgExt {
			return true
		}
	}
	return false
}

// IsIgnoredArtifact reports whether a filename is a known non-image
// artifact that directory scans must skip.
func IsIgnoredArtifact(filename string) bool {
	_, ok := ignoredArtifacts[strings.ToLower(filepath.Base(filename))]
	return ok
}

// HasAnySuffix reports whether the filename ends with any of the given
// extensions (compared case-insensitively, extensions include the dot).
func HasAnySuffix(filename string, exts []string) bool {
	low := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(low, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}

// ListImages returns the sorted names of qualifying image files directly
// inside dir. Sub-directories and denylisted artifacts are skipped.
func ListImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !IsImageFile(name) || IsIgnoredArtifact(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// FileExists checks if a file exists and is not a directory.
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// DirExists checks if a directory exists.
func DirExists(dirname string) bool {
	info, err := os.Stat(dirname)
	if err != nil {
		return false
	}
	return info.IsDir()
}

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(filename string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	result := filename
	for _, char := range invalid {
		result = strings.ReplaceAll(result, char, "_")
	}
	return strings.Trim(result, " .")
}
