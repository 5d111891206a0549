package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// EnsureDir creates dir and its parents if missing
func EnsureDir(dir string) error {
	return os.MkdirAll(dir, 0o755)
}

// GetFileExtension returns the lower-case extension without the dot
func GetFileExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// IsEditableImage reports whether filename has a jpg, jpeg, png or webp extension
func IsEditableImage(filename string) bool {
	switch GetFileExtension(filename) {
	case "jpg", "jpeg", "png", "webp":
		return true
	}
	return false
}

// GenerateExportFilename returns "<prefix>-<unix millis>.<ext>"
func GenerateExportFilename(prefix string, t time.Time, ext string) string {
	return fmt.Sprintf("%s-%d.%s", SanitizeFilename(prefix), t.UnixMilli(), strings.TrimPrefix(ext, "."))
}

// GenerateOutputFilename names the result of an operation on inputFile:
// <outputDir>/<input base><suffix>.<ext>. An empty ext reuses the input's,
// falling back to png.
func GenerateOutputFilename(inputFile, outputDir, suffix, ext string) string {
	base := filepath.Base(inputFile)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if ext == "" {
		if ext = GetFileExtension(inputFile); ext == "" {
			ext = "png"
		}
	}
	return filepath.Join(outputDir, SanitizeFilename(stem+suffix+"."+ext))
}

// FileExists reports whether filename exists and is a regular file
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.Mode().IsRegular()
}

// WriteFile atomically replaces path with data, creating parent directories
func WriteFile(path string, data []byte) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path))
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// SanitizeFilename replaces path separators and reserved characters with '_'
// and trims surrounding spaces and dots
func SanitizeFilename(filename string) string {
	clean := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`/\:*?"<>|`, r) || r < 0x20 {
			return '_'
		}
		return r
	}, filename)
	return strings.Trim(clean, " .")
}

// FormatFileSize formats a byte count with binary units, e.g. "10.0 MB"
func FormatFileSize(size int64) string {
	if size < 1024 {
		return fmt.Sprintf("%d B", size)
	}
	value := float64(size)
	units := []string{"KB", "MB", "GB", "TB", "PB", "EB"}
	i := -1
	for value >= 1024 && i < len(units)-1 {
		value /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", value, units[i])
}
