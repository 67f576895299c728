package utils

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const maxFilenameBytes = 255

var (
	// Control characters and characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f\x7f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// SanitizeFilename reduces a client supplied upload name to a displayable
// base name. Directory components from either path style are dropped.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	filename = filepath.Base(filename)
	if filename == "." || filename == "/" {
		filename = ""
	}

	filename = invalidFilenameChars.ReplaceAllString(filename, " ")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > maxFilenameBytes {
		filename = truncateUTF8(filename, maxFilenameBytes)
	}

	if filename == "" {
		filename = "upload"
	}
	return filename
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune, keeping
// the extension when it fits.
func truncateUTF8(s string, n int) string {
	ext := filepath.Ext(s)
	if len(ext) >= n {
		ext = ""
	}
	stem := strings.TrimSuffix(s, ext)
	limit := n - len(ext)
	for limit > 0 && !utf8.RuneStart(stem[limit]) {
		limit--
	}
	return strings.TrimSpace(stem[:limit]) + ext
}
