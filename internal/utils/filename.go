package utils

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	// Characters invalid in filenames on most filesystems
	invalidFilenameChars = regexp.MustCompile(`[<>:"|?*\x00-\x1f]`)
	// Multiple spaces to collapse
	multipleSpaces = regexp.MustCompile(`\s+`)
)

// maxFilenameLength leaves room for the archive id prefix within the usual
// 255-byte limit.
const maxFilenameLength = 200

// SanitizeFilename reduces a client-supplied upload name to a safe base name.
// Directory components are dropped, control and reserved characters removed
// and whitespace collapsed. The extension survives truncation because format
// detection relies on it.
func SanitizeFilename(filename string) string {
	filename = strings.ReplaceAll(filename, `\`, "/")
	filename = filepath.Base(filename)
	if filename == "." || filename == "/" {
		filename = ""
	}

	filename = invalidFilenameChars.ReplaceAllString(filename, "")
	filename = multipleSpaces.ReplaceAllString(filename, " ")
	filename = strings.TrimSpace(filename)

	if len(filename) > maxFilenameLength {
		ext := filepath.Ext(filename)
		if len(ext) > 16 {
			ext = ""
		}
		stem := strings.TrimSpace(filename[:maxFilenameLength-len(ext)])
		filename = stem + ext
	}

	if filename == "" || filename == ".." {
		filename = "upload"
	}
	return filename
}
