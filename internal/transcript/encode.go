package transcript

import (
	"path/filepath"
	"strings"
)

// EncodeCwd derives the transcript directory name for a working directory.
// Every character outside the alphanumeric/underscore/hyphen set becomes a
// hyphen, so "/Users/me/proj" encodes to "-Users-me-proj".
func EncodeCwd(cwd string) string {
	var b strings.Builder
	b.Grow(len(cwd))
	for _, r := range cwd {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// DecodeProjectName recovers a display name from an encoded directory name:
// the last path segment after dropping the leading hyphen and treating each
// hyphen as a path separator. Lossy for cwds that contained literal hyphens,
// which is acceptable for display.
func DecodeProjectName(encoded string) string {
	trimmed := strings.TrimPrefix(encoded, "-")
	path := strings.ReplaceAll(trimmed, "-", "/")
	name := filepath.Base(path)
	if name == "." || name == "/" || name == "" {
		return encoded
	}
	return name
}

// ImageMime maps a file extension to a media type for transcript-referenced
// images. Returns "" for non-image extensions.
func ImageMime(path string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	}
	return ""
}
