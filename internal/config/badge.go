package config

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// Placeholder values that text-mode repair always regenerates.
const (
	placeholderBlue  = "#3b82f6"
	placeholderWhite = "#ffffff"
)

// badgePalette is the fixed palette for generated badge colors. Selection
// is a pure hash of the title, so the same title always maps to the same
// color across runs and devices.
var badgePalette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#84cc16", "#10b981",
	"#06b6d4", "#3b82f6", "#6366f1", "#8b5cf6", "#d946ef",
	"#f43f5e", "#0f172a", "#475569", "#059669", "#7c3aed",
}

// GenerateColor returns a deterministic palette color for a title. The
// hash runs over UTF-16 code units with wrapping 32-bit arithmetic; the
// same title always yields the same color here, with no randomness or
// time dependency.
func GenerateColor(title string) string {
	var hash int32
	for _, u := range utf16.Encode([]rune(title)) {
		hash = int32(u) + ((hash << 5) - hash)
	}
	idx := int64(hash)
	if idx < 0 {
		idx = -idx
	}
	return badgePalette[idx%int64(len(badgePalette))]
}

var badgeKeep = regexp.MustCompile(`[^\x{4e00}-\x{9fa5}a-zA-Z0-9]`)
var cjkRune = regexp.MustCompile(`[\x{4e00}-\x{9fa5}]`)

// SmartInitials derives a 1-4 character badge initial from a title:
// the first two characters for CJK text, up to four uppercase characters
// for Latin text.
func SmartInitials(title string) string {
	src := title
	if src == "" {
		src = "A"
	}
	clean := badgeKeep.ReplaceAllString(strings.TrimSpace(src), "")
	if clean == "" {
		return strings.ToUpper(firstRunes(src, 2))
	}
	if cjkRune.MatchString(clean) {
		return firstRunes(clean, 2)
	}
	return strings.ToUpper(firstRunes(clean, 4))
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}

var privateURLPattern = regexp.MustCompile(`^(https?://)?(192\.168|10\.|172\.(1[6-9]|2\d|3[0-1])|localhost|127\.)`)

// IsPrivateURL reports whether a URL points at a private or internal
// network address. Favicon lookups cannot work there, so tiles are forced
// into text mode.
func IsPrivateURL(url string) bool {
	return url != "" && privateURLPattern.MatchString(url)
}
