// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases s, collapses every run of characters outside [a-z0-9]
// into a single hyphen and trims hyphens from both ends. It is
// deterministic: equal names always give equal slugs.
func Make(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// Unique appends the creation time in unix milliseconds to the slug of
// title. Titles without any slug-safe characters fall back to "note".
func Unique(title string, at time.Time) string {
	base := Make(title)
	if base == "" {
		base = "note"
	}
	return base + "-" + strconv.FormatInt(at.UnixMilli(), 10)
}
