// Package filename builds safe, unique file names for downloaded resumes.
package filename

import (
	"regexp"
	"strings"
	"time"
)

const (
	// Placeholder is used when a candidate name sanitizes to nothing.
	Placeholder = "Unknown_Candidate"
	// MaxNameLength caps the sanitized candidate portion of the file name.
	MaxNameLength = 80

	suffix    = "_Resume_"
	extension = ".pdf"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	unsafeChars   = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Sanitize reduces an arbitrary display string to a file-system safe token:
// whitespace runs collapse to single underscores, everything outside
// [A-Za-z0-9_-] is stripped, and the result is truncated to MaxNameLength.
// An input that sanitizes to nothing yields Placeholder.
func Sanitize(name string) string {
	s := strings.TrimSpace(name)
	s = whitespaceRun.ReplaceAllString(s, "_")
	s = unsafeChars.ReplaceAllString(s, "")
	if len(s) > MaxNameLength {
		s = s[:MaxNameLength]
	}
	s = strings.Trim(s, "_")
	if s == "" {
		return Placeholder
	}
	return s
}

// BuildFileName returns "<SanitizedName>_Resume_<YYYY-MM-DD>.pdf".
// Pure and idempotent for a given name and date.
func BuildFileName(candidateName string, now time.Time) string {
	return Sanitize(candidateName) + suffix + now.Format("2006-01-02") + extension
}
