// Package filter narrows a scanned candidate list by display name.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// NameFilter selects candidates whose name matches a pattern. A disabled
// filter matches everyone.
type NameFilter struct {
	expr    *regexp.Regexp
	raw     string
	Enabled bool
}

// NewNameFilter compiles a case-insensitive pattern. An empty pattern
// disables filtering.
func NewNameFilter(pattern string) (*NameFilter, error) {
	if strings.TrimSpace(pattern) == "" {
		return &NameFilter{}, nil
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid name pattern %q: %w", pattern, err)
	}
	return &NameFilter{expr: re, raw: pattern, Enabled: true}, nil
}

// Matches reports whether name passes the filter.
func (f *NameFilter) Matches(name string) bool {
	if !f.Enabled {
		return true
	}
	return f.expr.MatchString(name)
}

// Description returns a human-readable summary for logs.
func (f *NameFilter) Description() string {
	if !f.Enabled {
		return "all candidates"
	}
	return fmt.Sprintf("names matching %q", f.raw)
}
