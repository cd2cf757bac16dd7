package filter

import (
	"bytes"
	"strings"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// ExcludeFilter is a negative filter: Match returns true only for records
// that contain none of the patterns.
type ExcludeFilter struct {
	patterns []string
}

// NewExcludeFilter creates a filter that rejects records containing any of the patterns.
func NewExcludeFilter(patterns ...string) *ExcludeFilter {
	return &ExcludeFilter{patterns: patterns}
}

// Match returns true if the record does NOT contain any excluded pattern.
func (f *ExcludeFilter) Match(r *entry.Record) bool {
	for _, p := range f.patterns {
		if bytes.Contains(r.Payload, []byte(p)) {
			return false
		}
	}
	return true
}

// Name returns the filter description.
func (f *ExcludeFilter) Name() string {
	return "exclude:" + strings.Join(f.patterns, ",")
}
