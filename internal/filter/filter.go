// Package filter defines the Filter interface and Chain for record filtering.
package filter

import (
	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// Filter determines whether a Record matches a filtering criterion.
// Implementations must not retain the record; its payload aliases the buffer.
type Filter interface {
	// Match returns true if the record passes this filter.
	Match(r *entry.Record) bool

	// Name returns a human-readable description of this filter.
	Name() string
}

// MatchMode selects how a Chain combines its filters.
type MatchMode int

const (
	MatchAny MatchMode = iota // at least one filter passes
	MatchAll                  // every filter passes
)

// Chain is itself a Filter, so chains nest: the relay keeps records that
// match any --grep keyword and every other filter.
type Chain struct {
	filters []Filter
	mode    MatchMode
}

// NewChain creates a Chain with the given mode.
func NewChain(mode MatchMode, filters ...Filter) *Chain {
	return &Chain{
		filters: filters,
		mode:    mode,
	}
}

// Add appends a filter to the chain.
func (c *Chain) Add(f Filter) {
	c.filters = append(c.filters, f)
}

// Match evaluates the chain against a record.
// Returns true if no filters are configured (pass-through).
func (c *Chain) Match(r *entry.Record) bool {
	if len(c.filters) == 0 {
		return true
	}

	switch c.mode {
	case MatchAll:
		for _, f := range c.filters {
			if !f.Match(r) {
				return false
			}
		}
		return true
	default: // MatchAny
		for _, f := range c.filters {
			if f.Match(r) {
				return true
			}
		}
		return false
	}
}

// Name returns a description of the chain.
func (c *Chain) Name() string {
	if c.mode == MatchAll {
		return "Chain(AND)"
	}
	return "Chain(OR)"
}

// Filters returns the filters in the chain.
func (c *Chain) Filters() []Filter {
	return c.filters
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}
