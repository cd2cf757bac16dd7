package filter

import (
	"bytes"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// KeywordFilter matches records whose payload contains a keyword.
// Matching runs directly on the buffered bytes.
type KeywordFilter struct {
	keyword []byte
}

// NewKeywordFilter creates a filter that matches records containing the keyword.
func NewKeywordFilter(keyword string) *KeywordFilter {
	return &KeywordFilter{keyword: []byte(keyword)}
}

// Match returns true if the record payload contains the keyword.
func (f *KeywordFilter) Match(r *entry.Record) bool {
	return bytes.Contains(r.Payload, f.keyword)
}

// Name returns the filter description.
func (f *KeywordFilter) Name() string {
	return "keyword:" + string(f.keyword)
}
