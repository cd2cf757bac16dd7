package filter

import (
	"fmt"
	"regexp"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// grokPatterns are the named patterns usable as %{NAME} or %{NAME:field}.
var grokPatterns = map[string]string{
	"IP":         `(?:\d{1,3}\.){3}\d{1,3}`,
	"WORD":       `\w+`,
	"INT":        `[+-]?\d+`,
	"NUMBER":     `[+-]?(?:\d+\.?\d*|\.\d+)`,
	"NOTSPACE":   `\S+`,
	"DATA":       `.*?`,
	"GREEDYDATA": `.*`,
	"TIMESTAMP":  `\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`,
	"LOGLEVEL":   `(?:DEBUG|INFO|WARN(?:ING)?|ERROR|ERR|FATAL|PANIC|TRACE)`,
	"PATH":       `(?:/[\w.-]+)+`,
	"UUID":       `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`,
	"HTTPMETHOD": `(?:GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)`,
	"STATUSCODE": `\d{3}`,
	"QS":         `"[^"]*"`,
}

var grokToken = regexp.MustCompile(`%\{(\w+)(?::(\w+))?\}`)

// PatternFilter matches record payloads against a regular expression, given
// either directly or as a grok pattern such as
// "%{IP:client} %{HTTPMETHOD:method} %{PATH:path}". Named groups can be
// extracted with Fields.
type PatternFilter struct {
	name string
	re   *regexp.Regexp
}

// NewRegexFilter compiles a regular expression filter.
func NewRegexFilter(expr string) (*PatternFilter, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid regex %q: %w", expr, err)
	}
	return &PatternFilter{name: "regex:" + expr, re: re}, nil
}

// NewGrokFilter expands the %{NAME} and %{NAME:field} tokens of pattern and
// compiles the result. Unknown pattern names are an error.
func NewGrokFilter(pattern string) (*PatternFilter, error) {
	var unknown string
	expr := grokToken.ReplaceAllStringFunc(pattern, func(tok string) string {
		m := grokToken.FindStringSubmatch(tok)
		sub, ok := grokPatterns[m[1]]
		if !ok {
			if unknown == "" {
				unknown = m[1]
			}
			return tok
		}
		if m[2] != "" {
			return fmt.Sprintf("(?P<%s>%s)", m[2], sub)
		}
		return "(?:" + sub + ")"
	})
	if unknown != "" {
		return nil, fmt.Errorf("unknown grok pattern %q", unknown)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid grok pattern %q: %w", pattern, err)
	}
	return &PatternFilter{name: "grok:" + pattern, re: re}, nil
}

// Match returns true if the payload matches.
func (f *PatternFilter) Match(r *entry.Record) bool {
	return f.re.Match(r.Payload)
}

// Named reports whether the pattern has named groups.
func (f *PatternFilter) Named() bool {
	for _, name := range f.re.SubexpNames() {
		if name != "" {
			return true
		}
	}
	return false
}

// Fields returns the named groups of payload, or nil when it does not match.
func (f *PatternFilter) Fields(payload []byte) map[string]string {
	m := f.re.FindSubmatch(payload)
	if m == nil {
		return nil
	}
	fields := make(map[string]string)
	for i, name := range f.re.SubexpNames() {
		if name != "" && i < len(m) {
			fields[name] = string(m[i])
		}
	}
	return fields
}

// Name returns the filter description.
func (f *PatternFilter) Name() string {
	return f.name
}
