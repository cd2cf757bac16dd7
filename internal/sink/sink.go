// Package sink defines the Sink interface for pipeline output.
package sink

import (
	"fmt"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// Sink receives decoded records and writes them to an output destination.
// Write must not retain the record: its payload aliases the split buffer and
// is overwritten once the record is consumed.
type Sink interface {
	// Write outputs a single record.
	Write(r *entry.Record) error

	// Flush ensures all buffered output is written.
	Flush() error

	// Close releases resources held by the sink.
	Close() error

	// Name returns a human-readable identifier for this sink.
	Name() string
}

// Format selects the output encoding of a sink.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatText, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}
