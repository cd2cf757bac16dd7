package sink

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// jsonRecord is the serialization format for JSON Lines output.
type jsonRecord struct {
	Seq       uint64            `json:"seq"`
	Timestamp string            `json:"timestamp"`
	Stream    string            `json:"stream"`
	Source    string            `json:"source,omitempty"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// FieldExtractor pulls structured fields out of a payload. It returns nil
// when the payload has none.
type FieldExtractor interface {
	Fields(payload []byte) map[string]string
}

// JSONSink writes records as JSON Lines (one JSON object per line).
type JSONSink struct {
	enc    *json.Encoder
	fields FieldExtractor
}

// NewJSONSink creates a JSON Lines sink writing to the given writer.
func NewJSONSink(w io.Writer) *JSONSink {
	if w == nil {
		w = os.Stdout
	}
	return &JSONSink{enc: json.NewEncoder(w)}
}

// WithFields makes the sink attach the fields extracted from each payload.
func (s *JSONSink) WithFields(x FieldExtractor) *JSONSink {
	s.fields = x
	return s
}

// Write serializes a record as a single JSON line.
func (s *JSONSink) Write(r *entry.Record) error {
	out := jsonRecord{
		Seq:       r.Seq,
		Timestamp: r.Time.Format("2006-01-02T15:04:05.000Z07:00"),
		Stream:    r.Stream,
		Source:    r.Source,
		Message:   string(r.Payload),
	}
	if s.fields != nil {
		out.Fields = s.fields.Fields(r.Payload)
	}
	return s.enc.Encode(out)
}

// Flush is a no-op for JSON sink.
func (s *JSONSink) Flush() error { return nil }

// Close is a no-op for JSON sink.
func (s *JSONSink) Close() error { return nil }

// Name returns the sink identifier.
func (s *JSONSink) Name() string { return "json" }

// New builds the sink for format writing to w. fields may be nil; text
// output ignores it.
func New(format Format, w io.Writer, color bool, fields FieldExtractor) (Sink, error) {
	switch format {
	case FormatJSON:
		return NewJSONSink(w).WithFields(fields), nil
	case FormatText, "":
		return NewTerminalSink(w, color), nil
	default:
		return nil, fmt.Errorf("sink: unknown format %q", format)
	}
}
