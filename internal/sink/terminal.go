package sink

import (
	"bufio"
	"io"
	"os"
	"time"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// color ANSI escape codes.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorCyan  = "\033[36m"
	colorGray  = "\033[90m"
)

// TerminalSink writes records as text lines with optional ANSI color.
type TerminalSink struct {
	w     *bufio.Writer
	color bool
}

// NewTerminalSink creates a sink that writes to the given writer.
// If color is true, timestamps are dimmed and stderr lines are red.
func NewTerminalSink(w io.Writer, color bool) *TerminalSink {
	if w == nil {
		w = os.Stdout
	}
	return &TerminalSink{w: bufio.NewWriter(w), color: color}
}

// Write outputs a formatted record. The payload is written straight from the
// buffer without an intermediate string.
func (s *TerminalSink) Write(r *entry.Record) error {
	ts := r.Time.Format(time.RFC3339)

	if s.color {
		s.w.WriteString(colorGray)
	}
	s.w.WriteString("[" + ts + "]")
	if s.color {
		s.w.WriteString(colorReset + s.streamColor(r.Stream))
	}
	s.w.WriteString("[" + r.Stream + "]")
	if s.color {
		s.w.WriteString(colorReset)
	}
	s.w.WriteString(": ")
	s.w.Write(r.Payload)
	return s.w.WriteByte('\n')
}

// Flush writes any buffered output.
func (s *TerminalSink) Flush() error { return s.w.Flush() }

// Close flushes the sink; the underlying writer is not closed.
func (s *TerminalSink) Close() error { return s.Flush() }

// Name returns the sink identifier.
func (s *TerminalSink) Name() string { return "terminal" }

func (s *TerminalSink) streamColor(stream string) string {
	if stream == "stderr" {
		return colorRed
	}
	return colorCyan
}
