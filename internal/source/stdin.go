package source

import (
	"context"
	"io"
)

// ReaderSource reads lines from an io.Reader such as stdin (pipe mode).
type ReaderSource struct {
	r    io.Reader
	name string
}

// NewReaderSource creates a source over an arbitrary reader.
func NewReaderSource(name string, r io.Reader) *ReaderSource {
	return &ReaderSource{r: r, name: name}
}

// Name returns the source identifier.
func (s *ReaderSource) Name() string {
	return s.name
}

// Run scans the reader line by line.
func (s *ReaderSource) Run(ctx context.Context, emit EmitFunc) error {
	return scanLines(ctx, "stdin", s.r, emit)
}
