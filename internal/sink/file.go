package sink

import (
	"fmt"
	"os"

	"github.com/Geun-Oh/splitbuf/internal/entry"
)

// FileSink writes records to a file.
type FileSink struct {
	inner Sink
	file  *os.File
}

// NewFileSink creates a sink that appends to the given file path using the
// selected format. fields is attached to JSON output and may be nil.
func NewFileSink(path string, format Format, fields FieldExtractor) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output file %s: %w", path, err)
	}

	inner, err := New(format, f, false, fields)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &FileSink{inner: inner, file: f}, nil
}

// Write delegates to the inner sink.
func (s *FileSink) Write(r *entry.Record) error {
	return s.inner.Write(r)
}

// Flush drains the inner sink and syncs the file to disk.
func (s *FileSink) Flush() error {
	if err := s.inner.Flush(); err != nil {
		return err
	}
	return s.file.Sync()
}

// Close flushes and closes the file.
func (s *FileSink) Close() error {
	if err := s.Flush(); err != nil {
		return err
	}
	return s.file.Close()
}

// Name returns the sink identifier.
func (s *FileSink) Name() string {
	return "file:" + s.file.Name()
}
