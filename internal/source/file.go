package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// FileSource reads lines from a file, optionally following new writes (tail -f).
type FileSource struct {
	path     string
	follow   bool
	interval time.Duration
}

// NewFileSource creates a source that reads from a file.
// If follow is true, it continues reading as new lines are appended until
// the context is cancelled. While following, only newline-terminated lines
// are emitted; a trailing fragment waits for the rest of its line.
func NewFileSource(path string, follow bool) *FileSource {
	return &FileSource{
		path:     path,
		follow:   follow,
		interval: 100 * time.Millisecond,
	}
}

// Name returns the source identifier.
func (s *FileSource) Name() string {
	return fmt.Sprintf("file:%s", s.path)
}

// Run opens the file and emits its lines.
func (s *FileSource) Run(ctx context.Context, emit EmitFunc) error {
	f, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("open file %s: %w", s.path, err)
	}
	defer f.Close()

	if !s.follow {
		return scanLines(ctx, "file", f, emit)
	}
	err = s.followLines(ctx, f, emit)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *FileSource) followLines(ctx context.Context, r io.Reader, emit EmitFunc) error {
	br := bufio.NewReaderSize(r, 64*1024)
	var partial []byte

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := br.ReadSlice('\n')
		switch {
		case err == nil:
			line := chunk[:len(chunk)-1]
			if len(partial) > 0 {
				partial = append(partial, line...)
				line = partial
			}
			if err := emit("file", bytes.TrimSuffix(line, []byte{'\r'})); err != nil {
				return err
			}
			partial = partial[:0]

		case errors.Is(err, bufio.ErrBufferFull):
			partial = append(partial, chunk...)
			if len(partial) > maxLine {
				return bufio.ErrTooLong
			}

		case errors.Is(err, io.EOF):
			// Hold the fragment and poll for the rest.
			partial = append(partial, chunk...)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.interval):
			}

		default:
			return err
		}
	}
}
