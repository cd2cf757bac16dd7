// Package source defines the Source interface and common utilities for line input.
package source

import (
	"bufio"
	"context"
	"io"
)

// maxLine bounds a single scanned line.
const maxLine = 1024 * 1024

// EmitFunc receives one line read by a source. The line is only valid for the
// duration of the call. Returning an error stops the source.
type EmitFunc func(stream string, line []byte) error

// Source reads lines from an input and hands each one to an EmitFunc.
type Source interface {
	// Run reads until the input is exhausted, ctx is cancelled, or emit
	// fails. It returns nil on a clean end of input.
	Run(ctx context.Context, emit EmitFunc) error

	// Name returns a human-readable identifier for this source.
	Name() string
}

// scanLines feeds every line of r to emit.
func scanLines(ctx context.Context, stream string, r io.Reader, emit EmitFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := emit(stream, scanner.Bytes()); err != nil {
			return err
		}
	}
	return scanner.Err()
}
