package stream

import (
	"bytes"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
)

func newTestPipe(t *testing.T, size int) (*PipeReader, *PipeWriter) {
	t.Helper()
	r, w := Pipe(buffer.New[byte](size, 0))
	t.Cleanup(func() {
		r.Close()
		w.Close()
	})
	return r, w
}

func mustWrite(t *testing.T, w io.Writer, data []byte) {
	t.Helper()
	n, err := w.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
}

func TestPipeBasic(t *testing.T) {
	r, w := newTestPipe(t, 10)
	data := []byte("hello world")

	go func() {
		mustWrite(t, w, data)
		w.Close()
	}()

	buf := make([]byte, len(data))
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, data, buf)

	_, err = r.Read(buf)
	assert.Equal(t, io.EOF, err)
}

func TestPipeBlocking(t *testing.T) {
	r, w := newTestPipe(t, 2)
	data := []byte("hello")

	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, writeErr = w.Write(data)
	}()

	time.Sleep(10 * time.Millisecond)

	buf := make([]byte, len(data))
	_, err := io.ReadFull(r, buf)
	require.NoError(t, err)

	wg.Wait()
	require.NoError(t, writeErr)
	assert.Equal(t, data, buf)
}

func TestPipeZeroCapacity(t *testing.T) {
	r, w := Pipe(buffer.New[byte](0, 0))

	go func() {
		defer w.Close()
		mustWrite(t, w, []byte("abc"))
	}()

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "abc", string(out))
}

func TestPipeClose(t *testing.T) {
	t.Run("WriteAfterReaderClose", func(t *testing.T) {
		r, w := newTestPipe(t, 10)
		r.Close()

		_, err := w.Write([]byte("test"))
		assert.Equal(t, io.ErrClosedPipe, err)
	})

	t.Run("WriteAfterWriterClose", func(t *testing.T) {
		_, w := newTestPipe(t, 10)
		w.Close()

		_, err := w.Write([]byte("test"))
		assert.Equal(t, io.ErrClosedPipe, err)
	})

	t.Run("WriterCloseWithError", func(t *testing.T) {
		r, w := newTestPipe(t, 10)
		customErr := errors.New("custom error")
		w.CloseWithError(customErr)

		_, err := r.Read(make([]byte, 10))
		assert.Equal(t, customErr, err)
	})

	t.Run("ReaderCloseWithError", func(t *testing.T) {
		r, w := newTestPipe(t, 10)
		customErr := errors.New("custom error")
		r.CloseWithError(customErr)

		_, err := w.Write([]byte("test"))
		assert.Equal(t, customErr, err)
	})

	t.Run("CloseWithErrorDoesNotOverwrite", func(t *testing.T) {
		r, w := newTestPipe(t, 10)
		firstErr := errors.New("first error")
		w.CloseWithError(firstErr)
		w.CloseWithError(errors.New("second error"))

		_, err := r.Read(make([]byte, 10))
		assert.Equal(t, firstErr, err)
	})

	t.Run("BufferedDataAfterReaderClose", func(t *testing.T) {
		r, w := newTestPipe(t, 10)
		mustWrite(t, w, []byte("test"))
		r.Close()

		buf := make([]byte, 4)
		_, err := io.ReadFull(r, buf)
		require.NoError(t, err)
		assert.Equal(t, "test", string(buf))

		_, err = r.Read(buf)
		assert.Equal(t, io.ErrClosedPipe, err)
	})
}

func TestPipeWriteTo(t *testing.T) {
	r, w := newTestPipe(t, 7)
	input := "hello world from WriteTo, wrapping a small buffer many times"
	output := &bytes.Buffer{}

	go func() {
		defer w.Close()
		for i := 0; i < len(input); i += 3 {
			mustWrite(t, w, []byte(input[i:min(i+3, len(input))]))
		}
	}()

	n, err := r.WriteTo(output)
	require.NoError(t, err)
	assert.Equal(t, int64(len(input)), n)
	assert.Equal(t, input, output.String())
}

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) {
	return len(p) / 2, nil
}

func TestPipeWriteToShortWrite(t *testing.T) {
	r, w := newTestPipe(t, 10)
	mustWrite(t, w, []byte("abcd"))

	n, err := r.WriteTo(shortWriter{})
	assert.Equal(t, io.ErrShortWrite, err)
	assert.Equal(t, int64(2), n)

	buf := make([]byte, 2)
	_, err = io.ReadFull(r, buf)
	require.NoError(t, err)
	assert.Equal(t, "cd", string(buf))
}

func TestPipeReadFrom(t *testing.T) {
	r, w := newTestPipe(t, 10)
	input := "hello world from ReadFrom"
	output := &bytes.Buffer{}

	go func() {
		defer w.Close()
		n, err := w.ReadFrom(bytes.NewReader([]byte(input)))
		assert.NoError(t, err)
		assert.Equal(t, int64(len(input)), n)
	}()

	n, err := io.Copy(output, r)
	require.NoError(t, err)
	assert.Equal(t, int64(len(input)), n)
	assert.Equal(t, input, output.String())
}

func TestPipeLargeDataIntegrity(t *testing.T) {
	r, w := newTestPipe(t, 1000)

	data := make([]byte, 1024*1024)
	for i := range data {
		data[i] = byte(i % 251)
	}

	var (
		wg       sync.WaitGroup
		writeErr error
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer w.Close()
		for off := 0; off < len(data); {
			n := min(len(data)-off, 1+off%997)
			if _, writeErr = w.Write(data[off : off+n]); writeErr != nil {
				return
			}
			off += n
		}
	}()

	var got bytes.Buffer
	_, err := io.Copy(&got, r)
	wg.Wait()

	require.NoError(t, err)
	require.NoError(t, writeErr)
	assert.True(t, bytes.Equal(data, got.Bytes()), "data mismatch")
}
