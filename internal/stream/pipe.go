package stream

import (
	"io"
	"sync"

	"github.com/Geun-Oh/splitbuf/internal/buffer"
)

var (
	_ io.Reader     = (*PipeReader)(nil)
	_ io.WriterTo   = (*PipeReader)(nil)
	_ io.Closer     = (*PipeReader)(nil)
	_ io.Writer     = (*PipeWriter)(nil)
	_ io.ReaderFrom = (*PipeWriter)(nil)
	_ io.Closer     = (*PipeWriter)(nil)
)

type pipe struct {
	readerClosedErr error
	writerClosedErr error

	writerWait sync.Cond
	readerWait sync.Cond

	buf *buffer.Split[byte]
	mu  sync.Mutex

	readerClosed bool
	writerClosed bool
}

// Pipe creates an in-memory pipe that stages data in buf. It mirrors io.Pipe
// semantics, except that writes complete as soon as they fit in buf. The pipe
// supports one reading and one writing goroutine.
func Pipe(buf *buffer.Split[byte]) (*PipeReader, *PipeWriter) {
	if buf.Cap() == 0 {
		buf = buffer.New[byte](1, 0)
	}
	p := &pipe{buf: buf}
	p.writerWait.L = &p.mu
	p.readerWait.L = &p.mu
	return &PipeReader{p}, &PipeWriter{p}
}

func (p *pipe) read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.waitForReadableLocked(); err != nil {
		return 0, err
	}

	a := p.buf.Available()
	n := copy(b, a.Slice())
	a.ConsumeN(n)
	p.writerWait.Signal()
	return n, nil
}

func (p *pipe) write(b []byte) (n int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for len(b) > 0 {
		if err := p.waitForWritableLocked(); err != nil {
			return n, err
		}
		r, _ := p.buf.Reserve(min(len(b), p.buf.Writable()))
		wrote := copy(r.Slice(), b)
		r.Commit()

		b = b[wrote:]
		n += wrote
		p.readerWait.Signal()
	}
	return n, nil
}

// writeTo hands readable windows to w without copying them out first. The
// lock is dropped while w runs; the window cannot be overwritten until it
// is consumed.
func (p *pipe) writeTo(w io.Writer) (int64, error) {
	var total int64
	for {
		p.mu.Lock()
		if err := p.waitForReadableLocked(); err != nil {
			p.mu.Unlock()
			if err == io.EOF {
				return total, nil
			}
			return total, err
		}
		a := p.buf.Available()
		view := a.Slice()
		a.Release()
		p.mu.Unlock()

		n, err := w.Write(view)
		if n < 0 || n > len(view) {
			n = 0
			if err == nil {
				err = io.ErrShortWrite
			}
		}

		p.mu.Lock()
		p.buf.Available().ConsumeN(n)
		p.writerWait.Signal()
		p.mu.Unlock()

		total += int64(n)
		if err != nil {
			return total, err
		}
		if n != len(view) {
			return total, io.ErrShortWrite
		}
	}
}

func (p *pipe) waitForReadableLocked() error {
	for {
		if p.buf.Buffered() > 0 {
			return nil
		}
		if p.readerClosed {
			if p.writerClosedErr != nil {
				return p.writerClosedErr
			}
			return io.ErrClosedPipe
		}
		if p.writerClosed {
			if p.readerClosedErr != nil {
				return p.readerClosedErr
			}
			return io.EOF
		}
		p.readerWait.Wait()
	}
}

func (p *pipe) waitForWritableLocked() error {
	for {
		if p.readerClosed {
			if p.writerClosedErr != nil {
				return p.writerClosedErr
			}
			return io.ErrClosedPipe
		}
		if p.writerClosed {
			return io.ErrClosedPipe
		}
		if p.buf.Buffered() == 0 {
			p.buf.Reset()
		}
		if p.buf.Writable() > 0 {
			return nil
		}
		p.writerWait.Wait()
	}
}

func (p *pipe) closeReaderLocked(err error, withErr bool) {
	p.readerClosed = true
	if withErr && p.writerClosedErr == nil {
		if err == nil {
			err = io.ErrClosedPipe
		}
		p.writerClosedErr = err
	}
	p.readerWait.Broadcast()
	p.writerWait.Broadcast()
}

func (p *pipe) closeWriterLocked(err error, withErr bool) {
	p.writerClosed = true
	if withErr && p.readerClosedErr == nil {
		if err == nil {
			err = io.EOF
		}
		p.readerClosedErr = err
	}
	p.readerWait.Broadcast()
	p.writerWait.Broadcast()
}

// PipeReader is the read half of a pipe.
type PipeReader struct {
	p *pipe
}

// Read implements io.Reader.
func (r *PipeReader) Read(b []byte) (int, error) {
	return r.p.read(b)
}

// WriteTo implements io.WriterTo, writing buffered windows straight to w
// until the writer closes.
func (r *PipeReader) WriteTo(w io.Writer) (int64, error) {
	return r.p.writeTo(w)
}

// Close closes the reader side. Data already buffered can still be read.
func (r *PipeReader) Close() error {
	return r.CloseWithError(nil)
}

// CloseWithError closes the reader side of the pipe with an error.
// The error will be returned to future writes on the writer side.
func (r *PipeReader) CloseWithError(err error) error {
	r.p.mu.Lock()
	defer r.p.mu.Unlock()
	r.p.closeReaderLocked(err, true)
	return nil
}

// PipeWriter is the write half of a pipe.
type PipeWriter struct {
	p *pipe
}

// Write implements io.Writer.
func (w *PipeWriter) Write(b []byte) (int, error) {
	return w.p.write(b)
}

// ReadFrom implements io.ReaderFrom by reading data from r
// and writing it to the pipe until EOF or an error occurs.
func (w *PipeWriter) ReadFrom(r io.Reader) (int64, error) {
	return copyBuffered(r.Read, w.Write)
}

// Close closes the writer side of the pipe.
func (w *PipeWriter) Close() error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.closeWriterLocked(nil, false)
	return nil
}

// CloseWithError closes the writer side of the pipe with an error.
// The error will be returned to future reads on the reader side.
func (w *PipeWriter) CloseWithError(err error) error {
	w.p.mu.Lock()
	defer w.p.mu.Unlock()
	w.p.closeWriterLocked(err, true)
	return nil
}

func copyBuffered(read func([]byte) (int, error), write func([]byte) (int, error)) (int64, error) {
	buf := make([]byte, 32*1024)
	var total int64
	for {
		n, rErr := read(buf)
		if n > 0 {
			wn, wErr := write(buf[:n])
			total += int64(wn)
			if wErr != nil {
				return total, wErr
			}
			if wn != n {
				return total, io.ErrShortWrite
			}
		}
		if rErr != nil {
			if rErr != io.EOF {
				return total, rErr
			}
			return total, nil
		}
	}
}
