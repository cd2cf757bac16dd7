// Package entry defines the Record type relayed through the split buffer.
package entry

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// ErrMalformed is returned when a frame does not hold a valid record.
var ErrMalformed = errors.New("entry: malformed record")

// Record is one line captured by a source, framed into the buffer by the
// producer and decoded by the consumer.
type Record struct {
	Seq     uint64    // monotonic per source
	Time    time.Time // capture time
	Stream  string    // stdin, stdout, stderr, file
	Source  string    // source identifier (filename, command, etc.)
	Payload []byte    // the line without its terminator
}

// Format returns a formatted string representation of the record.
func (r *Record) Format() string {
	ts := r.Time.Format(time.RFC3339)
	return fmt.Sprintf("[%s][%s]: %s", ts, r.Stream, r.Payload)
}

// EncodedLen returns the number of bytes Encode writes for r.
func (r *Record) EncodedLen() int {
	var hdr [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(hdr[:], r.Seq)
	n += binary.PutVarint(hdr[:], r.Time.UnixNano())
	n += binary.PutUvarint(hdr[:], uint64(len(r.Stream))) + len(r.Stream)
	n += binary.PutUvarint(hdr[:], uint64(len(r.Source))) + len(r.Source)
	return n + len(r.Payload)
}

// Encode writes r into dst, which must be at least EncodedLen bytes, and
// returns the number of bytes written.
func (r *Record) Encode(dst []byte) int {
	n := binary.PutUvarint(dst, r.Seq)
	n += binary.PutVarint(dst[n:], r.Time.UnixNano())
	n += putString(dst[n:], r.Stream)
	n += putString(dst[n:], r.Source)
	return n + copy(dst[n:], r.Payload)
}

// Decode parses a record from src. Payload aliases src, so callers that keep
// the record past the life of src must copy it.
func Decode(src []byte) (Record, error) {
	var r Record

	seq, n := binary.Uvarint(src)
	if n <= 0 {
		return r, fmt.Errorf("%w: sequence", ErrMalformed)
	}
	off := n

	nanos, n := binary.Varint(src[off:])
	if n <= 0 {
		return r, fmt.Errorf("%w: timestamp", ErrMalformed)
	}
	off += n

	stream, n, err := getString(src[off:])
	if err != nil {
		return r, fmt.Errorf("%w: stream", err)
	}
	off += n

	source, n, err := getString(src[off:])
	if err != nil {
		return r, fmt.Errorf("%w: source", err)
	}
	off += n

	r.Seq = seq
	r.Time = time.Unix(0, nanos)
	r.Stream = stream
	r.Source = source
	r.Payload = src[off:]
	return r, nil
}

func putString(dst []byte, s string) int {
	n := binary.PutUvarint(dst, uint64(len(s)))
	return n + copy(dst[n:], s)
}

func getString(src []byte) (string, int, error) {
	l, n := binary.Uvarint(src)
	if n <= 0 || uint64(len(src)-n) < l {
		return "", 0, ErrMalformed
	}
	end := n + int(l)
	return string(src[n:end]), end, nil
}
