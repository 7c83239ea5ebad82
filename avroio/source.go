// Package avroio decodes the Avro 1.10.1 binary encoding and the
// object container file framing built on top of it.
package avroio

import (
	"errors"
	"io"
)

// Source is a forward-only, buffered byte cursor over an
// io.Reader. It never seeks backward; every byte it returns via Read
// is consumed and will not be seen again. Adapted from the teacher's
// pkg/peeker.Reader: same grow-on-demand buffer with a hard ceiling,
// same Peek/Read split, renamed to this module's vocabulary (a
// "peek" is rarely needed here since Avro's framing is self-describing
// length-prefixed data; the only one is AtEOF's one-byte look-ahead at
// a block boundary).
type Source struct {
	r      io.Reader
	limit  int
	buffer []byte
	cursor []byte
	eof    bool
	offset int64
}

var (
	ErrBufferOverflow = errors.New("avroio: value exceeds maximum buffer size")
	ErrTruncated       = errors.New("avroio: truncated input")
)

// NewSource wraps r in a buffered Source. size is the initial buffer
// capacity; max is the largest single read the Source will ever
// attempt to satisfy (guards against a corrupt or adversarial length
// prefix causing an unbounded allocation).
func NewSource(r io.Reader, size, max int) *Source {
	b := make([]byte, size)
	return &Source{
		r:      r,
		limit:  max,
		buffer: b,
		cursor: b[:0],
	}
}

// Offset returns the number of bytes consumed from the source so far.
func (s *Source) Offset() int64 { return s.offset }

func (s *Source) fill(min int) error {
	if min > s.limit {
		return ErrBufferOverflow
	}
	if min > cap(s.buffer) {
		s.buffer = make([]byte, min)
	}
	s.buffer = s.buffer[:cap(s.buffer)]
	copy(s.buffer, s.cursor)
	clen := len(s.cursor)
	space := len(s.buffer) - clen
	for space > 0 {
		n, err := s.r.Read(s.buffer[clen:])
		if n > 0 {
			clen += n
			space -= n
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				break
			}
			return err
		}
	}
	s.buffer = s.buffer[:clen]
	s.cursor = s.buffer
	return nil
}

// Peek returns the next n bytes without consuming them.
func (s *Source) Peek(n int) ([]byte, error) {
	if len(s.cursor) == 0 && s.eof && n > 0 {
		return nil, io.EOF
	}
	if n > len(s.cursor) && !s.eof {
		if err := s.fill(n); err != nil {
			return nil, err
		}
	}
	if n > len(s.cursor) {
		return s.cursor, ErrTruncated
	}
	return s.cursor[:n], nil
}

// Read consumes and returns exactly n bytes, or an error if fewer
// than n remain.
func (s *Source) Read(n int) ([]byte, error) {
	b, err := s.Peek(n)
	if err != nil {
		return nil, err
	}
	s.cursor = s.cursor[n:]
	s.offset += int64(n)
	return b, nil
}

// AtEOF reports whether the source has no buffered bytes left and the
// underlying reader has reached end-of-file. It performs a one-byte
// peek to force a fill attempt if the buffer is currently empty.
func (s *Source) AtEOF() bool {
	if len(s.cursor) > 0 {
		return false
	}
	if s.eof {
		return true
	}
	s.Peek(1)
	return len(s.cursor) == 0 && s.eof
}
