package core

// streaming.go provides the io.Reader wrappers applied to CSV input before
// parsing:
//
//   - CountingReader: Tracks bytes read for the conversion result and logs
//   - BOMSkippingReader: Removes UTF-8 BOM (0xEF 0xBB 0xBF) from spreadsheet exports
//   - StrictUTF8Reader: Fails with DecodeError on the first invalid UTF-8 sequence
//
// Use WrapForDecoding to apply all of them in the correct order.

import (
	"bytes"
	"io"
	"unicode/utf8"
)

// readChunk is the size of each read StrictUTF8Reader issues to its source.
const readChunk = 32 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StrictUTF8Reader passes bytes through unchanged and returns a *DecodeError
// once it reaches an invalid UTF-8 sequence. Bytes before the bad sequence are
// still delivered.
type StrictUTF8Reader struct {
	reader io.Reader
	buf    []byte
	ready  []byte // validated bytes not yet handed out

	// Leftover bytes from the previous read that may start a multi-byte sequence
	pending []byte

	offset int64 // bytes validated so far
	err    error // sticky error returned once ready is drained
}

// NewStrictUTF8Reader creates a validating reader.
func NewStrictUTF8Reader(r io.Reader) *StrictUTF8Reader {
	return &StrictUTF8Reader{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *StrictUTF8Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.ready) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.ready)
	s.ready = s.ready[n:]
	return n, nil
}

// fill reads one chunk, validates it and stages the valid prefix in ready.
func (s *StrictUTF8Reader) fill() {
	need := len(s.pending) + readChunk
	if cap(s.buf) < need {
		s.buf = make([]byte, need)
	}
	buf := s.buf[:need]
	carried := copy(buf, s.pending)
	s.pending = s.pending[:0]

	n, err := s.reader.Read(buf[carried:])
	data := buf[:carried+n]

	i := 0
	for i < len(data) {
		if data[i] < utf8.RuneSelf {
			i++
			continue
		}
		if !utf8.FullRune(data[i:]) {
			if err == nil {
				// The rest of the sequence may arrive with the next read
				s.pending = append(s.pending, data[i:]...)
				break
			}
			if err == io.EOF {
				s.err = &DecodeError{Offset: s.offset + int64(i)}
			}
			break
		}
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size == 1 {
			s.err = &DecodeError{Offset: s.offset + int64(i)}
			break
		}
		i += size
	}

	s.ready = data[:i]
	s.offset += int64(i)
	if s.err == nil && err != nil {
		s.err = err
	}
}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
// The UTF-8 BOM is 0xEF 0xBB 0xBF and is commonly added by Windows programs.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	head    []byte // bytes consumed during the BOM check that were not a BOM
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. On the first read, it checks for and skips the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var buf [3]byte
		n, err := io.ReadFull(r.reader, buf[:])
		if !(n == len(utf8BOM) && bytes.Equal(buf[:n], utf8BOM)) {
			r.head = append([]byte(nil), buf[:n]...)
		}
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
	}

	if len(r.head) > 0 {
		n := copy(p, r.head)
		r.head = r.head[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForDecoding wraps raw CSV input with byte counting, BOM skipping and
// UTF-8 validation.
//
// The order matters:
// 1. Counting sees the raw bytes so BytesRead matches the file size
// 2. BOM must be stripped before validation and parsing
// 3. Validation runs last, right before the CSV reader
func WrapForDecoding(r io.Reader) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	return NewStrictUTF8Reader(NewBOMSkippingReader(counter)), counter
}
