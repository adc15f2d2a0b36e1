package source

// streaming.go provides the io.Reader wrappers used while a source is read:
//
//   - UTF8Sanitizer: replaces invalid UTF-8 bytes with '?'
//   - CountingReader: tracks bytes read from the underlying file
//
// Both work on the fly with O(buffer) memory, so they compose with the
// decoders built in source.go.

import (
	"io"
	"sync/atomic"
	"unicode/utf8"
)

// UTF8Sanitizer wraps an io.Reader and replaces invalid UTF-8 sequences with
// '?' as data passes through. A replacement of the same width keeps the
// sanitizer in place without growing the buffer.
type UTF8Sanitizer struct {
	reader io.Reader

	// Leftover bytes from the previous read that may start a multi-byte rune
	pending []byte
}

// NewUTF8Sanitizer creates a sanitizer reading from r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{
		reader:  r,
		pending: make([]byte, 0, utf8.UTFMax),
	}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	offset := 0
	if len(s.pending) > 0 {
		offset = copy(p, s.pending)
		s.pending = s.pending[:0]
	}

	n, err := s.reader.Read(p[offset:])
	n += offset
	if n == 0 {
		return 0, err
	}

	if isASCII(p[:n]) {
		return n, err
	}
	return s.sanitize(p[:n], err == io.EOF), err
}

func isASCII(data []byte) bool {
	for _, b := range data {
		if b >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// sanitize rewrites data in place and returns the number of bytes to hand
// back. Unless atEOF, an incomplete rune at the end is held in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, atEOF bool) int {
	write := 0
	for read := 0; read < len(data); {
		if !atEOF && !utf8.FullRune(data[read:]) {
			s.pending = append(s.pending, data[read:]...)
			return write
		}

		r, size := utf8.DecodeRune(data[read:])
		if r == utf8.RuneError && size == 1 {
			data[write] = '?'
			write++
			read++
			continue
		}
		copy(data[write:], data[read:read+size])
		write += size
		read += size
	}
	return write
}

// CountingReader tracks the bytes read through it. BytesRead is safe to call
// from another goroutine while reading is in progress.
type CountingReader struct {
	reader io.Reader
	n      atomic.Int64
	total  int64
}

// NewCountingReader wraps r. total is the expected size, or 0 if unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{reader: r, total: total}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.n.Add(int64(n))
	return n, err
}

// BytesRead returns the number of bytes read so far.
func (r *CountingReader) BytesRead() int64 {
	return r.n.Load()
}

// Progress returns the read progress as a percentage (0-100), or 0 when the
// total is unknown.
func (r *CountingReader) Progress() int {
	if r.total <= 0 {
		return 0
	}
	p := int(r.BytesRead() * 100 / r.total)
	if p > 100 {
		p = 100
	}
	return p
}
