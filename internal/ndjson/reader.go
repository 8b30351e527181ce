// Package ndjson reads newline-delimited records with a bounded line size.
package ndjson

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// DefaultMaxLineBytes bounds a single line when no explicit limit is given.
const DefaultMaxLineBytes = 10 << 20

// ErrLineTooLong is returned for a line over the limit. The reader has
// already skipped past it, so the next ReadLine continues with the following
// line.
var ErrLineTooLong = errors.New("ndjson: line too long")

// Reader splits a stream into lines. It is not safe for concurrent use.
type Reader struct {
	r   *bufio.Reader
	max int
}

// NewReader returns a Reader with DefaultMaxLineBytes.
func NewReader(r io.Reader) *Reader {
	return NewReaderSize(r, DefaultMaxLineBytes)
}

// NewReaderSize returns a Reader that rejects lines longer than limit bytes.
func NewReaderSize(r io.Reader, limit int) *Reader {
	if limit <= 0 {
		limit = DefaultMaxLineBytes
	}
	return &Reader{r: bufio.NewReaderSize(r, 64<<10), max: limit}
}

// ReadLine returns the next line without its terminator. The returned slice
// is owned by the caller. A final line without a trailing newline is still
// returned; io.EOF follows it.
func (r *Reader) ReadLine() ([]byte, error) {
	var line []byte
	tooLong := false
	for {
		chunk, err := r.r.ReadSlice('\n')
		if !tooLong {
			if len(line)+len(chunk) > r.max+1 {
				tooLong = true
				line = nil
			} else {
				line = append(line, chunk...)
			}
		}
		switch {
		case err == nil:
			if tooLong {
				return nil, ErrLineTooLong
			}
			return trimEOL(line), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return nil, ErrLineTooLong
			}
			if len(line) > 0 {
				return trimEOL(line), nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

func trimEOL(line []byte) []byte {
	line = bytes.TrimSuffix(line, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r"))
}
