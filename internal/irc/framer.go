package irc

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/karmabot/internal/domain"
)

// MaxLineLength is the RFC 1459 limit for one line, terminator included.
const MaxLineLength = 512

const readChunkSize = 4096

// Framer splits a byte stream into protocol lines. Partial data survives
// across reads, including reads that fail with a deadline error, so a
// caller may use read deadlines for idle detection and keep calling Next.
type Framer struct {
	r       io.Reader
	max     int
	pending []byte
	chunk   []byte
	discard bool
	err     error
}

func NewFramer(r io.Reader, maxLength int) *Framer {
	if maxLength <= 0 {
		maxLength = MaxLineLength
	}

	return &Framer{
		r:     r,
		max:   maxLength,
		chunk: make([]byte, readChunkSize),
	}
}

// Next returns the next line with its CRLF (or bare LF) stripped.
//
// An oversized line is dropped up to its terminator and reported once as
// domain.ErrProtocolViolation; the following call resumes on the next
// line. At end of stream Next returns domain.ErrConnectionClosed and
// drops any unterminated tail.
func (f *Framer) Next() (string, error) {
	for {
		if i := bytes.IndexByte(f.pending, '\n'); i >= 0 {
			oversized := f.discard || i+1 > f.max
			line := string(bytes.TrimSuffix(f.pending[:i], []byte{'\r'}))
			f.pending = append(f.pending[:0], f.pending[i+1:]...)
			f.discard = false

			if oversized {
				return "", fmt.Errorf("%w: line exceeds %d bytes", domain.ErrProtocolViolation, f.max)
			}
			return line, nil
		}

		if len(f.pending) >= f.max {
			f.discard = true
			f.pending = f.pending[:0]
		}

		if f.err != nil {
			err := f.err
			if errors.Is(err, domain.ErrConnectionClosed) {
				f.pending = nil
			} else {
				f.err = nil
			}
			return "", err
		}

		n, err := f.r.Read(f.chunk)
		f.pending = append(f.pending, f.chunk[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("%w: %w", domain.ErrConnectionClosed, err)
			}
			f.err = err
		}
	}
}
