package vcf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

const (
	defaultReadBufSize = 32 * 1024
	maxReadBufSize     = 16 * 1024 * 1024
)

var ErrLineTooLong = errors.New("line too long")

type readBuffer struct {
	buf        []byte
	start, end int
}

func (rb *readBuffer) init() {
	if len(rb.buf) == 0 {
		rb.buf = make([]byte, defaultReadBufSize)
	}
}

func (rb *readBuffer) window() []byte {
	return rb.buf[rb.start:rb.end]
}

func (rb *readBuffer) advance(consumed int) {
	if consumed <= 0 {
		return
	}
	rb.start += consumed
	if rb.start >= rb.end {
		rb.start, rb.end = 0, 0
	}
}

func (rb *readBuffer) compact() {
	if rb.start == 0 || rb.start == rb.end {
		return
	}
	copy(rb.buf, rb.buf[rb.start:rb.end])
	rb.end -= rb.start
	rb.start = 0
}

// ensureWriteSpace makes room after end, first by moving the unread bytes to
// the front and then by doubling the buffer up to maxReadBufSize. A single
// physical line must fit in the buffer.
func (rb *readBuffer) ensureWriteSpace() error {
	if rb.end < len(rb.buf) {
		return nil
	}
	if rb.compact(); rb.end < len(rb.buf) {
		return nil
	}

	size := min(max(len(rb.buf), defaultReadBufSize)*2, maxReadBufSize)
	if size <= len(rb.buf) {
		return fmt.Errorf("[vcf] physical line exceeds %d bytes: %w", maxReadBufSize, ErrLineTooLong)
	}

	grown := make([]byte, size)
	rb.end = copy(grown, rb.window())
	rb.start = 0
	rb.buf = grown
	return nil
}

// readMore appends the next read from r to the window.
func (rb *readBuffer) readMore(r io.Reader) error {
	if err := rb.ensureWriteSpace(); err != nil {
		return err
	}
	n, err := r.Read(rb.buf[rb.end:])
	rb.end += n
	return err
}

// cutLine removes the first LF terminated line from the window and returns it
// without its terminator. With final set an unterminated rest is returned as
// the last line.
func (rb *readBuffer) cutLine(final bool) (string, bool) {
	window := rb.window()
	i := bytes.IndexByte(window, '\n')
	switch {
	case i >= 0:
		window = window[:i]
		rb.advance(i + 1)
	case final && len(window) > 0:
		rb.advance(len(window))
	default:
		return "", false
	}
	return string(bytes.TrimSuffix(window, []byte("\r"))), true
}

// readerLines is a lineSource reading from an io.Reader. Lines end at LF; a
// CR before the LF is removed.
type readerLines struct {
	r   io.Reader
	rb  readBuffer
	err error
}

func (l *readerLines) readLine() (string, error) {
	l.rb.init()

	for {
		if line, ok := l.rb.cutLine(l.err != nil); ok {
			return line, nil
		}
		if l.err != nil {
			return "", l.err
		}
		if err := l.rb.readMore(l.r); err != nil {
			l.err = err
		}
	}
}
