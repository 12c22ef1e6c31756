package vcf

import (
	"errors"
	"io"
	"strings"
)

// lineSource returns physical lines without their line terminator, and
// io.EOF after the last line.
type lineSource interface {
	readLine() (string, error)
}

// stringLines is a lineSource over text that is already in memory.
type stringLines struct {
	s string
}

func (l *stringLines) readLine() (string, error) {
	if l.s == "" {
		return "", io.EOF
	}
	line, rest, _ := strings.Cut(l.s, "\n")
	l.s = rest
	return strings.TrimSuffix(line, "\r"), nil
}

// unfolder joins folded physical lines into logical lines. The decoder pulls
// lines from it one at a time, and reads raw physical lines directly when a
// quoted-printable or base64 value continues without folding.
type unfolder struct {
	src lineSource

	// version decides which rows are quoted-printable. The decoder updates
	// it as cards declare their VERSION.
	version Version

	pending    string
	hasPending bool

	eof bool
	err error
}

func newUnfolder(src lineSource) *unfolder {
	return &unfolder{src: src}
}

// physical returns the next physical line.
func (u *unfolder) physical() (string, bool) {
	if u.hasPending {
		u.hasPending = false
		return u.pending, true
	}
	if u.eof || u.err != nil {
		return "", false
	}

	line, err := u.src.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			u.eof = true
		} else {
			u.err = err
		}
		return "", false
	}
	return line, true
}

// unread pushes back a single line, to be returned by the next call to
// physical.
func (u *unfolder) unread(line string) {
	u.pending, u.hasPending = line, true
}

// logical returns the next non-empty logical line. A physical line starting
// with a space or tab continues the previous line, with that single whitespace
// character removed. Folding stops after a quoted-printable soft line break:
// the lines that follow belong to the encoded value and are read by the
// decoder.
func (u *unfolder) logical() (string, bool) {
	var first string
	for {
		line, ok := u.physical()
		if !ok {
			return "", false
		}
		if strings.TrimSpace(line) != "" {
			first = line
			break
		}
	}

	// Nothing precedes the first line of a card, so whitespace after
	// BEGIN:VCARD is content of the next line rather than a fold.
	if isBeginLine(first) {
		return first, true
	}

	var b strings.Builder
	b.WriteString(first)
	for !qpSoftBreak(b.String(), u.version) {
		next, ok := u.physical()
		if !ok {
			break
		}
		if next == "" || (next[0] != ' ' && next[0] != '\t') {
			u.unread(next)
			break
		}
		b.WriteString(next[1:])
	}
	return b.String(), true
}

func isBeginLine(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), "BEGIN:VCARD")
}

// qpSoftBreak reports whether line ends with a quoted-printable soft line
// break: it ends with "=" and its header is complete and declares
// quoted-printable ENCODING. vCard 4.0 has no transfer encodings.
func qpSoftBreak(line string, v Version) bool {
	if v == V4_0 || !strings.HasSuffix(line, "=") {
		return false
	}
	row, ok := parseRow(line, v)
	return ok && row.Params.Encoding() == EncodingQuotedPrintable
}
