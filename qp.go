package vcf

import (
	"strings"
)

// qpLineLength is the maximum length of a quoted-printable line including the
// trailing "=" of a soft line break.
const qpLineLength = 76

const upperhex = "0123456789ABCDEF"

// DecodeQuotedPrintable decodes quoted-printable text. Soft line breaks ("="
// followed by optional whitespace and CRLF or LF) are removed and =XX triplets
// are replaced by the byte they encode. A truncated escape is kept literally.
func DecodeQuotedPrintable(s string) []byte {
	if s == "" {
		return nil
	}

	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '=' {
			out = append(out, c)
			continue
		}

		if n := softBreakLen(s[i+1:]); n > 0 {
			i += n
			continue
		}

		if i+2 < len(s) {
			hi, ok1 := unhex(s[i+1])
			lo, ok2 := unhex(s[i+2])
			if ok1 && ok2 {
				out = append(out, hi<<4|lo)
				i += 2
				continue
			}
		}

		out = append(out, '=')
	}
	return out
}

// DecodeQuotedPrintableText decodes quoted-printable text and interprets the
// resulting bytes in charset. An empty charset means UTF-8.
func DecodeQuotedPrintableText(s, charset string) string {
	return decodeCharset(DecodeQuotedPrintable(s), charset)
}

// softBreakLen returns the number of bytes after a "=" that belong to a soft
// line break, or 0 if s does not start with one.
func softBreakLen(s string) int {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	switch {
	case strings.HasPrefix(s[i:], "\r\n"):
		return i + 2
	case strings.HasPrefix(s[i:], "\n"):
		return i + 1
	}
	return 0
}

func unhex(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// EncodeQuotedPrintable encodes src as quoted-printable. column is the number
// of characters already written on the first line, e.g. the property name and
// parameters. Line breaks in src are encoded as =0D=0A so the result is a
// single logical value, wrapped with soft line breaks at 76 characters.
func EncodeQuotedPrintable(src []byte, column int) string {
	return encodeQuotedPrintable(src, column, qpLineLength)
}

func encodeQuotedPrintable(src []byte, column, lineLength int) string {
	var b strings.Builder
	b.Grow(maxQuotedPrintableLength(len(src), lineLength))

	col := column
	var tok [3]byte
	for i, c := range src {
		last := i == len(src)-1

		n := 1
		if needsQPEscape(c) || (last && c == ' ') {
			tok[0], tok[1], tok[2] = '=', upperhex[c>>4], upperhex[c&0x0f]
			n = 3
		} else {
			tok[0] = c
		}

		// Leave room for the "=" of a soft break, unless nothing follows.
		limit := lineLength - 1
		if last {
			limit = lineLength
		}
		if col > 0 && col+n > limit {
			b.WriteString("=\r\n")
			col = 0
		}

		b.Write(tok[:n])
		col += n
	}
	return b.String()
}

func needsQPEscape(c byte) bool {
	return c == '=' || c > '~' || (c < '!' && c != ' ')
}
