package vcf

import (
	"unicode/utf8"
)

// foldLength is the maximum length of a physical line in octets, excluding
// the CRLF.
const foldLength = 75

// appendFolded appends s to dst, starting at column col of the current
// physical line, and folds it so that no physical line exceeds foldLength
// octets. Continuation lines start with a single space. A fold never splits a
// UTF-8 sequence; runs of bytes that are not UTF-8 are cut at the limit. It
// returns the column after the last byte written; no line terminator is
// appended.
func appendFolded(dst []byte, s string, col int) ([]byte, int) {
	for len(s) > 0 {
		room := foldLength - col
		n := min(room, len(s))
		if n < len(s) {
			for n > 0 && !utf8.RuneStart(s[n]) {
				n--
			}
		}
		if n <= 0 {
			if col > 1 {
				dst = append(dst, "\r\n "...)
				col = 1
				continue
			}
			// no character start within reach, the bytes are not UTF-8
			n = min(room, len(s))
		}

		dst = append(dst, s[:n]...)
		col += n
		s = s[n:]
		if len(s) > 0 {
			dst = append(dst, "\r\n "...)
			col = 1
		}
	}
	return dst, col
}

// appendLine appends s folded and terminated by CRLF.
func appendLine(dst []byte, s string) []byte {
	dst, _ = appendFolded(dst, s, 0)
	return append(dst, "\r\n"...)
}
