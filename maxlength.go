package vcf

import (
	"encoding/base64"
)

// MaxFoldedLength returns the maximum length of a logical line of length
// bytes once folded at the vCard line length, excluding the final CRLF.
func MaxFoldedLength(length int) int {
	// every fold adds CRLF and the leading space, at most once per
	// foldLength-1 bytes of content
	return length + 3*(length/(foldLength-1)+1)
}

// maxQuotedPrintableLength returns the maximum length of quoted-printable
// output for length bytes with soft breaks every lineLength characters.
func maxQuotedPrintableLength(length, lineLength int) int {
	ret := length * 3 // all characters escaped
	return ret + 3*(ret/(lineLength-1)+1)
}

// base64FoldedLength returns the exact length of EncodeBase64Folded output for
// length bytes of input.
func base64FoldedLength(length int) int {
	n := base64.StdEncoding.EncodedLen(length)
	lines := (n + base64LineLength - 1) / base64LineLength
	return 2 + n + 3*lines
}
