package vcf

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// base64LineLength is the number of base64 characters on each folded line,
// so that the line including its leading space is 75 octets.
const base64LineLength = 74

var ErrInvalidBase64 = errors.New("invalid base64 data")

// EncodeBase64Folded encodes data in the vCard 2.1 layout: the value starts on
// a new line and every line of base64 is indented by one space. The result
// starts and ends with CRLF; the writer terminates the run with an empty line.
func EncodeBase64Folded(data []byte) string {
	enc := base64.StdEncoding.EncodeToString(data)

	var b strings.Builder
	b.Grow(base64FoldedLength(len(data)))
	b.WriteString("\r\n")
	for len(enc) > 0 {
		n := min(base64LineLength, len(enc))
		b.WriteByte(' ')
		b.WriteString(enc[:n])
		b.WriteString("\r\n")
		enc = enc[n:]
	}
	return b.String()
}

// DecodeBase64 decodes base64 data as found in vCards. Whitespace is ignored,
// the URL-safe alphabet is accepted and missing padding is restored.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		case '-':
			return '+'
		case '_':
			return '/'
		}
		return r
	}, s)

	switch len(s) % 4 {
	case 2:
		s += "=="
	case 3:
		s += "="
	}

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBase64, err)
	}
	return data, nil
}

// ParseDataURI parses a "data:" URI as used for inline binary values in vCard
// 4.0. It returns the media type and the decoded payload.
func ParseDataURI(uri string) (mediaType string, data []byte, ok bool) {
	if len(uri) < 5 || !strings.EqualFold(uri[:5], "data:") {
		return "", nil, false
	}
	header, payload, found := strings.Cut(uri[5:], ",")
	if !found {
		return "", nil, false
	}

	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		mediaType, isBase64 = strings.CutSuffix(header, ";BASE64")
	}
	if !isBase64 {
		// Percent-encoded text payloads are left to the caller.
		return "", nil, false
	}

	data, err := DecodeBase64(payload)
	if err != nil {
		return "", nil, false
	}
	return mediaType, data, true
}

// DataURI returns data as a base64 "data:" URI with the given media type.
func DataURI(mediaType string, data []byte) string {
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
