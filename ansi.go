package vcf

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

// DefaultAnsiCharset is the code page assumed for legacy files that are not
// valid UTF-8 and do not declare a charset.
const DefaultAnsiCharset = "windows-1252"

var ErrUnknownCharset = errors.New("unknown charset")

var (
	charsetParamRe = regexp.MustCompile(`(?i);[ \t]*CHARSET[ \t]*=[ \t]*"?([A-Za-z0-9_.:\-]+)`)
	version4Re     = regexp.MustCompile(`(?im)^[ \t]*VERSION[ \t]*:[ \t]*4\.`)
)

// AnsiFilter chooses the text encoding of vCard files written before vCard
// 4.0 made UTF-8 mandatory.
//
// The precedence is: a byte order mark, a VERSION:4.0 declaration, the first
// CHARSET parameter naming a known non-Unicode charset, valid UTF-8, and
// finally the fallback code page (or a statistical guess if enabled).
type AnsiFilter struct {
	fallbackLabel string
	fallback      encoding.Encoding
	detect        bool
}

type AnsiFilterOption func(f *AnsiFilter)

// WithFallbackCharset sets the code page used for files that are neither
// UTF-8 nor declare a charset. The default is windows-1252.
func WithFallbackCharset(label string) AnsiFilterOption {
	return func(f *AnsiFilter) {
		f.fallbackLabel = label
	}
}

// WithCharsetDetection guesses the charset of undeclared legacy files from
// their content before falling back to the fallback code page.
func WithCharsetDetection() AnsiFilterOption {
	return func(f *AnsiFilter) {
		f.detect = true
	}
}

// NewAnsiFilter returns an AnsiFilter. It fails if the fallback charset is
// not known.
func NewAnsiFilter(opts ...AnsiFilterOption) (*AnsiFilter, error) {
	f := &AnsiFilter{fallbackLabel: DefaultAnsiCharset}
	for _, opt := range opts {
		opt(f)
	}

	enc, name := LookupCharset(f.fallbackLabel)
	if enc == nil {
		return nil, fmt.Errorf("[vcf] fallback charset %q: %w", f.fallbackLabel, ErrUnknownCharset)
	}
	f.fallback = enc
	f.fallbackLabel = name
	return f, nil
}

var defaultAnsiFilter = &AnsiFilter{
	fallbackLabel: DefaultAnsiCharset,
	fallback:      charmap.Windows1252,
}

// Decode returns the name of the charset chosen for data and data decoded to
// a string. It never fails; undecodable bytes are kept as they are.
func (f *AnsiFilter) Decode(data []byte) (label string, text string) {
	if f == nil {
		f = defaultAnsiFilter
	}

	if label, enc, n := sniffBOM(data); enc != nil {
		log.Debugf("ansi filter: byte order mark selects %s", label)
		return label, transformString(enc, data[n:])
	}

	if version4Re.Match(data) {
		return "utf-8", string(data)
	}

	if enc, name := declaredCharset(data); enc != nil {
		log.Debugf("ansi filter: CHARSET parameter selects %s", name)
		return name, transformString(enc, data)
	}

	if utf8.Valid(data) {
		return "utf-8", string(data)
	}

	if f.detect {
		if enc, name := detectCharset(data); enc != nil {
			log.Debugf("ansi filter: detected %s", name)
			return name, transformString(enc, data)
		}
	}

	log.Debugf("ansi filter: falling back to %s", f.fallbackLabel)
	return f.fallbackLabel, transformString(f.fallback, data)
}

// LookupCharset resolves a charset label such as "latin1" or "Shift_JIS" to
// an encoding and its canonical name. It returns nil if the label is unknown.
func LookupCharset(label string) (encoding.Encoding, string) {
	label = strings.TrimSpace(strings.Trim(strings.TrimSpace(label), `"`))
	if label == "" {
		return nil, ""
	}

	if enc, name := charset.Lookup(label); enc != nil {
		return enc, name
	}

	for _, index := range []*ianaindex.Index{ianaindex.MIME, ianaindex.IANA} {
		enc, err := index.Encoding(label)
		if err != nil || enc == nil {
			continue
		}
		name, err := index.Name(enc)
		if err != nil {
			name = strings.ToLower(label)
		}
		return enc, name
	}
	return nil, ""
}

func sniffBOM(data []byte) (string, encoding.Encoding, int) {
	switch {
	case bytes.HasPrefix(data, []byte{0xef, 0xbb, 0xbf}):
		return "utf-8", unicode.UTF8, 3
	case bytes.HasPrefix(data, []byte{0x00, 0x00, 0xfe, 0xff}):
		return "utf-32be", utf32.UTF32(utf32.BigEndian, utf32.IgnoreBOM), 4
	case bytes.HasPrefix(data, []byte{0xff, 0xfe, 0x00, 0x00}):
		return "utf-32le", utf32.UTF32(utf32.LittleEndian, utf32.IgnoreBOM), 4
	case bytes.HasPrefix(data, []byte{0xfe, 0xff}):
		return "utf-16be", unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), 2
	case bytes.HasPrefix(data, []byte{0xff, 0xfe}):
		return "utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), 2
	}
	return "", nil, 0
}

// declaredCharset scans data for CHARSET parameters. Parameter names and
// charset labels are ASCII, so reading the data as Latin-1 is safe whatever
// the actual encoding is.
func declaredCharset(data []byte) (encoding.Encoding, string) {
	latin1, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return nil, ""
	}

	for _, m := range charsetParamRe.FindAllSubmatch(latin1, -1) {
		enc, name := LookupCharset(string(m[1]))
		if enc == nil || isUnicodeCharset(name) {
			continue
		}
		return enc, name
	}
	return nil, ""
}

func detectCharset(data []byte) (encoding.Encoding, string) {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return nil, ""
	}
	enc, name := LookupCharset(result.Charset)
	if enc == nil || isUnicodeCharset(name) {
		return nil, ""
	}
	return enc, name
}

func isUnicodeCharset(name string) bool {
	name = strings.ToLower(name)
	return strings.HasPrefix(name, "utf") || name == "us-ascii" || name == "ascii"
}

// decodeCharset interprets b in the named charset. Unknown charsets and
// UTF-8 leave b as is.
func decodeCharset(b []byte, label string) string {
	if label == "" || strings.EqualFold(label, "utf-8") || strings.EqualFold(label, "us-ascii") {
		return string(b)
	}
	enc, _ := LookupCharset(label)
	if enc == nil {
		log.Debugf("unknown charset %q, keeping value as utf-8", label)
		return string(b)
	}
	return transformString(enc, b)
}

// transformString decodes b with enc. If decoding fails part way the
// undecoded remainder is appended unchanged so little data is lost.
func transformString(enc encoding.Encoding, b []byte) string {
	result, n, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil {
		result = append(result, b[n:]...)
	}
	return string(result)
}
