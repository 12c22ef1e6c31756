package vcf

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/transform"
)

// maxNesting limits how deep vCards nested in AGENT properties are parsed.
const maxNesting = 8

// Decoder reads vCards from a stream. Rows that cannot be parsed are skipped,
// so a few corrupt lines do not cost the rest of the card.
type Decoder struct {
	lines *unfolder

	version Version // used until a card declares its VERSION
	charset string
	bufSize int
	filter  *AnsiFilter

	err error
}

type DecoderOption func(d *Decoder)

// WithDefaultVersion sets the version assumed for cards without a VERSION
// property, and for the rows before it. The default is 2.1.
func WithDefaultVersion(v Version) DecoderOption {
	return func(d *Decoder) {
		if v.valid() {
			d.version = v
		}
	}
}

// WithCharset decodes the input from the named charset instead of UTF-8 (for
// NewDecoder) or instead of detecting it (for ParseBytes).
func WithCharset(label string) DecoderOption {
	return func(d *Decoder) {
		d.charset = label
	}
}

// WithBufferSize sets the initial size of the read buffer.
func WithBufferSize(size int) DecoderOption {
	return func(d *Decoder) {
		d.bufSize = size
	}
}

// WithAnsiFilter sets the charset detector used by ParseBytes.
func WithAnsiFilter(f *AnsiFilter) DecoderOption {
	return func(d *Decoder) {
		d.filter = f
	}
}

func newDecoder(opts []DecoderOption) *Decoder {
	d := &Decoder{version: V2_1}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewDecoder returns a Decoder reading UTF-8 text from r, or text in the
// charset set with WithCharset.
func NewDecoder(r io.Reader, opts ...DecoderOption) *Decoder {
	d := newDecoder(opts)

	if d.charset != "" {
		enc, _ := LookupCharset(d.charset)
		if enc == nil {
			d.err = fmt.Errorf("[vcf] decoder charset %q: %w", d.charset, ErrUnknownCharset)
		} else {
			r = transform.NewReader(r, enc.NewDecoder())
		}
	}

	src := &readerLines{r: r}
	if d.bufSize > 0 {
		src.rb.buf = make([]byte, d.bufSize)
	}
	d.lines = newUnfolder(src)
	return d
}

// Next returns the next vCard. It returns io.EOF when there are no more
// cards. A card missing its END:VCARD at the end of the input is returned as
// it is.
func (d *Decoder) Next() (*Card, error) {
	if d.err != nil {
		return nil, d.err
	}

	for {
		d.lines.version = d.version
		line, ok := d.lines.logical()
		if !ok {
			if d.lines.err != nil {
				return nil, d.lines.err
			}
			return nil, io.EOF
		}
		if !isBeginLine(line) {
			log.Debugf("skipping line outside of a vCard: %q", truncate(line))
			continue
		}

		card := d.readCard(0, d.version)
		if d.lines.err != nil {
			return card, d.lines.err
		}
		return card, nil
	}
}

func (d *Decoder) readCard(depth int, version Version) *Card {
	card := &Card{Version: version}

	for {
		d.lines.version = card.Version
		line, ok := d.lines.logical()
		if !ok {
			log.Debugf("vCard not terminated by END:VCARD")
			return card
		}

		row, ok := parseRow(line, card.Version)
		if !ok {
			log.Debugf("skipping malformed line %q", truncate(line))
			continue
		}

		switch row.structural() {
		case structEnd:
			return card
		case structVersion:
			if v, ok := ParseVersion(row.Value); ok {
				card.Version = v
			} else {
				log.Debugf("ignoring unknown version %q", truncate(row.Value))
			}
			continue
		case structBegin:
			if depth+1 >= maxNesting {
				log.Debugf("ignoring vCard nested deeper than %d levels", maxNesting)
				continue
			}
			card.attach(d.readCard(depth+1, card.Version))
			continue
		}

		d.completeValue(row)
		if row.Is("AGENT") && card.Version != V2_1 && depth+1 < maxNesting {
			row.Embedded = embeddedCard(row.Value, depth+1, card.Version)
		}
		card.Rows = append(card.Rows, row)
	}
}

// completeValue reads the physical lines that continue an encoded value and
// removes the transfer encoding.
func (d *Decoder) completeValue(row *RawRow) {
	switch row.Params.Encoding() {
	case EncodingQuotedPrintable:
		if strings.HasSuffix(row.Value, "=") {
			row.Value = d.qpContinuation(row.Value)
		}
		row.Value = DecodeQuotedPrintableText(row.Value, row.Params.Charset())

	case EncodingBase64:
		row.Value = stripSpace(d.base64Continuation(row.Value))
		data, err := DecodeBase64(row.Value)
		if err != nil {
			log.Warnf("cannot decode base64 value of %s: %v", row.Key, err)
			row.Err = fmt.Errorf("[vcf] %s: %w", row.Key, err)
			return
		}
		row.Data = data

	default:
		if row.Params.version == V4_0 {
			if _, data, ok := ParseDataURI(row.Value); ok {
				row.Data = data
			}
		}
	}
}

// qpContinuation appends the physical lines following a quoted-printable soft
// line break. The line breaks are kept for DecodeQuotedPrintable to remove.
func (d *Decoder) qpContinuation(value string) string {
	var b strings.Builder
	b.WriteString(value)
	for strings.HasSuffix(b.String(), "=") {
		next, ok := d.lines.physical()
		if !ok {
			break
		}
		if strings.EqualFold(strings.TrimSpace(next), "END:VCARD") {
			// a stray "=" at the end of the last value
			d.lines.unread(next)
			break
		}
		b.WriteString("\r\n")
		b.WriteString(next)
	}
	return b.String()
}

// base64Continuation appends unindented lines of a vCard 2.1 base64 value.
// The value ends at an empty line, or at the next line that looks like a
// property.
func (d *Decoder) base64Continuation(value string) string {
	var b strings.Builder
	b.WriteString(value)
	for {
		next, ok := d.lines.physical()
		if !ok {
			break
		}
		if strings.TrimSpace(next) == "" {
			break
		}
		if strings.Contains(next, ":") {
			d.lines.unread(next)
			break
		}
		b.WriteString(next)
	}
	return b.String()
}

// embeddedCard parses a vCard carried as the escaped text value of a vCard 3.0
// or 4.0 AGENT property. It returns nil if the value is not a vCard.
func embeddedCard(value string, depth int, version Version) *Card {
	text := Unescape(value)
	if !hasPrefixFold(strings.TrimSpace(text), "BEGIN:VCARD") {
		return nil
	}

	sub := &Decoder{version: version, lines: newUnfolder(&stringLines{s: text})}
	if line, ok := sub.lines.logical(); !ok || !isBeginLine(line) {
		return nil
	}
	return sub.readCard(depth, version)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
}

func truncate(s string) string {
	if len(s) > 64 {
		return s[:64] + "..."
	}
	return s
}
