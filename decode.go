package vcf

import (
	"fmt"
)

// Parse parses all vCards in text. It never fails: rows that cannot be parsed
// are skipped, and a card missing its END:VCARD at the end of text is kept.
//
// WithCharset and WithAnsiFilter are ignored; text is already decoded.
func Parse(text string, opts ...DecoderOption) []*Card {
	d := newDecoder(opts)
	d.lines = newUnfolder(&stringLines{s: text})

	var cards []*Card
	for {
		card, err := d.Next()
		if err != nil {
			// stringLines only fails with io.EOF
			return cards
		}
		cards = append(cards, card)
	}
}

// ParseBytes decodes data to text and parses all vCards in it. Without
// WithCharset the charset is chosen by the AnsiFilter (see WithAnsiFilter),
// which treats vCard 4.0 files as UTF-8.
//
// The only error is ErrUnknownCharset for a WithCharset label that is not
// known.
func ParseBytes(data []byte, opts ...DecoderOption) ([]*Card, error) {
	d := newDecoder(opts)

	var text string
	if d.charset != "" {
		enc, _ := LookupCharset(d.charset)
		if enc == nil {
			return nil, fmt.Errorf("[vcf] charset %q: %w", d.charset, ErrUnknownCharset)
		}
		text = transformString(enc, data)
	} else {
		var label string
		label, text = d.filter.Decode(data)
		log.Debugf("decoding %d bytes as %s", len(data), label)
	}

	return Parse(text, opts...), nil
}
