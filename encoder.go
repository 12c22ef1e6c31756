package vcf

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Opts controls which rows an Encoder writes.
type Opts uint32

const (
	// OptWriteEmptyProperties writes rows whose value is empty.
	OptWriteEmptyProperties Opts = 1 << iota
	// OptWriteNonStandardProperties writes X- and other unknown properties.
	OptWriteNonStandardProperties
	// OptWriteNonStandardParameters writes X- and other unknown parameters.
	OptWriteNonStandardParameters
	// OptWriteEmbeddedCards writes cards nested in AGENT properties.
	OptWriteEmbeddedCards

	OptDefault = OptWriteNonStandardProperties | OptWriteNonStandardParameters | OptWriteEmbeddedCards
)

var (
	ErrInvalidVersion = errors.New("invalid vCard version")
	ErrNilCard        = errors.New("card is nil")
	errWriterNil      = errors.New("writer is nil")
)

// Encoder writes vCards in one version. Row values must already be escaped
// for that version, see Escape and JoinValues; the Encoder only applies the
// transfer encodings, the parameter syntax and the line folding.
//
// An Encoder is safe for concurrent use; each card is written with a single
// call to the underlying writer.
type Encoder struct {
	w       io.Writer
	version Version
	opts    Opts

	buf []byte

	writeMu sync.Mutex
}

type EncoderOption func(e *Encoder)

// WithOptions replaces the default OptDefault.
func WithOptions(opts Opts) EncoderOption {
	return func(e *Encoder) {
		e.opts = opts
	}
}

// NewEncoder returns a new [Encoder] writing cards as version v to w.
func NewEncoder(w io.Writer, v Version, opts ...EncoderOption) (*Encoder, error) {
	e := &Encoder{opts: OptDefault}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.Reset(w, v); err != nil {
		return nil, err
	}
	return e, nil
}

// Reset makes e write to w in version v, keeping its options.
func (e *Encoder) Reset(w io.Writer, v Version) error {
	if !v.valid() {
		return ErrInvalidVersion
	}
	if w == nil {
		return errWriterNil
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	e.w = w
	e.version = v
	return nil
}

// Encode writes card. The card's own Version is ignored.
func (e *Encoder) Encode(card *Card) error {
	if card == nil {
		return ErrNilCard
	}

	e.writeMu.Lock()
	defer e.writeMu.Unlock()

	if e.w == nil {
		return errWriterNil
	}

	e.buf = e.appendCard(e.buf[:0], card, 0)
	_, err := e.w.Write(e.buf)
	return err
}

// Marshal returns card encoded as version v.
func Marshal(card *Card, v Version, opts ...EncoderOption) ([]byte, error) {
	var b bytes.Buffer
	e, err := NewEncoder(&b, v, opts...)
	if err != nil {
		return nil, err
	}
	if err := e.Encode(card); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

// MarshalAll returns cards encoded as version v, one after the other. The
// cards are encoded in parallel; the output keeps their order.
func MarshalAll(cards []*Card, v Version, opts ...EncoderOption) ([]byte, error) {
	if !v.valid() {
		return nil, ErrInvalidVersion
	}

	out := make([][]byte, len(cards))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, card := range cards {
		g.Go(func() error {
			b, err := Marshal(card, v, opts...)
			if err != nil {
				return fmt.Errorf("[vcf] card %d: %w", i, err)
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bytes.Join(out, nil), nil
}

func (e *Encoder) appendCard(dst []byte, card *Card, depth int) []byte {
	dst = append(dst, "BEGIN:VCARD\r\nVERSION:"...)
	dst = append(dst, e.version.String()...)
	dst = append(dst, "\r\n"...)
	for _, row := range card.Rows {
		dst = e.appendRow(dst, row, depth)
	}
	return append(dst, "END:VCARD\r\n"...)
}

func (e *Encoder) appendRow(dst []byte, row *RawRow, depth int) []byte {
	if row == nil || row.structural() != structNone {
		return dst
	}
	if !validName(row.Key) || !validGroup(row.Group) {
		log.Debugf("not writing row with invalid name %q.%q", row.Group, row.Key)
		return dst
	}
	if e.opts&OptWriteNonStandardProperties == 0 && !standardProperties[strings.ToUpper(row.Key)] {
		return dst
	}

	v := e.version
	embedded := row.Embedded != nil && e.opts&OptWriteEmbeddedCards != 0 && depth+1 < maxNesting
	binary := len(row.Data) > 0
	if !embedded && !binary && strings.TrimSpace(row.Value) == "" && e.opts&OptWriteEmptyProperties == 0 {
		return dst
	}

	params := Params{list: row.Params.All(), version: v}
	if binary && v != V4_0 && !params.Has("TYPE") {
		// carry the media type of a data: URI over as image TYPE
		if mediaType, _, ok := ParseDataURI(row.Value); ok {
			if _, sub, found := strings.Cut(mediaType, "/"); found {
				params.Add("TYPE", strings.ToUpper(sub))
			}
		}
	}

	var header strings.Builder
	if row.Group != "" {
		header.WriteString(row.Group)
		header.WriteByte('.')
	}
	header.WriteString(row.Key)
	e.writeParams(&header, params)

	switch {
	case embedded && v == V2_1:
		header.WriteByte(':')
		dst = appendLine(dst, header.String())
		return e.appendCard(dst, row.Embedded, depth+1)

	case embedded:
		nested := string(e.appendCard(nil, row.Embedded, depth+1))
		header.WriteByte(':')
		header.WriteString(Escape(nested, v, true))
		return appendLine(dst, header.String())

	case binary && v == V2_1:
		header.WriteString(";BASE64:")
		dst, _ = appendFolded(dst, header.String(), 0)
		dst = append(dst, EncodeBase64Folded(row.Data)...)
		return append(dst, "\r\n"...)

	case binary && v == V3_0:
		header.WriteString(";ENCODING=b:")
		header.WriteString(base64.StdEncoding.EncodeToString(row.Data))
		return appendLine(dst, header.String())

	case binary:
		header.WriteByte(':')
		if _, _, ok := ParseDataURI(row.Value); ok {
			header.WriteString(row.Value)
		} else {
			header.WriteString(DataURI(mediaTypeOf(params), row.Data))
		}
		return appendLine(dst, header.String())

	case v == V2_1 && needsQuotedPrintable(row.Value):
		header.WriteString(";CHARSET=UTF-8;QUOTED-PRINTABLE:")
		var col int
		dst, col = appendFolded(dst, header.String(), 0)
		if col >= foldLength-1 {
			// no room for a character and a soft line break
			dst = append(dst, "\r\n "...)
			col = 1
		}
		dst = append(dst, encodeQuotedPrintable([]byte(row.Value), col, foldLength)...)
		return append(dst, "\r\n"...)
	}

	header.WriteByte(':')
	if v == V2_1 {
		header.WriteString(row.Value)
	} else {
		header.WriteString(escapeNewlines(row.Value))
	}
	return appendLine(dst, header.String())
}

// writeParams writes the parameters in the order they were added. ENCODING and
// CHARSET are left out; the Encoder derives them from the value. In 3.0 and
// 4.0 all TYPE (or PID) values are joined at the first TYPE (or PID).
func (e *Encoder) writeParams(b *strings.Builder, params Params) {
	v := params.version
	joined := map[string]bool{}
	for _, p := range params.list {
		name := strings.ToUpper(p.Name)
		switch {
		case name == "ENCODING" || name == "CHARSET":
			continue
		case !validName(name):
			continue
		case e.opts&OptWriteNonStandardParameters == 0 && !standardParams[name]:
			continue
		}

		if v == V2_1 {
			if name == "TYPE" && isBareToken(p.Value) {
				b.WriteByte(';')
				b.WriteString(p.Value)
				continue
			}
			b.WriteByte(';')
			b.WriteString(name)
			b.WriteByte('=')
			b.WriteString(paramValue(p.Value, v))
			continue
		}

		if listParams[name] {
			if joined[name] {
				continue
			}
			joined[name] = true
			b.WriteByte(';')
			b.WriteString(name)
			b.WriteByte('=')
			for i, val := range params.Values(name) {
				if i > 0 {
					b.WriteByte(',')
				}
				b.WriteString(paramValue(val, v))
			}
			continue
		}

		b.WriteByte(';')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(paramValue(p.Value, v))
	}
}

// paramValue returns s in the parameter value syntax of version v. vCard 4.0
// uses the RFC 6868 caret escapes; older versions cannot represent line breaks
// and double quotes, which are replaced. Values containing separators are
// quoted.
func paramValue(s string, v Version) string {
	if v == V4_0 {
		s = caretEncode(s)
	} else {
		s = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ", `"`, "'").Replace(s)
	}
	if strings.ContainsAny(s, `;:,\`) {
		return `"` + s + `"`
	}
	return s
}

func caretEncode(s string) string {
	if !strings.ContainsAny(s, "^\r\n\"") {
		return s
	}
	return strings.NewReplacer("^", "^^", "\r\n", "^n", "\r", "^n", "\n", "^n", `"`, "^'").Replace(s)
}

// isBareToken reports whether a vCard 2.1 TYPE value can be written without
// its name and still be read back as a TYPE.
func isBareToken(s string) bool {
	if s == "" || bareParams[strings.ToUpper(s)] != "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

// needsQuotedPrintable reports whether a vCard 2.1 value has line breaks or
// bytes outside ASCII.
func needsQuotedPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '\r' || c == '\n' || c >= 0x80 {
			return true
		}
	}
	return false
}

func escapeNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.NewReplacer("\r\n", `\n`, "\r", `\n`, "\n", `\n`).Replace(s)
}

// mediaTypeOf returns the media type of a binary value: the MEDIATYPE
// parameter, or the type registered for an image format TYPE such as JPEG.
func mediaTypeOf(params Params) string {
	if mt := params.MediaType(); mt != "" {
		return mt
	}
	for _, t := range params.Values("TYPE") {
		if mt := mime.TypeByExtension("." + strings.ToLower(strings.TrimSpace(t))); mt != "" {
			mt, _, _ = strings.Cut(mt, ";")
			return mt
		}
	}
	return ""
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isNameChar(s[i]) {
			return false
		}
	}
	return true
}

func validGroup(s string) bool {
	if s == "" {
		return true
	}
	for _, part := range strings.Split(s, ".") {
		if !validName(part) {
			return false
		}
	}
	return true
}

// standardProperties are the properties defined by vCard 2.1, 3.0 and 4.0
// and their registered extensions.
var standardProperties = map[string]bool{
	"SOURCE":        true,
	"KIND":          true,
	"XML":           true,
	"FN":            true,
	"N":             true,
	"NICKNAME":      true,
	"PHOTO":         true,
	"BDAY":          true,
	"ANNIVERSARY":   true,
	"GENDER":        true,
	"ADR":           true,
	"LABEL":         true,
	"TEL":           true,
	"EMAIL":         true,
	"MAILER":        true,
	"IMPP":          true,
	"LANG":          true,
	"TZ":            true,
	"GEO":           true,
	"TITLE":         true,
	"ROLE":          true,
	"LOGO":          true,
	"AGENT":         true,
	"ORG":           true,
	"MEMBER":        true,
	"RELATED":       true,
	"CATEGORIES":    true,
	"NOTE":          true,
	"PRODID":        true,
	"REV":           true,
	"SORT-STRING":   true,
	"SOUND":         true,
	"UID":           true,
	"CLIENTPIDMAP":  true,
	"URL":           true,
	"KEY":           true,
	"CLASS":         true,
	"NAME":          true,
	"PROFILE":       true,
	"FBURL":         true,
	"CALADRURI":     true,
	"CALURI":        true,
	"BIRTHPLACE":    true,
	"DEATHPLACE":    true,
	"DEATHDATE":     true,
	"EXPERTISE":     true,
	"HOBBY":         true,
	"INTEREST":      true,
	"ORG-DIRECTORY": true,
	"CONTACT-URI":   true,
	"CREATED":       true,
	"GRAMGENDER":    true,
	"LANGUAGE":      true,
	"PRONOUNS":      true,
	"SOCIALPROFILE": true,
	"JSPROP":        true,
}
