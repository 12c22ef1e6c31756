package vcf

import (
	"strings"
)

// Param is a parameter name and value pair as it appears on a property line.
// Names are stored in upper case.
type Param struct {
	Name  string
	Value string
}

// RawRow is one property line of a vCard: an optional group, the property
// key, its parameters and its value.
//
// Value has had its transfer encoding (quoted-printable) removed but is still
// escaped; use Unescape or SplitValues once the meaning of the property is
// known. For base64 encoded rows Value holds the base64 text (or the data URI
// in vCard 4.0) and Data the decoded bytes.
type RawRow struct {
	Group  string
	Key    string
	Params Params
	Value  string

	// Data is the decoded payload of binary values.
	Data []byte
	// Err is set if the value could not be decoded. The row is kept.
	Err error
	// Embedded is a vCard nested in a vCard 2.1 AGENT property.
	Embedded *Card
}

// NewRow returns a row for key and value, e.g. to build a Card for encoding.
func NewRow(key, value string, params ...Param) *RawRow {
	return &RawRow{
		Key:    key,
		Params: NewParams(0, params...),
		Value:  value,
	}
}

// Is reports whether the row's key is key, ignoring case.
func (r *RawRow) Is(key string) bool {
	return strings.EqualFold(r.Key, key)
}

// ParseRow parses a logical (unfolded) property line in version v. It
// returns false for lines that are not properties: blank lines, lines with an
// empty or illegal key, lines without a ":" and the structural BEGIN:VCARD,
// END:VCARD and VERSION lines.
//
// The value is returned as written; quoted-printable and base64 values are
// decoded by the Decoder, which needs to read continuation lines first.
func ParseRow(line string, v Version) (*RawRow, bool) {
	row, ok := parseRow(line, v)
	if !ok || row.structural() != structNone {
		return nil, false
	}
	return row, true
}

func parseRow(line string, v Version) (*RawRow, bool) {
	line = strings.TrimLeft(line, " \t")

	var group, key string
	i, start := 0, 0
	for {
		j := start
		for j < len(line) && isNameChar(line[j]) {
			j++
		}
		if j == start {
			return nil, false
		}
		if j < len(line) && line[j] == '.' {
			group = line[:j]
			start = j + 1
			continue
		}
		key, i = line[start:j], j
		break
	}

	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i == len(line) || (line[i] != ';' && line[i] != ':') {
		return nil, false
	}

	row := &RawRow{
		Group:  group,
		Key:    key,
		Params: Params{version: v},
	}
	for line[i] == ';' {
		end := paramEnd(line, i+1)
		row.Params.parse(line[i+1:end], v)
		i = end
		if i == len(line) {
			return nil, false
		}
	}

	row.Value = line[i+1:]
	return row, true
}

type structure int

const (
	structNone structure = iota
	structBegin
	structEnd
	structVersion
)

func (r *RawRow) structural() structure {
	switch {
	case r.Is("BEGIN") && strings.EqualFold(strings.TrimSpace(r.Value), "VCARD"):
		return structBegin
	case r.Is("END") && strings.EqualFold(strings.TrimSpace(r.Value), "VCARD"):
		return structEnd
	case r.Is("VERSION"):
		return structVersion
	}
	return structNone
}

func isNameChar(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-' || c == '_'
}

// paramEnd returns the index of the ";" or ":" ending the parameter starting
// at from, or len(line). Quoted values may contain both. A quote without a
// closing quote is an ordinary character, and so is an opening quote whose
// quoted span leaves no ":" for the value.
func paramEnd(line string, from int) int {
	literal := -1
	for {
		end, open := scanParam(line, from, literal)
		if end < len(line) || open < 0 {
			return end
		}
		literal = open
	}
}

// scanParam scans for the end of a parameter, treating quotes at or before
// literal as ordinary characters. It also returns the position of the first
// quote it honoured, or -1.
func scanParam(line string, from, literal int) (end, open int) {
	open = -1
	inQuote := false
	for j := from; j < len(line); j++ {
		switch c := line[j]; {
		case inQuote:
			if c == '"' {
				inQuote = false
			}
		case c == '\\':
			j++
		case c == '"' && j > literal:
			if prev := line[j-1]; (prev == '=' || prev == ',') && strings.IndexByte(line[j+1:], '"') >= 0 {
				inQuote = true
				if open < 0 {
					open = j
				}
			}
		case c == ';' || c == ':':
			return j, open
		}
	}
	return len(line), open
}

// bareParams maps the values that vCard 2.1 (and lenient 3.0 writers) put
// without a parameter name to the parameter they belong to. Everything else is
// a TYPE.
var bareParams = map[string]string{
	"QUOTED-PRINTABLE": "ENCODING",
	"BASE64":           "ENCODING",
	"B":                "ENCODING",
	"7BIT":             "ENCODING",
	"8BIT":             "ENCODING",
	"INLINE":           "VALUE",
	"URL":              "VALUE",
	"URI":              "VALUE",
	"CONTENT-ID":       "VALUE",
	"CID":              "VALUE",
}

// listParams are split at commas into one pair per value. Other parameters
// keep their commas: GEO holds a coordinate pair and SORT-AS is split when
// read.
var listParams = map[string]bool{
	"TYPE": true,
	"PID":  true,
}

// parse adds the pairs of one parameter segment, without its leading ";".
func (p *Params) parse(seg string, v Version) {
	seg = strings.TrimSpace(seg)
	if seg == "" {
		return
	}

	name, value, found := strings.Cut(seg, "=")
	if !found {
		if v == V4_0 {
			log.Debugf("dropping parameter without value %q", seg)
			return
		}
		value = seg
		if name = bareParams[strings.ToUpper(seg)]; name == "" {
			name = "TYPE"
		}
	}

	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "" {
		return
	}

	var values []string
	if listParams[name] {
		values = splitQuoted(value, ',')
	} else {
		values = []string{unquote(strings.TrimSpace(value))}
	}

	for _, val := range values {
		if v == V4_0 {
			val = caretDecode(val)
		}
		if strings.TrimSpace(val) == "" {
			continue
		}
		p.list = append(p.list, Param{Name: name, Value: val})
	}
}

// splitQuoted splits s at sep outside of double quotes and unquotes the parts.
func splitQuoted(s string, sep byte) []string {
	var parts []string
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuote = !inQuote
		case sep:
			if !inQuote {
				parts = append(parts, unquote(strings.TrimSpace(s[start:i])))
				start = i + 1
			}
		}
	}
	return append(parts, unquote(strings.TrimSpace(s[start:])))
}

func unquote(s string) string {
	if !strings.HasPrefix(s, `"`) {
		return s
	}
	if len(s) >= 2 && strings.HasSuffix(s, `"`) {
		return s[1 : len(s)-1]
	}
	// unterminated
	return s[1:]
}

// caretDecode resolves the RFC 6868 escapes used in vCard 4.0 parameter
// values.
func caretDecode(s string) string {
	if !strings.Contains(s, "^") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '^' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		switch s[i+1] {
		case 'n', 'N':
			b.WriteByte('\n')
			i++
		case '^':
			b.WriteByte('^')
			i++
		case '\'':
			b.WriteByte('"')
			i++
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
