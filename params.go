package vcf

import (
	"strconv"
	"strings"
)

// Params is the ordered list of parameters of a row. Names compare case
// insensitively. TYPE and PID may occur many times; for every other name the
// last occurrence wins.
//
// The accessors read the pairs on every call and never fail: malformed values
// are reported as absent.
type Params struct {
	list    []Param
	version Version
}

// NewParams returns Params holding pairs, interpreted as version v. With a
// zero version the 2.1 and 3.0 conventions (ENCODING, TYPE=PREF) are honoured.
func NewParams(v Version, pairs ...Param) Params {
	p := Params{version: v}
	for _, pair := range pairs {
		p.Add(pair.Name, pair.Value)
	}
	return p
}

// repeatable are the parameters that may legally occur more than once.
var repeatable = map[string]bool{
	"TYPE": true,
	"PID":  true,
}

// standardParams are the parameters defined by vCard 2.1, 3.0 and 4.0 and
// their extensions (RFC 6474, RFC 6715, RFC 9554).
var standardParams = map[string]bool{
	"TYPE":         true,
	"VALUE":        true,
	"ENCODING":     true,
	"CHARSET":      true,
	"LANGUAGE":     true,
	"PID":          true,
	"ALTID":        true,
	"INDEX":        true,
	"PREF":         true,
	"GEO":          true,
	"TZ":           true,
	"SORT-AS":      true,
	"LABEL":        true,
	"MEDIATYPE":    true,
	"CALSCALE":     true,
	"LEVEL":        true,
	"CONTEXT":      true,
	"CC":           true,
	"AUTHOR":       true,
	"AUTHOR-NAME":  true,
	"CREATED":      true,
	"DERIVED":      true,
	"PHONETIC":     true,
	"SCRIPT":       true,
	"PROP-ID":      true,
	"JSCOMPS":      true,
	"SERVICE-TYPE": true,
	"USERNAME":     true,
}

// Add appends a pair. Whitespace-only values are ignored.
func (p *Params) Add(name, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.list = append(p.list, Param{Name: strings.ToUpper(name), Value: value})
}

// Set replaces all pairs named name with a single pair. An empty value
// removes the parameter.
func (p *Params) Set(name, value string) {
	p.Del(name)
	p.Add(name, value)
}

// Del removes all pairs named name.
func (p *Params) Del(name string) {
	list := p.list[:0:0]
	for _, pair := range p.list {
		if !strings.EqualFold(pair.Name, name) {
			list = append(list, pair)
		}
	}
	p.list = list
}

// Len returns the number of pairs.
func (p Params) Len() int {
	return len(p.list)
}

// All returns a copy of the pairs in the order they were written.
func (p Params) All() []Param {
	return append([]Param(nil), p.list...)
}

// Has reports whether a parameter named name is present.
func (p Params) Has(name string) bool {
	_, ok := p.Get(name)
	return ok
}

// Get returns the value of the last pair named name.
func (p Params) Get(name string) (string, bool) {
	for i := len(p.list) - 1; i >= 0; i-- {
		if strings.EqualFold(p.list[i].Name, name) {
			return p.list[i].Value, true
		}
	}
	return "", false
}

// Values returns the values of name: all of them for TYPE and PID, the last
// one otherwise. The result is newly allocated.
func (p Params) Values(name string) []string {
	if !repeatable[strings.ToUpper(name)] {
		if v, ok := p.Get(name); ok {
			return []string{v}
		}
		return nil
	}

	var values []string
	for _, pair := range p.list {
		if strings.EqualFold(pair.Name, name) {
			values = append(values, pair.Value)
		}
	}
	return values
}

// Types returns the well known TYPE values as flags, and all other TYPE
// values as written, without duplicates.
func (p Params) Types() (TypeFlags, []string) {
	var flags TypeFlags
	var other []string
	seen := map[string]bool{}
	for _, v := range p.Values("TYPE") {
		upper := strings.ToUpper(strings.TrimSpace(v))
		if f, ok := typeFlags[upper]; ok {
			flags |= f
			continue
		}
		if !seen[upper] {
			seen[upper] = true
			other = append(other, v)
		}
	}
	return flags, other
}

// HasType reports whether typ is one of the TYPE values, ignoring case.
func (p Params) HasType(typ string) bool {
	for _, v := range p.Values("TYPE") {
		if strings.EqualFold(strings.TrimSpace(v), typ) {
			return true
		}
	}
	return false
}

// DataType returns the VALUE parameter. It returns false if the parameter is
// absent or not a known data type; the property's default applies then.
func (p Params) DataType() (DataType, bool) {
	v, ok := p.Get("VALUE")
	if !ok {
		return 0, false
	}
	dt, ok := dataTypes[strings.ToUpper(strings.TrimSpace(v))]
	return dt, ok
}

// Encoding returns the transfer encoding from the ENCODING parameter. vCard
// 4.0 has no transfer encodings.
func (p Params) Encoding() Encoding {
	if p.version == V4_0 {
		return EncodingNone
	}
	v, ok := p.Get("ENCODING")
	if !ok {
		return EncodingNone
	}
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "QUOTED-PRINTABLE", "QP":
		return EncodingQuotedPrintable
	case "BASE64", "B":
		return EncodingBase64
	}
	return EncodingNone
}

// Charset returns the CHARSET parameter.
func (p Params) Charset() string {
	v, _ := p.Get("CHARSET")
	return strings.TrimSpace(v)
}

// Language returns the LANGUAGE parameter.
func (p Params) Language() string {
	v, _ := p.Get("LANGUAGE")
	return strings.TrimSpace(v)
}

// Pref returns the preference in the range 1 (most preferred) to 100. Values
// outside that range are absent. In 2.1 and 3.0 a TYPE=PREF means 1.
func (p Params) Pref() (int, bool) {
	if v, ok := p.Get("PREF"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 1 || n > 100 {
			return 0, false
		}
		return n, true
	}
	if p.version != V4_0 && p.HasType("PREF") {
		return 1, true
	}
	return 0, false
}

// Index returns the INDEX parameter. Values below 1 are returned as 1.
func (p Params) Index() (int, bool) {
	v, ok := p.Get("INDEX")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return max(n, 1), true
}

// PID is a property identifier: the local ID of the property and optionally
// the CLIENTPIDMAP entry it belongs to (0 if absent).
type PID struct {
	Local  int
	Source int
}

func (id PID) String() string {
	if id.Source == 0 {
		return strconv.Itoa(id.Local)
	}
	return strconv.Itoa(id.Local) + "." + strconv.Itoa(id.Source)
}

// PIDs returns the PID parameter values. Malformed entries are skipped.
func (p Params) PIDs() []PID {
	var pids []PID
	for _, v := range p.Values("PID") {
		if id, ok := parsePID(v); ok {
			pids = append(pids, id)
		}
	}
	return pids
}

func parsePID(s string) (PID, bool) {
	local, source, dotted := strings.Cut(strings.TrimSpace(s), ".")
	l, err := strconv.Atoi(local)
	if err != nil || l < 1 {
		return PID{}, false
	}
	if !dotted {
		return PID{Local: l}, true
	}
	src, err := strconv.Atoi(source)
	if err != nil || src < 1 {
		return PID{}, false
	}
	return PID{Local: l, Source: src}, true
}

// AltID returns the ALTID parameter.
func (p Params) AltID() string {
	v, _ := p.Get("ALTID")
	return strings.TrimSpace(v)
}

// Geo returns the GEO parameter, a geo: URI.
func (p Params) Geo() string {
	v, _ := p.Get("GEO")
	return strings.TrimSpace(v)
}

// TZ returns the TZ parameter.
func (p Params) TZ() string {
	v, _ := p.Get("TZ")
	return strings.TrimSpace(v)
}

// Label returns the LABEL parameter of an ADR property.
func (p Params) Label() string {
	v, _ := p.Get("LABEL")
	return v
}

// MediaType returns the MEDIATYPE parameter.
func (p Params) MediaType() string {
	v, _ := p.Get("MEDIATYPE")
	return strings.TrimSpace(v)
}

// CalScale returns the CALSCALE parameter.
func (p Params) CalScale() string {
	v, _ := p.Get("CALSCALE")
	return strings.TrimSpace(v)
}

// SortAs returns the SORT-AS values, trimmed. Empty values are skipped.
func (p Params) SortAs() []string {
	v, ok := p.Get("SORT-AS")
	if !ok {
		return nil
	}
	var values []string
	for _, s := range splitQuoted(v, ',') {
		if s = strings.TrimSpace(s); s != "" {
			values = append(values, s)
		}
	}
	return values
}

// Extensions returns the pairs of non-standard parameters, such as X-
// parameters, in the order they were written.
func (p Params) Extensions() []Param {
	var ext []Param
	for _, pair := range p.list {
		if !standardParams[strings.ToUpper(pair.Name)] {
			ext = append(ext, pair)
		}
	}
	return ext
}
