package vcf

import (
	"strings"
)

// Unescape resolves the backslash escapes of a property value: \\, \;, \,,
// \: and \n or \N. Unknown escapes are kept as written. Unescape accepts both
// escaped and unescaped separators, whatever the version.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}

		i++
		switch next := s[i]; next {
		case 'n', 'N':
			b.WriteByte('\n')
		case '\\', ';', ',', ':':
			b.WriteByte(next)
		default:
			b.WriteByte('\\')
			b.WriteByte(next)
		}
	}
	return b.String()
}

// SplitValues splits s at every sep that is not escaped with a backslash and
// unescapes the parts. Use ';' for the components of structured values such
// as N and ADR, and ',' for lists.
func SplitValues(s string, sep byte) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case sep:
			parts = append(parts, Unescape(s[start:i]))
			start = i + 1
		}
	}
	return append(parts, Unescape(s[start:]))
}

// Escape escapes s for writing as a property value in version v. Backslashes
// and line breaks are always escaped (2.1 keeps line breaks, they are written
// as quoted-printable). Semicolons are escaped in 4.0 and when s is a
// component of a structured value; commas in 4.0 and in 3.0 components.
// Control characters other than tab are removed.
func Escape(s string, v Version, component bool) string {
	var b strings.Builder
	b.Grow(len(s) + len(s)/8)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '\\':
			b.WriteString(`\\`)
		case c == '\r' || c == '\n':
			if c == '\r' && i+1 < len(s) && s[i+1] == '\n' {
				i++
			}
			if v == V2_1 {
				b.WriteByte('\n')
			} else {
				b.WriteString(`\n`)
			}
		case c == ';':
			if v == V4_0 || component {
				b.WriteString(`\;`)
			} else {
				b.WriteByte(c)
			}
		case c == ',':
			if v == V4_0 || (v == V3_0 && component) {
				b.WriteString(`\,`)
			} else {
				b.WriteByte(c)
			}
		case (c < ' ' && c != '\t') || c == 0x7f:
			// dropped
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// JoinValues escapes the parts with Escape and joins them with sep, the
// inverse of SplitValues.
func JoinValues(parts []string, sep byte, v Version) string {
	var b strings.Builder
	for i, p := range parts {
		if i > 0 {
			b.WriteByte(sep)
		}
		p = Escape(p, v, true)
		if sep == ',' && v == V2_1 {
			p = strings.ReplaceAll(p, ",", `\,`)
		}
		b.WriteString(p)
	}
	return b.String()
}
