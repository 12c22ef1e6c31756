package vcf

import (
	"bytes"
	randv2 "math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnescape(t *testing.T) {
	cases := []struct {
		raw      string
		expected string
	}{
		{`plain`, "plain"},
		{`a\,b\;c\\d\ne\Nf\:g`, "a,b;c\\d\ne\nf:g"},
		{`unknown \t escape`, `unknown \t escape`},
		{`trailing \`, `trailing \`},
		{`unescaped, separators; too`, "unescaped, separators; too"},
	}

	for _, tc := range cases {
		t.Run(tc.raw, func(t *testing.T) {
			require.Equal(t, tc.expected, Unescape(tc.raw))
		})
	}
}

func TestSplitValues(t *testing.T) {
	require.Equal(t, []string{"Doe", "John;Jr", "", ""}, SplitValues(`Doe;John\;Jr;;`, ';'))
	require.Equal(t, []string{"a,b", "c"}, SplitValues(`a\,b,c`, ','))
	require.Equal(t, []string{`back\`, "slash"}, SplitValues(`back\\;slash`, ';'))
	require.Equal(t, []string{""}, SplitValues("", ';'))
}

func TestEscape(t *testing.T) {
	cases := []struct {
		name      string
		raw       string
		version   Version
		component bool
		expected  string
	}{
		{"4.0 text", "a,b;c\\d\ne", V4_0, false, `a\,b\;c\\d\ne`},
		{"3.0 text", "a,b;c", V3_0, false, "a,b;c"},
		{"3.0 component", "a,b;c", V3_0, true, `a\,b\;c`},
		{"3.0 crlf", "a\r\nb", V3_0, false, `a\nb`},
		{"2.1 component", "a\r\nb;c,d", V2_1, true, "a\nb\\;c,d"},
		{"control characters", "a\x01b\tc\x7f", V4_0, false, "ab\tc"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Escape(tc.raw, tc.version, tc.component))
		})
	}
}

func TestJoinValues(t *testing.T) {
	require.Equal(t, `Doe;John\;Jr;;`, JoinValues([]string{"Doe", "John;Jr", "", ""}, ';', V3_0))
	require.Equal(t, `a\,b,c`, JoinValues([]string{"a,b", "c"}, ',', V2_1))
	require.Equal(t, `a\,b,c`, JoinValues([]string{"a,b", "c"}, ',', V4_0))
}

// randomText returns text made of the characters that escaping cares about.
func randomText(rng *randv2.Rand, n int) string {
	const alphabet = "ab ;,\\\n:é"
	runes := []rune(alphabet)
	out := make([]rune, n)
	for i := range out {
		out[i] = runes[rng.IntN(len(runes))]
	}
	return string(out)
}

func TestEscapeRoundTrip(t *testing.T) {
	rng := randv2.New(randv2.NewChaCha8([32]byte(bytes.Repeat([]byte{0xBA, 0xAD, 0xF0, 0x0D}, 8))))

	for _, v := range []Version{V2_1, V3_0, V4_0} {
		t.Run(v.String(), func(t *testing.T) {
			for range 500 {
				s := randomText(rng, rng.IntN(40))
				require.Equal(t, s, Unescape(Escape(s, v, true)))

				parts := make([]string, 1+rng.IntN(5))
				for i := range parts {
					parts[i] = randomText(rng, rng.IntN(10))
				}
				require.Equal(t, parts, SplitValues(JoinValues(parts, ';', v), ';'))
				require.Equal(t, parts, SplitValues(JoinValues(parts, ',', v), ','))
			}
		})
	}
}
