package vcf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

func encodeString(t *testing.T, enc encoding.Encoding, s string) []byte {
	t.Helper()
	b, err := enc.NewEncoder().Bytes([]byte(s))
	require.NoError(t, err)
	return b
}

func TestAnsiFilterDecode(t *testing.T) {
	card := "BEGIN:VCARD\r\nVERSION:2.1\r\nN:Müller\r\nEND:VCARD\r\n"

	cases := []struct {
		name     string
		raw      []byte
		label    string
		expected string
	}{
		{
			name:     "utf-8 bom",
			raw:      append([]byte{0xef, 0xbb, 0xbf}, card...),
			label:    "utf-8",
			expected: card,
		},
		{
			name:     "utf-16le bom",
			raw:      encodeString(t, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), card),
			label:    "utf-16le",
			expected: card,
		},
		{
			name:     "utf-16be bom",
			raw:      encodeString(t, unicode.UTF16(unicode.BigEndian, unicode.UseBOM), card),
			label:    "utf-16be",
			expected: card,
		},
		{
			name:     "version 4.0 is utf-8",
			raw:      []byte("BEGIN:VCARD\r\nVERSION:4.0\r\nN;CHARSET=ISO-8859-2:M\xfcller\r\n"),
			label:    "utf-8",
			expected: "BEGIN:VCARD\r\nVERSION:4.0\r\nN;CHARSET=ISO-8859-2:M\xfcller\r\n",
		},
		{
			name:     "valid utf-8",
			raw:      []byte(card),
			label:    "utf-8",
			expected: card,
		},
		{
			name:     "declared charset before utf-8",
			raw:      []byte("N;CHARSET=ISO-8859-1:M\xc3\xbcller\r\n"),
			label:    "windows-1252",
			expected: "N;CHARSET=ISO-8859-1:M\u00c3\u00bcller\r\n",
		},
		{
			name:     "utf-8 charset declared",
			raw:      []byte("N;CHARSET=UTF-8:M\xc3\xbcller\r\n"),
			label:    "utf-8",
			expected: "N;CHARSET=UTF-8:M\u00fcller\r\n",
		},
		{
			name:     "declared charset",
			raw:      []byte("N;CHARSET=ISO-8859-2:\xc5\r\n"),
			label:    "iso-8859-2",
			expected: "N;CHARSET=ISO-8859-2:\u0139\r\n",
		},
		{
			name:     "unicode charsets skipped",
			raw:      []byte("FN;CHARSET=UTF-8:x\r\nN;charset=\"windows-1251\":\xc0\r\n"),
			label:    "windows-1251",
			expected: "FN;CHARSET=UTF-8:x\r\nN;charset=\"windows-1251\":\u0410\r\n",
		},
		{
			name:     "fallback",
			raw:      encodeString(t, charmap.Windows1252, card),
			label:    "windows-1252",
			expected: card,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			label, text := defaultAnsiFilter.Decode(tc.raw)
			require.Equal(t, tc.label, label)
			require.Equal(t, tc.expected, text)
		})
	}
}

func TestAnsiFilterOptions(t *testing.T) {
	f, err := NewAnsiFilter(WithFallbackCharset("latin2"))
	require.NoError(t, err)

	label, text := f.Decode([]byte("FN:\xc5"))
	require.Equal(t, "iso-8859-2", label)
	require.Equal(t, "FN:\u0139", text)

	_, err = NewAnsiFilter(WithFallbackCharset("no-such-charset"))
	require.ErrorIs(t, err, ErrUnknownCharset)

	var nilFilter *AnsiFilter
	label, text = nilFilter.Decode([]byte("FN:M\xfcller"))
	require.Equal(t, DefaultAnsiCharset, label)
	require.Equal(t, "FN:Müller", text)
}

func TestAnsiFilterDetection(t *testing.T) {
	f, err := NewAnsiFilter(WithCharsetDetection())
	require.NoError(t, err)

	raw := encodeString(t, charmap.ISO8859_1, strings.Repeat("NOTE:Übergrößenträger möchten schöne Grüße senden\r\n", 20))
	label, text := f.Decode(raw)
	require.NotEmpty(t, label)
	require.NotEqual(t, "utf-8", label)
	require.Contains(t, text, "NOTE:")
}

func TestLookupCharset(t *testing.T) {
	cases := []struct {
		label string
		name  string
	}{
		{"utf-8", "utf-8"},
		{"latin1", "windows-1252"},
		{" \"ISO-8859-2\" ", "iso-8859-2"},
		{"Shift_JIS", "shift_jis"},
		{"cp1251", "windows-1251"},
	}

	for _, tc := range cases {
		t.Run(tc.label, func(t *testing.T) {
			enc, name := LookupCharset(tc.label)
			require.NotNil(t, enc)
			require.True(t, strings.EqualFold(tc.name, name), name)
		})
	}

	for _, label := range []string{"", "no-such-charset"} {
		enc, _ := LookupCharset(label)
		require.Nil(t, enc)
	}
}
