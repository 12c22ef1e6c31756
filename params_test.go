package vcf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamsIndexAndPref(t *testing.T) {
	cases := []struct {
		name    string
		version Version
		params  []Param
		index   int
		indexOK bool
		pref    int
		prefOK  bool
	}{
		{name: "index clamped", version: V4_0, params: []Param{{"INDEX", "-3"}}, index: 1, indexOK: true},
		{name: "index zero", version: V4_0, params: []Param{{"INDEX", "0"}}, index: 1, indexOK: true},
		{name: "index", version: V4_0, params: []Param{{"INDEX", " 7 "}}, index: 7, indexOK: true},
		{name: "index not a number", version: V4_0, params: []Param{{"INDEX", "x"}}},
		{name: "pref out of range", version: V4_0, params: []Param{{"PREF", "150"}}},
		{name: "pref zero", version: V4_0, params: []Param{{"PREF", "0"}}},
		{name: "pref not a number", version: V4_0, params: []Param{{"PREF", "high"}}},
		{name: "pref", version: V4_0, params: []Param{{"PREF", "100"}}, pref: 100, prefOK: true},
		{name: "type pref", version: V3_0, params: []Param{{"TYPE", "pref"}}, pref: 1, prefOK: true},
		{name: "type pref in 4.0", version: V4_0, params: []Param{{"TYPE", "pref"}}},
		{name: "absent", version: V4_0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewParams(tc.version, tc.params...)

			index, ok := p.Index()
			require.Equal(t, tc.indexOK, ok)
			require.Equal(t, tc.index, index)

			pref, ok := p.Pref()
			require.Equal(t, tc.prefOK, ok)
			require.Equal(t, tc.pref, pref)
		})
	}
}

func TestParamsLastWins(t *testing.T) {
	row, ok := ParseRow("NOTE;LANGUAGE=en;language=de;TYPE=a;TYPE=b:x", V3_0)
	require.True(t, ok)

	require.Equal(t, "de", row.Params.Language())
	require.Equal(t, []string{"de"}, row.Params.Values("LANGUAGE"))
	require.Equal(t, []string{"a", "b"}, row.Params.Values("type"))
	require.Equal(t, 4, row.Params.Len())
	require.True(t, row.Params.Has("Language"))
	require.False(t, row.Params.Has("CHARSET"))
}

func TestParamsTypes(t *testing.T) {
	row, ok := ParseRow("TEL;TYPE=work,VOICE;TYPE=x-custom,X-CUSTOM;CELL:1", V2_1)
	require.True(t, ok)

	flags, other := row.Params.Types()
	require.True(t, flags.Has(TypeWork|TypeVoice|TypeCell))
	require.False(t, flags.Has(TypeHome))
	require.Equal(t, []string{"x-custom"}, other)
	require.True(t, row.Params.HasType("cell"))
}

func TestParamsDataType(t *testing.T) {
	cases := []struct {
		value    string
		expected DataType
		ok       bool
	}{
		{"uri", DataTypeURI, true},
		{"URL", DataTypeURI, true},
		{"date-and-or-time", DataTypeDateAndOrTime, true},
		{"utc-offset", DataTypeUTCOffset, true},
		{"bogus", 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			dt, ok := NewParams(V4_0, Param{"VALUE", tc.value}).DataType()
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.expected, dt)
		})
	}

	_, ok := NewParams(V4_0).DataType()
	require.False(t, ok)
}

func TestParamsEncoding(t *testing.T) {
	require.Equal(t, EncodingBase64, NewParams(V3_0, Param{"ENCODING", "b"}).Encoding())
	require.Equal(t, EncodingBase64, NewParams(V2_1, Param{"ENCODING", "BASE64"}).Encoding())
	require.Equal(t, EncodingQuotedPrintable, NewParams(V2_1, Param{"ENCODING", "quoted-printable"}).Encoding())
	require.Equal(t, EncodingNone, NewParams(V2_1, Param{"ENCODING", "8BIT"}).Encoding())
	require.Equal(t, EncodingNone, NewParams(V4_0, Param{"ENCODING", "b"}).Encoding())
	require.Equal(t, EncodingNone, NewParams(V3_0).Encoding())
}

func TestParamsPIDs(t *testing.T) {
	row, ok := ParseRow("TEL;PID=1.1,2,x,0,3.y,4.0:1", V4_0)
	require.True(t, ok)
	require.Equal(t, []PID{{Local: 1, Source: 1}, {Local: 2}}, row.Params.PIDs())
	require.Equal(t, "1.1", PID{Local: 1, Source: 1}.String())
	require.Equal(t, "2", PID{Local: 2}.String())
}

func TestParamsSortAs(t *testing.T) {
	row, ok := ParseRow(`N;SORT-AS="Doe, ,John,":Doe;John;;;`, V4_0)
	require.True(t, ok)
	require.Equal(t, []string{"Doe", "John"}, row.Params.SortAs())

	require.Nil(t, NewParams(V4_0).SortAs())
}

func TestParamsAccessors(t *testing.T) {
	p := NewParams(V4_0,
		Param{"ALTID", "1"},
		Param{"GEO", "geo:37.386013,-122.082932"},
		Param{"TZ", "Europe/Berlin"},
		Param{"MEDIATYPE", "image/png"},
		Param{"CALSCALE", "gregorian"},
		Param{"CHARSET", "UTF-8"},
		Param{"LABEL", "Main St 1\nSpringfield"},
	)

	require.Equal(t, "1", p.AltID())
	require.Equal(t, "geo:37.386013,-122.082932", p.Geo())
	require.Equal(t, "Europe/Berlin", p.TZ())
	require.Equal(t, "image/png", p.MediaType())
	require.Equal(t, "gregorian", p.CalScale())
	require.Equal(t, "UTF-8", p.Charset())
	require.Equal(t, "Main St 1\nSpringfield", p.Label())
}

func TestParamsExtensions(t *testing.T) {
	row, ok := ParseRow("EMAIL;X-FOO=1;TYPE=work;x-bar=2;SERVICE-TYPE=Mastodon:a@example.com", V4_0)
	require.True(t, ok)
	require.Equal(t, []Param{{"X-FOO", "1"}, {"X-BAR", "2"}}, row.Params.Extensions())
}

func TestParamsMutation(t *testing.T) {
	p := NewParams(V3_0, Param{"TYPE", "work"}, Param{"TYPE", "voice"}, Param{"LANGUAGE", "en"})

	all := p.All()
	all[0].Value = "home"
	require.Equal(t, []string{"work", "voice"}, p.Values("TYPE"))

	p.Set("type", "cell")
	require.Equal(t, []string{"cell"}, p.Values("TYPE"))
	require.Equal(t, []Param{{"LANGUAGE", "en"}, {"TYPE", "cell"}}, p.All())

	p.Add("X-EMPTY", "  ")
	require.False(t, p.Has("X-EMPTY"))

	p.Set("LANGUAGE", "")
	require.False(t, p.Has("LANGUAGE"))

	p.Del("TYPE")
	require.Equal(t, 0, p.Len())
}
