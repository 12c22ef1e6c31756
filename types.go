package vcf

import (
	"strings"
)

// Version is the vCard dialect that rows are read with or written as.
// The three dialects disagree on escaping, parameter syntax and charset, so a
// Version is passed explicitly to every function whose behaviour differs.
type Version int

const (
	V2_1 Version = iota + 1
	V3_0
	V4_0
)

func (v Version) String() string {
	switch v {
	case V2_1:
		return "2.1"
	case V3_0:
		return "3.0"
	case V4_0:
		return "4.0"
	}
	return "unknown"
}

func (v Version) valid() bool {
	return v >= V2_1 && v <= V4_0
}

// ParseVersion maps the value of a VERSION property to a Version. Unknown
// minor versions are mapped to the dialect with the same major version.
func ParseVersion(s string) (Version, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "2.1":
		return V2_1, true
	case "3.0":
		return V3_0, true
	case "4.0":
		return V4_0, true
	}
	if s == "" {
		return 0, false
	}
	switch s[0] {
	case '2':
		return V2_1, true
	case '3':
		return V3_0, true
	case '4':
		return V4_0, true
	}
	return 0, false
}

// Encoding is the transfer encoding of a property value.
type Encoding int

const (
	EncodingNone Encoding = iota
	EncodingQuotedPrintable
	EncodingBase64
)

func (e Encoding) String() string {
	switch e {
	case EncodingQuotedPrintable:
		return "QUOTED-PRINTABLE"
	case EncodingBase64:
		return "BASE64"
	}
	return ""
}

// DataType is the value of the VALUE parameter.
type DataType int

const (
	DataTypeText DataType = iota + 1
	DataTypeURI
	DataTypeDate
	DataTypeTime
	DataTypeDateTime
	DataTypeDateAndOrTime
	DataTypeTimestamp
	DataTypeBoolean
	DataTypeInteger
	DataTypeFloat
	DataTypeUTCOffset
	DataTypeLanguageTag
	DataTypeBinary
)

var dataTypes = map[string]DataType{
	"TEXT":             DataTypeText,
	"URI":              DataTypeURI,
	"URL":              DataTypeURI, // 2.1
	"CONTENT-ID":       DataTypeURI, // 2.1
	"CID":              DataTypeURI, // 2.1
	"DATE":             DataTypeDate,
	"TIME":             DataTypeTime,
	"DATE-TIME":        DataTypeDateTime,
	"DATE-AND-OR-TIME": DataTypeDateAndOrTime,
	"TIMESTAMP":        DataTypeTimestamp,
	"BOOLEAN":          DataTypeBoolean,
	"INTEGER":          DataTypeInteger,
	"FLOAT":            DataTypeFloat,
	"UTC-OFFSET":       DataTypeUTCOffset,
	"LANGUAGE-TAG":     DataTypeLanguageTag,
	"BINARY":           DataTypeBinary, // 3.0
}

func (d DataType) String() string {
	switch d {
	case DataTypeText:
		return "text"
	case DataTypeURI:
		return "uri"
	case DataTypeDate:
		return "date"
	case DataTypeTime:
		return "time"
	case DataTypeDateTime:
		return "date-time"
	case DataTypeDateAndOrTime:
		return "date-and-or-time"
	case DataTypeTimestamp:
		return "timestamp"
	case DataTypeBoolean:
		return "boolean"
	case DataTypeInteger:
		return "integer"
	case DataTypeFloat:
		return "float"
	case DataTypeUTCOffset:
		return "utc-offset"
	case DataTypeLanguageTag:
		return "language-tag"
	case DataTypeBinary:
		return "binary"
	}
	return ""
}

// TypeFlags is the set of well known TYPE parameter values.
type TypeFlags uint64

const (
	TypeHome TypeFlags = 1 << iota
	TypeWork
	TypePref
	TypeVoice
	TypeFax
	TypeMsg
	TypeCell
	TypePager
	TypeBBS
	TypeModem
	TypeCar
	TypeISDN
	TypeVideo
	TypePCS
	TypeText
	TypeTextphone
	TypeInternet
	TypeX400
	TypeDom
	TypeIntl
	TypePostal
	TypeParcel
	TypeContact
	TypeAcquaintance
	TypeFriend
	TypeMet
	TypeCoWorker
	TypeColleague
	TypeCoResident
	TypeNeighbor
	TypeChild
	TypeParent
	TypeSibling
	TypeSpouse
	TypeKin
	TypeMuse
	TypeCrush
	TypeDate
	TypeSweetheart
	TypeMe
	TypeAgent
	TypeEmergency
)

var typeFlags = map[string]TypeFlags{
	"HOME":         TypeHome,
	"WORK":         TypeWork,
	"PREF":         TypePref,
	"VOICE":        TypeVoice,
	"FAX":          TypeFax,
	"MSG":          TypeMsg,
	"CELL":         TypeCell,
	"PAGER":        TypePager,
	"BBS":          TypeBBS,
	"MODEM":        TypeModem,
	"CAR":          TypeCar,
	"ISDN":         TypeISDN,
	"VIDEO":        TypeVideo,
	"PCS":          TypePCS,
	"TEXT":         TypeText,
	"TEXTPHONE":    TypeTextphone,
	"INTERNET":     TypeInternet,
	"X400":         TypeX400,
	"DOM":          TypeDom,
	"INTL":         TypeIntl,
	"POSTAL":       TypePostal,
	"PARCEL":       TypeParcel,
	"CONTACT":      TypeContact,
	"ACQUAINTANCE": TypeAcquaintance,
	"FRIEND":       TypeFriend,
	"MET":          TypeMet,
	"CO-WORKER":    TypeCoWorker,
	"COLLEAGUE":    TypeColleague,
	"CO-RESIDENT":  TypeCoResident,
	"NEIGHBOR":     TypeNeighbor,
	"CHILD":        TypeChild,
	"PARENT":       TypeParent,
	"SIBLING":      TypeSibling,
	"SPOUSE":       TypeSpouse,
	"KIN":          TypeKin,
	"MUSE":         TypeMuse,
	"CRUSH":        TypeCrush,
	"DATE":         TypeDate,
	"SWEETHEART":   TypeSweetheart,
	"ME":           TypeMe,
	"AGENT":        TypeAgent,
	"EMERGENCY":    TypeEmergency,
}

// Has reports whether all flags in t are set.
func (f TypeFlags) Has(t TypeFlags) bool {
	return t != 0 && f&t == t
}
