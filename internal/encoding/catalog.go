package encoding

import "sort"

// Charset is a user-facing description of an encoding.
type Charset struct {
	Name string // Display name
	Tag  string // Tag known to resolve to the encoding
}

var utf8Charset = Charset{"Unicode (UTF-8)", UTF8}

var friendlyCharsets = []Charset{
	{"Arabic (ISO-8859-6)", "ISO-8859-6"},
	{"Arabic (Windows-1256)", "WINDOWS-1256"},
	{"Baltic (ISO-8859-13)", "ISO-8859-13"},
	{"Baltic (ISO-8859-4)", "ISO-8859-4"},
	{"Baltic (Windows-1257)", "WINDOWS-1257"},
	{"Central European (IBM-852)", "IBM852"},
	{"Central European (ISO-8859-2)", "ISO-8859-2"},
	{"Central European (ISO-8859-3)", "ISO-8859-3"},
	{"Central European (Windows-1250)", "WINDOWS-1250"},
	{"Chinese Simplified (GB18030)", "GB18030"},
	{"Chinese Simplified (GB2312)", "GB2312"},
	{"Chinese Simplified (GBK)", "GBK"},
	{"Chinese Traditional (Big5)", "BIG5"},
	{"Chinese Traditional (Big5-HKSCS)", "BIG5-HKSCS"},
	{"Chinese Traditional (EUC-TW)", "EUC-TW"},
	{"Cyrillic (IBM-866)", "IBM866"},
	{"Cyrillic (ISO-8859-5)", "ISO-8859-5"},
	{"Cyrillic (KOI8-R)", "KOI8-R"},
	{"Cyrillic (KOI8-U)", "KOI8-U"},
	{"Cyrillic (Windows-1251)", "WINDOWS-1251"},
	{"EBCDIC (Code page 037)", EBCDIC},
	{"Greek (ISO-8859-7)", "ISO-8859-7"},
	{"Greek (Windows-1253)", "WINDOWS-1253"},
	{"Hebrew (ISO-8859-8)", "ISO-8859-8"},
	{"Hebrew (Windows-1255)", "WINDOWS-1255"},
	{"Japanese (EUC-JP)", "EUC-JP"},
	{"Japanese (ISO-2022-JP)", "ISO-2022-JP"},
	{"Japanese (Shift_JIS)", "SHIFT_JIS"},
	{"Korean (EUC-KR)", "EUC-KR"},
	{"Korean (ISO-2022-KR)", "ISO-2022-KR"},
	{"Northern Saami (Winsami2)", "WINSAMI2"},
	{"South-Eastern European (ISO-8859-16)", "ISO-8859-16"},
	{"Tamil (TSCII)", "TSCII"},
	{"Thai (ISO-8859-11)", "ISO-8859-11"},
	{"Thai (TIS-620)", "TIS-620"},
	{"Thai (Windows-874)", "WINDOWS-874"},
	{"Turkish (ISO-8859-9)", "ISO-8859-9"},
	{"Turkish (Windows-1254)", "WINDOWS-1254"},
	{"Unicode (UTF-16)", "UTF-16"},
	{"Unicode (UTF-16LE with BOM)", UTF16LEBOM},
	{"Unicode (UTF-7)", "UTF-7"},
	{"Unicode (UTF-8 with BOM)", UTF8BOM},
	{"US-ASCII", ASCII},
	{"Vietnamese (Windows-1258)", "WINDOWS-1258"},
	{"Western European (IBM-850)", "IBM850"},
	{"Western European (ISO-8859-1)", "ISO-8859-1"},
	{"Western European (ISO-8859-14)", "ISO-8859-14"},
	{"Western European (ISO-8859-15)", "ISO-8859-15"},
	{"Western European (Windows-1252)", "WINDOWS-1252"},
}

// Available returns the catalogue entries this registry can convert, sorted
// by display name. UTF-8 is always present.
func (r *Registry) Available() []Charset {
	out := []Charset{utf8Charset}
	for _, cs := range friendlyCharsets {
		if r.Probe(cs.Tag) {
			out = append(out, cs)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup finds the catalogue entry equivalent to tag.
func (r *Registry) Lookup(tag string) (Charset, bool) {
	if tag == "" {
		tag = UTF8
	}
	for _, cs := range r.Available() {
		if r.Equivalent(cs.Tag, tag) {
			return cs, true
		}
	}
	return Charset{}, false
}
