package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

type entry struct {
	code   string   // ISO 639-1
	alias3 []string // ISO 639-2 terminology and bibliographic forms
	name   string
}

// Languages the bundled whisper models are routinely run with.
var languages = []entry{
	{"en", []string{"eng"}, "English"},
	{"es", []string{"spa"}, "Spanish"},
	{"fr", []string{"fra", "fre"}, "French"},
	{"de", []string{"deu", "ger"}, "German"},
	{"it", []string{"ita"}, "Italian"},
	{"pt", []string{"por"}, "Portuguese"},
	{"ja", []string{"jpn"}, "Japanese"},
	{"ko", []string{"kor"}, "Korean"},
	{"zh", []string{"zho", "chi"}, "Chinese"},
	{"ru", []string{"rus"}, "Russian"},
	{"ar", []string{"ara"}, "Arabic"},
	{"hi", []string{"hin"}, "Hindi"},
	{"nl", []string{"nld", "dut"}, "Dutch"},
	{"pl", []string{"pol"}, "Polish"},
	{"sv", []string{"swe"}, "Swedish"},
	{"da", []string{"dan"}, "Danish"},
	{"no", []string{"nor"}, "Norwegian"},
	{"fi", []string{"fin"}, "Finnish"},
	{"uk", []string{"ukr"}, "Ukrainian"},
	{"tr", []string{"tur"}, "Turkish"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code] = e
		m[strings.ToLower(e.name)] = e
		for _, alias := range e.alias3 {
			m[alias] = e
		}
	}
	return m
}()

func lookup(value string) *entry {
	return index[strings.ToLower(strings.TrimSpace(value))]
}

// Normalize returns the ISO 639-1 code for a recognized language name, code
// or BCP 47 tag. Unrecognized input is returned trimmed and unchanged so the
// engine can decide; empty input yields "".
func Normalize(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if e := lookup(value); e != nil {
		return e.code
	}
	tag, err := xlanguage.Parse(value)
	if err != nil {
		return value
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return value
	}
	return base.String()
}

// DisplayName returns a human-readable name, the upper-cased code for
// unknown languages, or "Unknown" for empty input.
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	if e := lookup(Normalize(code)); e != nil {
		return e.name
	}
	return strings.ToUpper(code)
}
