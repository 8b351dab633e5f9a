package language

import "strings"

// Auto asks whisper.cpp to detect the spoken language itself.
const Auto = "auto"

type entry struct {
	code2   string
	code3   []string
	display string
}

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
	{"no", []string{"nor", "nob"}, "Norwegian"},
	{"fi", []string{"fin"}, "Finnish"},
	{"tr", []string{"tur"}, "Turkish"},
	{"uk", []string{"ukr"}, "Ukrainian"},
}

var index = func() map[string]*entry {
	m := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		m[e.code2] = e
		m[strings.ToLower(e.display)] = e
		for _, c := range e.code3 {
			m[c] = e
		}
	}
	return m
}()

// WhisperCode normalizes value to the code passed to whisper.cpp. Known
// names, ISO 639-2 codes and locale tags such as "en-US" map to ISO 639-1.
// Unknown two-letter codes pass through since whisper supports more languages
// than the table lists. ok is false when value cannot be interpreted.
func WhisperCode(value string) (code string, ok bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == Auto {
		return Auto, true
	}
	if base, _, found := strings.Cut(strings.ReplaceAll(v, "_", "-"), "-"); found {
		v = base
	}
	if v == "" {
		return "", false
	}
	if e, found := index[v]; found {
		return e.code2, true
	}
	if len(v) == 2 && isLetters(v) {
		return v, true
	}
	return "", false
}

// DisplayName returns a readable name for a code, or the upper-cased code
// when it is not in the table.
func DisplayName(code string) string {
	v := strings.ToLower(strings.TrimSpace(code))
	switch v {
	case "":
		return "Unknown"
	case Auto:
		return "Auto-detect"
	}
	if e, found := index[v]; found {
		return e.display
	}
	return strings.ToUpper(v)
}

func isLetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
