package lang

import "strings"

// Language is a two-letter content language tag.
type Language string

const (
	English    Language = "en"
	Portuguese Language = "pt"
	Spanish    Language = "es"
)

// Canonical is the language stored in the unsuffixed base fields.
const Canonical = English

var names = map[Language]string{
	English:    "English",
	Portuguese: "Portuguese (Portugal)",
	Spanish:    "Spanish",
}

// Supported lists every language a section can be written in, canonical first.
func Supported() []Language {
	return []Language{English, Portuguese, Spanish}
}

// Parse normalizes s and reports whether it names a supported language.
func Parse(s string) (Language, bool) {
	l := Language(strings.ToLower(strings.TrimSpace(s)))
	_, ok := names[l]
	return l, ok
}

// Name returns the display name used in translation prompts.
func (l Language) Name() string {
	if n, ok := names[l]; ok {
		return n
	}
	return string(l)
}

func (l Language) IsCanonical() bool { return l == Canonical }

// Suffix returns the field suffix for l ("" for the canonical language).
func (l Language) Suffix() string {
	if l.IsCanonical() {
		return ""
	}
	return "_" + string(l)
}
