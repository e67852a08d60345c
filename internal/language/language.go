// Package language lists the target languages offered for localization.
package language

import (
	"slices"
	"strings"
)

// Language is a target language option. Code is what gets sent in prompts.
type Language struct {
	Code       string
	Name       string
	NativeName string
}

// Supported is the ordered list shown in pickers. The first four match the
// GUI's quick choices.
var Supported = []Language{
	{Code: "zh", Name: "Chinese (Simplified)", NativeName: "简体中文"},
	{Code: "en", Name: "English", NativeName: "English"},
	{Code: "ja", Name: "Japanese", NativeName: "日本語"},
	{Code: "ko", Name: "Korean", NativeName: "한국어"},
	{Code: "zh-Hant", Name: "Chinese (Traditional)", NativeName: "繁體中文"},
	{Code: "es", Name: "Spanish", NativeName: "Español"},
	{Code: "fr", Name: "French", NativeName: "Français"},
	{Code: "de", Name: "German", NativeName: "Deutsch"},
	{Code: "pt", Name: "Portuguese", NativeName: "Português"},
	{Code: "ru", Name: "Russian", NativeName: "Русский"},
	{Code: "it", Name: "Italian", NativeName: "Italiano"},
	{Code: "id", Name: "Indonesian", NativeName: "Bahasa Indonesia"},
	{Code: "th", Name: "Thai", NativeName: "ไทย"},
	{Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt"},
}

var aliases = map[string]string{
	"zh-hans": "zh",
	"zh-cn":   "zh",
	"zh-tw":   "zh-Hant",
	"zh-hk":   "zh-Hant",
	"jp":      "ja",
	"kr":      "ko",
}

// Get returns the language for code (case-insensitive, common aliases accepted).
func Get(code string) (Language, bool) {
	c := strings.ToLower(strings.TrimSpace(code))
	if alias, ok := aliases[c]; ok {
		c = strings.ToLower(alias)
	}
	i := slices.IndexFunc(Supported, func(l Language) bool { return strings.ToLower(l.Code) == c })
	if i < 0 {
		return Language{}, false
	}
	return Supported[i], true
}

// Codes returns the codes of Supported in order.
func Codes() []string {
	out := make([]string, len(Supported))
	for i, l := range Supported {
		out[i] = l.Code
	}
	return out
}

// Label renders "code - Name (Native)" for pickers.
func (l Language) Label() string {
	if l.NativeName == "" || l.NativeName == l.Name {
		return l.Code + " - " + l.Name
	}
	return l.Code + " - " + l.Name + " (" + l.NativeName + ")"
}

// CodeFromLabel reverses Label, falling back to the raw input.
func CodeFromLabel(label string) string {
	code, _, _ := strings.Cut(strings.TrimSpace(label), " - ")
	return code
}
