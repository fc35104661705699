package language

import (
	"strings"
)

// Language pairs a display name with the code the translation and speech
// back ends accept
type Language struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// DefaultCode is used whenever a requested code is not supported
const DefaultCode = "en"

var languages = []Language{
	{Name: "English", Code: "en"},
	{Name: "Hindi", Code: "hi"},
	{Name: "Spanish", Code: "es"},
	{Name: "French", Code: "fr"},
	{Name: "Tamil", Code: "ta"},
	{Name: "Gujarati", Code: "gu"},
	{Name: "Telugu", Code: "te"},
	{Name: "Bengali", Code: "bn"},
	{Name: "Kannada", Code: "kn"},
	{Name: "Malayalam", Code: "ml"},
	{Name: "Marathi", Code: "mr"},
	{Name: "Punjabi", Code: "pa"},
	{Name: "Urdu", Code: "ur"},
	{Name: "Chinese (Simplified)", Code: "zh-cn"},
	{Name: "Japanese", Code: "ja"},
	{Name: "Korean", Code: "ko"},
	{Name: "German", Code: "de"},
	{Name: "Italian", Code: "it"},
	{Name: "Russian", Code: "ru"},
}

// All returns the supported languages in display order
func All() []Language {
	result := make([]Language, len(languages))
	copy(result, languages)
	return result
}

// Names returns the display names in display order
func Names() []string {
	names := make([]string, 0, len(languages))
	for _, l := range languages {
		names = append(names, l.Name)
	}
	return names
}

// Codes returns the supported language codes in display order
func Codes() []string {
	codes := make([]string, 0, len(languages))
	for _, l := range languages {
		codes = append(codes, l.Code)
	}
	return codes
}

// Default returns the fallback language
func Default() Language {
	l, _ := ByCode(DefaultCode)
	return l
}

// ByName finds a language by its display name
func ByName(name string) (Language, bool) {
	name = strings.TrimSpace(name)
	for _, l := range languages {
		if strings.EqualFold(l.Name, name) {
			return l, true
		}
	}
	return Language{}, false
}

// ByCode finds a language by its code. Underscores are accepted in place
// of dashes so "zh_CN" matches "zh-cn".
func ByCode(code string) (Language, bool) {
	code = NormalizeCode(code)
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// IsSupported reports whether code belongs to the supported set
func IsSupported(code string) bool {
	_, ok := ByCode(code)
	return ok
}

// Resolve turns a user selection into a Language. The selection may be a
// display name or a code. Unknown selections are kept as a bare code so the
// speech stage can coerce them to the default.
func Resolve(selection string) (Language, bool) {
	if l, ok := ByName(selection); ok {
		return l, true
	}
	if l, ok := ByCode(selection); ok {
		return l, true
	}
	code := NormalizeCode(selection)
	if code == "" {
		return Default(), false
	}
	return Language{Name: code, Code: code}, false
}

// NormalizeCode lower-cases and trims a language code
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	return strings.ReplaceAll(code, "_", "-")
}

// BackendCode converts a code into the casing Google endpoints expect.
// Region subtags are upper-cased: "zh-cn" becomes "zh-CN".
func BackendCode(code string) string {
	code = NormalizeCode(code)
	if i := strings.Index(code, "-"); i > 0 {
		return code[:i] + "-" + strings.ToUpper(code[i+1:])
	}
	return code
}
