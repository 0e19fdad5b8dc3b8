package vertrans

import "strings"

// LanguageNames maps provider language codes to human-readable names for AI prompts.
var LanguageNames = map[string]string{
	"BG":    "Bulgarian",
	"CS":    "Czech",
	"DA":    "Danish",
	"DE":    "German",
	"EL":    "Greek",
	"EN":    "English",
	"EN-GB": "English (United Kingdom)",
	"EN-US": "English (United States)",
	"ES":    "Spanish",
	"ET":    "Estonian",
	"FI":    "Finnish",
	"FR":    "French",
	"HU":    "Hungarian",
	"ID":    "Indonesian",
	"IT":    "Italian",
	"JA":    "Japanese",
	"KO":    "Korean",
	"LT":    "Lithuanian",
	"LV":    "Latvian",
	"NB":    "Norwegian Bokmål",
	"NL":    "Dutch",
	"PL":    "Polish",
	"PT-BR": "Portuguese (Brazil)",
	"PT-PT": "Portuguese (Portugal)",
	"RO":    "Romanian",
	"RU":    "Russian",
	"SK":    "Slovak",
	"SL":    "Slovenian",
	"SV":    "Swedish",
	"TR":    "Turkish",
	"UK":    "Ukrainian",
	"ZH":    "Chinese (Simplified)",
}

// GetLanguageName returns the human-readable name for a language code.
// Falls back to the code itself if not found.
func GetLanguageName(langCode string) string {
	code := ProviderLang(langCode)
	if name, ok := LanguageNames[code]; ok {
		return name
	}
	if name, ok := LanguageNames[baseLang(code)]; ok {
		return name
	}
	return langCode
}

// ProviderLang converts a language code to the upper-case form sent to the
// provider (e.g., "en_us" → "EN-US").
func ProviderLang(langCode string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(langCode), "_", "-"))
}

// StoreLang converts a language code to the lower-case form used in store keys.
func StoreLang(langCode string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(langCode), "_", "-"))
}

// ParseLanguages splits a comma separated language list into provider codes,
// skipping blanks and duplicates while preserving order.
func ParseLanguages(list string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(list, ",") {
		code := ProviderLang(part)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, code)
	}
	return out
}

// SameLanguage reports whether two codes share a base language
// (e.g., "EN" and "en-GB"). Translating between them is skipped.
func SameLanguage(a, b string) bool {
	return baseLang(ProviderLang(a)) == baseLang(ProviderLang(b))
}

// baseLang extracts the base language code (e.g., "EN" from "EN-GB").
func baseLang(code string) string {
	if i := strings.IndexByte(code, '-'); i >= 0 {
		return code[:i]
	}
	return code
}
