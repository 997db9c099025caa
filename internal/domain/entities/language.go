package entities

import "strings"

// supportedLanguages are the ISO 639-1 codes a job can be translated from or to
var supportedLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "ru", "ja", "ko", "zh", "ar", "hi", "nl", "sv", "da", "no", "fi",
}

// SupportedLanguages returns a copy of the supported language codes
func SupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)
	return out
}

// IsSupportedLanguage checks code against the supported list
func IsSupportedLanguage(code string) bool {
	for _, l := range supportedLanguages {
		if l == code {
			return true
		}
	}
	return false
}

// NormalizeLanguageCode maps provider codes like "en_us" or "pt-BR" onto ISO 639-1
func NormalizeLanguageCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "_-"); i > 0 {
		code = code[:i]
	}
	return code
}
