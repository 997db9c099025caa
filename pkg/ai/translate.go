package ai

import (
	"encoding/json"
	"fmt"
	"strings"
)

var languageNames = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German", "it": "Italian",
	"pt": "Portuguese", "ru": "Russian", "ja": "Japanese", "ko": "Korean", "zh": "Chinese",
	"ar": "Arabic", "hi": "Hindi", "nl": "Dutch", "sv": "Swedish", "da": "Danish",
	"no": "Norwegian", "fi": "Finnish",
}

func languageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

const translationSystemPrompt = `ROLE: Professional dubbing translator.

TASK:
Translate every string of the input JSON array for spoken voice-over.
RULES:
1. Keep the same number of items and the same order.
2. Keep each item roughly as long as the original so it fits the same timing.
3. Do not merge, split, explain or add notes.
4. Return a JSON object with a "translations" key holding an array of strings.`

func translationPrompt(sourceLang, targetLang string, texts []string) (string, error) {
	payload, err := json.Marshal(texts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SOURCE LANGUAGE: %s\nTARGET LANGUAGE: %s\nINPUT: %s\n\nJSON:",
		languageName(sourceLang), languageName(targetLang), payload), nil
}

// parseTranslations extracts the translated strings from a model answer
func parseTranslations(content string, want int) ([]string, error) {
	clean := strings.TrimSpace(content)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return nil, ErrEmptyResponse
	}

	var out []string
	var wrapper struct {
		Translations []string `json:"translations"`
	}
	if err := json.Unmarshal([]byte(clean), &wrapper); err == nil && wrapper.Translations != nil {
		out = wrapper.Translations
	} else if err := json.Unmarshal([]byte(clean), &out); err != nil {
		return nil, fmt.Errorf("%w: unparseable translation output", ErrTranslationMismatch)
	}

	if len(out) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrTranslationMismatch, len(out), want)
	}
	return out, nil
}
