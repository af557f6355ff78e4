package i18n

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
)

var DefaultLang = "en"

// English is built in so user-facing messages work even when no translation
// files ship with the binary. LoadTranslations can override or extend it.
var translations = map[string]map[string]string{
	"en": {
		"AppTagline":         "Your contacts, in one place.",
		"SignUpPrompt":       "Want to be a registered user?",
		"Welcome":            "Welcome!",
		"WelcomeBack":        "Welcome back!",
		"Goodbye":            "Goodbye! See you soon.",
		"InvalidSignup":      "Invalid input! Please try a new username and password.",
		"InvalidSignin":      "Invalid input! Please try again.",
		"InvalidContactName": "You may not enter that name. Please try again.",
		"InvalidCategory":    "That is not a valid category. Please try again.",
		"ContactAdded":       "%s is now in your contact list.",
		"TooManyAttempts":    "Too many attempts. Please try again later.",
		"WrongCaptcha":       "The characters did not match the image. Please try again.",
	},
}

// LoadTranslations merges per-language JSON files from path into the
// catalog. A missing file is not an error; the built-in English entries
// remain as fallback.
func LoadTranslations(path string) error {
	files := []string{"en", "fr"}
	for _, lang := range files {
		data, err := os.ReadFile(fmt.Sprintf("%s/%s.json", path, lang))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return err
		}
		var t map[string]string
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		if translations[lang] == nil {
			translations[lang] = make(map[string]string)
		}
		for key, val := range t {
			translations[lang][key] = val
		}
	}
	return nil
}

func T(lang, key string) string {
	if t, ok := translations[lang]; ok {
		if val, ok := t[key]; ok {
			return val
		}
	}
	// Fallback to English
	if lang != DefaultLang {
		return T(DefaultLang, key)
	}
	return key
}

func DetectLanguage(r *http.Request) string {
	// 1. Check Accept-Language header
	accept := r.Header.Get("Accept-Language")
	if accept != "" {
		// Example: fr-CH, fr;q=0.9, en;q=0.8, de;q=0.7, *;q=0.5
		parts := strings.Split(accept, ",")
		for _, part := range parts {
			lang := strings.TrimSpace(strings.Split(part, ";")[0])
			if len(lang) >= 2 {
				lang = lang[:2] // e.g., "en-US" -> "en"
				if _, ok := translations[lang]; ok {
					return lang
				}
			}
		}
	}

	return DefaultLang
}
