package i18n

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinEnglishMessages(t *testing.T) {
	cases := map[string]string{
		"Welcome":            "Welcome!",
		"WelcomeBack":        "Welcome back!",
		"Goodbye":            "Goodbye! See you soon.",
		"InvalidSignup":      "Invalid input! Please try a new username and password.",
		"InvalidSignin":      "Invalid input! Please try again.",
		"InvalidContactName": "You may not enter that name. Please try again.",
		"ContactAdded":       "%s is now in your contact list.",
	}
	for key, want := range cases {
		if got := T("en", key); got != want {
			t.Errorf("T(en, %s) = %q, want %q", key, got, want)
		}
	}
}

func TestFallbackToEnglish(t *testing.T) {
	if got := T("de", "Welcome"); got != "Welcome!" {
		t.Errorf("Expected English fallback for unknown language, got %q", got)
	}
	if got := T("en", "NoSuchKey"); got != "NoSuchKey" {
		t.Errorf("Expected key echo for unknown key, got %q", got)
	}
}

func TestLoadTranslationsMerges(t *testing.T) {
	dir := t.TempDir()
	fr := `{"Welcome": "Bienvenue !"}`
	if err := os.WriteFile(filepath.Join(dir, "fr.json"), []byte(fr), 0o600); err != nil {
		t.Fatal(err)
	}

	if err := LoadTranslations(dir); err != nil {
		t.Fatalf("LoadTranslations failed: %v", err)
	}
	if got := T("fr", "Welcome"); got != "Bienvenue !" {
		t.Errorf("Expected loaded French message, got %q", got)
	}
	// Keys absent from the file still fall back to English
	if got := T("fr", "ContactAdded"); got != "%s is now in your contact list." {
		t.Errorf("Expected English fallback for missing French key, got %q", got)
	}
}

func TestDetectLanguage(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Accept-Language", "fr-CH, fr;q=0.9, en;q=0.8")
	// fr is known once a translations map exists for it
	if translations["fr"] == nil {
		translations["fr"] = map[string]string{}
	}
	if got := DetectLanguage(r); got != "fr" {
		t.Errorf("Expected fr, got %s", got)
	}

	r2 := httptest.NewRequest("GET", "/", nil)
	r2.Header.Set("Accept-Language", "de-DE, de;q=0.9")
	if got := DetectLanguage(r2); got != DefaultLang {
		t.Errorf("Expected default language, got %s", got)
	}

	r3 := httptest.NewRequest("GET", "/", nil)
	if got := DetectLanguage(r3); got != DefaultLang {
		t.Errorf("Expected default language without header, got %s", got)
	}
}
