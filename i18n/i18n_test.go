package i18n

import (
	"context"
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	if DetectLanguage("en-US,en;q=0.9") != "en" {
		t.Fatalf("expected en")
	}
	if DetectLanguage("EN-gb") != "en" {
		t.Fatalf("expected en for EN-gb")
	}
	if DetectLanguage("fr-FR,fr;q=0.8") != "fr" {
		t.Fatalf("expected fr")
	}
	if DetectLanguage("") != "fr" {
		t.Fatalf("expected default fr")
	}
	if DetectLanguage("ja-JP") != "fr" {
		t.Fatalf("expected default fr for unsupported language")
	}
}

func TestTranslations(t *testing.T) {
	if T("en", "required") != "Required" {
		t.Fatalf("expected Required")
	}
	if T("fr", "required") != "Requis" {
		t.Fatalf("expected Requis")
	}
	// unknown code -> fallback to code
	if T("en", "__nope__") != "__nope__" {
		t.Fatalf("expected fallback to code")
	}
	// unknown language -> fallback to fr translation if exists
	if T("es", "required") != "Requis" {
		t.Fatalf("expected fr fallback for es lang")
	}
}

func TestCatalogueParity(t *testing.T) {
	for code := range messages["fr"] {
		if _, ok := messages["en"][code]; !ok {
			t.Errorf("code %q missing from en catalogue", code)
		}
	}
	for code := range messages["en"] {
		if _, ok := messages["fr"][code]; !ok {
			t.Errorf("code %q missing from fr catalogue", code)
		}
	}
}

func TestLangContext(t *testing.T) {
	if LangFromContext(context.Background()) != DefaultLang {
		t.Fatal("expected default language")
	}
	if LangFromContext(WithLang(context.Background(), "en")) != "en" {
		t.Fatal("expected en from context")
	}
	if Normalize(" EN ") != "en" || Normalize("de") != DefaultLang {
		t.Fatal("unexpected Normalize result")
	}
}
