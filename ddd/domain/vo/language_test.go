package vo

import "testing"

func TestNormalizeLanguage(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"en-US", "en"},
		{"en_US", "en"},
		{"fra", "fr"},
		{"", ""},
		{"  de ", "de"},
		{"x", ""},
		{"not a language!!", "no"},
	}
	for _, tt := range tests {
		if got := NormalizeLanguage(tt.in); got != tt.want {
			t.Errorf("NormalizeLanguage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveLanguagePriority(t *testing.T) {
	frenchText := "le chat est dans la maison et il est pour le moment avec les autres"

	lang, source := ResolveLanguage("ES", "fr", frenchText)
	if lang != "es" || source != LanguageSourceProvider {
		t.Fatalf("provider should win: got %s/%s", lang, source)
	}

	lang, source = ResolveLanguage("", "fr-CA", frenchText)
	if lang != "fr" || source != LanguageSourceHint {
		t.Fatalf("hint should win over detection: got %s/%s", lang, source)
	}

	lang, source = ResolveLanguage("", "", frenchText)
	if lang != "fr" || source != LanguageSourceDetected {
		t.Fatalf("expected detected fr: got %s/%s", lang, source)
	}

	lang, source = ResolveLanguage("", "", "zzz qqq xxx")
	if lang != DefaultLanguage || source != LanguageSourceDetected {
		t.Fatalf("no stopwords detected falls back to default inside detection: got %s/%s", lang, source)
	}

	lang, source = ResolveLanguage("", "", "")
	if lang != DefaultLanguage || source != LanguageSourceDetected {
		t.Fatalf("empty text: got %s/%s", lang, source)
	}
}

func TestDetectLanguageEnglish(t *testing.T) {
	text := "the cat is in the house and it is not with you for the moment"
	if got := DetectLanguage(text); got != "en" {
		t.Fatalf("expected en, got %s", got)
	}
}

func TestDetectLanguageTieBreaksByFixedOrder(t *testing.T) {
	// "le" scores fr (1) and "the" scores en (1); fr precedes en in the
	// tie-break order.
	if got := DetectLanguage("le the"); got != "fr" {
		t.Fatalf("expected fr on tie, got %s", got)
	}
}
