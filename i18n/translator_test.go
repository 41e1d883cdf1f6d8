package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("invalid_type", nil); msg == "invalid_type" || msg == "" {
		t.Fatalf("expected a human message, got %q", msg)
	}

	SetLanguage("ja")
	if msg := T("invalid_type", nil); msg == "invalid type" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_Placeholders(t *testing.T) {
	SetLanguage("en")
	if got := T("exact_digits", map[string]string{"n": "4"}); got != "must be exactly 4 digits" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := T("too_small", map[string]string{"min": "1"}); got != "must be at least 1" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := T("no_such_code", nil); got != "no_such_code" {
		t.Fatalf("unknown codes should echo the code, got %q", got)
	}
}

func TestMatch(t *testing.T) {
	cases := map[string]string{
		"ja":                 "ja",
		"ja-JP":              "ja",
		"en-US":              "en",
		"fr":                 "en",
		"":                   "en",
		"ja;q=0.9, en;q=0.8": "ja",
	}
	for in, want := range cases {
		if got := Match(in); got != want {
			t.Errorf("Match(%q) = %q, want %q", in, got, want)
		}
	}
}
