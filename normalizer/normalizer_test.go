package normalizer

import "testing"

func TestNormalizeDropsStopwordsAndSorts(t *testing.T) {
	n := New("en")
	got := n.Normalize("Wheat and Barley")
	want := "barley wheat"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeIsCaseInsensitive(t *testing.T) {
	n := New("en")
	if got := n.Normalize("CANADA"); got != "canada" {
		t.Fatalf("Normalize(CANADA) = %q, want canada", got)
	}
}

func TestNormalizeDropsNonAlphabeticTokens(t *testing.T) {
	n := New("en")
	got := n.Normalize("2021 Geography, Region 1")
	want := "geography region"
	if got != want {
		t.Fatalf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalizeFallsBackToEmptyStopwordsForUnknownLanguage(t *testing.T) {
	n := New("de")
	got := n.Normalize("the Region")
	want := "region the"
	if got != want {
		t.Fatalf("Normalize with an unknown language must keep every token, got %q want %q", got, want)
	}
}

func TestContainsTotal(t *testing.T) {
	n := New("en")
	if !n.ContainsTotal("Total, all provinces") {
		t.Fatalf("expected ContainsTotal to match the literal word")
	}
	if n.ContainsTotal("Totals by region") {
		t.Fatalf("ContainsTotal must match the exact token, not a substring like \"Totals\"")
	}
	if n.ContainsTotal("Ontario") {
		t.Fatalf("unexpected ContainsTotal match")
	}
}

func TestLanguage(t *testing.T) {
	if got := New("fr").Language(); got != "fr" {
		t.Fatalf("Language() = %q, want fr", got)
	}
}

func TestDefaultGrabbagClassifier(t *testing.T) {
	cases := map[string]bool{
		"Labour force characteristics": true,
		"Other geographic breakdowns":  true,
		"Geography":                    false,
	}
	for label, want := range cases {
		if got := DefaultGrabbagClassifier(label); got != want {
			t.Errorf("DefaultGrabbagClassifier(%q) = %v, want %v", label, got, want)
		}
	}
}

func TestClassifierForFrench(t *testing.T) {
	c := ClassifierFor("fr")
	if !c("Caractéristiques de la population active") {
		t.Fatalf("French classifier should match caractéristiques")
	}
	if c("Géographie") {
		t.Fatalf("unexpected match for a substantive French dimension name")
	}
}

func TestClassifierForUnknownLanguageFallsBackToEnglish(t *testing.T) {
	c := ClassifierFor("es")
	if !c("Other characteristics") {
		t.Fatalf("unknown language should fall back to the English markers")
	}
}
