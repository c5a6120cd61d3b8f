package normalizer

import "strings"

// GrabbagClassifier decides whether a canonical dimension is a
// "characteristics"/miscellaneous catch-all rather than a substantive
// axis (SPEC_FULL.md §10; spec.md §9 marks the upstream heuristic
// ambiguous for non-English cubes and asks that it stay pluggable).
type GrabbagClassifier func(nameEn string) bool

// DefaultGrabbagClassifier matches the upstream English heuristic:
// the dimension name contains "characteristics" or "other".
func DefaultGrabbagClassifier(nameEn string) bool {
	lower := strings.ToLower(nameEn)
	return strings.Contains(lower, "characteristics") || strings.Contains(lower, "other")
}

// grabbagMarkers are swapped in per language tag by ClassifierFor; unknown
// tags fall back to the English markers rather than always returning
// false, since a silent no-op classifier would be a worse default than an
// imperfect English one.
var grabbagMarkers = map[string][]string{
	"en": {"characteristics", "other"},
	"fr": {"caractéristiques", "autre"},
}

// ClassifierFor returns a GrabbagClassifier tuned to lang's marker words.
func ClassifierFor(lang string) GrabbagClassifier {
	markers, ok := grabbagMarkers[lang]
	if !ok {
		markers = grabbagMarkers["en"]
	}
	return func(nameEn string) bool {
		lower := strings.ToLower(nameEn)
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return true
			}
		}
		return false
	}
}
