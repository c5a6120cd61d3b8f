package normalizer

// Language-tagged stopword sets and "this is a total row" marker tokens.
// Kept intentionally small: the point of the injectable Normalizer
// interface is that a caller with a real NLP stack can replace these
// wholesale (spec.md §1: "NLP tokenization ... treated as an injectable
// label normalizer").
var stopwordSets = map[string]map[string]struct{}{
	"en": set("a", "an", "and", "the", "of", "for", "by", "in", "on", "to", "with", "or"),
	"fr": set("le", "la", "les", "de", "des", "du", "et", "en", "un", "une", "par", "pour", "au", "aux"),
}

var totalWords = map[string]string{
	"en": "total",
	"fr": "total",
}

func set(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
