package indexengine

import (
	"strings"
	"unicode"

	"github.com/rowdex/rowdex/internal/model"
)

// tokenize splits s into lower-cased word tokens on anything that isn't a
// letter or digit, the conventional word-boundary tokenization of
// ranking-rule-based search engines.
func tokenize(s string) []string {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			cur.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}
	flush()
	return tokens
}

// stopWordSet builds a lookup set from the settings' configured stop
// words.
func stopWordSet(s model.IndexSettings) map[string]struct{} {
	set := make(map[string]struct{}, len(s.StopWords))
	for _, w := range s.StopWords {
		set[strings.ToLower(w)] = struct{}{}
	}
	return set
}

// filterStopWords removes tokens present in stop.
func filterStopWords(tokens []string, stop map[string]struct{}) []string {
	if len(stop) == 0 {
		return tokens
	}
	out := tokens[:0:0]
	for _, t := range tokens {
		if _, drop := stop[t]; !drop {
			out = append(out, t)
		}
	}
	return out
}

// expandSynonyms returns tokens plus, for each token that has configured
// synonyms, the synonym terms themselves — used on the query side so a
// query for one synonym also matches documents indexed under another.
func expandSynonyms(tokens []string, synonyms map[string][]string) []string {
	if len(synonyms) == 0 {
		return tokens
	}
	out := append([]string(nil), tokens...)
	for _, t := range tokens {
		for _, syn := range synonyms[t] {
			out = append(out, strings.ToLower(syn))
		}
	}
	return out
}

// stringify renders an arbitrary document field value as indexable text.
// Strings pass through; numbers and bools use their default formatting;
// nested objects/arrays are walked so their leaf scalars remain searchable.
func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = stringify(e)
		}
		return strings.Join(parts, " ")
	case map[string]any:
		parts := make([]string, 0, len(t))
		for _, e := range t {
			parts = append(parts, stringify(e))
		}
		return strings.Join(parts, " ")
	default:
		return toString(t)
	}
}
