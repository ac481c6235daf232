package inference

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Vocabulary is the ordered list of symptom tokens a classifier was trained
// on. Index i of every FeatureVector corresponds to Vocabulary[i].
type Vocabulary []string

// SymptomSet holds the normalized tokens extracted from one input text.
type SymptomSet map[string]struct{}

// FeatureVector is a binary presence vector aligned to a Vocabulary.
type FeatureVector []float64

// NormalizeText lowercases text and keeps only a-z, commas and whitespace.
// Letters outside a-z, full-width forms included, are dropped rather than
// folded.
func NormalizeText(text string) string {
	lowered := cases.Lower(language.Und).String(text)
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || r == ',' || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, lowered)
}

// Tokenize splits normalized text on commas and returns the distinct
// non-empty tokens in first-seen order.
func Tokenize(text string) []string {
	parts := strings.Split(NormalizeText(text), ",")
	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		tok := strings.TrimSpace(p)
		if tok == "" {
			continue
		}
		if _, ok := seen[tok]; ok {
			continue
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}
	return out
}

// NewSymptomSet builds a set from already-normalized tokens.
func NewSymptomSet(tokens []string) SymptomSet {
	set := make(SymptomSet, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}

// Has reports whether token is in the set.
func (s SymptomSet) Has(token string) bool {
	_, ok := s[token]
	return ok
}

// Encode returns the feature vector for set. Tokens outside the vocabulary
// are ignored.
func (v Vocabulary) Encode(set SymptomSet) FeatureVector {
	vec := make(FeatureVector, len(v))
	for i, name := range v {
		if set.Has(name) {
			vec[i] = 1
		}
	}
	return vec
}

// Vectorize converts raw symptom text into a feature vector over vocab.
func Vectorize(text string, vocab Vocabulary) FeatureVector {
	return vocab.Encode(NewSymptomSet(Tokenize(text)))
}
