package services

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var sentenceBoundary = regexp.MustCompile(`[.!?]+`)

// PreprocessResult holds the text statistics computed for a user utterance
type PreprocessResult struct {
	SentenceCount int
	WordCount     int
	Lemmas        []string
}

// Summary renders the counts for display, e.g. "12 words, 3 sentences".
func (p PreprocessResult) Summary() string {
	return fmt.Sprintf("%d words, %d sentences", p.WordCount, p.SentenceCount)
}

// Preprocess tokenizes text into sentences and words and lemmatizes the words.
// It never fails; empty input yields zero counts.
func Preprocess(text string) PreprocessResult {
	sentences := SentTokenize(text)
	words := WordTokenize(text)

	lemmas := make([]string, 0, len(words))
	for _, w := range words {
		lemmas = append(lemmas, Lemmatize(w))
	}

	return PreprocessResult{
		SentenceCount: len(sentences),
		WordCount:     len(words),
		Lemmas:        lemmas,
	}
}

// SentTokenize splits on runs of '.', '!' and '?'. Abbreviations and decimals
// are not special-cased.
func SentTokenize(text string) []string {
	var sentences []string
	for _, s := range sentenceBoundary.Split(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// WordTokenize splits on whitespace and strips punctuation from both ends of
// each token.
func WordTokenize(text string) []string {
	var tokens []string
	for _, raw := range strings.Fields(text) {
		if token := strings.TrimFunc(raw, isNonWord); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// isNonWord reports runes outside the word class: letters, any numeric rune
// (so "²" and "½" count) and '_'. Combining marks are not word runes.
func isNonWord(r rune) bool {
	return !(unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_')
}

// Lemmatize reduces an English word to an approximate base form by stripping
// plural suffixes. It is deliberately naive: "uses" becomes "us".
func Lemmatize(word string) string {
	w := strings.ToLower(word)
	n := utf8.RuneCountInString(w)

	switch {
	case n > 3 && strings.HasSuffix(w, "ies"):
		return strings.TrimSuffix(w, "ies") + "y" // studies -> study
	case n > 3 && strings.HasSuffix(w, "es"):
		return strings.TrimSuffix(w, "es")
	case n > 2 && strings.HasSuffix(w, "s"):
		return strings.TrimSuffix(w, "s") // plants -> plant
	}
	return w
}
