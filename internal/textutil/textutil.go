// Package textutil holds the text plumbing shared by the predictors: word
// tokenization, n-gram expansion, punctuation handling, stemming, and
// sentence splitting.
package textutil

import (
	"regexp"
	"strings"
	"unicode"

	porterstemmer "github.com/reiver/go-porterstemmer"
)

// A token is a run of alphanumerics, optionally joined by internal
// apostrophes or hyphens ("here's", "mother-in-law").
var wordRe = regexp.MustCompile(`[0-9A-Za-z]+(?:['’-][0-9A-Za-z]+)*`)

var sentenceRe = regexp.MustCompile(`[.!?]+`)

// Tokenize splits s into word tokens in order of appearance.
func Tokenize(s string) []string {
	return wordRe.FindAllString(s, -1)
}

// NGrams constructs the n-grams (of order n) for the given token stream.
func NGrams(n int, toks []string) [][]string {
	if n < 1 || len(toks) < n {
		return nil
	}
	var nGrams [][]string
	for i := 0; i+n <= len(toks); i++ {
		nGram := make([]string, n)
		copy(nGram, toks[i:i+n])
		nGrams = append(nGrams, nGram)
	}
	return nGrams
}

// IsPunctuation reports whether s is non-empty and consists entirely of
// punctuation or symbol runes.
func IsPunctuation(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}

// StripPunctuation replaces punctuation with spaces, keeping apostrophes and
// hyphens so contractions survive tokenization.
func StripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\'' || r == '’' || r == '-' {
			return r
		}
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
}

// Stem returns the porter stem of a single lowercase token.
func Stem(tok string) string {
	return porterstemmer.StemString(tok)
}

// StemAll stems every token in the stream.
func StemAll(toks []string) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = Stem(t)
	}
	return out
}

// StemSet returns the set of stems present in the token stream.
func StemSet(toks []string) map[string]struct{} {
	set := make(map[string]struct{}, len(toks))
	for _, t := range toks {
		set[Stem(strings.ToLower(t))] = struct{}{}
	}
	return set
}

// SplitSentences splits free text into trimmed sentences on ./!/? runs.
// Text without terminal punctuation yields a single sentence.
func SplitSentences(text string) []string {
	var out []string
	for _, part := range sentenceRe.Split(text, -1) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ContentWords lowercases the tokens, drops stop words, and uniquifies by
// stem while preserving first-occurrence order. This stands in for the
// reference's dependency-parse extraction of subject/verb/object tokens:
// with stop words gone the remaining tokens are the content carriers.
func ContentWords(tokens []string, stop StopwordSet) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tok := range tokens {
		tok = strings.ToLower(tok)
		if stop.Contains(tok) {
			continue
		}
		stem := Stem(tok)
		if _, ok := seen[stem]; ok {
			continue
		}
		seen[stem] = struct{}{}
		out = append(out, tok)
	}
	return out
}
