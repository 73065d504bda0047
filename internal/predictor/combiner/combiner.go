// Package combiner merges the predictors' outputs into one ranked,
// deduplicated prediction and derives next-letter probabilities.
package combiner

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/wordwisp/wordwisp/internal/predictor/entity"
)

// LetterProb is one entry of the next-letter probability table.
type LetterProb struct {
	Letter      rune
	Probability float64
}

// CategoryResolver maps a predictor name to its category. The combiner needs
// it for the two documented asymmetries: spell-corrector suggestions are
// excluded from the letter table, and sentence suggestions contribute only
// their first letter.
type CategoryResolver func(predictorName string) entity.Category

// Combiner implements the meritocracy merge: every predictor's vote for a
// word is summed, capped at the probability ceiling.
type Combiner struct {
	categoryOf CategoryResolver
}

func New(categoryOf CategoryResolver) *Combiner {
	if categoryOf == nil {
		categoryOf = func(string) entity.Category { return entity.CategoryWord }
	}
	return &Combiner{categoryOf: categoryOf}
}

// Filter deduplicates by word: the output holds exactly one suggestion per
// distinct word whose probability is the sum of every input suggestion for
// that word, saturated at the maximum.
func (c *Combiner) Filter(prediction entity.Prediction) entity.Prediction {
	sums := make(map[string]float64)
	keep := make(map[string]entity.Suggestion)
	var order []string

	for _, s := range prediction.Suggestions() {
		if _, seen := sums[s.Word]; !seen {
			order = append(order, s.Word)
			keep[s.Word] = s
		}
		sums[s.Word] += s.Probability()
	}

	var out entity.Prediction
	for _, word := range order {
		first := keep[word]
		out.Add(entity.ClampedSuggestion(word, sums[word], first.Predictor))
	}
	return out
}

// Combine flattens the predictions into one, filters duplicates, and
// computes the next-letter distribution relative to context (the current
// partial token). Returns the letter table and the merged prediction.
func (c *Combiner) Combine(predictions []entity.Prediction, context string) ([]LetterProb, entity.Prediction) {
	var flat entity.Prediction
	for _, p := range predictions {
		flat.AddAll(p)
	}
	return c.nextLetterProbabilities(flat, context), c.Filter(flat)
}

// nextLetterProbabilities tallies, per suggestion, the character that
// follows the context inside the candidate (its first character when the
// context is empty or not a prefix; always the first character for
// sentence-class suggestions). Spell-corrector suggestions are skipped. The
// tally is normalized by the number of contributing suggestions.
func (c *Combiner) nextLetterProbabilities(prediction entity.Prediction, context string) []LetterProb {
	lowerCtx := strings.ToLower(context)
	tally := make(map[rune]int)
	contributors := 0

	for _, s := range prediction.Suggestions() {
		category := c.categoryOf(s.Predictor)
		if category == entity.CategorySpell {
			continue
		}
		if s.Word == "" {
			continue
		}

		var letter rune
		switch category {
		case entity.CategorySentence, entity.CategoryCanned:
			letter = firstRune(s.Word)
		default:
			letter = divergentRune(s.Word, lowerCtx)
		}

		tally[toLowerRune(letter)]++
		contributors++
	}

	if contributors == 0 {
		return nil
	}

	out := make([]LetterProb, 0, len(tally))
	for letter, count := range tally {
		out = append(out, LetterProb{Letter: letter, Probability: float64(count) / float64(contributors)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Probability != out[j].Probability {
			return out[i].Probability > out[j].Probability
		}
		return out[i].Letter < out[j].Letter
	})
	return out
}

// divergentRune returns the character following the context within the
// word, or the word's first character when the context is empty, not a
// prefix, or consumes the whole word.
func divergentRune(word, lowerCtx string) rune {
	if lowerCtx != "" {
		lowerWord := strings.ToLower(word)
		if strings.HasPrefix(lowerWord, lowerCtx) && len(word) > len(lowerCtx) {
			r, _ := utf8.DecodeRuneInString(word[len(lowerCtx):])
			return r
		}
	}
	return firstRune(word)
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func toLowerRune(r rune) rune {
	return []rune(strings.ToLower(string(r)))[0]
}
