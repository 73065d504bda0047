package entity

import "sort"

// Prediction is an ordered collection of suggestions, kept sorted by
// probability descending with lexicographic tie-break for deterministic
// output. Duplicate words are allowed here; deduplication across predictors
// is the combiner's job.
type Prediction struct {
	suggestions []Suggestion
}

// Add inserts a suggestion and re-sorts.
func (p *Prediction) Add(s Suggestion) {
	p.suggestions = append(p.suggestions, s)
	sort.SliceStable(p.suggestions, func(i, j int) bool {
		if p.suggestions[i].probability != p.suggestions[j].probability {
			return p.suggestions[i].probability > p.suggestions[j].probability
		}
		return p.suggestions[i].Word < p.suggestions[j].Word
	})
}

// AddAll inserts every suggestion from another prediction.
func (p *Prediction) AddAll(other Prediction) {
	for _, s := range other.suggestions {
		p.Add(s)
	}
}

// Len returns the number of suggestions.
func (p Prediction) Len() int {
	return len(p.suggestions)
}

// At returns the i-th suggestion in rank order.
func (p Prediction) At(i int) Suggestion {
	return p.suggestions[i]
}

// Suggestions returns the ranked suggestions.
func (p Prediction) Suggestions() []Suggestion {
	out := make([]Suggestion, len(p.suggestions))
	copy(out, p.suggestions)
	return out
}

// TopN returns a prediction holding at most the n best suggestions.
func (p Prediction) TopN(n int) Prediction {
	if n < 0 || n > len(p.suggestions) {
		n = len(p.suggestions)
	}
	out := make([]Suggestion, n)
	copy(out, p.suggestions[:n])
	return Prediction{suggestions: out}
}
