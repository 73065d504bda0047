// Package entity holds the value types shared by every predictor: scored
// suggestions, sorted predictions, and the predictor capability interface.
package entity

import "fmt"

// Probability bounds for a single suggestion.
const (
	MinProbability = 0.0
	MaxProbability = 1.0
)

// Suggestion is one scored candidate (a word or a full sentence) tagged with
// the predictor that produced it. The probability is validated on
// construction and mutation; only the combiner is allowed to clamp instead,
// since merged sums can legitimately exceed 1.0 before capping.
type Suggestion struct {
	Word        string
	Predictor   string
	probability float64
}

// NewSuggestion builds a validated suggestion. A probability outside
// [MinProbability, MaxProbability] is a programming error and is rejected.
func NewSuggestion(word string, probability float64, predictor string) (Suggestion, error) {
	s := Suggestion{Word: word, Predictor: predictor}
	if err := s.SetProbability(probability); err != nil {
		return Suggestion{}, err
	}
	return s, nil
}

// Probability returns the suggestion's score.
func (s Suggestion) Probability() float64 {
	return s.probability
}

// SetProbability replaces the score, rejecting out-of-range values.
func (s *Suggestion) SetProbability(p float64) error {
	if p < MinProbability || p > MaxProbability {
		return fmt.Errorf("suggestion probability %v outside [%v, %v]", p, MinProbability, MaxProbability)
	}
	s.probability = p
	return nil
}

// clampProbability saturates p into the valid range. Reserved for merge
// paths where summed probabilities may overflow the upper bound.
func clampProbability(p float64) float64 {
	if p > MaxProbability {
		return MaxProbability
	}
	if p < MinProbability {
		return MinProbability
	}
	return p
}

// ClampedSuggestion builds a suggestion, saturating the probability instead
// of rejecting it.
func ClampedSuggestion(word string, probability float64, predictor string) Suggestion {
	return Suggestion{Word: word, Predictor: predictor, probability: clampProbability(probability)}
}

// Equal reports whether the two suggestions carry the same word and
// probability.
func (s Suggestion) Equal(o Suggestion) bool {
	return s.Word == o.Word && s.probability == o.probability
}
