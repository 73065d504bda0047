package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggestionRoundTrip(t *testing.T) {
	s, err := NewSuggestion("x", 0.42, "p")
	require.NoError(t, err)
	assert.Equal(t, 0.42, s.Probability())
	assert.Equal(t, "x", s.Word)
	assert.Equal(t, "p", s.Predictor)
}

func TestSuggestionRejectsOutOfRange(t *testing.T) {
	_, err := NewSuggestion("x", 1.5, "p")
	assert.Error(t, err)

	_, err = NewSuggestion("x", -0.1, "p")
	assert.Error(t, err)

	s, err := NewSuggestion("x", 0.5, "p")
	require.NoError(t, err)
	assert.Error(t, s.SetProbability(1.5))
	assert.Error(t, s.SetProbability(-0.1))
	// failed set leaves the value untouched
	assert.Equal(t, 0.5, s.Probability())
}

func TestClampedSuggestion(t *testing.T) {
	s := ClampedSuggestion("x", 1.7, "p")
	assert.Equal(t, MaxProbability, s.Probability())
	s = ClampedSuggestion("x", -3, "p")
	assert.Equal(t, MinProbability, s.Probability())
}

func TestPredictionOrdering(t *testing.T) {
	var p Prediction
	for _, c := range []struct {
		word string
		prob float64
	}{
		{"banana", 0.2},
		{"apple", 0.9},
		{"cherry", 0.2},
		{"almond", 0.2},
	} {
		s, err := NewSuggestion(c.word, c.prob, "t")
		require.NoError(t, err)
		p.Add(s)
	}

	words := make([]string, 0, p.Len())
	for _, s := range p.Suggestions() {
		words = append(words, s.Word)
	}
	// probability descending, lexicographic within ties
	assert.Equal(t, []string{"apple", "almond", "banana", "cherry"}, words)

	top := p.TopN(2)
	assert.Equal(t, 2, top.Len())
	assert.Equal(t, "apple", top.At(0).Word)
}
