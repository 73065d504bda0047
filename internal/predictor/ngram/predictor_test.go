package ngram_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordwisp/wordwisp/internal/logger"
	"github.com/wordwisp/wordwisp/internal/predictor/ngram"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/textutil"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

func newPredictor(t *testing.T, cfg ngram.Config, tr *tracker.Tracker) *ngram.Predictor {
	t.Helper()
	db, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := store.NewNgramStore(db, cfg.Cardinality())
	require.NoError(t, err)

	p, err := ngram.New(cfg, st, tr, logger.New("test"))
	require.NoError(t, err)
	return p
}

func TestLearnThenPredictBackoff(t *testing.T) {
	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:         "general",
		Deltas:       []float64{0.01, 0.1, 0.89},
		LearnEnabled: true,
	}, tr)

	require.NoError(t, p.Learn("a few days"))
	require.NoError(t, p.Learn("a few days"))
	require.NoError(t, p.Learn("a few minutes"))

	tr.SetContext("a few ")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, prediction.Len(), 2)

	assert.Equal(t, "days", prediction.At(0).Word, "trigram count 2 must outrank count 1")
	assert.Equal(t, "minutes", prediction.At(1).Word)
	assert.Greater(t, prediction.At(0).Probability(), prediction.At(1).Probability())
}

func TestPredictPartialToken(t *testing.T) {
	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:         "general",
		Deltas:       []float64{0.01, 0.1, 0.89},
		LearnEnabled: true,
	}, tr)

	require.NoError(t, p.Learn("a few days"))
	require.NoError(t, p.Learn("a few minutes"))

	tr.SetContext("a few m")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	require.Equal(t, 1, prediction.Len())
	assert.Equal(t, "minutes", prediction.At(0).Word)
}

func TestLearnIsIdempotentPerInvocation(t *testing.T) {
	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:         "personalized",
		Deltas:       []float64{0.2, 0.8},
		LearnEnabled: true,
	}, tr)

	// learning a phrase with an internal repeat must count both occurrences
	require.NoError(t, p.Learn("no no"))

	tr.SetContext("no n")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	require.Equal(t, 1, prediction.Len())
	assert.Equal(t, "no", prediction.At(0).Word)
}

func TestLearnDisabled(t *testing.T) {
	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:   "general",
		Deltas: []float64{0.5, 0.5},
	}, tr)

	require.NoError(t, p.Learn("hello world"))

	tr.SetContext("hello ")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	assert.Equal(t, 0, prediction.Len())
}

func TestContentWordLearning(t *testing.T) {
	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:                "cannedword",
		Deltas:              []float64{0.3, 0.7},
		LearnEnabled:        true,
		ExtractContentWords: true,
		Stopwords:           textutil.StopwordSet{"the": {}, "to": {}, "a": {}},
	}, tr)

	require.NoError(t, p.Learn("the dog runs to the park"))

	// stop words never reach the model
	tr.SetContext("t")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	for _, s := range prediction.Suggestions() {
		assert.NotEqual(t, "the", s.Word)
		assert.NotEqual(t, "to", s.Word)
	}

	tr.SetContext("dog ")
	prediction, err = p.Predict(10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, prediction.Len(), 1)
	assert.Equal(t, "runs", prediction.At(0).Word)
}

func TestEmptyContextUsesStartWords(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "aac_dataset.txt")
	require.NoError(t, os.WriteFile(dataset, []byte("hello world\nhello there\n"), 0644))

	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:           "general",
		Deltas:         []float64{0.01, 0.1, 0.89},
		DatasetPath:    dataset,
		StartWordsPath: filepath.Join(dir, "start_words.txt"),
	}, tr)

	tr.SetContext("")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	require.Equal(t, 1, prediction.Len())
	assert.Equal(t, "hello", prediction.At(0).Word)
	assert.InDelta(t, 1.0, prediction.At(0).Probability(), 1e-9)

	// scan result was persisted for the next session
	_, err = os.Stat(filepath.Join(dir, "start_words.txt"))
	assert.NoError(t, err)
}

func TestPunctuationOnlyCandidatesDiscarded(t *testing.T) {
	tr := tracker.New()
	p := newPredictor(t, ngram.Config{
		Name:         "general",
		Deltas:       []float64{1.0},
		LearnEnabled: true,
	}, tr)

	require.NoError(t, p.Learn("hello world"))

	tr.SetContext("hello ")
	prediction, err := p.Predict(10)
	require.NoError(t, err)
	for _, s := range prediction.Suggestions() {
		assert.False(t, len(s.Word) > 0 && textutilIsPunct(s.Word), "punctuation candidate leaked: %q", s.Word)
	}
}

func textutilIsPunct(s string) bool {
	return textutil.IsPunctuation(s)
}
