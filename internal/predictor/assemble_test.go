package predictor_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordwisp/wordwisp/internal/config"
	"github.com/wordwisp/wordwisp/internal/logger"
	"github.com/wordwisp/wordwisp/internal/predictor"
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

func testDeps(t *testing.T) predictor.Deps {
	t.Helper()
	return predictor.Deps{
		Tracker: tracker.New(),
		Log:     logger.New("test"),
	}
}

func TestAssembleBuildsConfiguredSet(t *testing.T) {
	cfg := config.Default()
	cfg.Common.Database = ":memory:"
	cfg.Predictors = map[string]config.Section{
		"general_word": {Class: config.ClassSmoothedNgram, Deltas: "0.01 0.1 0.89", Learn: true},
		"sentences":    {Class: config.ClassSentenceCompletion, RetrievalOnly: true},
		"canned":       {Class: config.ClassCannedPhrases},
		"spelling":     {Class: config.ClassSpellCorrect},
	}

	registry, closeAll, err := predictor.Assemble(cfg, testDeps(t))
	require.NoError(t, err)
	defer closeAll()

	preds := registry.Predictors()
	require.Len(t, preds, 4)

	// registration order is the sorted section-name order
	names := make([]string, len(preds))
	for i, p := range preds {
		names[i] = p.Name()
	}
	assert.Equal(t, []string{"canned", "general_word", "sentences", "spelling"}, names)

	assert.Equal(t, entity.CategoryCanned, registry.CategoryOf("canned"))
	assert.Equal(t, entity.CategoryWord, registry.CategoryOf("general_word"))
	assert.Equal(t, entity.CategorySentence, registry.CategoryOf("sentences"))
	assert.Equal(t, entity.CategorySpell, registry.CategoryOf("spelling"))
}

func TestAssembleGeneralWordStartWords(t *testing.T) {
	dir := t.TempDir()
	dataset := filepath.Join(dir, "aac.txt")
	require.NoError(t, os.WriteFile(dataset, []byte("hello world\nhello there\n"), 0o644))

	cfg := config.Default()
	cfg.Common.Database = ":memory:"
	cfg.Predictors = map[string]config.Section{
		"general_word": {
			Class:      config.ClassSmoothedNgram,
			Deltas:     "0.01 0.1 0.89",
			AACDataset: dataset,
			StartWords: filepath.Join(dir, "start_words.txt"),
		},
	}

	deps := testDeps(t)
	registry, closeAll, err := predictor.Assemble(cfg, deps)
	require.NoError(t, err)
	defer closeAll()

	deps.Tracker.SetContext("")
	preds := registry.Predictors()
	require.Len(t, preds, 1)

	prediction, err := preds[0].Predict(10)
	require.NoError(t, err)
	require.Equal(t, 1, prediction.Len())
	assert.Equal(t, "hello", prediction.At(0).Word)
	assert.InDelta(t, 1.0, prediction.At(0).Probability(), 1e-9)
}

func TestAssembleRejectsBadDeltas(t *testing.T) {
	cfg := config.Default()
	cfg.Common.Database = ":memory:"
	cfg.Predictors = map[string]config.Section{
		"words": {Class: config.ClassSmoothedNgram, Deltas: "0.1 nonsense"},
	}

	_, _, err := predictor.Assemble(cfg, testDeps(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `predictor "words"`)
}

func TestAssembleSharesDatabaseAcrossSections(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Common.Database = filepath.Join(dir, "shared.db")
	cfg.Predictors = map[string]config.Section{
		"canned":    {Class: config.ClassCannedPhrases, Learn: true},
		"sentences": {Class: config.ClassSentenceCompletion, RetrievalOnly: true, Learn: true},
	}

	deps := testDeps(t)
	registry, closeAll, err := predictor.Assemble(cfg, deps)
	require.NoError(t, err)
	defer closeAll()

	var canned, sentences entity.Predictor
	for _, p := range registry.Predictors() {
		switch p.Name() {
		case "canned":
			canned = p
		case "sentences":
			sentences = p
		}
	}
	require.NotNil(t, canned)
	require.NotNil(t, sentences)

	// a phrase learned through one predictor is visible to the other: both
	// sections resolve to the same store
	require.NoError(t, canned.Learn("I am hungry"))

	deps.Tracker.SetContext("I am ")
	prediction, err := sentences.Predict(10)
	require.NoError(t, err)
	require.Equal(t, 1, prediction.Len())
	assert.Equal(t, "hungry", prediction.At(0).Word)
}
