// Package activator orchestrates the predictor ensemble: one synchronous
// pass per Predict call, with per-predictor failures isolated to that
// predictor's contribution.
package activator

import (
	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/internal/predictor"
	"github.com/wordwisp/wordwisp/internal/predictor/combiner"
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/textutil"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

// Response is the structured prediction output: next-letter probability
// tables and ranked suggestion lists, separately for words and sentences.
type Response struct {
	NextLetterProbabilities         []combiner.LetterProb
	WordPredictions                 entity.Prediction
	SentenceNextLetterProbabilities []combiner.LetterProb
	SentencePredictions             entity.Prediction
}

type Activator struct {
	registry *predictor.Registry
	tracker  *tracker.Tracker
	combiner *combiner.Combiner
	log      *log.Logger

	maxPartial int
	multiplier int
}

func New(registry *predictor.Registry, tr *tracker.Tracker, logger *log.Logger, maxPartial, multiplier int) *Activator {
	if maxPartial <= 0 {
		maxPartial = 10
	}
	if multiplier <= 0 {
		multiplier = 1
	}
	return &Activator{
		registry:   registry,
		tracker:    tr,
		combiner:   combiner.New(registry.CategoryOf),
		log:        logger,
		maxPartial: maxPartial,
		multiplier: multiplier,
	}
}

// Predict runs every registered predictor against the current context and
// merges the results. A predictor error is logged and counted as an empty
// contribution; it never aborts the pass.
func (a *Activator) Predict() Response {
	context := a.tracker.LastToken()
	budget := a.maxPartial * a.multiplier

	var wordBucket, sentenceBucket, spellBucket []entity.Prediction
	var resp Response

	for _, pred := range a.registry.Predictors() {
		prediction, err := pred.Predict(budget)
		if err != nil {
			a.log.Error("predictor failed, skipping its contribution",
				"predictor", pred.Name(), "err", err)
			continue
		}

		switch pred.Category() {
		case entity.CategorySentence:
			sentenceBucket = append(sentenceBucket, prediction)
			resp.SentenceNextLetterProbabilities, resp.SentencePredictions =
				a.combiner.Combine(sentenceBucket, context)

		case entity.CategoryCanned:
			sentenceBucket = append(sentenceBucket, prediction)
			resp.SentenceNextLetterProbabilities, resp.SentencePredictions =
				a.combiner.Combine(sentenceBucket, context)
			if wc, ok := pred.(entity.WordContributor); ok {
				if words := wc.WordPrediction(); words.Len() > 0 {
					wordBucket = append(wordBucket, words)
					resp.NextLetterProbabilities, resp.WordPredictions =
						a.combiner.Combine(wordBucket, context)
				}
			}

		case entity.CategorySpell:
			spellBucket = append(spellBucket, prediction)

		default:
			wordBucket = append(wordBucket, prediction)
			resp.NextLetterProbabilities, resp.WordPredictions =
				a.combiner.Combine(wordBucket, context)
		}
	}

	// spelling corrections only surface when no word predictor produced
	// anything
	if resp.WordPredictions.Len() == 0 && len(spellBucket) > 0 {
		resp.NextLetterProbabilities, resp.WordPredictions =
			a.combiner.Combine(spellBucket, context)
	}

	resp.WordPredictions = resp.WordPredictions.TopN(a.maxPartial)
	resp.SentencePredictions = resp.SentencePredictions.TopN(a.maxPartial)
	return resp
}

// Learn splits the text into sentences and relays each to every predictor.
// Per-predictor failures are logged and skipped.
func (a *Activator) Learn(text string) {
	for _, sentence := range textutil.SplitSentences(text) {
		for _, pred := range a.registry.Predictors() {
			if err := pred.Learn(sentence); err != nil {
				a.log.Error("predictor learn failed",
					"predictor", pred.Name(), "err", err)
			}
		}
	}
}
