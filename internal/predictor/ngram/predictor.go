// Package ngram implements next-word prediction over a backoff-smoothed
// n-gram language model. The general, canned-words, and personalized word
// predictors are all instances of this package with different configuration.
package ngram

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/textutil"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

// Config binds a predictor instance to its configuration section.
type Config struct {
	Name string
	// Deltas weight each n-gram order in the smoothed sum; cardinality is
	// len(Deltas). The weights are used as given and are not required to
	// sum to 1.
	Deltas       []float64
	LearnEnabled bool
	// ExtractContentWords restricts learning to stop-word-filtered content
	// tokens (the canned-words variant).
	ExtractContentWords bool
	// DatasetPath marks the designated general-word predictor: with a
	// completely empty context it answers from the dataset's most frequent
	// sentence-starting words instead of the n-gram tables.
	DatasetPath    string
	StartWordsPath string
	Stopwords      textutil.StopwordSet
}

// Cardinality is the highest n-gram order, always equal to len(Deltas).
func (c Config) Cardinality() int {
	return len(c.Deltas)
}

type Predictor struct {
	cfg     Config
	store   *store.NgramStore
	tracker *tracker.Tracker
	log     *log.Logger

	startWords entity.Prediction
	startReady bool
}

func New(cfg Config, st *store.NgramStore, tr *tracker.Tracker, logger *log.Logger) (*Predictor, error) {
	if len(cfg.Deltas) == 0 {
		return nil, fmt.Errorf("ngram predictor %s: no deltas configured", cfg.Name)
	}
	if st == nil {
		return nil, store.ErrNotOpen
	}
	if st.Cardinality() != cfg.Cardinality() {
		return nil, fmt.Errorf("ngram predictor %s: store cardinality %d does not match %d deltas",
			cfg.Name, st.Cardinality(), len(cfg.Deltas))
	}
	return &Predictor{cfg: cfg, store: st, tracker: tr, log: logger}, nil
}

func (p *Predictor) Name() string {
	return p.cfg.Name
}

func (p *Predictor) Category() entity.Category {
	return entity.CategoryWord
}

// Predict scores candidate next-words for the current context. Candidates
// are gathered longest-prefix-first: the most specific context is trusted
// first, shorter contexts only fill remaining slots.
func (p *Predictor) Predict(max int) (entity.Prediction, error) {
	var prediction entity.Prediction
	if max <= 0 {
		return prediction, nil
	}

	if p.tracker.Context() == "" && p.cfg.DatasetPath != "" {
		return p.startWordPrediction(max)
	}

	n, tokens := p.tracker.GetTokens(p.cfg.Cardinality())
	if n == 0 {
		tokens = []string{""}
	}

	candidates := p.collectCandidates(tokens, max)
	if len(candidates) == 0 {
		return prediction, nil
	}

	total, err := p.store.TotalUnigrams()
	if err != nil {
		return prediction, err
	}
	if total == 0 {
		return prediction, nil
	}

	completed := tokens[:len(tokens)-1]
	for _, word := range candidates {
		prob, err := p.smoothedProbability(word, completed, total)
		if err != nil {
			return entity.Prediction{}, err
		}
		prediction.Add(entity.ClampedSuggestion(word, prob, p.cfg.Name))
	}
	return prediction.TopN(max), nil
}

// collectCandidates queries each n-gram order from the highest down,
// skipping words already collected and pure-punctuation entries.
func (p *Predictor) collectCandidates(tokens []string, max int) []string {
	var candidates []string
	seen := make(map[string]struct{})

	for k := len(tokens); k >= 1; k-- {
		need := max - len(candidates)
		if need <= 0 {
			break
		}
		ngram := tokens[len(tokens)-k:]
		rows, err := p.store.MatchPrefix(ngram, need)
		if err != nil {
			p.log.Warn("ngram prefix query failed", "predictor", p.cfg.Name, "order", k, "err", err)
			continue
		}
		for _, row := range rows {
			if _, ok := seen[row.Word]; ok {
				continue
			}
			if textutil.IsPunctuation(row.Word) {
				continue
			}
			seen[row.Word] = struct{}{}
			candidates = append(candidates, row.Word)
		}
	}
	return candidates
}

// smoothedProbability is the delta-weighted sum over all orders: each
// order's maximum-likelihood estimate count(history+word)/count(history),
// with the unigram total as the denominator floor.
func (p *Predictor) smoothedProbability(word string, completed []string, total int) (float64, error) {
	var prob float64
	for k := 1; k <= p.cfg.Cardinality(); k++ {
		if k-1 > len(completed) {
			break
		}
		history := completed[len(completed)-(k-1):]
		ngram := append(append([]string{}, history...), word)

		num, err := p.store.Count(ngram)
		if err != nil {
			return 0, err
		}
		if num == 0 {
			continue
		}

		den := total
		if k > 1 {
			den, err = p.store.Count(history)
			if err != nil {
				return 0, err
			}
			if den <= 0 {
				den = total
			}
		}
		prob += p.cfg.Deltas[k-1] * float64(num) / float64(den)
	}
	return prob, nil
}

// Learn absorbs one sentence: punctuation stripped, lowercased, optionally
// reduced to content words, then every n-gram of every order is upserted.
func (p *Predictor) Learn(sentence string) error {
	if !p.cfg.LearnEnabled {
		return nil
	}

	cleaned := strings.ToLower(textutil.StripPunctuation(sentence))
	tokens := textutil.Tokenize(cleaned)
	if p.cfg.ExtractContentWords {
		tokens = textutil.ContentWords(tokens, p.cfg.Stopwords)
	}
	if len(tokens) == 0 {
		return nil
	}

	for k := 1; k <= p.cfg.Cardinality(); k++ {
		for _, ngram := range textutil.NGrams(k, tokens) {
			if err := p.store.Upsert(ngram); err != nil {
				return fmt.Errorf("learn failed for %s: %w", p.cfg.Name, err)
			}
		}
	}
	return nil
}
