// Package canned suggests pre-authored or user-saved sentences, matching the
// context lexically (stemmed token overlap) and semantically (embedding
// nearest-neighbor search).
package canned

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/internal/ollama"
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/textutil"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

// Embeddings below this similarity are noise, not matches.
const semanticThreshold = 0.3

type Config struct {
	Name         string
	LearnEnabled bool
}

type Predictor struct {
	cfg     Config
	phrases *store.PhraseStore
	tracker *tracker.Tracker
	client  ollama.Client
	log     *log.Logger

	words entity.Prediction
}

// New builds the predictor. client may be nil: semantic search is then
// disabled and only direct matches are produced.
func New(cfg Config, phrases *store.PhraseStore, tr *tracker.Tracker, client ollama.Client, logger *log.Logger) *Predictor {
	return &Predictor{cfg: cfg, phrases: phrases, tracker: tr, client: client, log: logger}
}

func (p *Predictor) Name() string {
	return p.cfg.Name
}

func (p *Predictor) Category() entity.Category {
	return entity.CategoryCanned
}

// WordPrediction returns the secondary next-word output computed by the most
// recent Predict call: for each matched phrase, the word that follows the
// context's final matched token.
func (p *Predictor) WordPrediction() entity.Prediction {
	return p.words
}

type scoredPhrase struct {
	phrase  string
	matches int
	prob    float64
}

func (p *Predictor) Predict(max int) (entity.Prediction, error) {
	p.words = entity.Prediction{}
	var prediction entity.Prediction
	if max <= 0 {
		return prediction, nil
	}

	context := strings.TrimSpace(p.tracker.Context())
	if context == "" {
		return p.mostFrequent(max)
	}

	all, err := p.phrases.AllPhrases()
	if err != nil {
		return prediction, err
	}
	total := 0
	for _, pc := range all {
		total += pc.Count
	}
	if total == 0 {
		return prediction, nil
	}

	ctxTokens := textutil.Tokenize(strings.ToLower(context))
	ctxStems := textutil.StemSet(ctxTokens)

	var direct []scoredPhrase
	maxMatches := 0
	for _, pc := range all {
		matches := stemOverlap(pc.Phrase, ctxStems)
		if matches < 1 {
			continue
		}
		if matches > maxMatches {
			maxMatches = matches
		}
		direct = append(direct, scoredPhrase{
			phrase:  pc.Phrase,
			matches: matches,
			prob:    float64(pc.Count) / float64(total),
		})
	}
	sort.SliceStable(direct, func(i, j int) bool {
		if direct[i].matches != direct[j].matches {
			return direct[i].matches > direct[j].matches
		}
		if direct[i].prob != direct[j].prob {
			return direct[i].prob > direct[j].prob
		}
		return direct[i].phrase < direct[j].phrase
	})

	seen := make(map[string]struct{}, len(direct))
	for _, sp := range direct {
		// fold the match count and the occurrence probability into a single
		// bounded score that preserves (matches desc, probability desc) order
		score := (float64(sp.matches) + sp.prob) / (float64(maxMatches) + 1)
		prediction.Add(entity.ClampedSuggestion(sp.phrase, score, p.cfg.Name))
		seen[sp.phrase] = struct{}{}
		p.addWordFromPhrase(sp.phrase, ctxTokens, score)
	}

	// embeddings of one-token contexts are too unreliable to search with
	if p.client != nil && len(ctxTokens) >= 2 {
		if err := p.appendSemanticMatches(&prediction, context, ctxTokens, seen, maxMatches, max); err != nil {
			p.log.Warn("semantic phrase search failed", "predictor", p.cfg.Name, "err", err)
		}
	}

	return prediction.TopN(max), nil
}

func (p *Predictor) mostFrequent(max int) (entity.Prediction, error) {
	var prediction entity.Prediction
	phrases, err := p.phrases.MostFrequent(max)
	if err != nil {
		return prediction, err
	}
	total, err := p.phrases.TotalCount()
	if err != nil {
		return prediction, err
	}
	if total == 0 {
		return prediction, nil
	}
	for _, pc := range phrases {
		prediction.Add(entity.ClampedSuggestion(pc.Phrase, float64(pc.Count)/float64(total), p.cfg.Name))
	}
	return prediction, nil
}

func (p *Predictor) appendSemanticMatches(prediction *entity.Prediction, context string, ctxTokens []string, seen map[string]struct{}, maxMatches, max int) error {
	resp, err := p.client.Embed(context)
	if err != nil {
		return err
	}
	hits, err := p.phrases.SearchSimilar(resp.Embedding, max, semanticThreshold)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		if _, ok := seen[hit.Phrase]; ok {
			continue
		}
		seen[hit.Phrase] = struct{}{}
		// semantic hits rank strictly below every direct match: a cosine
		// similarity is at most 1, so dividing by maxMatches+2 lands under
		// the weakest direct score (matches+prob)/(maxMatches+1)
		score := hit.Score / (float64(maxMatches) + 2)
		prediction.Add(entity.ClampedSuggestion(hit.Phrase, score, p.cfg.Name))
		p.addWordFromPhrase(hit.Phrase, ctxTokens, score)
	}
	return nil
}

// addWordFromPhrase finds the context's final token inside the phrase and
// offers the word that follows it as a next-word candidate.
func (p *Predictor) addWordFromPhrase(phrase string, ctxTokens []string, score float64) {
	if len(ctxTokens) == 0 {
		return
	}
	last := ctxTokens[len(ctxTokens)-1]
	phraseTokens := textutil.Tokenize(strings.ToLower(phrase))
	for i, tok := range phraseTokens {
		if tok == last && i+1 < len(phraseTokens) {
			p.words.Add(entity.ClampedSuggestion(phraseTokens[i+1], score, p.cfg.Name))
			return
		}
	}
}

// Learn upserts the phrase; a phrase new to the store also gets its
// embedding appended to the index in the same operation.
func (p *Predictor) Learn(sentence string) error {
	if !p.cfg.LearnEnabled {
		return nil
	}
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil
	}
	_, err := p.phrases.AddPhrase(sentence, p.embedFunc())
	if err != nil {
		return fmt.Errorf("canned phrase learn failed: %w", err)
	}
	return nil
}

func (p *Predictor) embedFunc() store.EmbedFunc {
	if p.client == nil {
		return nil
	}
	return func(text string) ([]float32, error) {
		resp, err := p.client.Embed(text)
		if err != nil {
			return nil, err
		}
		return resp.Embedding, nil
	}
}

func stemOverlap(phrase string, ctxStems map[string]struct{}) int {
	matches := 0
	for stem := range textutil.StemSet(textutil.Tokenize(phrase)) {
		if _, ok := ctxStems[stem]; ok {
			matches++
		}
	}
	return matches
}
