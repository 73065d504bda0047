// Package sentence suggests full-sentence completions, combining retrieval
// over a reference corpus and the personal sentence store with generative
// top-up from a language model.
package sentence

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/internal/ollama"
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/textutil"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

// Generated completions whose stemmed content words overlap an accepted
// completion by at least this ratio are near-identical and dropped.
const duplicateOverlapRatio = 0.7

type Config struct {
	Name string
	// CorpusPath holds reference sentences, one per line; repeated lines
	// weight retrieval.
	CorpusPath string
	// OpenersPath holds the precomputed most frequent corpus-opening
	// sentences as "count<TAB>sentence" lines, served for empty contexts.
	OpenersPath   string
	BlacklistPath string
	AllowlistPath string
	// RetrievalOnly forces retrieval mode even when a generative model is
	// reachable.
	RetrievalOnly     bool
	GenerativeEnabled bool
	LearnEnabled      bool
}

type Predictor struct {
	cfg     Config
	phrases *store.PhraseStore
	tracker *tracker.Tracker
	client  ollama.Client
	log     *log.Logger

	corpus    map[string]int
	blacklist map[string]struct{}
	allowlist map[string]struct{}

	probeOnce   sync.Once
	modelLoaded bool
}

// New loads the corpus and word lists. Missing resource files are logged and
// disable the corresponding feature; construction never fails for them.
func New(cfg Config, phrases *store.PhraseStore, tr *tracker.Tracker, client ollama.Client, logger *log.Logger) *Predictor {
	p := &Predictor{
		cfg:       cfg,
		phrases:   phrases,
		tracker:   tr,
		client:    client,
		log:       logger,
		corpus:    make(map[string]int),
		blacklist: make(map[string]struct{}),
		allowlist: make(map[string]struct{}),
	}

	if cfg.CorpusPath != "" {
		if err := p.loadCorpus(cfg.CorpusPath); err != nil {
			logger.Error("failed to load sentence corpus", "predictor", cfg.Name, "err", err)
		}
	}
	if cfg.BlacklistPath != "" {
		if err := loadWordList(cfg.BlacklistPath, p.blacklist); err != nil {
			logger.Warn("failed to load blacklist", "predictor", cfg.Name, "err", err)
		}
	}
	if cfg.AllowlistPath != "" {
		if err := loadWordList(cfg.AllowlistPath, p.allowlist); err != nil {
			logger.Warn("failed to load allowlist", "predictor", cfg.Name, "err", err)
		}
	}
	return p
}

func (p *Predictor) Name() string {
	return p.cfg.Name
}

func (p *Predictor) Category() entity.Category {
	return entity.CategorySentence
}

func (p *Predictor) Predict(max int) (entity.Prediction, error) {
	var prediction entity.Prediction
	if max <= 0 {
		return prediction, nil
	}

	context := p.tracker.Context()
	if strings.TrimSpace(context) == "" {
		return p.openers(max)
	}

	prediction, err := p.retrieve(context, max)
	if err != nil {
		return prediction, err
	}

	if prediction.Len() < max && p.cfg.GenerativeEnabled && !p.cfg.RetrievalOnly && p.generativeReady() {
		if err := p.generate(context, max, &prediction); err != nil {
			p.log.Warn("generative completion failed", "predictor", p.cfg.Name, "err", err)
		}
	}
	return prediction.TopN(max), nil
}

// retrieve scans the corpus and the personal store for sentences starting
// with the context, strips the matched prefix, and aggregates
// occurrence-weighted probabilities over identical remainders.
func (p *Predictor) retrieve(context string, max int) (entity.Prediction, error) {
	var prediction entity.Prediction

	type match struct {
		remainder string
		count     int
	}
	var matches []match
	total := 0

	add := func(sentence string, count int) {
		if len(sentence) <= len(context) {
			return
		}
		// fold the same byte length on both sides; ToLower can change byte
		// counts and would mis-slice the remainder
		if !strings.EqualFold(sentence[:len(context)], context) {
			return
		}
		remainder := strings.TrimLeft(sentence[len(context):], " ")
		if remainder == "" {
			return
		}
		matches = append(matches, match{remainder: remainder, count: count})
		total += count
	}

	for sentence, count := range p.corpus {
		add(sentence, count)
	}
	if p.phrases != nil {
		personal, err := p.phrases.MatchingPrefix(context, max*4)
		if err != nil {
			return prediction, err
		}
		for _, pc := range personal {
			add(pc.Phrase, pc.Count)
		}
	}
	if total == 0 {
		return prediction, nil
	}

	// identical remainders collapse into one entry with summed weight
	weights := make(map[string]float64)
	for _, m := range matches {
		weights[m.remainder] += float64(m.count) / float64(total)
	}
	for remainder, prob := range weights {
		prediction.Add(entity.ClampedSuggestion(remainder, prob, p.cfg.Name))
	}
	return prediction, nil
}

// generate tops up the prediction with model completions: candidates are
// filtered for self-repetition and blacklisted terms, scored by semantic
// similarity times repeat count, deduplicated against accepted completions
// by stemmed overlap, and normalized to sum to 1.
func (p *Predictor) generate(context string, max int, prediction *entity.Prediction) error {
	need := max - prediction.Len()
	prompt := fmt.Sprintf(`You are a sentence completion engine for an AAC user.

Suggest %d different ways to finish the sentence below.
- One completion per line
- Each line must be the full sentence, starting exactly with the given text
- No numbering, quotes, or explanations

Text: %q
`, need*2, context)

	resp, err := p.client.Generate(prompt)
	if err != nil {
		return err
	}

	// repeat counts across the sampled candidates weight the score
	remainders := make(map[string]int)
	var order []string
	for _, line := range strings.Split(resp.Response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		remainder := line
		if len(line) >= len(context) && strings.EqualFold(line[:len(context)], context) {
			remainder = strings.TrimLeft(line[len(context):], " ")
		}
		if remainder == "" {
			continue
		}
		if _, ok := remainders[remainder]; !ok {
			order = append(order, remainder)
		}
		remainders[remainder]++
	}

	accepted := make([]string, 0, prediction.Len())
	for _, s := range prediction.Suggestions() {
		accepted = append(accepted, s.Word)
	}

	type scored struct {
		remainder string
		score     float64
	}
	var kept []scored
	var totalScore float64
	for _, remainder := range order {
		tokens := textutil.Tokenize(strings.ToLower(remainder))
		if hasSelfRepetition(tokens, 2) || hasSelfRepetition(tokens, 3) {
			continue
		}
		if p.hasBlockedTerm(tokens) {
			continue
		}
		if nearDuplicate(remainder, accepted) {
			continue
		}
		score := p.similarity(remainder) * float64(remainders[remainder])
		kept = append(kept, scored{remainder: remainder, score: score})
		accepted = append(accepted, remainder)
		totalScore += score
	}
	if totalScore == 0 {
		return nil
	}

	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })
	if len(kept) > need {
		kept = kept[:need]
	}
	for _, k := range kept {
		prediction.Add(entity.ClampedSuggestion(k.remainder, k.score/totalScore, p.cfg.Name))
	}
	return nil
}

// similarity is the best ANN score of the candidate against the stored
// sentence embeddings, defaulting to 1 when no index is available.
func (p *Predictor) similarity(remainder string) float64 {
	if p.client == nil || p.phrases == nil {
		return 1
	}
	resp, err := p.client.Embed(remainder)
	if err != nil {
		return 1
	}
	hits, err := p.phrases.SearchSimilar(resp.Embedding, 1, 0)
	if err != nil || len(hits) == 0 {
		return 1
	}
	if hits[0].Score < 0 {
		return 0
	}
	return hits[0].Score
}

func (p *Predictor) hasBlockedTerm(tokens []string) bool {
	for _, tok := range tokens {
		if _, blocked := p.blacklist[tok]; !blocked {
			continue
		}
		if _, allowed := p.allowlist[tok]; !allowed {
			return true
		}
	}
	return false
}

// openers serves an empty context from the precomputed most frequent
// corpus-opening sentences.
func (p *Predictor) openers(max int) (entity.Prediction, error) {
	var prediction entity.Prediction
	if p.cfg.OpenersPath == "" {
		return prediction, nil
	}
	f, err := os.Open(p.cfg.OpenersPath)
	if err != nil {
		p.log.Warn("failed to open corpus openers", "predictor", p.cfg.Name, "err", err)
		return prediction, nil
	}
	defer f.Close()

	type opener struct {
		sentence string
		count    int
	}
	var openers []opener
	total := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		parts := strings.SplitN(scanner.Text(), "\t", 2)
		if len(parts) != 2 {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil || count <= 0 {
			continue
		}
		openers = append(openers, opener{sentence: strings.TrimSpace(parts[1]), count: count})
		total += count
	}
	if err := scanner.Err(); err != nil {
		return prediction, err
	}
	for _, o := range openers {
		prediction.Add(entity.ClampedSuggestion(o.sentence, float64(o.count)/float64(total), p.cfg.Name))
	}
	return prediction.TopN(max), nil
}

// Learn upserts the sentence into the personal store (embedding appended for
// new sentences) and allowlists any blacklisted term the user actually
// typed: the user said it, so future generations containing it pass.
func (p *Predictor) Learn(sentence string) error {
	if !p.cfg.LearnEnabled || p.phrases == nil {
		return nil
	}
	sentence = strings.TrimSpace(sentence)
	if sentence == "" {
		return nil
	}

	if _, err := p.phrases.AddPhrase(sentence, p.embedFunc()); err != nil {
		return fmt.Errorf("sentence learn failed: %w", err)
	}

	for _, tok := range textutil.Tokenize(strings.ToLower(sentence)) {
		if _, blocked := p.blacklist[tok]; !blocked {
			continue
		}
		if _, allowed := p.allowlist[tok]; allowed {
			continue
		}
		p.allowlist[tok] = struct{}{}
		if p.cfg.AllowlistPath != "" {
			if err := appendLine(p.cfg.AllowlistPath, tok); err != nil {
				p.log.Warn("failed to persist allowlist entry", "predictor", p.cfg.Name, "term", tok, "err", err)
			}
		}
	}
	return nil
}

// generativeReady probes the model once; an unreachable model downgrades the
// predictor to retrieval-only for the rest of the session.
func (p *Predictor) generativeReady() bool {
	if p.client == nil {
		return false
	}
	p.probeOnce.Do(func() {
		if _, err := p.client.Generate("echo"); err != nil {
			p.log.Warn("generative model unavailable, staying retrieval-only",
				"predictor", p.cfg.Name, "err", err)
			return
		}
		p.modelLoaded = true
	})
	return p.modelLoaded
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

func (p *Predictor) loadCorpus(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			p.corpus[line]++
		}
	}
	return scanner.Err()
}

// hasSelfRepetition reports whether any n-gram occurs twice within the
// token stream.
func hasSelfRepetition(tokens []string, n int) bool {
	seen := make(map[string]struct{})
	for _, gram := range textutil.NGrams(n, tokens) {
		key := strings.Join(gram, " ")
		if _, ok := seen[key]; ok {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// nearDuplicate reports whether the candidate's stemmed token set overlaps
// any accepted completion's set by duplicateOverlapRatio or more.
func nearDuplicate(candidate string, accepted []string) bool {
	candSet := textutil.StemSet(textutil.Tokenize(candidate))
	if len(candSet) == 0 {
		return false
	}
	for _, other := range accepted {
		otherSet := textutil.StemSet(textutil.Tokenize(other))
		overlap := 0
		for stem := range candSet {
			if _, ok := otherSet[stem]; ok {
				overlap++
			}
		}
		if float64(overlap)/float64(len(candSet)) >= duplicateOverlapRatio {
			return true
		}
	}
	return false
}

func loadWordList(path string, into map[string]struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word != "" {
			into[word] = struct{}{}
		}
	}
	return scanner.Err()
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}
