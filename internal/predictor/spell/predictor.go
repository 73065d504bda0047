// Package spell corrects the most recent token against a frequency-weighted
// dictionary, ranking candidates by Damerau-Levenshtein distance.
package spell

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

type Config struct {
	Name           string
	DictionaryPath string
}

type Predictor struct {
	cfg     Config
	tracker *tracker.Tracker
	log     *log.Logger

	words []string
	freqs map[string]int
	total int
}

// New loads the dictionary eagerly. A missing dictionary disables the
// predictor (it stays registered and predicts nothing) rather than failing
// construction.
func New(cfg Config, tr *tracker.Tracker, logger *log.Logger) *Predictor {
	p := &Predictor{cfg: cfg, tracker: tr, log: logger, freqs: make(map[string]int)}
	if cfg.DictionaryPath == "" {
		logger.Warn("spell predictor has no dictionary configured", "predictor", cfg.Name)
		return p
	}
	if err := p.loadDictionary(cfg.DictionaryPath); err != nil {
		logger.Error("failed to load spelling dictionary", "predictor", cfg.Name, "err", err)
	}
	return p
}

func (p *Predictor) Name() string {
	return p.cfg.Name
}

func (p *Predictor) Category() entity.Category {
	return entity.CategorySpell
}

// Predict corrects the most recent token. A known word is suggested as-is;
// otherwise dictionary words at edit distance 1 are offered, then distance 2,
// then the literal token when nothing matches. Probabilities are
// corpus-relative frequencies.
func (p *Predictor) Predict(max int) (entity.Prediction, error) {
	var prediction entity.Prediction
	token := strings.ToLower(p.tracker.LastToken())
	if token == "" || len(p.words) == 0 || max <= 0 {
		return prediction, nil
	}

	if _, known := p.freqs[token]; known {
		prediction.Add(entity.ClampedSuggestion(token, p.frequency(token), p.cfg.Name))
		return prediction, nil
	}

	candidates := p.withinDistance(token, 1)
	if len(candidates) == 0 {
		candidates = p.withinDistance(token, 2)
	}
	if len(candidates) == 0 {
		// nothing close enough at any distance; offer the literal token at
		// its corpus frequency, zero for a word the dictionary never saw
		prediction.Add(entity.ClampedSuggestion(token, p.frequency(token), p.cfg.Name))
		return prediction, nil
	}

	for _, word := range candidates {
		prediction.Add(entity.ClampedSuggestion(word, p.frequency(word), p.cfg.Name))
	}
	return prediction.TopN(max), nil
}

// Learn is deliberately a no-op: spelling corrections are not absorbed into
// the language model.
func (p *Predictor) Learn(string) error {
	return nil
}

func (p *Predictor) withinDistance(token string, distance int) []string {
	var out []string
	for _, word := range p.words {
		if matchr.DamerauLevenshtein(token, word) <= distance {
			out = append(out, word)
		}
	}
	return out
}

func (p *Predictor) frequency(word string) float64 {
	if p.total == 0 {
		return 0
	}
	return float64(p.freqs[word]) / float64(p.total)
}

// loadDictionary reads "word count" lines; a bare word defaults to count 1.
func (p *Predictor) loadDictionary(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open dictionary: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		word := strings.ToLower(fields[0])
		count := 1
		if len(fields) > 1 {
			if n, err := strconv.Atoi(fields[1]); err == nil && n > 0 {
				count = n
			}
		}
		if _, dup := p.freqs[word]; !dup {
			p.words = append(p.words, word)
		}
		p.freqs[word] += count
		p.total += count
	}
	return scanner.Err()
}
