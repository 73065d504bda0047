package ngram

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/textutil"
)

// startWordPrediction answers an empty context with the dataset's most
// frequent sentence-starting words. The distribution is computed from one
// dataset scan on first use and persisted as a flat "word probability" file
// so later sessions skip the scan.
func (p *Predictor) startWordPrediction(max int) (entity.Prediction, error) {
	if !p.startReady {
		if err := p.loadStartWords(); err != nil {
			return entity.Prediction{}, err
		}
		p.startReady = true
	}
	return p.startWords.TopN(max), nil
}

func (p *Predictor) loadStartWords() error {
	if p.cfg.StartWordsPath != "" {
		if loaded, err := p.readStartWordsFile(p.cfg.StartWordsPath); err == nil {
			p.startWords = loaded
			return nil
		}
	}

	dist, err := scanStartWords(p.cfg.DatasetPath)
	if err != nil {
		return fmt.Errorf("start-word scan of %s failed: %w", p.cfg.DatasetPath, err)
	}

	var prediction entity.Prediction
	for word, prob := range dist {
		prediction.Add(entity.ClampedSuggestion(word, prob, p.cfg.Name))
	}
	p.startWords = prediction

	if p.cfg.StartWordsPath != "" {
		if err := writeStartWordsFile(p.cfg.StartWordsPath, dist); err != nil {
			p.log.Warn("failed to persist start words", "predictor", p.cfg.Name, "err", err)
		}
	}
	return nil
}

func (p *Predictor) readStartWordsFile(path string) (entity.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return entity.Prediction{}, err
	}
	defer f.Close()

	var prediction entity.Prediction
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		prob, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		prediction.Add(entity.ClampedSuggestion(fields[0], prob, p.cfg.Name))
	}
	if err := scanner.Err(); err != nil {
		return entity.Prediction{}, err
	}
	return prediction, nil
}

// scanStartWords tallies the first token of every dataset line and converts
// counts to probabilities over the lines that had one.
func scanStartWords(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	counts := make(map[string]int)
	total := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		tokens := textutil.Tokenize(strings.ToLower(scanner.Text()))
		if len(tokens) == 0 {
			continue
		}
		counts[tokens[0]]++
		total++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	dist := make(map[string]float64, len(counts))
	for word, count := range counts {
		dist[word] = float64(count) / float64(total)
	}
	return dist, nil
}

func writeStartWordsFile(path string, dist map[string]float64) error {
	words := make([]string, 0, len(dist))
	for word := range dist {
		words = append(words, word)
	}
	sort.Slice(words, func(i, j int) bool {
		if dist[words[i]] != dist[words[j]] {
			return dist[words[i]] > dist[words[j]]
		}
		return words[i] < words[j]
	})

	var b strings.Builder
	for _, word := range words {
		fmt.Fprintf(&b, "%s %g\n", word, dist[word])
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
