// Package worker implements bulk corpus ingest: feeding a text file through
// the learning pipeline and warming phrase embeddings in parallel.
package worker

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/wordwisp/wordwisp/internal/store"
)

const defaultWorkers = 4

// Learner is the learning surface the ingestor drives, one text block at a
// time.
type Learner interface {
	Learn(text string)
}

// Ingestor streams a corpus file into the learner. Learning is sequential,
// the predictors share a context tracker; embedding warmup afterwards runs
// with bounded parallelism.
type Ingestor struct {
	learner Learner
	phrases *store.PhraseStore
	embed   store.EmbedFunc
	log     *log.Logger
	workers int
}

// New builds an ingestor. Phrases and embed may be nil; the warmup pass is
// skipped then.
func New(learner Learner, phrases *store.PhraseStore, embed store.EmbedFunc, logger *log.Logger, workers int) *Ingestor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Ingestor{learner: learner, phrases: phrases, embed: embed, log: logger, workers: workers}
}

// Run ingests the file at path line by line and returns the number of lines
// learned.
func (i *Ingestor) Run(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open corpus %s: %w", path, err)
	}
	defer f.Close()

	learned := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		i.learner.Learn(line)
		learned++
		if learned%1000 == 0 {
			i.log.Info("ingest progress", "lines", learned)
		}
	}
	if err := scanner.Err(); err != nil {
		return learned, fmt.Errorf("read corpus %s: %w", path, err)
	}

	if err := i.warmEmbeddings(); err != nil {
		i.log.Warn("embedding warmup incomplete", "err", err)
	}
	return learned, nil
}

// warmEmbeddings embeds every stored phrase that has no vector yet. Failures
// abort the pass; the next run picks up where this one stopped.
func (i *Ingestor) warmEmbeddings() error {
	if i.phrases == nil || i.embed == nil {
		return nil
	}
	all, err := i.phrases.AllPhrases()
	if err != nil {
		return err
	}

	var g errgroup.Group
	g.SetLimit(i.workers)
	for _, pc := range all {
		phrase := pc.Phrase
		if i.phrases.HasEmbedding(phrase) {
			continue
		}
		g.Go(func() error {
			vec, err := i.embed(phrase)
			if err != nil {
				return fmt.Errorf("embed %q: %w", phrase, err)
			}
			return i.phrases.SaveEmbedding(phrase, vec)
		})
	}
	return g.Wait()
}
