package predictor

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/wordwisp/wordwisp/internal/config"
	"github.com/wordwisp/wordwisp/internal/ollama"
	"github.com/wordwisp/wordwisp/internal/predictor/canned"
	"github.com/wordwisp/wordwisp/internal/predictor/entity"
	"github.com/wordwisp/wordwisp/internal/predictor/ngram"
	"github.com/wordwisp/wordwisp/internal/predictor/sentence"
	"github.com/wordwisp/wordwisp/internal/predictor/spell"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/textutil"
	"github.com/wordwisp/wordwisp/internal/tracker"
)

// Deps carries the shared resources every predictor instance may draw on.
// Client may be nil: predictors that need a language model degrade to their
// retrieval paths.
type Deps struct {
	Tracker *tracker.Tracker
	Client  ollama.Client
	Log     *log.Logger
}

// Assemble builds the configured predictor set. Predictor sections sharing a
// database path share one connection; the returned close function releases
// all of them.
func Assemble(cfg *config.Config, deps Deps) (*Registry, func() error, error) {
	registry := NewRegistry()
	dbs := make(map[string]*sql.DB)
	closeAll := func() error {
		var firstErr error
		for _, db := range dbs {
			if err := db.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	openDB := func(path string) (*sql.DB, error) {
		if db, ok := dbs[path]; ok {
			return db, nil
		}
		db, err := store.Open(path)
		if err != nil {
			return nil, err
		}
		dbs[path] = db
		return db, nil
	}

	names := make([]string, 0, len(cfg.Predictors))
	for name := range cfg.Predictors {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		section := cfg.Predictors[name]
		built, err := buildOne(name, section, cfg, deps, openDB)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("predictor %q: %w", name, err)
		}
		registry.Add(built)
	}
	return registry, closeAll, nil
}

func buildOne(name string, section config.Section, cfg *config.Config, deps Deps, openDB func(string) (*sql.DB, error)) (entity.Predictor, error) {
	switch section.Class {
	case config.ClassSmoothedNgram:
		deltas, err := section.DeltaValues()
		if err != nil {
			return nil, err
		}
		db, err := openDB(cfg.DatabaseFor(section))
		if err != nil {
			return nil, err
		}
		st, err := store.NewNgramStore(db, len(deltas))
		if err != nil {
			return nil, err
		}
		var stopwords textutil.StopwordSet
		if section.Stopwords != "" {
			stopwords, err = textutil.LoadStopwords(section.Stopwords)
			if err != nil {
				return nil, err
			}
		}
		return ngram.New(ngram.Config{
			Name:                name,
			Deltas:              deltas,
			LearnEnabled:        section.Learn,
			ExtractContentWords: section.ExtractContentWords,
			DatasetPath:         section.AACDataset,
			StartWordsPath:      section.StartWords,
			Stopwords:           stopwords,
		}, st, deps.Tracker, deps.Log)

	case config.ClassSentenceCompletion:
		db, err := openDB(cfg.DatabaseFor(section))
		if err != nil {
			return nil, err
		}
		phrases, err := store.NewPhraseStore(db)
		if err != nil {
			return nil, err
		}
		return sentence.New(sentence.Config{
			Name:              name,
			CorpusPath:        section.Corpus,
			OpenersPath:       section.Openers,
			BlacklistPath:     section.Blacklist,
			AllowlistPath:     section.Allowlist,
			RetrievalOnly:     section.RetrievalOnly,
			GenerativeEnabled: section.Generative,
			LearnEnabled:      section.Learn,
		}, phrases, deps.Tracker, deps.Client, deps.Log), nil

	case config.ClassCannedPhrases:
		db, err := openDB(cfg.DatabaseFor(section))
		if err != nil {
			return nil, err
		}
		phrases, err := store.NewPhraseStore(db)
		if err != nil {
			return nil, err
		}
		return canned.New(canned.Config{
			Name:         name,
			LearnEnabled: section.Learn,
		}, phrases, deps.Tracker, deps.Client, deps.Log), nil

	case config.ClassSpellCorrect:
		return spell.New(spell.Config{
			Name:           name,
			DictionaryPath: section.Dictionary,
		}, deps.Tracker, deps.Log), nil
	}
	return nil, fmt.Errorf("unknown class %q", section.Class)
}
