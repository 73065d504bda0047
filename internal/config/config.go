// Package config loads the TOML configuration: one [common] table plus a
// [predictor.<name>] table per predictor instance.
package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Predictor class names accepted in the "class" key.
const (
	ClassSmoothedNgram      = "SmoothedNgramPredictor"
	ClassSentenceCompletion = "SentenceCompletionPredictor"
	ClassCannedPhrases      = "CannedPhrasesPredictor"
	ClassSpellCorrect       = "SpellCorrectPredictor"
)

// Common holds settings shared by every predictor. A predictor section may
// override database and suggestion sizing per instance.
type Common struct {
	Database                 string `toml:"database"`
	MaxPartialPredictionSize int    `toml:"max_partial_prediction_size"`
	PredictionSizeMultiplier int    `toml:"prediction_size_multiplier"`

	OllamaURL      string `toml:"ollama_url"`
	OllamaModel    string `toml:"ollama_model"`
	EmbeddingModel string `toml:"embedding_model"`

	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`
}

// Section configures one predictor instance. Which keys matter depends on
// the class; unknown keys for a class are ignored.
type Section struct {
	Class string `toml:"class"`
	Learn bool   `toml:"learn"`

	Database string `toml:"database"`
	Deltas   string `toml:"deltas"`

	AACDataset          string `toml:"aac_dataset"`
	StartWords          string `toml:"start_words"`
	Stopwords           string `toml:"stopwords"`
	ExtractContentWords bool   `toml:"extract_content_words"`

	Corpus        string `toml:"corpus"`
	Openers       string `toml:"openers"`
	Blacklist     string `toml:"blacklist"`
	Allowlist     string `toml:"allowlist"`
	RetrievalOnly bool   `toml:"retrieval_only"`
	Generative    bool   `toml:"generative"`

	Dictionary string `toml:"dictionary"`
}

type Config struct {
	Common     Common             `toml:"common"`
	Predictors map[string]Section `toml:"predictor"`
}

// Default returns the built-in configuration: sensible common values and no
// predictors.
func Default() *Config {
	return &Config{
		Common: Common{
			Database:                 "wordwisp.db",
			MaxPartialPredictionSize: 10,
			PredictionSizeMultiplier: 1,
			OllamaURL:                "http://localhost:11434",
			OllamaModel:              "llama3",
			EmbeddingModel:           "nomic-embed-text",
			LogLevel:                 "info",
		},
		Predictors: map[string]Section{},
	}
}

// Load reads a TOML file over the defaults. Predictor sections must name a
// known class.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if cfg.Common.MaxPartialPredictionSize <= 0 {
		cfg.Common.MaxPartialPredictionSize = 10
	}
	if cfg.Common.PredictionSizeMultiplier <= 0 {
		cfg.Common.PredictionSizeMultiplier = 1
	}
	for name, section := range cfg.Predictors {
		switch section.Class {
		case ClassSmoothedNgram, ClassSentenceCompletion, ClassCannedPhrases, ClassSpellCorrect:
		case "":
			return nil, fmt.Errorf("predictor %q: missing class", name)
		default:
			return nil, fmt.Errorf("predictor %q: unknown class %q", name, section.Class)
		}
	}
	return cfg, nil
}

// DatabaseFor resolves the database path for a section, falling back to the
// common one.
func (c *Config) DatabaseFor(s Section) string {
	if s.Database != "" {
		return s.Database
	}
	return c.Common.Database
}

// DeltaValues parses the space-separated backoff coefficients. The number of
// deltas fixes the n-gram cardinality.
func (s Section) DeltaValues() ([]float64, error) {
	fields := strings.Fields(s.Deltas)
	if len(fields) == 0 {
		return nil, fmt.Errorf("deltas: empty")
	}
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("deltas: bad value %q: %w", f, err)
		}
		if v < 0 {
			return nil, fmt.Errorf("deltas: negative value %q", f)
		}
		out[i] = v
	}
	return out, nil
}
