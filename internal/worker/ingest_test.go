package worker_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/wordwisp/wordwisp/internal/logger"
	"github.com/wordwisp/wordwisp/internal/store"
	"github.com/wordwisp/wordwisp/internal/worker"
)

type recordingLearner struct {
	mu    sync.Mutex
	texts []string
}

func (r *recordingLearner) Learn(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func writeCorpus(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "corpus.txt")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunLearnsNonEmptyLines(t *testing.T) {
	path := writeCorpus(t, "I am hungry\n\n  \nI want water\n")
	learner := &recordingLearner{}

	ingestor := worker.New(learner, nil, nil, logger.New("test"), 2)
	n, err := ingestor.Run(path)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 learned lines, got %d", n)
	}
	if len(learner.texts) != 2 || learner.texts[0] != "I am hungry" || learner.texts[1] != "I want water" {
		t.Fatalf("unexpected learned texts: %v", learner.texts)
	}
}

func TestRunMissingFile(t *testing.T) {
	ingestor := worker.New(&recordingLearner{}, nil, nil, logger.New("test"), 1)
	if _, err := ingestor.Run(filepath.Join(t.TempDir(), "nope.txt")); err == nil {
		t.Fatal("expected error for missing corpus file")
	}
}

func TestWarmEmbeddingsFillsMissingVectors(t *testing.T) {
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	phrases, err := store.NewPhraseStore(db)
	if err != nil {
		t.Fatal(err)
	}
	for _, phrase := range []string{"I am hungry", "I want water"} {
		if _, err := phrases.AddPhrase(phrase, nil); err != nil {
			t.Fatal(err)
		}
	}

	var mu sync.Mutex
	embedded := 0
	embed := func(text string) ([]float32, error) {
		mu.Lock()
		embedded++
		mu.Unlock()
		vec := make([]float32, store.EmbeddingDim)
		vec[0] = 1
		return vec, nil
	}

	path := writeCorpus(t, "I am tired\n")
	learner := &recordingLearner{}
	ingestor := worker.New(learner, phrases, embed, logger.New("test"), 2)
	if _, err := ingestor.Run(path); err != nil {
		t.Fatal(err)
	}

	if embedded != 2 {
		t.Fatalf("expected 2 embeddings, got %d", embedded)
	}
	for _, phrase := range []string{"I am hungry", "I want water"} {
		if !phrases.HasEmbedding(phrase) {
			t.Fatalf("phrase %q missing embedding after warmup", phrase)
		}
	}
}
