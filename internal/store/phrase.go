package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// EmbeddingDim is the width of stored embedding vectors.
const EmbeddingDim = 768

// EmbedFunc produces a dense vector for a piece of text. A nil EmbedFunc
// disables semantic indexing for the operation.
type EmbedFunc func(text string) ([]float32, error)

// PhraseCount is one stored phrase and its occurrence count.
type PhraseCount struct {
	Phrase string
	Count  int
}

// SimilarPhrase is a semantic search hit: cosine distance converted to a
// similarity score in [0, 1].
type SimilarPhrase struct {
	Phrase string
	Score  float64
}

// PhraseStore keeps a phrase→count table and, alongside it, one embedding
// row per phrase under a libsql vector index. The pair is mutated through
// AddPhrase only, so the phrase set and the index stay synchronized; a crash
// between the two writes is repaired by Backfill at construction time.
type PhraseStore struct {
	db *sql.DB
}

// NewPhraseStore prepares the phrase and embedding tables.
func NewPhraseStore(db *sql.DB) (*PhraseStore, error) {
	if db == nil {
		return nil, ErrNotOpen
	}
	schema := []string{
		`CREATE TABLE IF NOT EXISTS phrases (
			sentence TEXT PRIMARY KEY,
			count    INTEGER NOT NULL DEFAULT 1
		);`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS embeddings (
			id   INTEGER PRIMARY KEY AUTOINCREMENT,
			text TEXT NOT NULL UNIQUE,
			emb  F32_BLOB(%d)
		);`, EmbeddingDim),
		`CREATE INDEX IF NOT EXISTS embeddings_idx ON embeddings(libsql_vector_idx(emb));`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to run phrase migration: %w", err)
		}
	}
	return &PhraseStore{db: db}, nil
}

// AddPhrase upserts the phrase (insert at count 1 or increment) and, when the
// phrase is new and embed is non-nil, appends its embedding to the index.
// Reports whether the phrase was newly inserted.
func (s *PhraseStore) AddPhrase(phrase string, embed EmbedFunc) (bool, error) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return false, nil
	}

	var existing int
	err := s.db.QueryRow(`SELECT count FROM phrases WHERE sentence = ?`, phrase).Scan(&existing)
	isNew := err == sql.ErrNoRows
	if err != nil && !isNew {
		return false, fmt.Errorf("phrase lookup failed: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO phrases (sentence, count) VALUES (?, 1)
		ON CONFLICT(sentence) DO UPDATE SET count = count + 1
	`, phrase)
	if err != nil {
		return false, fmt.Errorf("phrase upsert failed: %w", err)
	}

	if isNew && embed != nil {
		vec, err := embed(phrase)
		if err != nil {
			return true, fmt.Errorf("failed to embed phrase: %w", err)
		}
		if err := s.SaveEmbedding(phrase, vec); err != nil {
			return true, err
		}
	}
	return isNew, nil
}

// MostFrequent returns up to n phrases by occurrence count descending.
func (s *PhraseStore) MostFrequent(n int) ([]PhraseCount, error) {
	rows, err := s.db.Query(`
		SELECT sentence, count FROM phrases
		ORDER BY count DESC, sentence ASC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("phrase frequency query failed: %w", err)
	}
	defer rows.Close()
	return scanPhrases(rows)
}

// MatchingPrefix returns phrases whose lowercase form starts with the
// lowercase prefix, by count descending.
func (s *PhraseStore) MatchingPrefix(prefix string, limit int) ([]PhraseCount, error) {
	rows, err := s.db.Query(`
		SELECT sentence, count FROM phrases
		WHERE LOWER(sentence) LIKE LOWER(?) ESCAPE '\'
		ORDER BY count DESC, sentence ASC
		LIMIT ?
	`, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("phrase prefix query failed: %w", err)
	}
	defer rows.Close()
	return scanPhrases(rows)
}

// AllPhrases returns every stored phrase with its count.
func (s *PhraseStore) AllPhrases() ([]PhraseCount, error) {
	rows, err := s.db.Query(`SELECT sentence, count FROM phrases`)
	if err != nil {
		return nil, fmt.Errorf("phrase scan failed: %w", err)
	}
	defer rows.Close()
	return scanPhrases(rows)
}

// TotalCount returns the sum of all phrase counts.
func (s *PhraseStore) TotalCount() (int, error) {
	var total int
	if err := s.db.QueryRow(`SELECT COALESCE(SUM(count), 0) FROM phrases`).Scan(&total); err != nil {
		return 0, fmt.Errorf("phrase total query failed: %w", err)
	}
	return total, nil
}

// SaveEmbedding stores the vector for text, replacing any previous one.
func (s *PhraseStore) SaveEmbedding(text string, vec []float32) error {
	vecJSON, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO embeddings (text, emb) VALUES (?, vector32(?))
		ON CONFLICT(text) DO UPDATE SET emb = excluded.emb
	`, text, string(vecJSON))
	if err != nil {
		return fmt.Errorf("failed to insert embedding: %w", err)
	}
	return nil
}

// HasEmbedding reports whether text already has a stored vector.
func (s *PhraseStore) HasEmbedding(text string) bool {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM embeddings WHERE text = ?`, text).Scan(&count); err != nil {
		return false
	}
	return count > 0
}

// SearchSimilar runs an approximate nearest-neighbor query against the
// vector index and returns phrases scoring at or above threshold.
func (s *PhraseStore) SearchSimilar(vec []float32, topK int, threshold float64) ([]SimilarPhrase, error) {
	vecJSON, err := json.Marshal(vec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal input vector: %w", err)
	}

	rows, err := s.db.Query(`
WITH q AS (SELECT vector32(?) v)
SELECT e.text, 1 - vector_distance_cos(e.emb, q.v) AS score
FROM   q
JOIN   vector_top_k('embeddings_idx', (SELECT v FROM q), ?) AS t
JOIN   embeddings e ON e.rowid = t.id
ORDER BY score DESC;`, string(vecJSON), topK)
	if err != nil {
		return nil, fmt.Errorf("vector search failed: %w", err)
	}
	defer rows.Close()

	var out []SimilarPhrase
	for rows.Next() {
		var hit SimilarPhrase
		if err := rows.Scan(&hit.Phrase, &hit.Score); err != nil {
			continue
		}
		if hit.Score >= threshold {
			out = append(out, hit)
		}
	}
	return out, rows.Err()
}

// Backfill embeds any phrase missing from the embeddings table. Run at
// construction to repair a crash between the phrase upsert and the
// embedding insert.
func (s *PhraseStore) Backfill(embed EmbedFunc) error {
	if embed == nil {
		return nil
	}
	rows, err := s.db.Query(`
		SELECT p.sentence FROM phrases p
		LEFT JOIN embeddings e ON e.text = p.sentence
		WHERE e.id IS NULL
	`)
	if err != nil {
		return fmt.Errorf("backfill scan failed: %w", err)
	}
	defer rows.Close()

	var missing []string
	for rows.Next() {
		var phrase string
		if err := rows.Scan(&phrase); err != nil {
			continue
		}
		missing = append(missing, phrase)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, phrase := range missing {
		vec, err := embed(phrase)
		if err != nil {
			return fmt.Errorf("failed to embed %q during backfill: %w", phrase, err)
		}
		if err := s.SaveEmbedding(phrase, vec); err != nil {
			return err
		}
	}
	return nil
}

func scanPhrases(rows *sql.Rows) ([]PhraseCount, error) {
	var out []PhraseCount
	for rows.Next() {
		var pc PhraseCount
		if err := rows.Scan(&pc.Phrase, &pc.Count); err != nil {
			continue
		}
		out = append(out, pc)
	}
	return out, rows.Err()
}
