package store

import (
	"database/sql"
	"fmt"
	"strings"
)

// WordCount is one completion row: the final word of an n-gram and its
// occurrence count.
type WordCount struct {
	Word  string
	Count int
}

// NgramStore maps, per cardinality k, ordered k-tuples of tokens to
// occurrence counts. One table per cardinality: ngram_k with columns
// word_{k-1}..word_0 and a count, unique over the word columns. The
// cardinality-1 table additionally serves the fast sum-of-all-counts
// aggregate used as the smoothing denominator floor.
type NgramStore struct {
	db          *sql.DB
	cardinality int
}

// NewNgramStore prepares the tables for cardinalities 1..cardinality.
func NewNgramStore(db *sql.DB, cardinality int) (*NgramStore, error) {
	if db == nil {
		return nil, ErrNotOpen
	}
	if cardinality < 1 {
		return nil, fmt.Errorf("ngram store: invalid cardinality %d", cardinality)
	}
	s := &NgramStore{db: db, cardinality: cardinality}
	for k := 1; k <= cardinality; k++ {
		cols := ngramColumns(k)
		stmt := fmt.Sprintf(
			`CREATE TABLE IF NOT EXISTS %s (%s TEXT NOT NULL, count INTEGER NOT NULL DEFAULT 1, UNIQUE(%s));`,
			ngramTable(k),
			strings.Join(cols, " TEXT NOT NULL, "),
			strings.Join(cols, ", "),
		)
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", ngramTable(k), err)
		}
	}
	return s, nil
}

// Cardinality returns the highest n-gram order the store holds.
func (s *NgramStore) Cardinality() int {
	return s.cardinality
}

// MatchPrefix finds n-grams whose leading words match ngram exactly and
// whose final word starts with the last element of ngram, ordered by count
// descending. A limit <= 0 means unlimited.
func (s *NgramStore) MatchPrefix(ngram []string, limit int) ([]WordCount, error) {
	k := len(ngram)
	if k < 1 || k > s.cardinality {
		return nil, fmt.Errorf("ngram store: prefix length %d out of range", k)
	}

	cols := ngramColumns(k)
	var conds []string
	var args []any
	for i := 0; i < k-1; i++ {
		conds = append(conds, cols[i]+" = ?")
		args = append(args, ngram[i])
	}
	conds = append(conds, `word_0 LIKE ? ESCAPE '\'`)
	args = append(args, escapeLike(ngram[k-1])+"%")

	query := fmt.Sprintf(
		`SELECT word_0, count FROM %s WHERE %s ORDER BY count DESC, word_0 ASC`,
		ngramTable(k), strings.Join(conds, " AND "),
	)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("ngram prefix query failed: %w", err)
	}
	defer rows.Close()

	var out []WordCount
	for rows.Next() {
		var wc WordCount
		if err := rows.Scan(&wc.Word, &wc.Count); err != nil {
			continue
		}
		out = append(out, wc)
	}
	return out, rows.Err()
}

// Count returns the stored occurrence count of the exact n-gram, 0 when
// absent.
func (s *NgramStore) Count(ngram []string) (int, error) {
	k := len(ngram)
	if k < 1 || k > s.cardinality {
		return 0, fmt.Errorf("ngram store: ngram length %d out of range", k)
	}

	cols := ngramColumns(k)
	conds := make([]string, k)
	args := make([]any, k)
	for i := 0; i < k; i++ {
		conds[i] = cols[i] + " = ?"
		args[i] = ngram[i]
	}

	var count int
	err := s.db.QueryRow(
		fmt.Sprintf(`SELECT count FROM %s WHERE %s`, ngramTable(k), strings.Join(conds, " AND ")),
		args...,
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("ngram count query failed: %w", err)
	}
	return count, nil
}

// TotalUnigrams returns the sum of all cardinality-1 counts.
func (s *NgramStore) TotalUnigrams() (int, error) {
	var total int
	err := s.db.QueryRow(`SELECT COALESCE(SUM(count), 0) FROM ngram_1`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("unigram total query failed: %w", err)
	}
	return total, nil
}

// Upsert inserts the n-gram at count 1, or increments it when present. The
// single statement makes each write atomic: two upserts of the same n-gram
// in one learn pass produce count 2, never a lost update.
func (s *NgramStore) Upsert(ngram []string) error {
	k := len(ngram)
	if k < 1 || k > s.cardinality {
		return fmt.Errorf("ngram store: ngram length %d out of range", k)
	}

	cols := ngramColumns(k)
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", k), ", ")
	args := make([]any, k)
	for i, w := range ngram {
		args[i] = w
	}

	stmt := fmt.Sprintf(
		`INSERT INTO %s (%s, count) VALUES (%s, 1)
		 ON CONFLICT(%s) DO UPDATE SET count = count + 1`,
		ngramTable(k), strings.Join(cols, ", "), placeholders, strings.Join(cols, ", "),
	)
	if _, err := s.db.Exec(stmt, args...); err != nil {
		return fmt.Errorf("ngram upsert failed: %w", err)
	}
	return nil
}

func ngramTable(k int) string {
	return fmt.Sprintf("ngram_%d", k)
}

// ngramColumns returns word_{k-1}..word_0: word_0 is the most recent word.
func ngramColumns(k int) []string {
	cols := make([]string, k)
	for i := 0; i < k; i++ {
		cols[i] = fmt.Sprintf("word_%d", k-1-i)
	}
	return cols
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
