package store

import (
	"testing"
)

func setupNgramStore(t *testing.T, cardinality int) *NgramStore {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	s, err := NewNgramStore(db, cardinality)
	if err != nil {
		t.Fatalf("failed to create ngram store: %v", err)
	}
	return s
}

func learnNgrams(t *testing.T, s *NgramStore, tokens []string) {
	t.Helper()
	for k := 1; k <= s.Cardinality(); k++ {
		for i := 0; i+k <= len(tokens); i++ {
			if err := s.Upsert(tokens[i : i+k]); err != nil {
				t.Fatalf("upsert failed: %v", err)
			}
		}
	}
}

func TestUpsertInsertsThenIncrements(t *testing.T) {
	s := setupNgramStore(t, 3)

	tokens := []string{"a", "few", "days"}
	learnNgrams(t, s, tokens)

	for _, ng := range [][]string{{"a"}, {"a", "few"}, {"a", "few", "days"}} {
		count, err := s.Count(ng)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 1 {
			t.Errorf("count(%v) = %d, want 1", ng, count)
		}
	}

	learnNgrams(t, s, tokens)

	for _, ng := range [][]string{{"a"}, {"few", "days"}, {"a", "few", "days"}} {
		count, err := s.Count(ng)
		if err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if count != 2 {
			t.Errorf("count(%v) after relearn = %d, want 2", ng, count)
		}
	}
}

func TestMatchPrefix(t *testing.T) {
	s := setupNgramStore(t, 3)
	learnNgrams(t, s, []string{"a", "few", "days"})
	learnNgrams(t, s, []string{"a", "few", "days"})
	learnNgrams(t, s, []string{"a", "few", "minutes"})

	rows, err := s.MatchPrefix([]string{"a", "few", ""}, 10)
	if err != nil {
		t.Fatalf("MatchPrefix failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 completions, got %v", rows)
	}
	if rows[0].Word != "days" || rows[0].Count != 2 {
		t.Errorf("top completion = %+v, want days/2", rows[0])
	}
	if rows[1].Word != "minutes" || rows[1].Count != 1 {
		t.Errorf("second completion = %+v, want minutes/1", rows[1])
	}

	rows, err = s.MatchPrefix([]string{"a", "few", "m"}, 10)
	if err != nil {
		t.Fatalf("MatchPrefix failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Word != "minutes" {
		t.Errorf("partial-token match = %v, want minutes only", rows)
	}
}

func TestMatchPrefixEscapesWildcards(t *testing.T) {
	s := setupNgramStore(t, 2)
	learnNgrams(t, s, []string{"say", "100%"})
	learnNgrams(t, s, []string{"say", "hello"})

	rows, err := s.MatchPrefix([]string{"say", "100%"}, 10)
	if err != nil {
		t.Fatalf("MatchPrefix failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Word != "100%" {
		t.Errorf("escaped match = %v, want exactly 100%%", rows)
	}
}

func TestTotalUnigrams(t *testing.T) {
	s := setupNgramStore(t, 2)
	learnNgrams(t, s, []string{"hello", "there"})
	learnNgrams(t, s, []string{"hello", "world"})

	total, err := s.TotalUnigrams()
	if err != nil {
		t.Fatalf("TotalUnigrams failed: %v", err)
	}
	if total != 4 {
		t.Errorf("total = %d, want 4", total)
	}
}

func TestCountMissingNgramIsZero(t *testing.T) {
	s := setupNgramStore(t, 2)
	count, err := s.Count([]string{"never", "seen"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}
