package textutil

import (
	"bufio"
	"os"
	"strings"
)

// StopwordSet is a lowercase stop-word lookup table.
type StopwordSet map[string]struct{}

// Contains reports whether the lowercase token is a stop word.
func (s StopwordSet) Contains(tok string) bool {
	if s == nil {
		return false
	}
	_, ok := s[tok]
	return ok
}

// LoadStopwords reads a one-word-per-line stop-word file. Blank lines and
// lines starting with '#' are skipped.
func LoadStopwords(path string) (StopwordSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	set := make(StopwordSet)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		set[word] = struct{}{}
	}
	return set, scanner.Err()
}
