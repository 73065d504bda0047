// Package tracker maintains the text buffer the predictors read their
// context from.
package tracker

import (
	"strings"
	"unicode"

	"github.com/wordwisp/wordwisp/internal/textutil"
)

// Tracker owns the current context string and its token stream. Setting the
// context retokenizes synchronously; there is no caching between calls.
// A Tracker is not safe for concurrent mutation — callers serialize
// prediction and learning against one predictor set.
type Tracker struct {
	context string
	tokens  []string
}

func New() *Tracker {
	return &Tracker{}
}

// SetContext replaces the buffer and recomputes the token stream. When the
// context ends in whitespace an explicit empty token is appended: the user
// is between words and the current token is "".
func (t *Tracker) SetContext(context string) {
	t.context = context
	t.tokens = textutil.Tokenize(context)
	if context != "" && endsInSpace(context) {
		t.tokens = append(t.tokens, "")
	}
}

// Context returns the full text so far.
func (t *Tracker) Context() string {
	return t.context
}

// Tokens returns the token stream in original order.
func (t *Tracker) Tokens() []string {
	return t.tokens
}

// Token indexes from the end of the stream: Token(0) is the current token.
// Out-of-range indexes yield "".
func (t *Tracker) Token(i int) string {
	if i < 0 || i >= len(t.tokens) {
		return ""
	}
	return t.tokens[len(t.tokens)-1-i]
}

// GetTokens returns the last n tokens in original order, along with how many
// were actually available.
func (t *Tracker) GetTokens(n int) (int, []string) {
	if n > len(t.tokens) {
		n = len(t.tokens)
	}
	if n <= 0 {
		return 0, nil
	}
	out := make([]string, n)
	copy(out, t.tokens[len(t.tokens)-n:])
	return n, out
}

// LastToken returns the most recent non-empty token, or "" when the buffer
// holds none.
func (t *Tracker) LastToken() string {
	for i := len(t.tokens) - 1; i >= 0; i-- {
		if t.tokens[i] != "" {
			return t.tokens[i]
		}
	}
	return ""
}

func endsInSpace(s string) bool {
	trimmed := strings.TrimRightFunc(s, unicode.IsSpace)
	return len(trimmed) < len(s)
}
