package tracker

import (
	"reflect"
	"testing"
)

func TestSetContextTokenizes(t *testing.T) {
	tr := New()
	tr.SetContext("a few d")
	if got := tr.Tokens(); !reflect.DeepEqual(got, []string{"a", "few", "d"}) {
		t.Errorf("tokens = %v", got)
	}

	tr.SetContext("a few ")
	if got := tr.Tokens(); !reflect.DeepEqual(got, []string{"a", "few", ""}) {
		t.Errorf("trailing-space tokens = %v", got)
	}

	tr.SetContext("")
	if got := tr.Tokens(); len(got) != 0 {
		t.Errorf("empty context tokens = %v", got)
	}
}

func TestTokenIndexesFromEnd(t *testing.T) {
	tr := New()
	tr.SetContext("hello there wor")
	if got := tr.Token(0); got != "wor" {
		t.Errorf("Token(0) = %q", got)
	}
	if got := tr.Token(2); got != "hello" {
		t.Errorf("Token(2) = %q", got)
	}
	if got := tr.Token(3); got != "" {
		t.Errorf("out-of-range Token(3) = %q", got)
	}
	if got := tr.Token(-1); got != "" {
		t.Errorf("Token(-1) = %q", got)
	}
}

func TestGetTokens(t *testing.T) {
	tr := New()
	tr.SetContext("one two three")
	n, toks := tr.GetTokens(2)
	if n != 2 || !reflect.DeepEqual(toks, []string{"two", "three"}) {
		t.Errorf("GetTokens(2) = %d, %v", n, toks)
	}
	n, toks = tr.GetTokens(10)
	if n != 3 || !reflect.DeepEqual(toks, []string{"one", "two", "three"}) {
		t.Errorf("GetTokens(10) = %d, %v", n, toks)
	}
}

func TestLastToken(t *testing.T) {
	tr := New()
	tr.SetContext("hello there ")
	if got := tr.LastToken(); got != "there" {
		t.Errorf("LastToken = %q, want %q", got, "there")
	}
	tr.SetContext("   ")
	if got := tr.LastToken(); got != "" {
		t.Errorf("LastToken on blank context = %q", got)
	}
}
