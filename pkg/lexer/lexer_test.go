package lexer

import (
	"strings"
	"testing"

	"github.com/nitrolang/nitro/pkg/span"
	"github.com/nitrolang/nitro/pkg/token"
)

func tokenize(t *testing.T, src string) []token.Token {
	t.Helper()
	l := New(span.NewSource("t.nt", src))
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("unexpected lex error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return out
}

func TestBasicPunctuation(t *testing.T) {
	toks := tokenize(t, "! = == != * . , : ; ( ) { }")
	want := []token.Kind{
		token.Bang, token.Eq, token.EqEq, token.NotEq, token.Star, token.Dot,
		token.Comma, token.Colon, token.Semi, token.LParen, token.RParen,
		token.LBrace, token.RBrace, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestKeywordsAndIdentifiers(t *testing.T) {
	toks := tokenize(t, "struct Foo impl fn self let if is asm null use myVar")
	if toks[0].Kind != token.Keyword || toks[0].Text != "struct" {
		t.Fatalf("expected keyword struct, got %v", toks[0])
	}
	if toks[1].Kind != token.Identifier || toks[1].Text != "Foo" {
		t.Fatalf("expected identifier Foo, got %v", toks[1])
	}
	if toks[len(toks)-2].Kind != token.Identifier {
		t.Fatalf("expected trailing identifier, got %v", toks[len(toks)-2])
	}
}

func TestAttribute(t *testing.T) {
	toks := tokenize(t, "@pub @if(os)")
	if toks[0].Kind != token.Attribute || toks[0].Text != "pub" {
		t.Fatalf("expected attribute pub, got %v", toks[0])
	}
	if toks[1].Kind != token.Attribute || toks[1].Text != "if" {
		t.Fatalf("expected attribute if, got %v", toks[1])
	}
}

func TestEmptyAttributeIsError(t *testing.T) {
	l := New(span.NewSource("t.nt", "@ "))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error for empty attribute name")
	}
}

func TestStringLiteral(t *testing.T) {
	toks := tokenize(t, `"hello world"`)
	if toks[0].Kind != token.StringLit || toks[0].Text != "hello world" {
		t.Fatalf("got %v", toks[0])
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	l := New(span.NewSource("t.nt", `"hello`))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error for unterminated string")
	}
}

func TestStringNewlineIsError(t *testing.T) {
	l := New(span.NewSource("t.nt", "\"hello\nworld\""))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error for newline inside string literal")
	}
}

func TestNumberLiterals(t *testing.T) {
	toks := tokenize(t, "42 3.14")
	if toks[0].Kind != token.UIntLit || toks[0].Text != "42" {
		t.Fatalf("got %v", toks[0])
	}
	if toks[1].Kind != token.FloatLit || toks[1].Text != "3.14" {
		t.Fatalf("got %v", toks[1])
	}
}

// TestUndoReplaysToken checks property 2 from spec §8: next() then undo()
// then next() returns an equal token.
func TestUndoReplaysToken(t *testing.T) {
	l := New(span.NewSource("t.nt", "foo bar"))
	first, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	l.Undo()
	replay, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if replay.Kind != first.Kind || replay.Span != first.Span {
		t.Fatalf("undo did not replay identical token: %v vs %v", first, replay)
	}
	second, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if second.Text != "bar" {
		t.Fatalf("expected bar after replay, got %v", second)
	}
}

func TestSpansReconstructSource(t *testing.T) {
	src := "struct Foo ;"
	toks := tokenize(t, src)
	var rebuilt strings.Builder
	prevEnd := 0
	for _, tok := range toks {
		if tok.Kind == token.EOF {
			continue
		}
		if tok.Span.Text() != tok.Text && tok.Kind != token.Attribute {
			t.Errorf("span text %q != token text %q", tok.Span.Text(), tok.Text)
		}
		gap := src[prevEnd:tok.Span.Begin]
		if strings.TrimSpace(gap) != "" {
			t.Errorf("non-whitespace %q between token spans", gap)
		}
		rebuilt.WriteString(gap)
		rebuilt.WriteString(tok.Span.Text())
		prevEnd = tok.Span.End
	}
	rebuilt.WriteString(src[prevEnd:])
	if rebuilt.String() != src {
		t.Errorf("spans plus whitespace rebuilt %q, want %q", rebuilt.String(), src)
	}
}
