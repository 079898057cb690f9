package span

import (
	"strings"
	"testing"
)

func TestNewRejectsEmptyRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for empty range")
		}
	}()
	src := NewSource("t", "abc")
	New(src, 1, 1)
}

func TestNewRejectsNewlineStart(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for newline start")
		}
	}()
	src := NewSource("t", "a\nb")
	New(src, 1, 2)
}

func TestUnionRequiresSameSource(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for cross-source union")
		}
	}()
	a := NewSource("a", "hello")
	b := NewSource("b", "world")
	New(a, 0, 2).Union(New(b, 0, 2))
}

func TestUnionCoversBoth(t *testing.T) {
	src := NewSource("t", "hello world")
	s1 := New(src, 0, 5)
	s2 := New(src, 6, 11)
	u := s1.Union(s2)
	if u.Begin != 0 || u.End != 11 {
		t.Fatalf("expected [0,11), got [%d,%d)", u.Begin, u.End)
	}
}

func TestTextSlicesSource(t *testing.T) {
	src := NewSource("t", "hello world")
	s := New(src, 6, 11)
	if s.Text() != "world" {
		t.Fatalf("got %q", s.Text())
	}
}

func TestLineColMultiLine(t *testing.T) {
	src := NewSource("t", "aaa\nbbb\nccc")
	s := New(src, 8, 11)
	if s.Line1() != 3 || s.Col0() != 0 {
		t.Fatalf("expected line 3 col 0, got line %d col %d", s.Line1(), s.Col0())
	}
}

func TestRenderIncludesCaret(t *testing.T) {
	src := NewSource("t", "let x = 1;")
	s := New(src, 4, 5)
	out := s.Render()
	if !strings.Contains(out, "^") {
		t.Fatalf("expected caret marker in render, got %q", out)
	}
	if !strings.Contains(out, "let x = 1;") {
		t.Fatalf("expected source text in render, got %q", out)
	}
}

func TestStringFormat(t *testing.T) {
	src := NewSource("file.nt", "abc")
	s := New(src, 0, 1)
	if got := s.String(); got != "file.nt:1:0" {
		t.Fatalf("got %q", got)
	}
}
