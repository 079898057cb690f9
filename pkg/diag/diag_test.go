package diag

import (
	"errors"
	"fmt"
	"testing"

	"github.com/nitrolang/nitro/pkg/span"
)

func mkSpan(name, text string, begin, end int) span.Span {
	return span.New(span.NewSource(name, text), begin, end)
}

func TestSortAndDedupeOrdersBySourceThenOffset(t *testing.T) {
	d1 := &Diagnostic{Code: "a", Message: "first", Span: mkSpan("b.nt", "xxxx", 0, 1)}
	d2 := &Diagnostic{Code: "b", Message: "second", Span: mkSpan("a.nt", "xxxx", 2, 3)}
	d3 := &Diagnostic{Code: "c", Message: "third", Span: mkSpan("a.nt", "xxxx", 0, 1)}
	out := SortAndDedupe([]*Diagnostic{d1, d2, d3})
	if len(out) != 3 {
		t.Fatalf("expected 3, got %d", len(out))
	}
	if out[0] != d3 || out[1] != d2 || out[2] != d1 {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestSortAndDedupeRemovesDuplicates(t *testing.T) {
	sp := mkSpan("a.nt", "xxxx", 0, 1)
	d1 := &Diagnostic{Code: "a", Message: "dup", Span: sp}
	d2 := &Diagnostic{Code: "a", Message: "dup", Span: sp}
	out := SortAndDedupe([]*Diagnostic{d1, d2})
	if len(out) != 1 {
		t.Fatalf("expected 1 after dedupe, got %d", len(out))
	}
}

func TestChainJoinsWrappedErrors(t *testing.T) {
	base := errors.New("root cause")
	wrapped := fmt.Errorf("middle: %w", base)
	top := fmt.Errorf("top: %w", wrapped)
	got := Chain(top)
	want := "top: middle: root cause -> middle: root cause -> root cause"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestSyntaxErrorImplementsError(t *testing.T) {
	var err error = NewSyntaxError(mkSpan("a.nt", "xxxx", 0, 1), "bad token")
	if err.Error() == "" {
		t.Fatal("expected non-empty error message")
	}
}
