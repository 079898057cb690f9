// Package diag defines the diagnostic and error-chain types shared across
// every compiler layer (lex, parse, resolve, codegen, link, package I/O).
package diag

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nitrolang/nitro/pkg/span"
)

// Severity classifies a Diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Related points at a secondary source location that clarifies a
// Diagnostic (e.g. "previous definition was here").
type Related struct {
	Span    span.Span
	Message string
}

// Diagnostic is the canonical rendering unit for every user-facing error in
// nitro: a severity, a short machine-checkable code, a human message, the
// span it anchors to, an optional hint, and an optional related location.
type Diagnostic struct {
	Severity Severity
	Code     string
	Message  string
	Span     span.Span
	Hint     string
	Related  *Related
}

// Error implements the error interface so a Diagnostic can be returned
// directly from any layer.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s: %s", d.Span, d.Severity, d.Message)
	if d.Hint != "" {
		fmt.Fprintf(&b, " (%s)", d.Hint)
	}
	return b.String()
}

// Render produces the full multi-line diagnostic view: the message line
// followed by the span's source excerpt with '^' underlines.
func (d *Diagnostic) Render() string {
	var b strings.Builder
	b.WriteString(d.Error())
	b.WriteString("\n")
	b.WriteString(d.Span.Render())
	if d.Related != nil {
		fmt.Fprintf(&b, "  related: %s: %s\n", d.Related.Span, d.Related.Message)
	}
	return b.String()
}

// SyntaxError is raised by the lexer and parser. It carries exactly one
// Diagnostic and stops the file being processed, per spec.md §4.2.
type SyntaxError struct {
	*Diagnostic
}

// NewSyntaxError builds a SyntaxError anchored at sp with the given message.
func NewSyntaxError(sp span.Span, message string) *SyntaxError {
	return &SyntaxError{&Diagnostic{
		Severity: SeverityError,
		Code:     "syntax",
		Message:  message,
		Span:     sp,
	}}
}

// SortAndDedupe enforces deterministic ordering (by source name, then byte
// offset, then code, then message) and removes exact duplicates, matching
// the rendering contract CLI front-ends rely on for reproducible output.
func SortAndDedupe(in []*Diagnostic) []*Diagnostic {
	if len(in) == 0 {
		return nil
	}
	out := append([]*Diagnostic(nil), in...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Span.Source.Name != b.Span.Source.Name {
			return a.Span.Source.Name < b.Span.Source.Name
		}
		if a.Span.Begin != b.Span.Begin {
			return a.Span.Begin < b.Span.Begin
		}
		if a.Code != b.Code {
			return a.Code < b.Code
		}
		return a.Message < b.Message
	})
	seen := map[string]struct{}{}
	result := make([]*Diagnostic, 0, len(out))
	for _, d := range out {
		key := fmt.Sprintf("%s|%d|%d|%s|%s", d.Span.Source.Name, d.Span.Begin, d.Span.End, d.Code, d.Message)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, d)
	}
	return result
}

// Chain renders a cause chain as "top: cause -> cause -> ..." per spec.md §6.
func Chain(err error) string {
	var parts []string
	for err != nil {
		parts = append(parts, err.Error())
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		next := u.Unwrap()
		if next == nil {
			break
		}
		err = next
	}
	return strings.Join(parts, " -> ")
}
