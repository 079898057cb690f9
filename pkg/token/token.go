// Package token defines the lexical token kinds produced by pkg/lexer and
// consumed by pkg/parser.
package token

import "github.com/nitrolang/nitro/pkg/span"

// Kind identifies the lexical category of a Token.
type Kind string

const (
	Bang   Kind = "!"
	Eq     Kind = "="
	EqEq   Kind = "=="
	NotEq  Kind = "!="
	Star   Kind = "*"
	Dot    Kind = "."
	Comma  Kind = ","
	Colon  Kind = ":"
	Semi   Kind = ";"
	LParen Kind = "("
	RParen Kind = ")"
	LBrace Kind = "{"
	RBrace Kind = "}"
	At     Kind = "@" // attribute marker; the name follows as part of the same token

	UIntLit Kind = "uint_lit"
	FloatLit Kind = "float_lit"
	StringLit Kind = "string_lit"

	Keyword    Kind = "keyword"
	Identifier Kind = "identifier"
	Attribute  Kind = "attribute"

	EOF Kind = "eof"
)

// Keywords is the fixed reserved-word table from spec §3. Anything else
// matching an identifier pattern lexes as Identifier.
var Keywords = map[string]bool{
	"struct": true, "class": true, "impl": true, "fn": true, "self": true,
	"let": true, "if": true, "is": true, "asm": true, "null": true, "use": true,
}

// Token is a single lexical unit: its kind, source span, and raw text (or,
// for @-attributes, the attribute name without the leading '@').
type Token struct {
	Kind Kind
	Span span.Span
	Text string
}

// IsKeyword reports whether t is the reserved word word.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Keyword && t.Text == word
}

// String implements fmt.Stringer for parser error messages.
func (t Token) String() string {
	switch t.Kind {
	case Identifier, Keyword, UIntLit, FloatLit, StringLit:
		return string(t.Kind) + " `" + t.Text + "`"
	case Attribute:
		return "@" + t.Text
	default:
		return string(t.Kind)
	}
}
