// Package lexer tokenizes nitro source files.
//
// The scanning style (character-by-character dispatch on the first byte of
// each token) follows the project's original tokenizer; this version emits
// pkg/token.Token values carrying pkg/span.Span positions and implements a
// one-token push-back instead of bulk Tokenize().
package lexer

import (
	"fmt"

	"github.com/nitrolang/nitro/pkg/diag"
	"github.com/nitrolang/nitro/pkg/span"
	"github.com/nitrolang/nitro/pkg/token"
)

// Lexer tokenizes a single source buffer.
type Lexer struct {
	src *span.Source
	pos int

	// one-token push-back: after Undo(), the next Next() replays last
	// instead of scanning.
	last    token.Token
	hasLast bool
	undone  bool
}

// New creates a Lexer over src.
func New(src *span.Source) *Lexer {
	return &Lexer{src: src}
}

func (l *Lexer) isAtEnd() bool {
	return l.pos >= len(l.src.Text)
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.src.Text[l.pos]
}

func (l *Lexer) advance() byte {
	ch := l.src.Text[l.pos]
	l.pos++
	return ch
}

func isIdentStart(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isIdentCont(ch byte) bool {
	return isIdentStart(ch) || (ch >= '0' && ch <= '9')
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Undo pushes the last token returned by Next back onto the stream. Only one
// level of push-back is supported, matching spec §4.1.
func (l *Lexer) Undo() {
	if !l.hasLast {
		panic("lexer: Undo called with no prior token")
	}
	l.undone = true
}

// Next returns the next token, or a *diag.SyntaxError. At end of input it
// returns a token.EOF token (not an error) so callers can loop uniformly.
func (l *Lexer) Next() (token.Token, error) {
	if l.undone {
		l.undone = false
		return l.last, nil
	}
	tok, err := l.scan()
	if err != nil {
		return token.Token{}, err
	}
	l.last = tok
	l.hasLast = true
	return tok, nil
}

func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r', '\n':
			l.advance()
		default:
			return
		}
	}
}

func (l *Lexer) scan() (token.Token, error) {
	l.skipWhitespace()
	if l.isAtEnd() {
		return token.Token{Kind: token.EOF}, nil
	}

	start := l.pos
	ch := l.peek()

	switch {
	case ch == '@':
		return l.scanAttribute(start)
	case ch == '"':
		return l.scanString(start)
	case isDigit(ch):
		return l.scanNumber(start)
	case isIdentStart(ch):
		return l.scanIdentOrKeyword(start)
	default:
		return l.scanPunct(start)
	}
}

func (l *Lexer) spanFrom(start int) span.Span {
	return span.New(l.src, start, l.pos)
}

func (l *Lexer) errAt(at int, format string, args ...any) error {
	end := at + 1
	if end > len(l.src.Text) {
		end = len(l.src.Text)
	}
	if end <= at {
		end = at + 1
	}
	sp := span.New(l.src, at, end)
	return diag.NewSyntaxError(sp, fmt.Sprintf(format, args...))
}

func (l *Lexer) scanPunct(start int) (token.Token, error) {
	ch := l.advance()
	switch ch {
	case '!':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.NotEq, Span: l.spanFrom(start), Text: "!="}, nil
		}
		return token.Token{Kind: token.Bang, Span: l.spanFrom(start), Text: "!"}, nil
	case '=':
		if l.peek() == '=' {
			l.advance()
			return token.Token{Kind: token.EqEq, Span: l.spanFrom(start), Text: "=="}, nil
		}
		return token.Token{Kind: token.Eq, Span: l.spanFrom(start), Text: "="}, nil
	case '*':
		return token.Token{Kind: token.Star, Span: l.spanFrom(start), Text: "*"}, nil
	case '.':
		return token.Token{Kind: token.Dot, Span: l.spanFrom(start), Text: "."}, nil
	case ',':
		return token.Token{Kind: token.Comma, Span: l.spanFrom(start), Text: ","}, nil
	case ':':
		return token.Token{Kind: token.Colon, Span: l.spanFrom(start), Text: ":"}, nil
	case ';':
		return token.Token{Kind: token.Semi, Span: l.spanFrom(start), Text: ";"}, nil
	case '(':
		return token.Token{Kind: token.LParen, Span: l.spanFrom(start), Text: "("}, nil
	case ')':
		return token.Token{Kind: token.RParen, Span: l.spanFrom(start), Text: ")"}, nil
	case '{':
		return token.Token{Kind: token.LBrace, Span: l.spanFrom(start), Text: "{"}, nil
	case '}':
		return token.Token{Kind: token.RBrace, Span: l.spanFrom(start), Text: "}"}, nil
	default:
		return token.Token{}, l.errAt(start, "unexpected character %q", ch)
	}
}

func (l *Lexer) scanAttribute(start int) (token.Token, error) {
	l.advance() // '@'
	nameStart := l.pos
	for !l.isAtEnd() && isIdentCont(l.peek()) {
		l.advance()
	}
	if l.pos == nameStart {
		return token.Token{}, l.errAt(start, "empty attribute name")
	}
	name := l.src.Text[nameStart:l.pos]
	return token.Token{Kind: token.Attribute, Span: l.spanFrom(start), Text: name}, nil
}

func (l *Lexer) scanString(start int) (token.Token, error) {
	l.advance() // opening quote
	for {
		if l.isAtEnd() {
			return token.Token{}, l.errAt(start, "unterminated string literal")
		}
		ch := l.peek()
		if ch == '\n' {
			return token.Token{}, l.errAt(start, "unterminated string literal (newline in literal)")
		}
		if ch == '"' {
			l.advance()
			break
		}
		l.advance()
	}
	text := l.src.Text[start+1 : l.pos-1]
	return token.Token{Kind: token.StringLit, Span: l.spanFrom(start), Text: text}, nil
}

func (l *Lexer) scanNumber(start int) (token.Token, error) {
	isFloat := false
	for !l.isAtEnd() && (isDigit(l.peek()) || l.peek() == '.') {
		if l.peek() == '.' {
			isFloat = true
		}
		l.advance()
	}
	text := l.src.Text[start:l.pos]
	kind := token.UIntLit
	if isFloat {
		kind = token.FloatLit
	}
	return token.Token{Kind: kind, Span: l.spanFrom(start), Text: text}, nil
}

func (l *Lexer) scanIdentOrKeyword(start int) (token.Token, error) {
	for !l.isAtEnd() && isIdentCont(l.peek()) {
		l.advance()
	}
	text := l.src.Text[start:l.pos]
	if token.Keywords[text] {
		return token.Token{Kind: token.Keyword, Span: l.spanFrom(start), Text: text}, nil
	}
	return token.Token{Kind: token.Identifier, Span: l.spanFrom(start), Text: text}, nil
}

// Expect consumes and returns the next token if it has kind k, else returns
// a SyntaxError anchored at the previous token's span ("expected X after
// this"), or at the token just read when there is no previous token.
func (l *Lexer) Expect(k token.Kind, what string) (token.Token, error) {
	prev, havePrev := l.last, l.hasLast && !l.undone
	tok, err := l.Next()
	if err != nil {
		return token.Token{}, err
	}
	if tok.Kind != k {
		at := tok.Span
		if havePrev {
			at = prev.Span
		}
		return token.Token{}, diag.NewSyntaxError(at, fmt.Sprintf("expected %s after this, found %s", what, tok))
	}
	return tok, nil
}

// ExpectKeyword consumes and returns the next token if it is the keyword
// word, else returns a SyntaxError.
func (l *Lexer) ExpectKeyword(word string) (token.Token, error) {
	tok, err := l.Next()
	if err != nil {
		return token.Token{}, err
	}
	if !tok.IsKeyword(word) {
		return token.Token{}, diag.NewSyntaxError(tok.Span, fmt.Sprintf("expected keyword %q, found %s", word, tok))
	}
	return tok, nil
}
