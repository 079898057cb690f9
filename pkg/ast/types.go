// Package ast defines the abstract syntax tree produced by pkg/parser, one
// SourceFile per disk file, per spec §3.
package ast

import "github.com/nitrolang/nitro/pkg/span"

// UseImport is a single `use a.b.Foo [as Bar];` line. Segments is the
// dotted path with the first element either "self" or an external package
// name; Alias is empty unless the `as` form was used.
type UseImport struct {
	Segments []string
	Alias    string
	Span     span.Span
}

// Name returns the bound name this import introduces: Alias if present,
// else the last path segment.
func (u UseImport) Name() string {
	if u.Alias != "" {
		return u.Alias
	}
	return u.Segments[len(u.Segments)-1]
}

// Attribute is one `@name` or `@name(arg)` annotation.
type Attribute struct {
	Name string
	Arg  string // raw text inside parens, empty if no parens
	Span span.Span
}

// TypeExpr is the parsed form of a type reference: zero or more leading '*'
// pointer levels, then Unit ("()"), Never ("!"), or a dotted Path.
type TypeExpr struct {
	PtrDepth int
	Unit     bool
	Never    bool
	Path     []string // dotted identifier path; empty when Unit or Never
	Span     span.Span
}

// TypeDefinition is the at-most-one top-level type declared by a file.
// IsRef distinguishes class (reference type) from struct (value type).
type TypeDefinition struct {
	Name       string
	IsRef      bool // true: class, false: struct
	Primitive  bool // `struct Name;` form with no body
	Attributes []Attribute
	Span       span.Span
}

// Param is one function parameter.
type Param struct {
	Name string
	Type TypeExpr
	Span span.Span
}

// Function is one `fn` item inside an impl block.
type Function struct {
	Name       string
	Attributes []Attribute
	Params     []Param
	RetType    *TypeExpr // nil when no return type was written
	Body       *Block    // nil when the function has no body (extern decl)
	Span       span.Span
}

// ImplBlock groups functions under `impl <TypeName> { ... }`. TypeName must
// equal the file's TypeDefinition.Name.
type ImplBlock struct {
	TypeName string
	Funcs    []Function
	Span     span.Span
}

// Block is a `{ stmt* tail? }` body.
type Block struct {
	Stmts []Statement
	Tail  Expr // nil if the block ends with a `;`-terminated statement
	Span  span.Span
}

// Statement is either a let-binding or a unit (`;`-terminated) expression.
type Statement interface{ stmt() }

type LetStmt struct {
	Name string
	Expr Expr
	Span span.Span
}

type ExprStmt struct {
	Expr Expr
	Span span.Span
}

func (LetStmt) stmt()  {}
func (ExprStmt) stmt() {}

// Expr is the marker interface for all expression nodes.
type Expr interface{ exprSpan() span.Span }

type IdentExpr struct {
	Name string
	Span span.Span
}

type UIntLitExpr struct {
	Value uint64
	Span  span.Span
}

type StringLitExpr struct {
	Value string
	Span  span.Span
}

type NullExpr struct {
	Span span.Span
}

type AsmExpr struct {
	Body string
	Span span.Span
}

// CompareExpr is `lhs == rhs` or `lhs != rhs`.
type CompareExpr struct {
	Op   string // "==" or "!="
	LHS  Expr
	RHS  Expr
	Span span.Span
}

// CallExpr is `callee( args... )`.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Span   span.Span
}

// IfExpr is `if cond { block }`.
type IfExpr struct {
	Cond Expr
	Then Block
	Span span.Span
}

func (e IdentExpr) exprSpan() span.Span     { return e.Span }
func (e UIntLitExpr) exprSpan() span.Span   { return e.Span }
func (e StringLitExpr) exprSpan() span.Span { return e.Span }
func (e NullExpr) exprSpan() span.Span      { return e.Span }
func (e AsmExpr) exprSpan() span.Span       { return e.Span }
func (e CompareExpr) exprSpan() span.Span   { return e.Span }
func (e CallExpr) exprSpan() span.Span      { return e.Span }
func (e IfExpr) exprSpan() span.Span        { return e.Span }

// SpanOf returns the source span of any expression node.
func SpanOf(e Expr) span.Span { return e.exprSpan() }

// SourceFile is the parse result of one *.nt disk file.
type SourceFile struct {
	Path      string // path relative to the project sources root
	Namespace string // Path's directory, '/' replaced with '.'
	Uses      []UseImport
	Type      *TypeDefinition // nil if the file declares no type (use-only file)
	Impls     []ImplBlock
	Source    *span.Source
}
