// Package parser builds pkg/ast trees from a pkg/lexer token stream.
//
// The top-level loop and per-construct dispatch style follows the project's
// original hand-rolled recursive-descent parser; the grammar itself is
// nitro's, per spec §4.2.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nitrolang/nitro/pkg/ast"
	"github.com/nitrolang/nitro/pkg/diag"
	"github.com/nitrolang/nitro/pkg/lexer"
	"github.com/nitrolang/nitro/pkg/span"
	"github.com/nitrolang/nitro/pkg/token"
)

// Parser consumes tokens from a Lexer and produces one ast.SourceFile.
type Parser struct {
	lex  *lexer.Lexer
	path string
}

// New creates a Parser for path (used for namespace derivation) over src.
func New(path string, src *span.Source) *Parser {
	return &Parser{lex: lexer.New(src), path: path}
}

func namespaceOf(path string) string {
	dir := path
	if idx := strings.LastIndexByte(dir, '/'); idx >= 0 {
		dir = dir[:idx]
	} else {
		return ""
	}
	return strings.ReplaceAll(dir, "/", ".")
}

func fileStem(path string) string {
	base := path
	if idx := strings.LastIndexByte(base, '/'); idx >= 0 {
		base = base[idx+1:]
	}
	base = strings.TrimSuffix(base, ".nt")
	return base
}

// ParseFile parses one source file per spec §4.2: attributes, `use` lines,
// at most one type definition, then impl blocks.
func (p *Parser) ParseFile(src *span.Source) (*ast.SourceFile, error) {
	file := &ast.SourceFile{
		Path:      p.path,
		Namespace: namespaceOf(p.path),
		Source:    src,
	}

	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == token.EOF {
			break
		}

		var attrs []ast.Attribute
		for tok.Kind == token.Attribute {
			attr, err := p.finishAttribute(tok)
			if err != nil {
				return nil, err
			}
			attrs = append(attrs, attr)
			tok, err = p.lex.Next()
			if err != nil {
				return nil, err
			}
		}

		switch {
		case tok.IsKeyword("use"):
			if len(attrs) > 0 {
				return nil, diag.NewSyntaxError(tok.Span, "attributes are not allowed on use imports")
			}
			imp, err := p.parseUse(tok)
			if err != nil {
				return nil, err
			}
			file.Uses = append(file.Uses, imp)

		case tok.IsKeyword("struct"), tok.IsKeyword("class"):
			if file.Type != nil {
				return nil, diag.NewSyntaxError(tok.Span, "a file may declare at most one type")
			}
			def, err := p.parseTypeDefinition(tok, attrs)
			if err != nil {
				return nil, err
			}
			stem := fileStem(p.path)
			if def.Name != stem {
				return nil, diag.NewSyntaxError(def.Span, fmt.Sprintf("type name %q must match file name %q", def.Name, stem))
			}
			file.Type = def

		case tok.IsKeyword("impl"):
			if len(attrs) > 0 {
				return nil, diag.NewSyntaxError(tok.Span, "attributes are not allowed on impl blocks")
			}
			impl, err := p.parseImpl(tok)
			if err != nil {
				return nil, err
			}
			if file.Type == nil || impl.TypeName != file.Type.Name {
				return nil, diag.NewSyntaxError(impl.Span, "impl block name must match the file's type and follow its definition")
			}
			file.Impls = append(file.Impls, impl)

		default:
			return nil, diag.NewSyntaxError(tok.Span, fmt.Sprintf("expected `use`, `struct`, `class`, or `impl`, found %s", tok))
		}
	}

	return file, nil
}

func (p *Parser) finishAttribute(tok token.Token) (ast.Attribute, error) {
	attr := ast.Attribute{Name: tok.Text, Span: tok.Span}
	next, err := p.lex.Next()
	if err != nil {
		return ast.Attribute{}, err
	}
	if next.Kind != token.LParen {
		p.lex.Undo()
		return attr, nil
	}
	var inner strings.Builder
	depth := 1
	for depth > 0 {
		t, err := p.lex.Next()
		if err != nil {
			return ast.Attribute{}, err
		}
		if t.Kind == token.EOF {
			return ast.Attribute{}, diag.NewSyntaxError(t.Span, "unterminated attribute argument")
		}
		if t.Kind == token.LParen {
			depth++
		}
		if t.Kind == token.RParen {
			depth--
			if depth == 0 {
				break
			}
		}
		if inner.Len() > 0 {
			inner.WriteByte(' ')
		}
		inner.WriteString(t.Text)
	}
	attr.Arg = inner.String()
	attr.Span = attr.Span.Union(span.New(tok.Span.Source, tok.Span.Begin, tok.Span.Begin+1).Union(attr.Span))
	return attr, nil
}

func (p *Parser) parseUse(kw token.Token) (ast.UseImport, error) {
	var segs []string
	for {
		id, err := p.lex.Next()
		if err != nil {
			return ast.UseImport{}, err
		}
		if id.Kind != token.Identifier && !(len(segs) == 0 && id.IsKeyword("self")) {
			return ast.UseImport{}, diag.NewSyntaxError(id.Span, fmt.Sprintf("expected identifier, found %s", id))
		}
		segs = append(segs, id.Text)
		next, err := p.lex.Next()
		if err != nil {
			return ast.UseImport{}, err
		}
		if next.Kind == token.Dot {
			continue
		}
		p.lex.Undo()
		break
	}
	if len(segs) < 2 {
		return ast.UseImport{}, diag.NewSyntaxError(kw.Span, "use path needs a package/`self` segment and at least one identifier")
	}

	imp := ast.UseImport{Segments: segs, Span: kw.Span}

	next, err := p.lex.Next()
	if err != nil {
		return ast.UseImport{}, err
	}
	if next.Kind == token.Identifier && next.Text == "as" {
		alias, err := p.lex.Expect(token.Identifier, "identifier")
		if err != nil {
			return ast.UseImport{}, err
		}
		imp.Alias = alias.Text
	} else {
		p.lex.Undo()
	}

	if _, err := p.lex.Expect(token.Semi, "`;`"); err != nil {
		return ast.UseImport{}, err
	}
	imp.Span = imp.Span.Union(span.New(kw.Span.Source, kw.Span.Begin, kw.Span.Begin+1))
	return imp, nil
}

func (p *Parser) parseTypeDefinition(kw token.Token, attrs []ast.Attribute) (*ast.TypeDefinition, error) {
	isRef := kw.IsKeyword("class")
	name, err := p.lex.Expect(token.Identifier, "type name")
	if err != nil {
		return nil, err
	}
	def := &ast.TypeDefinition{Name: name.Text, IsRef: isRef, Attributes: attrs, Span: kw.Span.Union(name.Span)}

	next, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	switch next.Kind {
	case token.Semi:
		def.Primitive = true
		def.Span = def.Span.Union(next.Span)
	case token.LBrace:
		close, err := p.lex.Expect(token.RBrace, "`}`")
		if err != nil {
			return nil, err
		}
		def.Span = def.Span.Union(close.Span)
	default:
		return nil, diag.NewSyntaxError(next.Span, fmt.Sprintf("expected `;` or `{`, found %s", next))
	}
	return def, nil
}

func (p *Parser) parseImpl(kw token.Token) (ast.ImplBlock, error) {
	name, err := p.lex.Expect(token.Identifier, "type name")
	if err != nil {
		return ast.ImplBlock{}, err
	}
	if _, err := p.lex.Expect(token.LBrace, "`{`"); err != nil {
		return ast.ImplBlock{}, err
	}
	impl := ast.ImplBlock{TypeName: name.Text, Span: kw.Span.Union(name.Span)}
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return ast.ImplBlock{}, err
		}
		if tok.Kind == token.RBrace {
			impl.Span = impl.Span.Union(tok.Span)
			return impl, nil
		}
		var attrs []ast.Attribute
		for tok.Kind == token.Attribute {
			attr, err := p.finishAttribute(tok)
			if err != nil {
				return ast.ImplBlock{}, err
			}
			attrs = append(attrs, attr)
			tok, err = p.lex.Next()
			if err != nil {
				return ast.ImplBlock{}, err
			}
		}
		if !tok.IsKeyword("fn") {
			return ast.ImplBlock{}, diag.NewSyntaxError(tok.Span, fmt.Sprintf("expected `fn`, found %s", tok))
		}
		fn, err := p.parseFunction(tok, attrs)
		if err != nil {
			return ast.ImplBlock{}, err
		}
		impl.Funcs = append(impl.Funcs, fn)
	}
}

func (p *Parser) parseFunction(kw token.Token, attrs []ast.Attribute) (ast.Function, error) {
	name, err := p.lex.Expect(token.Identifier, "function name")
	if err != nil {
		return ast.Function{}, err
	}
	fn := ast.Function{Name: name.Text, Attributes: attrs, Span: kw.Span.Union(name.Span)}

	if _, err := p.lex.Expect(token.LParen, "`(`"); err != nil {
		return ast.Function{}, err
	}
	next, err := p.lex.Next()
	if err != nil {
		return ast.Function{}, err
	}
	if next.Kind != token.RParen {
		p.lex.Undo()
		for {
			pname, err := p.lex.Expect(token.Identifier, "parameter name")
			if err != nil {
				return ast.Function{}, err
			}
			if _, err := p.lex.Expect(token.Colon, "`:`"); err != nil {
				return ast.Function{}, err
			}
			ptype, err := p.parseTypeExpr()
			if err != nil {
				return ast.Function{}, err
			}
			if ptype.Unit || ptype.Never {
				return ast.Function{}, diag.NewSyntaxError(ptype.Span, "function parameters may not be `()` or `!`")
			}
			fn.Params = append(fn.Params, ast.Param{Name: pname.Text, Type: ptype, Span: pname.Span.Union(ptype.Span)})

			sep, err := p.lex.Next()
			if err != nil {
				return ast.Function{}, err
			}
			if sep.Kind == token.Comma {
				continue
			}
			if sep.Kind == token.RParen {
				break
			}
			return ast.Function{}, diag.NewSyntaxError(sep.Span, fmt.Sprintf("expected `,` or `)`, found %s", sep))
		}
	}

	next, err = p.lex.Next()
	if err != nil {
		return ast.Function{}, err
	}
	if next.Kind == token.Colon {
		rt, err := p.parseTypeExpr()
		if err != nil {
			return ast.Function{}, err
		}
		fn.RetType = &rt
		next, err = p.lex.Next()
		if err != nil {
			return ast.Function{}, err
		}
	}

	switch next.Kind {
	case token.Semi:
		fn.Span = fn.Span.Union(next.Span)
	case token.LBrace:
		body, err := p.parseBlock(next)
		if err != nil {
			return ast.Function{}, err
		}
		fn.Body = &body
		fn.Span = fn.Span.Union(body.Span)
	default:
		return ast.Function{}, diag.NewSyntaxError(next.Span, fmt.Sprintf("expected `;` or `{`, found %s", next))
	}
	return fn, nil
}

// parseTypeExpr parses zero-or-more leading '*' then Unit/Never/a dotted
// path, per spec §4.2 ("`*!` is an error").
func (p *Parser) parseTypeExpr() (ast.TypeExpr, error) {
	start, err := p.lex.Next()
	if err != nil {
		return ast.TypeExpr{}, err
	}
	te := ast.TypeExpr{Span: start.Span}
	tok := start
	for tok.Kind == token.Star {
		te.PtrDepth++
		tok, err = p.lex.Next()
		if err != nil {
			return ast.TypeExpr{}, err
		}
	}
	switch {
	case tok.Kind == token.Bang:
		if te.PtrDepth > 0 {
			return ast.TypeExpr{}, diag.NewSyntaxError(tok.Span, "`*!` is not a valid type")
		}
		te.Never = true
		te.Span = te.Span.Union(tok.Span)
	case tok.Kind == token.LParen:
		close, err := p.lex.Expect(token.RParen, "`)`")
		if err != nil {
			return ast.TypeExpr{}, err
		}
		te.Unit = true
		te.Span = te.Span.Union(close.Span)
	case tok.Kind == token.Identifier:
		te.Path = append(te.Path, tok.Text)
		te.Span = te.Span.Union(tok.Span)
		for {
			next, err := p.lex.Next()
			if err != nil {
				return ast.TypeExpr{}, err
			}
			if next.Kind != token.Dot {
				p.lex.Undo()
				break
			}
			id, err := p.lex.Expect(token.Identifier, "identifier")
			if err != nil {
				return ast.TypeExpr{}, err
			}
			te.Path = append(te.Path, id.Text)
			te.Span = te.Span.Union(id.Span)
		}
	default:
		return ast.TypeExpr{}, diag.NewSyntaxError(tok.Span, fmt.Sprintf("expected a type, found %s", tok))
	}
	return te, nil
}

func (p *Parser) parseBlock(open token.Token) (ast.Block, error) {
	block := ast.Block{Span: open.Span}
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return ast.Block{}, err
		}
		if tok.Kind == token.RBrace {
			block.Span = block.Span.Union(tok.Span)
			return block, nil
		}

		if tok.IsKeyword("let") {
			stmt, err := p.parseLet(tok)
			if err != nil {
				return ast.Block{}, err
			}
			block.Stmts = append(block.Stmts, stmt)
			continue
		}

		expr, err := p.parseExpr(tok)
		if err != nil {
			return ast.Block{}, err
		}

		next, err := p.lex.Next()
		if err != nil {
			return ast.Block{}, err
		}
		if next.Kind == token.Semi {
			block.Stmts = append(block.Stmts, ast.ExprStmt{Expr: expr, Span: ast.SpanOf(expr).Union(next.Span)})
			continue
		}
		if next.Kind == token.RBrace {
			block.Tail = expr
			block.Span = block.Span.Union(next.Span)
			return block, nil
		}
		return ast.Block{}, diag.NewSyntaxError(next.Span, fmt.Sprintf("expected `;` or `}`, found %s", next))
	}
}

func (p *Parser) parseLet(kw token.Token) (ast.Statement, error) {
	name, err := p.lex.Expect(token.Identifier, "variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.lex.Expect(token.Eq, "`=`"); err != nil {
		return nil, err
	}
	exprTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpr(exprTok)
	if err != nil {
		return nil, err
	}
	semi, err := p.lex.Expect(token.Semi, "`;`")
	if err != nil {
		return nil, err
	}
	return ast.LetStmt{Name: name.Text, Expr: expr, Span: kw.Span.Union(semi.Span)}, nil
}

// parseExpr parses the flat expression grammar from spec §4.2: a primary
// term optionally followed by one `==`/`!=`/call suffix.
func (p *Parser) parseExpr(tok token.Token) (ast.Expr, error) {
	primary, err := p.parsePrimary(tok)
	if err != nil {
		return nil, err
	}

	next, err := p.lex.Next()
	if err != nil {
		return nil, err
	}

	if next.Kind == token.LParen {
		args, closeSpan, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return ast.CallExpr{Callee: primary, Args: args, Span: ast.SpanOf(primary).Union(closeSpan)}, nil
	}

	if next.Kind == token.EqEq || next.Kind == token.NotEq {
		op := "=="
		if next.Kind == token.NotEq {
			op = "!="
		}
		rhsTok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		rhs, err := p.parsePrimary(rhsTok)
		if err != nil {
			return nil, err
		}
		return ast.CompareExpr{Op: op, LHS: primary, RHS: rhs, Span: ast.SpanOf(primary).Union(ast.SpanOf(rhs))}, nil
	}

	p.lex.Undo()
	return primary, nil
}

func (p *Parser) parseArgs() ([]ast.Expr, span.Span, error) {
	var args []ast.Expr
	next, err := p.lex.Next()
	if err != nil {
		return nil, span.Span{}, err
	}
	if next.Kind == token.RParen {
		return args, next.Span, nil
	}
	p.lex.Undo()
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, span.Span{}, err
		}
		arg, err := p.parseExpr(tok)
		if err != nil {
			return nil, span.Span{}, err
		}
		args = append(args, arg)
		sep, err := p.lex.Next()
		if err != nil {
			return nil, span.Span{}, err
		}
		if sep.Kind == token.Comma {
			continue
		}
		if sep.Kind == token.RParen {
			return args, sep.Span, nil
		}
		return nil, span.Span{}, diag.NewSyntaxError(sep.Span, fmt.Sprintf("expected `,` or `)`, found %s", sep))
	}
}

func (p *Parser) parsePrimary(tok token.Token) (ast.Expr, error) {
	switch {
	case tok.Kind == token.Identifier:
		return ast.IdentExpr{Name: tok.Text, Span: tok.Span}, nil
	case tok.Kind == token.UIntLit:
		n, err := strconv.ParseUint(tok.Text, 10, 64)
		if err != nil {
			return nil, diag.NewSyntaxError(tok.Span, "invalid unsigned integer literal")
		}
		return ast.UIntLitExpr{Value: n, Span: tok.Span}, nil
	case tok.Kind == token.StringLit:
		return ast.StringLitExpr{Value: tok.Text, Span: tok.Span}, nil
	case tok.IsKeyword("null"):
		return ast.NullExpr{Span: tok.Span}, nil
	case tok.IsKeyword("asm"):
		return p.parseAsm(tok)
	case tok.IsKeyword("if"):
		return p.parseIf(tok)
	default:
		return nil, diag.NewSyntaxError(tok.Span, fmt.Sprintf("expected an expression, found %s", tok))
	}
}

func (p *Parser) parseAsm(kw token.Token) (ast.Expr, error) {
	if _, err := p.lex.Expect(token.LParen, "`(`"); err != nil {
		return nil, err
	}
	var body strings.Builder
	depth := 1
	for depth > 0 {
		t, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if t.Kind == token.EOF {
			return nil, diag.NewSyntaxError(t.Span, "unterminated asm block")
		}
		if t.Kind == token.LParen {
			depth++
		}
		if t.Kind == token.RParen {
			depth--
			if depth == 0 {
				break
			}
		}
		if body.Len() > 0 {
			body.WriteByte(' ')
		}
		body.WriteString(t.Text)
	}
	return ast.AsmExpr{Body: body.String(), Span: kw.Span}, nil
}

func (p *Parser) parseIf(kw token.Token) (ast.Expr, error) {
	condTok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	cond, err := p.parseExpr(condTok)
	if err != nil {
		return nil, err
	}
	open, err := p.lex.Expect(token.LBrace, "`{`")
	if err != nil {
		return nil, err
	}
	block, err := p.parseBlock(open)
	if err != nil {
		return nil, err
	}
	return ast.IfExpr{Cond: cond, Then: block, Span: kw.Span.Union(block.Span)}, nil
}
