package codegen

import (
	"fmt"

	"github.com/nitrolang/nitro/pkg/ast"
	"github.com/nitrolang/nitro/pkg/attrs"
	"github.com/nitrolang/nitro/pkg/mangle"
	"github.com/nitrolang/nitro/pkg/resolve"
	"github.com/nitrolang/nitro/pkg/types"
)

// Lowerer drives the AST -> IR pipeline of spec §4.7 over a Context.
type Lowerer struct {
	ctx         *Context
	resolver    *resolve.Resolver
	seen        map[string]bool // mangled name -> declared, for "multiple definition" detection
	currentFile *ast.SourceFile
}

// NewLowerer creates a Lowerer for ctx using resolver for type lookups.
func NewLowerer(ctx *Context, resolver *resolve.Resolver) *Lowerer {
	return &Lowerer{ctx: ctx, resolver: resolver, seen: map[string]bool{}}
}

// LowerFile lowers one source file's type and impl blocks, per spec §4.7
// step 1-2. Files whose @if predicate evaluates false are skipped whole.
func (lw *Lowerer) LowerFile(f *ast.SourceFile) error {
	if f.Type == nil {
		return nil
	}
	lw.currentFile = f
	lw.ctx.SetNamespace(f.Namespace)

	for _, attr := range f.Type.Attributes {
		if attr.Name != "if" {
			continue
		}
		ok, err := attrs.EvalIf(attr.Arg, lw.ctx.Target())
		if err != nil {
			return fmt.Errorf("%s: %w", f.Path, err)
		}
		if !ok {
			return nil
		}
	}

	for _, impl := range f.Impls {
		for _, fn := range impl.Funcs {
			if err := lw.lowerFunc(f, fn); err != nil {
				return fmt.Errorf("%s: %w", f.Path, err)
			}
		}
	}
	return nil
}

func hasAttr(fn ast.Function, name string) (ast.Attribute, bool) {
	for _, a := range fn.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return ast.Attribute{}, false
}

func (lw *Lowerer) lowerFunc(f *ast.SourceFile, fn ast.Function) error {
	if ifAttr, ok := hasAttr(fn, "if"); ok {
		keep, err := attrs.EvalIf(ifAttr.Arg, lw.ctx.Target())
		if err != nil {
			return err
		}
		if !keep {
			return nil
		}
	}

	isExt, extAttr := false, ast.Attribute{}
	if a, ok := hasAttr(fn, "ext"); ok {
		isExt, extAttr = true, a
	}
	_, isEntry := hasAttr(fn, "entry")

	symbol := fn.Name
	if !isExt {
		typeFQTN := f.Namespace + "." + f.Type.Name
		if f.Namespace == "" {
			typeFQTN = f.Type.Name
		}
		params := make([]types.Type, len(fn.Params))
		for i, p := range fn.Params {
			t, err := lw.lowerType(p.Type)
			if err != nil {
				return err
			}
			if t.Kind == types.KindNever {
				return fmt.Errorf("parameter %q: function parameters may not be `!`", p.Name)
			}
			params[i] = t
		}
		ret := types.Type{Kind: types.KindUnit}
		if fn.RetType != nil {
			t, err := lw.lowerType(*fn.RetType)
			if err != nil {
				return err
			}
			ret = t
		}

		var pkgRef *types.PackageRef
		if !lw.ctx.Executable() {
			pkgRef = &types.PackageRef{Name: lw.ctx.Pkg(), Major: lw.ctx.Version().Major}
		}
		symbol = mangle.Func(pkgRef, typeFQTN, fn.Name, ret, params)
	} else {
		if extAttr.Arg != "C" {
			return fmt.Errorf("function %q: unknown extern ABI %q", fn.Name, extAttr.Arg)
		}
	}

	if lw.seen[symbol] {
		return fmt.Errorf("multiple definition of %q", symbol)
	}
	lw.seen[symbol] = true

	retIR, err := lw.irReturnType(fn)
	if err != nil {
		return err
	}
	paramIR, err := lw.irParamTypes(fn)
	if err != nil {
		return err
	}

	llvmFn, err := lw.ctx.NewFunc(symbol, paramIR, retIR.irType)
	if err != nil {
		return err
	}
	if retIR.never {
		if err := llvmFn.SetNoreturn(); err != nil {
			return err
		}
	}

	if isEntry {
		if err := lw.checkEntrySignature(fn); err != nil {
			return err
		}
		if err := lw.ctx.SetEntry(symbol); err != nil {
			return err
		}
	}

	switch {
	case fn.Body != nil:
		return lw.lowerBody(llvmFn)
	case isExt:
		return nil
	default:
		return fmt.Errorf("function %q has no body and is not `@ext`", fn.Name)
	}
}

type retInfo struct {
	irType IRType
	never  bool
}

// irReturnType lowers a function's return type to its backend IRType. A
// Never return lowers to backend void and marks the function non-returning,
// per spec §4.7.
func (lw *Lowerer) irReturnType(fn ast.Function) (retInfo, error) {
	if fn.RetType == nil {
		v, err := lw.ctx.Void()
		return retInfo{irType: v}, err
	}
	t, err := lw.lowerType(*fn.RetType)
	if err != nil {
		return retInfo{}, err
	}
	ir, never, err := lw.semanticToIR(t)
	if err != nil {
		return retInfo{}, err
	}
	return retInfo{irType: ir, never: never}, nil
}

func (lw *Lowerer) irParamTypes(fn ast.Function) ([]IRType, error) {
	out := make([]IRType, len(fn.Params))
	for i, p := range fn.Params {
		t, err := lw.lowerType(p.Type)
		if err != nil {
			return nil, err
		}
		ir, _, err := lw.semanticToIR(t)
		if err != nil {
			return nil, err
		}
		out[i] = ir
	}
	return out, nil
}

// semanticToIR maps a resolved semantic Type to its backend IRType. Struct
// types fall back to the pointer-width integer (the bootstrap has no field
// storage for composite types, per spec §9 open question 3); classes lower
// to an opaque pointer.
func (lw *Lowerer) semanticToIR(t types.Type) (IRType, bool, error) {
	switch t.Kind {
	case types.KindUnit:
		v, err := lw.ctx.Void()
		return v, false, err
	case types.KindNever:
		v, err := lw.ctx.Void()
		return v, true, err
	case types.KindClass:
		v, err := lw.ctx.Void()
		if err != nil {
			return IRType{}, false, err
		}
		ptr, err := lw.ctx.Ptr(v)
		return ptr, false, err
	default: // Struct
		u, err := lw.ctx.Unsized()
		return u, false, err
	}
}

// lowerType resolves an ast.TypeExpr to a semantic types.Type, consulting
// the resolver for non-Unit/Never paths.
func (lw *Lowerer) lowerType(te ast.TypeExpr) (types.Type, error) {
	if te.Unit {
		return types.Type{Kind: types.KindUnit, PtrDepth: te.PtrDepth}, nil
	}
	if te.Never {
		return types.Type{Kind: types.KindNever, PtrDepth: te.PtrDepth}, nil
	}
	name := te.Path[len(te.Path)-1]
	res, err := lw.resolver.ResolveIdent(lw.currentFile, name)
	if err != nil {
		return types.Type{}, err
	}
	if res.Internal != nil {
		kind := types.KindStruct
		if res.Internal.Type.IsRef {
			kind = types.KindClass
		}
		return types.Type{Kind: kind, PtrDepth: te.PtrDepth, Name: res.Internal.Type.Name}, nil
	}
	kind := types.KindStruct
	if res.External.Decl.IsRef {
		kind = types.KindClass
	}
	return types.Type{
		Kind: kind, PtrDepth: te.PtrDepth, Name: res.External.Decl.FQTN,
		Pkg: &types.PackageRef{Name: res.External.Pkg.Name, Major: res.External.Pkg.Version.Major},
	}, nil
}

func (lw *Lowerer) checkEntrySignature(fn ast.Function) error {
	if len(fn.Params) != 0 {
		return fmt.Errorf("entry point must have zero parameters")
	}
	if fn.RetType == nil || len(fn.RetType.Path) == 0 || fn.RetType.Path[len(fn.RetType.Path)-1] != "Int32" {
		return fmt.Errorf("entry point must return the primitive type tagged i32")
	}
	return nil
}

func (lw *Lowerer) lowerBody(fn LlvmFunc) error {
	block, err := fn.AppendBlock("entry")
	if err != nil {
		return err
	}
	b, err := lw.ctx.NewBuilder(fn, block)
	if err != nil {
		return err
	}
	defer b.Close()
	// The bootstrap does not lower real expressions yet (spec §9 open
	// question 1): every function body emits an immediate return.
	return b.RetVoid()
}
