// Package resolve maps fully-qualified type names to AST nodes or external
// package declarations, per spec §4.4.
package resolve

import (
	"fmt"

	"github.com/nitrolang/nitro/pkg/ast"
	"github.com/nitrolang/nitro/pkg/types"
)

// External names a type declared by an already-built dependency package.
type External struct {
	Pkg  *types.PackageMeta
	Decl *types.TypeDeclaration
}

// Resolved is the resolver's lookup result: either an internal AST type or
// an external package declaration.
type Resolved struct {
	Internal *ast.SourceFile
	External *External
}

// Resolver maps FQTN -> Resolved, per spec §4.4.
type Resolver struct {
	byFQTN map[string]Resolved
}

// New creates an empty Resolver.
func New() *Resolver {
	return &Resolver{byFQTN: map[string]Resolved{}}
}

func internalKey(namespace, name string) string {
	if namespace == "" {
		return "self." + name
	}
	return "self." + namespace + "." + name
}

func externalKey(pkg types.PackageName, name string) string {
	return string(pkg) + "." + name
}

// AddInternal registers every file's declared type under its internal FQTN
// key, per spec §4.4 ("self.<namespace>.<TypeName>").
func (r *Resolver) AddInternal(files []*ast.SourceFile) error {
	for _, f := range files {
		if f.Type == nil {
			continue
		}
		key := internalKey(f.Namespace, f.Type.Name)
		if _, exists := r.byFQTN[key]; exists {
			return fmt.Errorf("resolve: type %q already defined", key)
		}
		r.byFQTN[key] = Resolved{Internal: f}
	}
	return nil
}

// AddExternal registers a just-built (or dependency) library's published
// types under "<package_name>.<TypeName>", per spec §4.4. Only the final
// segment of a declaration's FQTN participates in the key: external
// references are flat per package, unlike internal namespaced lookups.
func (r *Resolver) AddExternal(pkg types.PackageMeta, decls []types.TypeDeclaration) error {
	meta := pkg
	for i := range decls {
		d := decls[i]
		key := externalKey(pkg.Name, lastSegment(d.FQTN))
		if _, exists := r.byFQTN[key]; exists {
			return fmt.Errorf("resolve: external type %q already defined", key)
		}
		r.byFQTN[key] = Resolved{External: &External{Pkg: &meta, Decl: &decls[i]}}
	}
	return nil
}

func lastSegment(fqtn string) string {
	for i := len(fqtn) - 1; i >= 0; i-- {
		if fqtn[i] == '.' {
			return fqtn[i+1:]
		}
	}
	return fqtn
}

// Lookup finds a FQTN directly (bypassing use-shadowing); used for the
// executable pass seeding external types under the library's own package
// name and for internal-key lookups once a use path is already resolved.
func (r *Resolver) Lookup(fqtn string) (Resolved, bool) {
	res, ok := r.byFQTN[fqtn]
	return res, ok
}

// ResolveIdent implements spec §4.4's name-lookup algorithm for identifier
// X referenced from inside file f:
//
//  1. scan f's use list in reverse declaration order; the first whose bound
//     name equals X wins, looked up under useKey (the full path for `self`
//     imports, "<pkg>.<Type>" for external ones);
//  2. else fall back to self.<namespace>.X (or self.X at package root);
//  3. else "undefined".
func (r *Resolver) ResolveIdent(f *ast.SourceFile, x string) (Resolved, error) {
	for i := len(f.Uses) - 1; i >= 0; i-- {
		use := f.Uses[i]
		if use.Name() != x {
			continue
		}
		key := useKey(use)
		res, ok := r.byFQTN[key]
		if !ok {
			return Resolved{}, fmt.Errorf("resolve: use path %q does not name a known type", key)
		}
		return res, nil
	}

	key := internalKey(f.Namespace, x)
	if res, ok := r.byFQTN[key]; ok {
		return res, nil
	}
	return Resolved{}, fmt.Errorf("resolve: undefined type %q", x)
}

// useKey converts a use import's segments into a resolver lookup key:
// "self...." for internal paths, "<pkg>.<Type>" for external ones.
func useKey(use ast.UseImport) string {
	if use.Segments[0] == "self" {
		rest := use.Segments[1:]
		ns := ""
		for i, s := range rest[:len(rest)-1] {
			if i > 0 {
				ns += "."
			}
			ns += s
		}
		return internalKey(ns, rest[len(rest)-1])
	}
	name := use.Segments[len(use.Segments)-1]
	return externalKey(types.PackageName(use.Segments[0]), name)
}
