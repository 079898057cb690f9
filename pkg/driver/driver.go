// Package driver orchestrates one project build: load the manifest, parse
// every source file, resolve types, run codegen per target, invoke the
// linker, and (for library builds) pack a .npk, per spec §4.9.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/google/uuid"

	"github.com/nitrolang/nitro/internal/backend"
	"github.com/nitrolang/nitro/internal/link"
	"github.com/nitrolang/nitro/pkg/ast"
	"github.com/nitrolang/nitro/pkg/cache"
	"github.com/nitrolang/nitro/pkg/codegen"
	"github.com/nitrolang/nitro/pkg/manifest"
	"github.com/nitrolang/nitro/pkg/npk"
	"github.com/nitrolang/nitro/pkg/parser"
	"github.com/nitrolang/nitro/pkg/registry"
	"github.com/nitrolang/nitro/pkg/resolve"
	"github.com/nitrolang/nitro/pkg/span"
	"github.com/nitrolang/nitro/pkg/types"
)

// Logger is the package-scoped stderr logger, mirroring the teacher's
// plain fmt.Fprintf(os.Stderr, ...) diagnostics.
var Logger = log.New(os.Stderr, "[nitro] ", 0)

// Config controls one Build invocation.
type Config struct {
	ProjectDir  string // directory containing Nitro.yml
	BackendPath string // path to the native codegen backend shared library
	Verbose     bool

	// RegistryAddr, when set, is dialed to fetch any manifest dependency
	// that isn't already in the local registry cache. Left empty, builds
	// with uncached dependencies fail rather than reach the network.
	RegistryAddr string
	// CacheDBPath overrides the registry fetch cache's database location;
	// empty uses pkg/cache's own ~/.nitro/registry-cache.db default.
	CacheDBPath string
}

// externalPackage is one manifest dependency's resolved identity and
// published type surface, ready to feed into a resolver's AddExternal.
type externalPackage struct {
	Meta  types.PackageMeta
	Decls []types.TypeDeclaration
}

// Result is everything one Build produced.
type Result struct {
	Package types.Package
	Objects map[string]string // target UUID string -> emitted object path
}

// Build runs the full pipeline of spec §4.9 for the project at cfg.ProjectDir.
func Build(cfg Config) (*Result, error) {
	m, err := manifest.Load(cfg.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	meta, err := m.Meta()
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	lib, err := backend.Load(cfg.BackendPath)
	if err != nil {
		return nil, fmt.Errorf("driver: loading codegen backend: %w", err)
	}

	deps, err := resolveDependencies(cfg, m)
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}

	pkg := types.Package{
		Meta: meta,
		Exes: map[uuid.UUID]types.Binary[string]{},
		Libs: map[uuid.UUID]types.Binary[types.Library]{},
	}
	objects := map[string]string{}

	for _, target := range types.PrimitiveTargets {
		if cfg.Verbose {
			Logger.Printf("building target %s (%s)", target.Triple(), target.ID)
		}

		// The library pass runs first so its published types can seed the
		// executable pass's resolver under the package's own name, per
		// spec §2's flow and §4.4's two-pass population.
		var libDecls []types.TypeDeclaration
		var haveLib bool

		if m.Library != nil {
			files, err := parseSources(filepath.Join(cfg.ProjectDir, m.Library.Sources))
			if err != nil {
				return nil, fmt.Errorf("driver: %w", err)
			}
			resolver, err := newResolver(files, deps, nil, types.PackageMeta{})
			if err != nil {
				return nil, fmt.Errorf("driver: %w", err)
			}
			objPath, err := buildOne(lib, target, meta, false, cfg.ProjectDir, files, resolver)
			if err != nil {
				return nil, fmt.Errorf("driver: target %s: %w", target.Triple(), err)
			}

			out := filepath.Join(cfg.ProjectDir, ".build", target.ID.String(), libName(target, string(meta.Name)))
			if err := link.Run(link.Options{
				Target:   target,
				Kind:     link.KindSharedLibrary,
				Out:      out,
				Obj:      objPath,
				StubsDir: filepath.Join("stubs", target.Triple()),
			}); err != nil {
				return nil, fmt.Errorf("driver: linking %s: %w", target.Triple(), err)
			}

			libDecls = publishedTypes(files)
			haveLib = true
			pkg.Libs[target.ID] = types.Binary[types.Library]{Payload: types.Library{Path: out, Types: libDecls}}
		}

		if m.Executable != nil {
			files, err := parseSources(filepath.Join(cfg.ProjectDir, m.Executable.Sources))
			if err != nil {
				return nil, fmt.Errorf("driver: %w", err)
			}
			var selfLib []types.TypeDeclaration
			if haveLib {
				selfLib = libDecls
			}
			resolver, err := newResolver(files, deps, selfLib, meta)
			if err != nil {
				return nil, fmt.Errorf("driver: %w", err)
			}
			objPath, err := buildOne(lib, target, meta, true, cfg.ProjectDir, files, resolver)
			if err != nil {
				return nil, fmt.Errorf("driver: target %s: %w", target.Triple(), err)
			}

			out := filepath.Join(cfg.ProjectDir, ".build", target.ID.String(), exeName(target, string(meta.Name)))
			if err := link.Run(link.Options{
				Target:   target,
				Kind:     link.KindExecutable,
				Out:      out,
				Obj:      objPath,
				StubsDir: filepath.Join("stubs", target.Triple()),
			}); err != nil {
				return nil, fmt.Errorf("driver: linking %s: %w", target.Triple(), err)
			}

			objects[target.ID.String()] = objPath
			pkg.Exes[target.ID] = types.Binary[string]{Payload: out}
		}
	}

	return &Result{Package: pkg, Objects: objects}, nil
}

// newResolver seeds a fresh resolver with files' own internal types, every
// resolved manifest dependency's published surface, and — for the
// executable pass of a project that also builds a library — that library's
// own published types under the package's own name (spec §4.4: "the
// resolver is populated twice when a project has both a library and an
// executable").
func newResolver(files []*ast.SourceFile, deps []externalPackage, selfLib []types.TypeDeclaration, selfMeta types.PackageMeta) (*resolve.Resolver, error) {
	resolver := resolve.New()
	if err := resolver.AddInternal(files); err != nil {
		return nil, err
	}
	for _, dep := range deps {
		if err := resolver.AddExternal(dep.Meta, dep.Decls); err != nil {
			return nil, err
		}
	}
	if selfLib != nil {
		if err := resolver.AddExternal(selfMeta, selfLib); err != nil {
			return nil, err
		}
	}
	return resolver, nil
}

// resolveDependencies resolves every manifest dependency to its published
// type surface, via the registry fetch cache and (on a miss) the registry
// itself, per SPEC_FULL.md §5.1/§5.2. Returns nil if the manifest declares
// no dependencies.
func resolveDependencies(cfg Config, m *manifest.Manifest) ([]externalPackage, error) {
	if len(m.Dependencies) == 0 {
		return nil, nil
	}

	c, err := cache.Open(&cache.Config{DBPath: cfg.CacheDBPath})
	if err != nil {
		return nil, fmt.Errorf("opening registry cache: %w", err)
	}
	defer c.Close()

	host, err := types.HostPrimitiveTarget(goruntime.GOOS, goruntime.GOARCH)
	if err != nil {
		return nil, err
	}

	var client *registry.Client
	if cfg.RegistryAddr != "" {
		client, err = registry.Dial(cfg.RegistryAddr)
		if err != nil {
			return nil, err
		}
		defer client.Close()
	}

	out := make([]externalPackage, 0, len(m.Dependencies))
	for _, dep := range m.Dependencies {
		name, err := types.NewPackageName(dep.Name)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", dep.Name, err)
		}
		ver, err := manifest.ParseVersion(dep.Version)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", dep.Name, err)
		}

		npkBytes, ok := c.Get(name, ver)
		if !ok {
			if client == nil {
				return nil, fmt.Errorf("dependency %s@%s not cached and no registry configured", name, ver)
			}
			npkBytes, err = client.Fetch(context.Background(), name, ver)
			if err != nil {
				return nil, fmt.Errorf("fetching %s@%s: %w", name, ver, err)
			}
			if err := c.Put(name, ver, npkBytes); err != nil {
				return nil, fmt.Errorf("caching %s@%s: %w", name, ver, err)
			}
		}

		tmpDir, err := os.MkdirTemp("", "nitro-dep-")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(tmpDir)

		if err := npk.Unpack(bytes.NewReader(npkBytes), tmpDir); err != nil {
			return nil, fmt.Errorf("unpacking %s@%s: %w", name, ver, err)
		}
		decls, err := npk.ReadTypesFile(filepath.Join(tmpDir, "libs", host.ID.String(), "types"))
		if err != nil {
			return nil, fmt.Errorf("reading %s@%s published types: %w", name, ver, err)
		}

		out = append(out, externalPackage{Meta: types.PackageMeta{Name: name, Version: ver}, Decls: decls})
	}
	return out, nil
}

// parseSources walks dir recursively and parses every *.nt file found.
func parseSources(dir string) ([]*ast.SourceFile, error) {
	var files []*ast.SourceFile
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".nt") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}
		src := span.NewSource(rel, string(data))
		p := parser.New(rel, src)
		f, err := p.ParseFile(src)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", path, err)
		}
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// buildOne runs codegen + lowering for one target and emits an object file
// under <project>/.build/<target-uuid>/out.o. resolver must already be
// seeded (internal types, dependencies, and — for an executable pass — the
// project's own library) by the caller.
func buildOne(lib *backend.Library, target types.Target, meta types.PackageMeta, executable bool, projectDir string, files []*ast.SourceFile, resolver *resolve.Resolver) (string, error) {
	ctx, err := codegen.NewContext(lib, target, meta, executable)
	if err != nil {
		return "", err
	}
	defer ctx.Close()

	lw := codegen.NewLowerer(ctx, resolver)
	for _, f := range files {
		if err := lw.LowerFile(f); err != nil {
			return "", err
		}
	}

	if err := ctx.SynthesizeEntry(); err != nil {
		return "", err
	}

	workDir := filepath.Join(projectDir, ".build", target.ID.String())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", err
	}
	objPath := filepath.Join(workDir, "out.o")
	if err := ctx.EmitObject(objPath); err != nil {
		return "", err
	}
	return objPath, nil
}

// publishedTypes collects every @pub-annotated type/function into a
// types.TypeDeclaration set, for the library's .npk TYPES entry.
func publishedTypes(files []*ast.SourceFile) []types.TypeDeclaration {
	var decls []types.TypeDeclaration
	for _, f := range files {
		if f.Type == nil || !isPub(f.Type.Attributes) {
			continue
		}
		fqtn := f.Type.Name
		if f.Namespace != "" {
			fqtn = f.Namespace + "." + f.Type.Name
		}
		decl := types.TypeDeclaration{IsRef: f.Type.IsRef, FQTN: fqtn}
		for _, impl := range f.Impls {
			for _, fn := range impl.Funcs {
				if !isPub(fn.Attributes) {
					continue
				}
				decl.Funcs = append(decl.Funcs, publishedFunc(fn))
			}
		}
		decls = append(decls, decl)
	}
	return decls
}

func isPub(attrs []ast.Attribute) bool {
	for _, a := range attrs {
		if a.Name == "pub" {
			return true
		}
	}
	return false
}

func publishedFunc(fn ast.Function) types.Function {
	params := make([]types.FunctionParam, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = types.FunctionParam{Name: p.Name, Type: typeExprToPublishedType(p.Type)}
	}
	ret := types.Type{Kind: types.KindUnit}
	if fn.RetType != nil {
		ret = typeExprToPublishedType(*fn.RetType)
	}
	return types.Function{Name: fn.Name, Params: params, Ret: ret}
}

// typeExprToPublishedType renders a syntactic type expression into the
// published TypeDeclaration's Type shape without going through the
// resolver — published signatures record names as written, not resolved
// identities, matching the mangling grammar's own external encoding.
func typeExprToPublishedType(te ast.TypeExpr) types.Type {
	if te.Unit {
		return types.Type{Kind: types.KindUnit, PtrDepth: te.PtrDepth}
	}
	if te.Never {
		return types.Type{Kind: types.KindNever, PtrDepth: te.PtrDepth}
	}
	name := ""
	if len(te.Path) > 0 {
		name = te.Path[len(te.Path)-1]
	}
	return types.Type{Kind: types.KindStruct, PtrDepth: te.PtrDepth, Name: name}
}

func exeName(target types.Target, base string) string {
	if target.OS == "win32" {
		return base + ".exe"
	}
	return base
}

func libName(target types.Target, base string) string {
	switch target.OS {
	case "darwin":
		return "lib" + base + ".dylib"
	case "win32":
		return base + ".dll"
	default:
		return "lib" + base + ".so"
	}
}
