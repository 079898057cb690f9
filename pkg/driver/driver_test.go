package driver

import (
	"bytes"
	"os"
	"path/filepath"
	goruntime "runtime"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nitrolang/nitro/pkg/ast"
	"github.com/nitrolang/nitro/pkg/cache"
	"github.com/nitrolang/nitro/pkg/manifest"
	"github.com/nitrolang/nitro/pkg/npk"
	"github.com/nitrolang/nitro/pkg/types"
)

func TestPublishedTypesSkipsNonPubTypes(t *testing.T) {
	files := []*ast.SourceFile{
		{
			Namespace: "widgets",
			Type:      &ast.TypeDefinition{Name: "Box", IsRef: true},
		},
	}
	if got := publishedTypes(files); len(got) != 0 {
		t.Fatalf("expected no published types, got %+v", got)
	}
}

func TestPublishedTypesCollectsPubFunctions(t *testing.T) {
	files := []*ast.SourceFile{
		{
			Namespace: "widgets",
			Type: &ast.TypeDefinition{
				Name:       "Box",
				IsRef:      true,
				Attributes: []ast.Attribute{{Name: "pub"}},
			},
			Impls: []ast.ImplBlock{
				{
					TypeName: "Box",
					Funcs: []ast.Function{
						{
							Name:       "open",
							Attributes: []ast.Attribute{{Name: "pub"}},
							Params:     []ast.Param{{Name: "self", Type: ast.TypeExpr{PtrDepth: 1, Path: []string{"Box"}}}},
						},
						{Name: "internalHelper"},
					},
				},
			},
		},
	}

	decls := publishedTypes(files)
	if len(decls) != 1 {
		t.Fatalf("expected 1 published type, got %d", len(decls))
	}
	if decls[0].FQTN != "widgets.Box" || !decls[0].IsRef {
		t.Fatalf("unexpected decl: %+v", decls[0])
	}
	if len(decls[0].Funcs) != 1 || decls[0].Funcs[0].Name != "open" {
		t.Fatalf("expected only the pub function, got %+v", decls[0].Funcs)
	}
}

func TestExeNameAddsExeSuffixOnWin32(t *testing.T) {
	if got := exeName(types.TargetWin32MSVCAMD64, "p"); got != "p.exe" {
		t.Fatalf("got %q", got)
	}
	if got := exeName(types.TargetLinuxGNUAMD64, "p"); got != "p" {
		t.Fatalf("got %q", got)
	}
}

func TestLibNamePerOS(t *testing.T) {
	cases := []struct {
		target types.Target
		want   string
	}{
		{types.TargetDarwinARM64, "libp.dylib"},
		{types.TargetWin32MSVCAMD64, "p.dll"},
		{types.TargetLinuxGNUAMD64, "libp.so"},
	}
	for _, c := range cases {
		if got := libName(c.target, "p"); got != c.want {
			t.Fatalf("target %s: got %q, want %q", c.target.Triple(), got, c.want)
		}
	}
}

func TestNewResolverSeedsDepsThenSelfLib(t *testing.T) {
	depMeta := types.PackageMeta{Name: "core", Version: types.PackageVersion{Major: 1}}
	depDecls := []types.TypeDeclaration{{IsRef: false, FQTN: "core.Point"}}
	deps := []externalPackage{{Meta: depMeta, Decls: depDecls}}

	libName, err := types.NewPackageName("widgets")
	if err != nil {
		t.Fatal(err)
	}
	selfMeta := types.PackageMeta{Name: libName, Version: types.PackageVersion{Major: 1}}
	selfDecls := []types.TypeDeclaration{{IsRef: true, FQTN: "widgets.Box"}}

	resolver, err := newResolver(nil, deps, selfDecls, selfMeta)
	if err != nil {
		t.Fatalf("newResolver: %v", err)
	}

	if res, ok := resolver.Lookup("core.Point"); !ok || res.External == nil {
		t.Fatalf("expected dependency type core.Point to resolve externally, got %+v (ok=%v)", res, ok)
	}
	if res, ok := resolver.Lookup("widgets.Box"); !ok || res.External == nil {
		t.Fatalf("expected self-library type widgets.Box to resolve externally, got %+v (ok=%v)", res, ok)
	}
}

func TestNewResolverWithoutSelfLibSkipsSecondPass(t *testing.T) {
	resolver, err := newResolver(nil, nil, nil, types.PackageMeta{})
	if err != nil {
		t.Fatalf("newResolver: %v", err)
	}
	if _, ok := resolver.Lookup("widgets.Box"); ok {
		t.Fatalf("expected no external types without a self library")
	}
}

func TestResolveDependenciesNoneDeclared(t *testing.T) {
	m := &manifest.Manifest{}
	out, err := resolveDependencies(Config{}, m)
	if err != nil {
		t.Fatalf("resolveDependencies: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil, got %+v", out)
	}
}

func TestResolveDependenciesReadsFromCache(t *testing.T) {
	tmpDir := t.TempDir()

	depName, err := types.NewPackageName("core")
	if err != nil {
		t.Fatal(err)
	}
	host, err := types.HostPrimitiveTarget(goruntime.GOOS, goruntime.GOARCH)
	if err != nil {
		t.Fatal(err)
	}

	objPath := filepath.Join(tmpDir, "libcore.o")
	if err := os.WriteFile(objPath, []byte("fake-object-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	depPkg := types.Package{
		Meta: types.PackageMeta{Name: depName, Version: types.PackageVersion{Major: 1}},
		Libs: map[uuid.UUID]types.Binary[types.Library]{
			host.ID: {
				Payload: types.Library{
					Path:  objPath,
					Types: []types.TypeDeclaration{{IsRef: false, FQTN: "self.core.Point"}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := npk.Pack(&buf, depPkg, time.Unix(0, 0)); err != nil {
		t.Fatalf("npk.Pack: %v", err)
	}

	c, err := cache.Open(&cache.Config{DBPath: filepath.Join(tmpDir, "cache.db")})
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	defer c.Close()
	if err := c.Put(depName, types.PackageVersion{Major: 1}, buf.Bytes()); err != nil {
		t.Fatalf("cache.Put: %v", err)
	}

	m := &manifest.Manifest{
		Dependencies: []manifest.Dependency{{Name: "core", Version: "1.0.0"}},
	}
	out, err := resolveDependencies(Config{CacheDBPath: filepath.Join(tmpDir, "cache.db")}, m)
	if err != nil {
		t.Fatalf("resolveDependencies: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 resolved dependency, got %d", len(out))
	}
	if out[0].Meta.Name != depName {
		t.Fatalf("expected dependency name %q, got %q", depName, out[0].Meta.Name)
	}
	if len(out[0].Decls) != 1 || out[0].Decls[0].FQTN != "self.core.Point" {
		t.Fatalf("unexpected resolved decls: %+v", out[0].Decls)
	}
}

func TestResolveDependenciesMissingFromCacheWithoutRegistryErrors(t *testing.T) {
	tmpDir := t.TempDir()
	m := &manifest.Manifest{
		Dependencies: []manifest.Dependency{{Name: "core", Version: "1.0.0"}},
	}
	_, err := resolveDependencies(Config{CacheDBPath: filepath.Join(tmpDir, "cache.db")}, m)
	if err == nil {
		t.Fatal("expected error for an uncached dependency with no registry configured")
	}
}
