package npk

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nitrolang/nitro/pkg/types"
	"gopkg.in/yaml.v3"
)

func testPackage(t *testing.T) types.Package {
	t.Helper()
	name, err := types.NewPackageName("widgets")
	if err != nil {
		t.Fatal(err)
	}
	depName, err := types.NewPackageName("core")
	if err != nil {
		t.Fatal(err)
	}

	buildDir := t.TempDir()
	exePath := filepath.Join(buildDir, "widgets")
	if err := os.WriteFile(exePath, []byte("fake-exe-bytes"), 0o755); err != nil {
		t.Fatal(err)
	}
	libPath := filepath.Join(buildDir, "libwidgets.o")
	if err := os.WriteFile(libPath, []byte("fake-object-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	target := types.TargetLinuxGNUAMD64.ID
	return types.Package{
		Meta: types.PackageMeta{
			Name:    name,
			Version: types.PackageVersion{Major: 1, Minor: 2, Patch: 3},
		},
		Exes: map[uuid.UUID]types.Binary[string]{
			target: {
				Payload: exePath,
				Deps:    []types.Dependency{{Name: depName, Version: types.PackageVersion{Major: 1}}},
			},
		},
		Libs: map[uuid.UUID]types.Binary[types.Library]{
			target: {
				Deps: []types.Dependency{{Name: depName, Version: types.PackageVersion{Major: 1}}},
				Payload: types.Library{
					Path: libPath,
					Types: []types.TypeDeclaration{
						{
							IsRef: true,
							FQTN:  "self.widgets.Box",
							Funcs: []types.Function{
								{
									Name: "open",
									Ret:  types.Type{Kind: types.KindUnit},
									Params: []types.FunctionParam{
										{Name: "self", Type: types.Type{Kind: types.KindClass, Name: "Box", PtrDepth: 1}},
									},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestPackUnpackRoundTrip(t *testing.T) {
	pkg := testPackage(t)
	var buf bytes.Buffer
	when := time.Unix(1700000000, 0)
	if err := Pack(&buf, pkg, when); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	dest := t.TempDir()
	if err := Unpack(&buf, dest); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	metaBytes, err := os.ReadFile(filepath.Join(dest, "meta.yml"))
	if err != nil {
		t.Fatalf("reading meta.yml: %v", err)
	}
	var meta UnpackedMeta
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		t.Fatalf("unmarshal meta.yml: %v", err)
	}
	if meta.Name != "widgets" {
		t.Fatalf("expected name widgets, got %q", meta.Name)
	}
	if meta.Version != "1.2.3" {
		t.Fatalf("expected version 1.2.3, got %q", meta.Version)
	}

	libDir := filepath.Join(dest, "libs", types.TargetLinuxGNUAMD64.ID.String())
	libBinBytes, err := os.ReadFile(filepath.Join(libDir, "bin"))
	if err != nil {
		t.Fatalf("expected bin file: %v", err)
	}
	if string(libBinBytes) != "fake-object-bytes" {
		t.Fatalf("expected real object bytes round-tripped, got %q", libBinBytes)
	}
	typesBytes, err := os.ReadFile(filepath.Join(libDir, "types"))
	if err != nil {
		t.Fatalf("reading types file: %v", err)
	}

	decoded, err := decodeAllTypeDeclarations(bytes.NewReader(typesBytes[4:]), 1)
	if err != nil {
		t.Fatalf("decodeAllTypeDeclarations: %v", err)
	}
	if len(decoded) != 1 || decoded[0].FQTN != "self.widgets.Box" {
		t.Fatalf("unexpected decoded declarations: %+v", decoded)
	}
	if len(decoded[0].Funcs) != 1 || decoded[0].Funcs[0].Name != "open" {
		t.Fatalf("unexpected decoded funcs: %+v", decoded[0].Funcs)
	}

	viaHelper, err := ReadTypesFile(filepath.Join(libDir, "types"))
	if err != nil {
		t.Fatalf("ReadTypesFile: %v", err)
	}
	if len(viaHelper) != 1 || viaHelper[0].FQTN != "self.widgets.Box" {
		t.Fatalf("unexpected ReadTypesFile result: %+v", viaHelper)
	}

	depsBytes, err := os.ReadFile(filepath.Join(libDir, "deps.yml"))
	if err != nil {
		t.Fatalf("reading deps.yml: %v", err)
	}
	if !bytes.Contains(depsBytes, []byte("core")) {
		t.Fatalf("expected dependency name in deps.yml, got %s", depsBytes)
	}
}

func TestUnpackSystemLibraryWritesStubBin(t *testing.T) {
	pkg := testPackage(t)
	target := types.TargetLinuxGNUAMD64.ID
	bin := pkg.Libs[target]
	bin.Payload.SystemName = "pthread"
	bin.Payload.Path = ""
	pkg.Libs[target] = bin

	var buf bytes.Buffer
	if err := Pack(&buf, pkg, time.Unix(0, 0)); err != nil {
		t.Fatalf("Pack: %v", err)
	}

	dest := t.TempDir()
	if err := Unpack(&buf, dest); err != nil {
		t.Fatalf("Unpack: %v", err)
	}

	libDir := filepath.Join(dest, "libs", target.String())
	binBytes, err := os.ReadFile(filepath.Join(libDir, "bin"))
	if err != nil {
		t.Fatalf("reading bin file: %v", err)
	}
	if string(binBytes) != "\x7FNLSpthread" {
		t.Fatalf("expected \\x7FNLS stub, got %q", binBytes)
	}
	if _, err := os.Stat(filepath.Join(libDir, "deps.yml")); err != nil {
		t.Fatalf("expected deps.yml alongside a system library stub: %v", err)
	}
}

func TestUnpackUnknownTagIsError(t *testing.T) {
	var buf bytes.Buffer
	buf.Write(npkMagic[:])
	buf.WriteByte(200)

	dest := t.TempDir()
	err := Unpack(&buf, dest)
	if err == nil {
		t.Fatal("expected error for unknown tag")
	}
	var unknown UnknownEntryError
	if !errorsAs(err, &unknown) {
		t.Fatalf("expected UnknownEntryError, got %v", err)
	}
	if unknown.Tag != 200 {
		t.Fatalf("expected tag 200, got %d", unknown.Tag)
	}
}

func errorsAs(err error, target *UnknownEntryError) bool {
	if e, ok := err.(UnknownEntryError); ok {
		*target = e
		return true
	}
	return false
}
