package link

import (
	"strings"
	"testing"

	"github.com/nitrolang/nitro/pkg/types"
)

func TestDarwinExecutableArgsOmitDylib(t *testing.T) {
	args, err := Args(Options{Target: types.TargetDarwinAMD64, Kind: KindExecutable, Out: "a.out", Obj: "a.o", StubsDir: "stubs"})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if strings.Contains(joined, "-dylib") {
		t.Fatalf("executable build should not pass -dylib: %s", joined)
	}
	if !strings.Contains(joined, "-arch x86_64") {
		t.Fatalf("expected -arch x86_64, got %s", joined)
	}
}

func TestDarwinSharedLibraryArgsIncludeDylib(t *testing.T) {
	args, err := Args(Options{Target: types.TargetDarwinARM64, Kind: KindSharedLibrary, Out: "a.dylib", Obj: "a.o", StubsDir: "stubs"})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-dylib") || !strings.Contains(joined, "-arch arm64") {
		t.Fatalf("got %s", joined)
	}
}

func TestLinuxExecutableArgs(t *testing.T) {
	args, err := Args(Options{Target: types.TargetLinuxGNUAMD64, Kind: KindExecutable, Out: "a.out", Obj: "a.o", StubsDir: "stubs"})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "--entry=main") || !strings.Contains(joined, "--dynamic-linker=/lib64/ld-linux-x86-64.so.2") {
		t.Fatalf("got %s", joined)
	}
}

func TestWin32SharedLibraryArgs(t *testing.T) {
	args, err := Args(Options{Target: types.TargetWin32MSVCAMD64, Kind: KindSharedLibrary, Out: "a.dll", Obj: "a.o", StubsDir: "stubs"})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "/dll") || !strings.Contains(joined, "/def:a.dll.def") {
		t.Fatalf("got %s", joined)
	}
}

func TestDefFileContents(t *testing.T) {
	out := DefFileContents([]string{"_NEFfoo", "_NEFbar"})
	if !strings.HasPrefix(out, "EXPORTS\n") || !strings.Contains(out, "_NEFfoo\n") {
		t.Fatalf("got %q", out)
	}
}
