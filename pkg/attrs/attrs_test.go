package attrs

import (
	"testing"

	"github.com/nitrolang/nitro/pkg/types"
)

func TestUnixMatchesDarwinAndLinux(t *testing.T) {
	for _, target := range []types.Target{types.TargetLinuxGNUAMD64, types.TargetDarwinAMD64} {
		ok, err := EvalIf("unix", target)
		if err != nil || !ok {
			t.Fatalf("expected unix match for %s, got ok=%v err=%v", target.OS, ok, err)
		}
	}
	ok, err := EvalIf("unix", types.TargetWin32MSVCAMD64)
	if err != nil || ok {
		t.Fatalf("expected unix mismatch for win32, got ok=%v err=%v", ok, err)
	}
}

func TestBareOSName(t *testing.T) {
	ok, err := EvalIf("linux", types.TargetLinuxGNUAMD64)
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
	ok, err = EvalIf("linux", types.TargetDarwinAMD64)
	if err != nil || ok {
		t.Fatalf("expected mismatch, got ok=%v err=%v", ok, err)
	}
}

func TestOSCompareEquals(t *testing.T) {
	ok, err := EvalIf(`os == "windows"`, types.TargetWin32MSVCAMD64)
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
}

func TestOSCompareNotEquals(t *testing.T) {
	ok, err := EvalIf(`os != "windows"`, types.TargetLinuxGNUAMD64)
	if err != nil || !ok {
		t.Fatalf("got ok=%v err=%v", ok, err)
	}
}

func TestUnrecognizedConditionIsError(t *testing.T) {
	if _, err := EvalIf("bogus", types.TargetLinuxGNUAMD64); err == nil {
		t.Fatal("expected error for unrecognized condition")
	}
}
