package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "Nitro.yml"), []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestLoadExecutableManifest(t *testing.T) {
	dir := writeManifest(t, "package:\n  name: p\n  version: 1.0.0\nexecutable:\n  sources: src\n")
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Package.Name != "p" || m.Executable.Sources != "src" {
		t.Fatalf("unexpected manifest: %+v", m)
	}
	meta, err := m.Meta()
	if err != nil {
		t.Fatalf("Meta: %v", err)
	}
	if meta.Version.Major != 1 {
		t.Fatalf("expected major 1, got %d", meta.Version.Major)
	}
}

func TestLoadRequiresExecutableOrLibrary(t *testing.T) {
	dir := writeManifest(t, "package:\n  name: p\n  version: 1.0.0\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error when neither executable nor library is set")
	}
}

func TestLoadRejectsBadVersion(t *testing.T) {
	dir := writeManifest(t, "package:\n  name: p\n  version: not-a-version\nexecutable:\n  sources: src\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for malformed version")
	}
}

func TestLoadRejectsBadName(t *testing.T) {
	dir := writeManifest(t, "package:\n  name: Bad-Name\n  version: 1.0.0\nexecutable:\n  sources: src\n")
	if _, err := Load(dir); err == nil {
		t.Fatal("expected error for invalid package name")
	}
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("2.3.4")
	if err != nil {
		t.Fatal(err)
	}
	if v.Major != 2 || v.Minor != 3 || v.Patch != 4 {
		t.Fatalf("got %+v", v)
	}
}
