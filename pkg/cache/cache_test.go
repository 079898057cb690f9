package cache

import (
	"path/filepath"
	"testing"

	"github.com/nitrolang/nitro/pkg/types"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "registry-cache.db")
	c, err := Open(&Config{DBPath: dbPath})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPutThenGet(t *testing.T) {
	c := openTestCache(t)
	name, _ := types.NewPackageName("widgets")
	ver := types.PackageVersion{Major: 1, Minor: 2, Patch: 3}

	if err := c.Put(name, ver, []byte{1, 2, 3}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok := c.Get(name, ver)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if len(got) != 3 {
		t.Fatalf("got %v", got)
	}
}

func TestGetMissIsFalse(t *testing.T) {
	c := openTestCache(t)
	name, _ := types.NewPackageName("widgets")
	_, ok := c.Get(name, types.PackageVersion{Major: 9})
	if ok {
		t.Fatal("expected cache miss")
	}
}

func TestPutOverwritesStaleEntry(t *testing.T) {
	c := openTestCache(t)
	name, _ := types.NewPackageName("widgets")
	ver := types.PackageVersion{Major: 1}

	if err := c.Put(name, ver, []byte("old")); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(name, ver, []byte("new")); err != nil {
		t.Fatal(err)
	}
	got, ok := c.Get(name, ver)
	if !ok || string(got) != "new" {
		t.Fatalf("expected \"new\", got %q ok=%v", got, ok)
	}
}

func TestSeparateDatabasesDoNotShareEntries(t *testing.T) {
	c1 := openTestCache(t)
	c2 := openTestCache(t)
	name, _ := types.NewPackageName("widgets")
	ver := types.PackageVersion{Major: 1}

	if err := c1.Put(name, ver, []byte("only-in-c1")); err != nil {
		t.Fatal(err)
	}
	if _, ok := c2.Get(name, ver); ok {
		t.Fatal("expected cache miss in a separate database")
	}
}
