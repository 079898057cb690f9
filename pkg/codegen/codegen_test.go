package codegen

import "testing"

func TestReprTypeUnknownIsError(t *testing.T) {
	c := &Context{}
	if _, err := c.ReprType("f64"); err == nil {
		t.Fatal("expected error for unknown representation")
	}
}

func TestSetEntryRejectsSecondCall(t *testing.T) {
	c := &Context{}
	if err := c.SetEntry("_NIF...Main"); err != nil {
		t.Fatalf("first SetEntry should succeed: %v", err)
	}
	if err := c.SetEntry("_NIF...Other"); err == nil {
		t.Fatal("expected error recording a second entry point")
	}
	name, ok := c.Entry()
	if !ok || name != "_NIF...Main" {
		t.Fatalf("expected first entry to stick, got %q ok=%v", name, ok)
	}
}

func TestAccessors(t *testing.T) {
	c := &Context{exe: true, namespace: "foo.bar"}
	if !c.Executable() {
		t.Fatal("expected executable true")
	}
	if c.Namespace() != "foo.bar" {
		t.Fatalf("got %q", c.Namespace())
	}
	c.SetNamespace("baz")
	if c.Namespace() != "baz" {
		t.Fatalf("got %q", c.Namespace())
	}
}
