// Package codegen lowers a resolved AST into an LLVM-class IR module via
// internal/backend's FFI surface, per spec §4.6-§4.7.
//
// Lowering makes a single pass over each file's functions, declaring each
// function's prototype and emitting its body together; entry-point
// synthesis then runs once per module. The backend calls themselves are the
// nitro-specific part.
package codegen

import (
	"fmt"
	"unsafe"

	"github.com/jamesits/goinvoke"

	"github.com/nitrolang/nitro/internal/backend"
	"github.com/nitrolang/nitro/pkg/types"
)

// Handle is an opaque backend-owned object (context, module, function,
// block, builder, machine). The concrete representation is whatever the
// backend's FFI returns; codegen never interprets the bits itself.
type Handle uintptr

// Context wraps a backend context/module/machine triple and owns the
// namespace + entry-point state tracked during lowering, per spec §4.6. It
// holds no separate data-layout handle.
type Context struct {
	lib     *backend.Library
	target  types.Target
	pkgMeta types.PackageMeta
	exe     bool

	ctx     Handle
	module  Handle
	machine Handle

	namespace string
	entryName string // mangled name of the recorded @entry function, if any

	ptrSize int
}

// NewContext creates a Context for building target's module under pkg.
// executable selects between the executable and shared-library
// entry-synthesis paths in Close.
func NewContext(lib *backend.Library, target types.Target, pkg types.PackageMeta, executable bool) (*Context, error) {
	ctxHandle, err := call(lib.ContextCreate)
	if err != nil {
		return nil, fmt.Errorf("codegen: context create: %w", err)
	}
	triple := target.Triple()
	moduleHandle, err := call(lib.ModuleCreate, uintptr(ctxHandle), uintptr(cstring(triple)))
	if err != nil {
		mustCall(lib.ContextDispose, uintptr(ctxHandle))
		return nil, fmt.Errorf("codegen: module create: %w", err)
	}
	machineHandle, err := call(lib.MachineCreate, uintptr(cstring(triple)))
	if err != nil {
		mustCall(lib.ModuleDispose, uintptr(moduleHandle))
		mustCall(lib.ContextDispose, uintptr(ctxHandle))
		return nil, fmt.Errorf("codegen: machine create: %w", err)
	}

	ptrSize := 8
	if target.Arch != "x86_64" && target.Arch != "aarch64" {
		ptrSize = 4
	}

	return &Context{
		lib: lib, target: target, pkgMeta: pkg, exe: executable,
		ctx: Handle(ctxHandle), module: Handle(moduleHandle), machine: Handle(machineHandle),
		ptrSize: ptrSize,
	}, nil
}

// Close releases the context, module, and machine handles in reverse
// acquisition order, per spec §5's scope-exit release rule.
func (c *Context) Close() {
	mustCall(c.lib.MachineDispose, uintptr(c.machine))
	mustCall(c.lib.ModuleDispose, uintptr(c.module))
	mustCall(c.lib.ContextDispose, uintptr(c.ctx))
}

func (c *Context) PointerSize() int                { return c.ptrSize }
func (c *Context) Target() types.Target            { return c.target }
func (c *Context) Pkg() types.PackageName           { return c.pkgMeta.Name }
func (c *Context) Version() types.PackageVersion    { return c.pkgMeta.Version }
func (c *Context) Executable() bool                 { return c.exe }
func (c *Context) Namespace() string                { return c.namespace }
func (c *Context) SetNamespace(ns string)            { c.namespace = ns }
func (c *Context) Entry() (string, bool)             { return c.entryName, c.entryName != "" }

// SetEntry records the mangled name of the function tagged @entry. Calling
// it twice is a "multiple entry points" error, per spec §4.3/§4.7.
func (c *Context) SetEntry(mangled string) error {
	if c.entryName != "" {
		return fmt.Errorf("codegen: multiple entry points recorded (%q and %q)", c.entryName, mangled)
	}
	c.entryName = mangled
	return nil
}

// EmitObject verifies the module and writes an object file to path, per
// spec §4.6/§4.7.
func (c *Context) EmitObject(path string) error {
	ok, err := call(c.lib.ModuleVerify, uintptr(c.module))
	if err != nil {
		return fmt.Errorf("codegen: verify: %w", err)
	}
	if ok == 0 {
		return fmt.Errorf("codegen: module failed verification")
	}
	if _, err := call(c.lib.ModuleEmitObj, uintptr(c.module), uintptr(c.machine), uintptr(cstring(path))); err != nil {
		return fmt.Errorf("codegen: emit object: %w", err)
	}
	return nil
}

// -- small FFI call helpers --------------------------------------------
//
// call/mustCall give the rest of the package a uniform, error-checked call
// site instead of repeating proc.Call(...) everywhere, and cstring mirrors
// the project's own C-string marshaling convention around FFI calls.

func call(proc *goinvoke.Proc, args ...uintptr) (uintptr, error) {
	r, _, err := proc.Call(args...)
	if err != nil {
		return 0, err
	}
	return r, nil
}

// mustCall is used for disposal calls on scope exit: a dispose failure is
// not actionable by the caller and is swallowed, matching the "every
// *_dispose is called by the owning scope" contract from spec §9.
func mustCall(proc *goinvoke.Proc, args ...uintptr) {
	_, _, _ = proc.Call(args...)
}

// cstring converts a Go string into a NUL-terminated C string pointer. The
// backing array is kept alive by the reference the returned pointer holds,
// so unlike the project's malloc-backed plugin FFI, there is nothing to
// free on this side.
func cstring(s string) unsafe.Pointer {
	b := append([]byte(s), 0)
	return unsafe.Pointer(&b[0])
}
