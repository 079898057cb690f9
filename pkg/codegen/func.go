package codegen

import (
	"fmt"
	"unsafe"
)

// LlvmFunc wraps a backend function value, per spec §4.6.
type LlvmFunc struct {
	ctx    *Context
	handle Handle
	Name   string
}

// GetFunc looks up an already-declared function by its mangled name,
// returning ok=false if none exists yet.
func (c *Context) GetFunc(name string) (LlvmFunc, bool, error) {
	h, err := call(c.lib.FuncGet, uintptr(c.module), uintptr(cstring(name)))
	if err != nil {
		return LlvmFunc{}, false, err
	}
	if h == 0 {
		return LlvmFunc{}, false, nil
	}
	return LlvmFunc{ctx: c, handle: Handle(h), Name: name}, true, nil
}

// NewFunc declares a function with the given mangled name, parameter
// types, and return type, per spec §4.6.
func (c *Context) NewFunc(name string, params []IRType, ret IRType) (LlvmFunc, error) {
	paramHandles := make([]uintptr, len(params))
	for i, p := range params {
		paramHandles[i] = uintptr(p.handle)
	}
	var paramsPtr uintptr
	if len(paramHandles) > 0 {
		paramsPtr = uintptr(unsafe.Pointer(&paramHandles[0]))
	}
	h, err := call(c.lib.FuncCreate,
		uintptr(c.module), uintptr(cstring(name)),
		paramsPtr, uintptr(len(paramHandles)), uintptr(ret.handle),
	)
	if err != nil {
		return LlvmFunc{}, fmt.Errorf("codegen: declare function %q: %w", name, err)
	}
	return LlvmFunc{ctx: c, handle: Handle(h), Name: name}, nil
}

// AppendBlock appends a new basic block to f and returns its handle.
// Ownership of the block transfers to the function immediately, per spec
// §5 ("the scope-exit release is skipped").
func (f LlvmFunc) AppendBlock(label string) (Handle, error) {
	h, err := call(f.ctx.lib.FuncAppendBlock, uintptr(f.handle), uintptr(cstring(label)))
	if err != nil {
		return 0, err
	}
	return Handle(h), nil
}

// SetStdcall marks f as using the stdcall calling convention, used for
// Win32's _DllMainCRTStartup synthesis per spec §4.7.
func (f LlvmFunc) SetStdcall() error {
	_, err := call(f.ctx.lib.FuncSetStdcall, uintptr(f.handle))
	return err
}

// SetNoreturn marks f as never returning, used for `exit` and for any
// function whose return type lowers from Never, per spec §4.7.
func (f LlvmFunc) SetNoreturn() error {
	_, err := call(f.ctx.lib.FuncSetNoreturn, uintptr(f.handle))
	return err
}
