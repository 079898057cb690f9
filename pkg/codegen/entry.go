package codegen

import "fmt"

// SynthesizeEntry closes out the module per spec §4.7's entry-point
// synthesis rules:
//
//   - executable: declare a noreturn `exit(i32)`, then emit `_main` that
//     calls it with 0 and (unreachably) returns void. Errors if no @entry
//     was recorded.
//   - shared library on Win32: emit a stdcall `_DllMainCRTStartup` that
//     always returns 1.
func (c *Context) SynthesizeEntry() error {
	if c.Executable() {
		return c.synthesizeMain()
	}
	if c.Target().OS == "win32" {
		return c.synthesizeDllMain()
	}
	return nil
}

func (c *Context) synthesizeMain() error {
	if _, ok := c.Entry(); !ok {
		return fmt.Errorf("codegen: executable build requires exactly one @entry function")
	}

	i32, err := c.I32()
	if err != nil {
		return err
	}
	voidT, err := c.Void()
	if err != nil {
		return err
	}

	exitFn, ok, err := c.GetFunc("exit")
	if err != nil {
		return err
	}
	if !ok {
		exitFn, err = c.NewFunc("exit", []IRType{i32}, voidT)
		if err != nil {
			return err
		}
		if err := exitFn.SetNoreturn(); err != nil {
			return err
		}
	}

	mainFn, err := c.NewFunc("_main", nil, voidT)
	if err != nil {
		return err
	}
	block, err := mainFn.AppendBlock("entry")
	if err != nil {
		return err
	}
	b, err := c.NewBuilder(mainFn, block)
	if err != nil {
		return err
	}
	defer b.Close()

	zero := b.ConstInt(i32, 0)
	if _, err := b.Call(exitFn, []Handle{zero}); err != nil {
		return err
	}
	// exit(0) never returns; this ret_void is unreachable but keeps the
	// block (and therefore the module) well-formed, per spec §4.7.
	return b.RetVoid()
}

func (c *Context) synthesizeDllMain() error {
	i32, err := c.I32()
	if err != nil {
		return err
	}
	voidPtr, err := c.Ptr(i32)
	if err != nil {
		return err
	}

	fn, err := c.NewFunc("_DllMainCRTStartup", []IRType{voidPtr, i32, voidPtr}, i32)
	if err != nil {
		return err
	}
	if err := fn.SetStdcall(); err != nil {
		return err
	}

	block, err := fn.AppendBlock("entry")
	if err != nil {
		return err
	}
	b, err := c.NewBuilder(fn, block)
	if err != nil {
		return err
	}
	defer b.Close()

	one := b.ConstInt(i32, 1)
	return b.Ret(one)
}
