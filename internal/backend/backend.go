// Package backend wraps the dynamically-loaded LLVM-class code generation
// library behind a thin C-callable FFI surface, per spec §4.6 and §9
// ("LLVM FFI").
//
// Functions are resolved by name from a shared library via goinvoke — the
// same dynamic-loading mechanism the project's plugin loader uses — rather
// than cgo, keeping the Go toolchain's build free of a C compiler
// dependency.
package backend

import (
	"fmt"

	"github.com/jamesits/goinvoke"
)

// Library is the full set of backend entry points nitro's codegen layer
// needs. Every "*_new"/"*Create" has a matching "*_dispose"/"Dispose",
// called by the owning scope on every path including errors, per spec §5.
type Library struct {
	// Process-wide initialization, called once.
	InitializeNativeTarget *goinvoke.Proc `func:"Nitro_InitializeNativeTarget"`

	// Context, module, target triple, target machine lifecycle.
	ContextCreate  *goinvoke.Proc `func:"Nitro_ContextCreate"`
	ContextDispose *goinvoke.Proc `func:"Nitro_ContextDispose"`

	ModuleCreate  *goinvoke.Proc `func:"Nitro_ModuleCreate"`
	ModuleDispose *goinvoke.Proc `func:"Nitro_ModuleDispose"`
	ModuleVerify  *goinvoke.Proc `func:"Nitro_ModuleVerify"`
	ModuleEmitObj *goinvoke.Proc `func:"Nitro_ModuleEmitObj"`

	TargetTripleFromTriple *goinvoke.Proc `func:"Nitro_TargetTripleFromTriple"`
	ProcessTriple          *goinvoke.Proc `func:"Nitro_ProcessTriple"`

	MachineCreate  *goinvoke.Proc `func:"Nitro_MachineCreate"`
	MachineDispose *goinvoke.Proc `func:"Nitro_MachineDispose"`

	// Type constructors.
	TypeVoid    *goinvoke.Proc `func:"Nitro_TypeVoid"`
	TypeInt     *goinvoke.Proc `func:"Nitro_TypeInt"`
	TypePointer *goinvoke.Proc `func:"Nitro_TypePointer"`

	// Functions and basic blocks.
	FuncCreate      *goinvoke.Proc `func:"Nitro_FuncCreate"`
	FuncGet         *goinvoke.Proc `func:"Nitro_FuncGet"`
	FuncAppendBlock *goinvoke.Proc `func:"Nitro_FuncAppendBlock"`
	FuncSetStdcall  *goinvoke.Proc `func:"Nitro_FuncSetStdcall"`
	FuncSetNoreturn *goinvoke.Proc `func:"Nitro_FuncSetNoreturn"`

	// Builder.
	BuilderCreate   *goinvoke.Proc `func:"Nitro_BuilderCreate"`
	BuilderDispose  *goinvoke.Proc `func:"Nitro_BuilderDispose"`
	BuilderPosition *goinvoke.Proc `func:"Nitro_BuilderPosition"`
	BuilderCall     *goinvoke.Proc `func:"Nitro_BuilderCall"`
	BuilderRet      *goinvoke.Proc `func:"Nitro_BuilderRet"`
	BuilderRetVoid  *goinvoke.Proc `func:"Nitro_BuilderRetVoid"`

	// System linker driver.
	LLDLink *goinvoke.Proc `func:"Nitro_LLDLink"`
}

// Load resolves every Library function against the shared object at path,
// mirroring the project's plugin loader: after goinvoke.Unmarshal, every
// required proc is checked non-nil so a malformed or stale backend fails
// fast instead of panicking on first use.
func Load(path string) (*Library, error) {
	lib := &Library{}
	if err := goinvoke.Unmarshal(path, lib); err != nil {
		return nil, fmt.Errorf("backend: failed to load %s: %w", path, err)
	}

	missing := lib.missingProcs()
	if len(missing) > 0 {
		return nil, fmt.Errorf("backend: %s is missing required symbols: %v", path, missing)
	}
	return lib, nil
}

func (l *Library) missingProcs() []string {
	var missing []string
	procs := map[string]*goinvoke.Proc{
		"InitializeNativeTarget": l.InitializeNativeTarget,
		"ContextCreate":          l.ContextCreate,
		"ContextDispose":         l.ContextDispose,
		"ModuleCreate":           l.ModuleCreate,
		"ModuleDispose":          l.ModuleDispose,
		"ModuleVerify":           l.ModuleVerify,
		"ModuleEmitObj":          l.ModuleEmitObj,
		"TargetTripleFromTriple": l.TargetTripleFromTriple,
		"ProcessTriple":          l.ProcessTriple,
		"MachineCreate":          l.MachineCreate,
		"MachineDispose":         l.MachineDispose,
		"TypeVoid":               l.TypeVoid,
		"TypeInt":                l.TypeInt,
		"TypePointer":            l.TypePointer,
		"FuncCreate":             l.FuncCreate,
		"FuncGet":                l.FuncGet,
		"FuncAppendBlock":        l.FuncAppendBlock,
		"FuncSetStdcall":         l.FuncSetStdcall,
		"FuncSetNoreturn":        l.FuncSetNoreturn,
		"BuilderCreate":          l.BuilderCreate,
		"BuilderDispose":         l.BuilderDispose,
		"BuilderPosition":        l.BuilderPosition,
		"BuilderCall":            l.BuilderCall,
		"BuilderRet":             l.BuilderRet,
		"BuilderRetVoid":         l.BuilderRetVoid,
		"LLDLink":                l.LLDLink,
	}
	for name, p := range procs {
		if p == nil {
			missing = append(missing, name)
		}
	}
	return missing
}
