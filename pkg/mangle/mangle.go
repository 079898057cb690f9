// Package mangle implements the deterministic ASCII symbol-name grammar
// from spec §4.5.
package mangle

import (
	"fmt"
	"strings"

	"github.com/nitrolang/nitro/pkg/types"
)

func lenPrefixed(segments []string) string {
	var b strings.Builder
	for _, s := range segments {
		fmt.Fprintf(&b, "%d%s", len(s), s)
	}
	return b.String()
}

func typeRef(t types.Type) string {
	var b strings.Builder
	for i := 0; i < t.PtrDepth; i++ {
		b.WriteByte('P')
	}
	switch t.Kind {
	case types.KindUnit:
		b.WriteByte('U')
	case types.KindNever:
		b.WriteByte('N')
	case types.KindStruct:
		if t.Pkg == nil {
			b.WriteByte('S')
			b.WriteString(lenPrefixed(strings.Split(t.Name, ".")))
		} else {
			b.WriteByte('E')
			writeExternalHeader(&b, *t.Pkg)
			b.WriteString(lenPrefixed(strings.Split(t.Name, ".")))
		}
	case types.KindClass:
		b.WriteByte('C')
		if t.Pkg == nil {
			b.WriteByte('S')
		} else {
			writeExternalHeader(&b, *t.Pkg)
		}
		b.WriteString(lenPrefixed(strings.Split(t.Name, ".")))
	}
	return b.String()
}

func writeExternalHeader(b *strings.Builder, pkg types.PackageRef) {
	fmt.Fprintf(b, "%d%s", len(pkg.Name), pkg.Name)
	if pkg.Major != 0 {
		fmt.Fprintf(b, "V%d", pkg.Major)
	}
	b.WriteByte('T')
}

// Func mangles a function symbol per spec §4.5. pkg is nil for internal
// (executable-local) functions, which use the _NIF prefix; otherwise the
// _NEF exported form is used. typeFQTN is the dotted owning-type path.
func Func(pkg *types.PackageRef, typeFQTN string, name string, ret types.Type, params []types.Type) string {
	var b strings.Builder
	if pkg == nil {
		b.WriteString("_NIF")
	} else {
		b.WriteString("_NEF")
		fmt.Fprintf(&b, "%d%s", len(pkg.Name), pkg.Name)
		if pkg.Major != 0 {
			fmt.Fprintf(&b, "V%d", pkg.Major)
		}
		b.WriteByte('T')
	}

	b.WriteString(lenPrefixed(strings.Split(typeFQTN, ".")))

	b.WriteByte('F')
	fmt.Fprintf(&b, "%d%s", len(name), name)
	b.WriteByte('0') // C calling convention marker

	b.WriteString(typeRef(ret))
	for _, p := range params {
		b.WriteString(typeRef(p))
	}

	return b.String()
}
