// Package codegen: primitive @repr mapping for `struct Name;` declarations.
package codegen

import "fmt"

// reprRegistry is the fixed set of recognized @repr arguments, mirroring
// the project's closed primitive-method registry pattern but keyed on
// representation name instead of (class, selector).
var reprRegistry = map[string]bool{
	"i32": true,
	"u8":  true,
	"un":  true,
}

// ReprType resolves a @repr(...) argument to its backing IRType, per spec
// §4.6's primitive mapping table.
func (c *Context) ReprType(repr string) (IRType, error) {
	if !reprRegistry[repr] {
		return IRType{}, fmt.Errorf("codegen: unknown representation %q", repr)
	}
	switch repr {
	case "i32":
		return c.I32()
	case "u8":
		return c.U8()
	case "un":
		return c.Unsized()
	default:
		return IRType{}, fmt.Errorf("codegen: unreachable repr %q", repr)
	}
}
