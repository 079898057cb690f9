// Package attrs evaluates `@if(cond)` build predicates against a target,
// per spec §4.3.
package attrs

import (
	"fmt"
	"strings"

	"github.com/nitrolang/nitro/pkg/types"
)

// EvalIf evaluates a @if condition string against target, per the table in
// spec §4.3:
//
//	unix                    -- OS is Darwin or Linux
//	<os_name>                -- primitive target OS name matches
//	os == "<name>" / os != "<name>" -- OS name compare/negate
func EvalIf(cond string, target types.Target) (bool, error) {
	cond = strings.TrimSpace(cond)
	switch {
	case cond == "unix":
		return target.OS == "darwin" || target.OS == "linux", nil
	case strings.HasPrefix(cond, "os =="), strings.HasPrefix(cond, "os !="):
		return evalOSCompare(cond, target)
	case isBareOSName(cond):
		return target.OS == osAlias(cond), nil
	default:
		return false, fmt.Errorf("attrs: unrecognized @if condition %q", cond)
	}
}

func isBareOSName(cond string) bool {
	switch cond {
	case "linux", "darwin", "win32", "windows":
		return true
	default:
		return false
	}
}

func evalOSCompare(cond string, target types.Target) (bool, error) {
	neg := strings.HasPrefix(cond, "os !=")
	rest := strings.TrimPrefix(cond, "os ==")
	rest = strings.TrimPrefix(rest, "os !=")
	rest = strings.TrimSpace(rest)
	// The attribute parser already strips string-literal quotes when it
	// joins the parenthesized tokens, so rest is the bare OS name here.
	name := unquote(rest)
	if name == "" {
		return false, fmt.Errorf("attrs: malformed @if condition %q", cond)
	}
	// §9 open question 4: `os != "<name>"` is only valid for the `os` LHS,
	// never for the `unix` form, which this branch never sees.
	match := target.OS == osAlias(name)
	if neg {
		return !match, nil
	}
	return match, nil
}

func osAlias(name string) string {
	if name == "windows" {
		return "win32"
	}
	return name
}

// unquote strips a surrounding pair of quotes if present; the attribute
// parser's string literals already arrive unquoted, but the quoted form is
// accepted too for conditions built by hand (e.g. in tests).
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
