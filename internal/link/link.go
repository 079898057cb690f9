// Package link invokes the system linker as a subprocess with per-OS
// argument templates, per spec §6.
package link

import (
	"bytes"
	"fmt"
	"os/exec"
	"strings"

	"github.com/nitrolang/nitro/pkg/types"
)

// Kind selects between a shared-library and an executable link.
type Kind int

const (
	KindExecutable Kind = iota
	KindSharedLibrary
)

// Options controls one linker invocation.
type Options struct {
	Target   types.Target
	Kind     Kind
	Out      string
	Obj      string
	StubsDir string // directory holding the per-target link-only stub libraries
}

// linkerFor resolves the driver binary name for a target OS.
func linkerFor(target types.Target) string {
	switch target.OS {
	case "darwin":
		return "ld64.lld"
	case "linux":
		return "ld.lld"
	case "win32":
		return "lld-link"
	default:
		return ""
	}
}

// Args builds the argument list for opts, per the table in spec §6.
func Args(opts Options) ([]string, error) {
	switch opts.Target.OS {
	case "darwin":
		return darwinArgs(opts), nil
	case "linux":
		return linuxArgs(opts), nil
	case "win32":
		return win32Args(opts), nil
	default:
		return nil, fmt.Errorf("link: no linker argument template for OS %q", opts.Target.OS)
	}
}

func darwinArgs(opts Options) []string {
	arch := "x86_64"
	if opts.Target.Arch == "aarch64" {
		arch = "arm64"
	}
	args := []string{
		"-o", opts.Out,
		"-arch", arch,
		"-platform_version", "macos", "10", "11",
	}
	if opts.Kind == KindSharedLibrary {
		args = append(args, "-dylib")
	}
	args = append(args, "-lSystem", "-L", opts.StubsDir, opts.Obj)
	return args
}

func linuxArgs(opts Options) []string {
	stubDir := opts.StubsDir
	if opts.Kind == KindSharedLibrary {
		return []string{"-o", opts.Out, "--shared", "-lc", "-L", stubDir, opts.Obj}
	}
	return []string{
		"-o", opts.Out,
		"--entry=main",
		"--dynamic-linker=/lib64/ld-linux-x86-64.so.2",
		"-lc", "-L", stubDir, opts.Obj,
	}
}

func win32Args(opts Options) []string {
	if opts.Kind == KindSharedLibrary {
		return []string{
			fmt.Sprintf("/out:%s", opts.Out),
			"/dll",
			fmt.Sprintf("/def:%s.def", opts.Out),
			fmt.Sprintf("/libpath:%s", opts.StubsDir),
			"/defaultlib:msvcrt",
			opts.Obj,
		}
	}
	return []string{
		fmt.Sprintf("/out:%s", opts.Out),
		"/entry:main",
		fmt.Sprintf("/libpath:%s", opts.StubsDir),
		"/defaultlib:msvcrt",
		opts.Obj,
	}
}

// Run invokes the system linker for opts, capturing stderr verbatim
// (trailing whitespace trimmed) on failure, per spec §7's Link error kind.
func Run(opts Options) error {
	linker := linkerFor(opts.Target)
	if linker == "" {
		return fmt.Errorf("link: no linker known for OS %q", opts.Target.OS)
	}
	args, err := Args(opts)
	if err != nil {
		return err
	}

	cmd := exec.Command(linker, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("link: %s failed: %s", linker, strings.TrimRight(stderr.String(), "\n\r\t "))
	}
	return nil
}

// DefFileContents renders a Win32 module-definition file listing one
// mangled symbol per line under an EXPORTS header, per spec §6.
func DefFileContents(symbols []string) string {
	var b strings.Builder
	b.WriteString("EXPORTS\n")
	for _, s := range symbols {
		b.WriteString(s)
		b.WriteString("\n")
	}
	return b.String()
}
