// Package types defines nitro's semantic type system, package identity, and
// build target model, per spec §3.
package types

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Kind tags the semantic Type variant.
type Kind int

const (
	KindUnit Kind = iota
	KindNever
	KindStruct
	KindClass
)

// PackageRef names the owning package of an external type: absent (nil) for
// internal types, otherwise a (name, major version) pair per spec §3.
type PackageRef struct {
	Name  PackageName
	Major uint16
}

// Type is the tagged union over spec §3's semantic Type variants.
type Type struct {
	Kind     Kind
	PtrDepth int
	Pkg      *PackageRef // nil for internal Struct/Class; always nil for Unit/Never
	Name     string      // type name, meaningful for Struct/Class
}

func (t Type) String() string {
	stars := ""
	for i := 0; i < t.PtrDepth; i++ {
		stars += "*"
	}
	switch t.Kind {
	case KindUnit:
		return stars + "()"
	case KindNever:
		return stars + "!"
	case KindStruct, KindClass:
		prefix := "self"
		if t.Pkg != nil {
			prefix = fmt.Sprintf("%s@%d", t.Pkg.Name, t.Pkg.Major)
		}
		return fmt.Sprintf("%s%s.%s", stars, prefix, t.Name)
	default:
		return stars + "?"
	}
}

// IsExternal reports whether t names an externally-declared type.
func (t Type) IsExternal() bool { return t.Pkg != nil }

var packageNamePattern = regexp.MustCompile(`^[a-z][a-z0-9]*$`)

// PackageName is a validated 1-32 byte package identifier: starts with an
// ASCII lowercase letter, remaining bytes ASCII lowercase or digit.
type PackageName string

// NewPackageName validates s against spec §3's PackageName grammar.
func NewPackageName(s string) (PackageName, error) {
	if len(s) < 1 || len(s) > 32 {
		return "", fmt.Errorf("package name %q must be 1-32 bytes", s)
	}
	if !packageNamePattern.MatchString(s) {
		return "", fmt.Errorf("package name %q must start with a-z and contain only a-z0-9", s)
	}
	return PackageName(s), nil
}

// ToBin encodes the name into a zero-padded 32-byte field, per the .npk
// NAME entry in spec §4.8.
func (n PackageName) ToBin() [32]byte {
	var buf [32]byte
	copy(buf[:], n)
	return buf
}

// PackageNameFromBin decodes a zero-padded 32-byte NAME field back into a
// validated PackageName.
func PackageNameFromBin(buf [32]byte) (PackageName, error) {
	i := 0
	for i < len(buf) && buf[i] != 0 {
		i++
	}
	for _, b := range buf[i:] {
		if b != 0 {
			return "", fmt.Errorf("package name field has non-zero padding")
		}
	}
	return NewPackageName(string(buf[:i]))
}

// PackageVersion is three unsigned 16-bit fields, per spec §3.
type PackageVersion struct {
	Major, Minor, Patch uint16
}

// ToBin packs the version as major<<32 | minor<<16 | patch, per spec §4.8's
// VERSION entry.
func (v PackageVersion) ToBin() uint64 {
	return uint64(v.Major)<<32 | uint64(v.Minor)<<16 | uint64(v.Patch)
}

// PackageVersionFromBin unpacks a VERSION entry.
func PackageVersionFromBin(bin uint64) PackageVersion {
	return PackageVersion{
		Major: uint16(bin >> 32),
		Minor: uint16(bin >> 16),
		Patch: uint16(bin),
	}
}

// CompatibleWith reports whether two versions are compatible: major fields
// match, per spec §3 and testable property 4.
func (v PackageVersion) CompatibleWith(other PackageVersion) bool {
	return v.Major == other.Major
}

func (v PackageVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Dependency is a (name, version) pair recorded per built Binary, per spec
// §3/§4.8.
type Dependency struct {
	Name    PackageName
	Version PackageVersion
}

// Target identifies a build target by UUID: one of the four built-in
// primitive targets, or a user-defined descendant, per spec §3.
type Target struct {
	ID     uuid.UUID
	Arch   string
	Vendor string
	OS     string
	Env    string
}

// Triple renders the target's LLVM-style triple string (arch-vendor-os-env).
func (t Target) Triple() string {
	if t.Env == "" {
		return fmt.Sprintf("%s-%s-%s", t.Arch, t.Vendor, t.OS)
	}
	return fmt.Sprintf("%s-%s-%s-%s", t.Arch, t.Vendor, t.OS, t.Env)
}

// Well-known primitive target UUIDs and definitions, per spec §3.
var (
	TargetLinuxGNUAMD64 = Target{
		ID:     uuid.MustParse("8f1b1b7a-0c1d-4a2e-9c0a-000000000001"),
		Arch:   "x86_64", Vendor: "unknown", OS: "linux", Env: "gnu",
	}
	TargetDarwinARM64 = Target{
		ID:     uuid.MustParse("8f1b1b7a-0c1d-4a2e-9c0a-000000000002"),
		Arch:   "aarch64", Vendor: "apple", OS: "darwin",
	}
	TargetDarwinAMD64 = Target{
		ID:     uuid.MustParse("8f1b1b7a-0c1d-4a2e-9c0a-000000000003"),
		Arch:   "x86_64", Vendor: "apple", OS: "darwin",
	}
	TargetWin32MSVCAMD64 = Target{
		ID:     uuid.MustParse("8f1b1b7a-0c1d-4a2e-9c0a-000000000004"),
		Arch:   "x86_64", Vendor: "pc", OS: "win32", Env: "msvc",
	}
)

// PrimitiveTargets lists the four built-in targets in a fixed order.
var PrimitiveTargets = []Target{
	TargetLinuxGNUAMD64, TargetDarwinARM64, TargetDarwinAMD64, TargetWin32MSVCAMD64,
}

// LookupPrimitiveTarget returns the built-in Target matching id, if any.
func LookupPrimitiveTarget(id uuid.UUID) (Target, bool) {
	for _, t := range PrimitiveTargets {
		if t.ID == id {
			return t, true
		}
	}
	return Target{}, false
}

// HostPrimitiveTarget returns the primitive Target matching the running
// host's OS/arch, used by the `export` CLI command.
func HostPrimitiveTarget(goos, goarch string) (Target, error) {
	switch goos {
	case "linux":
		return TargetLinuxGNUAMD64, nil
	case "darwin":
		if goarch == "arm64" {
			return TargetDarwinARM64, nil
		}
		return TargetDarwinAMD64, nil
	case "windows":
		return TargetWin32MSVCAMD64, nil
	default:
		return Target{}, fmt.Errorf("no primitive target known for host OS %q", goos)
	}
}

// FunctionParam is one parameter in a published TypeDeclaration's Function.
type FunctionParam struct {
	Name string
	Type Type
}

// Function is a published external function signature, per spec §3.
type Function struct {
	Name   string
	Params []FunctionParam
	Ret    Type
}

// TypeDeclaration is a struct-or-class marker plus its fully-qualified name
// and the set of functions it publishes, per spec §3.
type TypeDeclaration struct {
	IsRef bool // true: class, false: struct
	FQTN  string
	Funcs []Function
}

// Library bundles either a path to a produced shared object or a system
// library name, plus its published TypeDeclarations, per spec §3.
type Library struct {
	Path      string // empty when SystemName is set
	SystemName string // empty when Path is set
	Types     []TypeDeclaration
}

// Binary bundles a built payload (an executable path, or a Library) with
// its transitive dependency set, per spec §3.
type Binary[T any] struct {
	Payload T
	Deps    []Dependency
}

// PackageMeta is a package's identity: name and version.
type PackageMeta struct {
	Name    PackageName
	Version PackageVersion
}

// Package is the in-memory build result: at least one of Exes/Libs must be
// non-empty, per spec §3.
type Package struct {
	Meta PackageMeta
	Exes map[uuid.UUID]Binary[string]
	Libs map[uuid.UUID]Binary[Library]
}
