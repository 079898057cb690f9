package npk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/nitrolang/nitro/pkg/types"
	"gopkg.in/yaml.v3"
)

// UnpackedMeta is what Unpack writes to meta.yml at the destination root.
type UnpackedMeta struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Date    int64  `yaml:"date"`
}

// Unpack verifies the container header, dispatches each entry by tag, and
// lays out libs/<target-uuid>/{bin,types,deps.yml} on disk under destDir,
// per spec §4.8.
func Unpack(r io.Reader, destDir string) error {
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return fmt.Errorf("npk: read magic: %w", err)
	}
	if magic != npkMagic {
		return fmt.Errorf("npk: bad magic %x", magic)
	}

	meta := UnpackedMeta{}
	br := bufReader{r}

	for {
		tagBuf := [1]byte{}
		if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		tag := tagBuf[0]

		switch tag {
		case tagEnd:
			if err := writeMetaFile(destDir, meta); err != nil {
				return err
			}
			return nil
		case tagName:
			var buf [32]byte
			if _, err := io.ReadFull(r, buf[:]); err != nil {
				return err
			}
			name, err := types.PackageNameFromBin(buf)
			if err != nil {
				return fmt.Errorf("npk: invalid package name bytes: %w", err)
			}
			meta.Name = string(name)
		case tagVersion:
			v, err := br.readUint64()
			if err != nil {
				return err
			}
			meta.Version = types.PackageVersionFromBin(v).String()
		case tagDate:
			v, err := br.readUint64()
			if err != nil {
				return err
			}
			meta.Date = int64(v)
		case tagExe, tagLib:
			if err := unpackBinaryEntry(r, destDir, tag); err != nil {
				return err
			}
		default:
			return UnknownEntryError{Tag: tag}
		}
	}
	return writeMetaFile(destDir, meta)
}

type bufReader struct{ io.Reader }

func (b bufReader) readUint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(b.Reader, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func writeMetaFile(destDir string, meta UnpackedMeta) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(destDir, "meta.yml"), data, 0o644)
}

func unpackBinaryEntry(r io.Reader, destDir string, tag byte) error {
	var targetBuf [16]byte
	if _, err := io.ReadFull(r, targetBuf[:]); err != nil {
		return err
	}
	target, err := uuid.FromBytes(targetBuf[:])
	if err != nil {
		return err
	}

	var depCount uint16
	if err := binary.Read(r, binary.BigEndian, &depCount); err != nil {
		return err
	}
	deps := make([]types.Dependency, 0, depCount)
	for i := uint16(0); i < depCount; i++ {
		var nameBuf [32]byte
		if _, err := io.ReadFull(r, nameBuf[:]); err != nil {
			return err
		}
		name, err := types.PackageNameFromBin(nameBuf)
		if err != nil {
			return fmt.Errorf("npk: invalid dependency name bytes: %w", err)
		}
		var verBin uint64
		if err := binary.Read(r, binary.BigEndian, &verBin); err != nil {
			return err
		}
		deps = append(deps, types.Dependency{Name: name, Version: types.PackageVersionFromBin(verBin)})
	}

	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return err
	}

	zr, err := NewReader(r, int64(length))
	if err != nil {
		return err
	}
	defer zr.Close()
	payload, err := io.ReadAll(zr)
	if err != nil {
		return fmt.Errorf("npk: decompress entry: %w", err)
	}

	dir := filepath.Join(destDir, "libs", target.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := writeDepsYAML(dir, deps); err != nil {
		return err
	}

	if tag == tagExe {
		return os.WriteFile(filepath.Join(dir, "bin"), payload, 0o755)
	}
	return unpackLibraryPayload(payload, dir)
}

func writeDepsYAML(dir string, deps []types.Dependency) error {
	type depYAML struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	}
	out := make([]depYAML, len(deps))
	for i, d := range deps {
		out[i] = depYAML{Name: string(d.Name), Version: d.Version.String()}
	}
	data, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "deps.yml"), data, 0o644)
}

func unpackLibraryPayload(payload []byte, dir string) error {
	r := bytes.NewReader(payload)
	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return err
	}
	if magic != nlmMagic {
		return fmt.Errorf("npk: bad library magic %x", magic)
	}

	var decls []types.TypeDeclaration
	var systemName string

	for {
		tagBuf := [1]byte{}
		if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
			return err
		}
		switch tagBuf[0] {
		case nlmTagEnd:
			if err := writeTypesFile(dir, decls); err != nil {
				return err
			}
			if systemName != "" {
				stub := append([]byte(systemStubPrefix), systemName...)
				return os.WriteFile(filepath.Join(dir, "bin"), stub, 0o644)
			}
			rest, err := io.ReadAll(r)
			if err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(dir, "bin"), rest, 0o755)
		case nlmTagTypes:
			var count uint32
			if err := binary.Read(r, binary.BigEndian, &count); err != nil {
				return err
			}
			d, err := decodeAllTypeDeclarations(r, count)
			if err != nil {
				return err
			}
			decls = d
		case nlmTagSystem:
			var nameLen uint16
			if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
				return err
			}
			buf := make([]byte, nameLen)
			if _, err := io.ReadFull(r, buf); err != nil {
				return err
			}
			systemName = string(buf)
		default:
			return UnknownEntryError{Tag: tagBuf[0]}
		}
	}
}

func decodeAllTypeDeclarations(r *bytes.Reader, count uint32) ([]types.TypeDeclaration, error) {
	decls := make([]types.TypeDeclaration, 0, count)
	for i := uint32(0); i < count; i++ {
		d, err := decodeTypeDeclaration(r)
		if err != nil {
			return nil, err
		}
		decls = append(decls, d)
	}
	return decls, nil
}

func writeTypesFile(dir string, decls []types.TypeDeclaration) error {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, uint32(len(decls)))
	for _, d := range decls {
		encodeTypeDeclaration(&buf, d)
	}
	return os.WriteFile(filepath.Join(dir, "types"), buf.Bytes(), 0o644)
}

// ReadTypesFile decodes a libs/<target-uuid>/types file written by Unpack
// back into its published TypeDeclaration set, so a dependency's surface can
// be fed into a resolver's AddExternal without a full Package::open (Open
// Question 5 stays unimplemented; this only recovers the published types).
func ReadTypesFile(path string) ([]types.TypeDeclaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("npk: reading %s: %w", path, err)
	}
	if len(data) < 4 {
		return nil, fmt.Errorf("npk: %s: truncated types file", path)
	}
	count := binary.BigEndian.Uint32(data[:4])
	return decodeAllTypeDeclarations(bytes.NewReader(data[4:]), count)
}
