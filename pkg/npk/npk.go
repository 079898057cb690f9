package npk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/nitrolang/nitro/pkg/types"
)

// Container tags, per spec §4.8.
const (
	tagEnd     = 0
	tagName    = 1
	tagVersion = 2
	tagDate    = 3
	tagExe     = 4
	tagLib     = 5
)

// Library payload tags (inside the zstd frame), per spec §4.8.
const (
	nlmTagEnd    = 0
	nlmTagTypes  = 1
	nlmTagSystem = 2
)

var npkMagic = [4]byte{0x7F, 'N', 'P', 'K'}
var nlmMagic = [4]byte{0x7F, 'N', 'L', 'M'}

// systemStubPrefix is what Unpack writes into a system library's bin file in
// place of real binary bytes, per spec §4.8.
const systemStubPrefix = "\x7FNLS"

// UnknownEntryError is the Package error kind for an unrecognized tag byte,
// per spec §4.8/§7.
type UnknownEntryError struct{ Tag byte }

func (e UnknownEntryError) Error() string {
	return fmt.Sprintf("npk: unknown entry tag %d", e.Tag)
}

// Pack writes pkg's container to w: header, then one EXE/LIB entry per
// built target, each dependency set, a length-prefixed zstd-compressed
// payload, per spec §4.8.
func Pack(w io.Writer, pkg types.Package, date time.Time) error {
	if _, err := w.Write(npkMagic[:]); err != nil {
		return err
	}
	nameBin := pkg.Meta.Name.ToBin()
	if err := writeEntry(w, tagName, nameBin[:]); err != nil {
		return err
	}
	if err := writeEntry(w, tagVersion, uint64Bytes(pkg.Meta.Version.ToBin())); err != nil {
		return err
	}
	if err := writeEntry(w, tagDate, uint64Bytes(uint64(date.Unix()))); err != nil {
		return err
	}

	for target, bin := range pkg.Exes {
		payload, err := packExePayload(bin.Payload)
		if err != nil {
			return err
		}
		if err := writeBinaryEntry(w, tagExe, target, bin.Deps, payload); err != nil {
			return err
		}
	}
	for target, bin := range pkg.Libs {
		payload, err := packLibraryPayload(bin.Payload)
		if err != nil {
			return err
		}
		if err := writeBinaryEntry(w, tagLib, target, bin.Deps, payload); err != nil {
			return err
		}
	}

	return writeEntry(w, tagEnd, nil)
}

func packExePayload(path string) ([]byte, error) {
	return readPayloadFile(path)
}

func packLibraryPayload(lib types.Library) ([]byte, error) {
	var body bytes.Buffer
	body.Write(nlmMagic[:])

	var typesBuf bytes.Buffer
	binary.Write(&typesBuf, binary.BigEndian, uint32(len(lib.Types)))
	for _, decl := range lib.Types {
		encodeTypeDeclaration(&typesBuf, decl)
	}
	writeEntry(&body, nlmTagTypes, typesBuf.Bytes())

	if lib.SystemName != "" {
		var sysBuf bytes.Buffer
		binary.Write(&sysBuf, binary.BigEndian, uint16(len(lib.SystemName)))
		sysBuf.WriteString(lib.SystemName)
		writeEntry(&body, nlmTagSystem, sysBuf.Bytes())
		writeEntry(&body, nlmTagEnd, nil)
	} else {
		writeEntry(&body, nlmTagEnd, nil)
		bin, err := readPayloadFile(lib.Path)
		if err != nil {
			return nil, err
		}
		body.Write(bin)
	}

	return body.Bytes(), nil
}

func readPayloadFile(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("npk: reading %s: %w", path, err)
	}
	return data, nil
}

func writeBinaryEntry(w io.Writer, tag byte, target uuid.UUID, deps []types.Dependency, payload []byte) error {
	var body bytes.Buffer
	body.Write(target[:])
	binary.Write(&body, binary.BigEndian, uint16(len(deps)))
	for _, d := range deps {
		nameBin := d.Name.ToBin()
		body.Write(nameBin[:])
		binary.Write(&body, binary.BigEndian, d.Version.ToBin())
	}

	var compressed bytes.Buffer
	zw, err := NewWriter(&compressed)
	if err != nil {
		return err
	}
	if _, err := zw.Write(payload); err != nil {
		return err
	}
	if err := zw.Flush(); err != nil {
		return err
	}

	binary.Write(&body, binary.BigEndian, uint32(compressed.Len()))
	body.Write(compressed.Bytes())

	return writeEntry(w, tag, body.Bytes())
}

func writeEntry(w io.Writer, tag byte, payload []byte) error {
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func uint64Bytes(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func encodeTypeDeclaration(buf *bytes.Buffer, decl types.TypeDeclaration) {
	if decl.IsRef {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	writeLenString(buf, decl.FQTN)
	binary.Write(buf, binary.BigEndian, uint32(len(decl.Funcs)))
	for _, fn := range decl.Funcs {
		writeLenString(buf, fn.Name)
		encodeType(buf, fn.Ret)
		binary.Write(buf, binary.BigEndian, uint32(len(fn.Params)))
		for _, p := range fn.Params {
			writeLenString(buf, p.Name)
			encodeType(buf, p.Type)
		}
	}
}

func decodeTypeDeclaration(r *bytes.Reader) (types.TypeDeclaration, error) {
	isRefByte, err := r.ReadByte()
	if err != nil {
		return types.TypeDeclaration{}, err
	}
	fqtn, err := readLenString(r)
	if err != nil {
		return types.TypeDeclaration{}, err
	}
	var fnCount uint32
	if err := binary.Read(r, binary.BigEndian, &fnCount); err != nil {
		return types.TypeDeclaration{}, err
	}
	funcs := make([]types.Function, 0, fnCount)
	for i := uint32(0); i < fnCount; i++ {
		name, err := readLenString(r)
		if err != nil {
			return types.TypeDeclaration{}, err
		}
		ret, err := decodeType(r)
		if err != nil {
			return types.TypeDeclaration{}, err
		}
		var paramCount uint32
		if err := binary.Read(r, binary.BigEndian, &paramCount); err != nil {
			return types.TypeDeclaration{}, err
		}
		params := make([]types.FunctionParam, 0, paramCount)
		for j := uint32(0); j < paramCount; j++ {
			pname, err := readLenString(r)
			if err != nil {
				return types.TypeDeclaration{}, err
			}
			ptype, err := decodeType(r)
			if err != nil {
				return types.TypeDeclaration{}, err
			}
			params = append(params, types.FunctionParam{Name: pname, Type: ptype})
		}
		funcs = append(funcs, types.Function{Name: name, Ret: ret, Params: params})
	}
	return types.TypeDeclaration{IsRef: isRefByte == 1, FQTN: fqtn, Funcs: funcs}, nil
}

// Type category byte per spec §4.8: 0 Unit, 1 Struct, 2 Class, 3 Never.
func encodeType(buf *bytes.Buffer, t types.Type) {
	switch t.Kind {
	case types.KindUnit:
		buf.WriteByte(0)
	case types.KindStruct:
		buf.WriteByte(1)
		writeLenString(buf, t.Name)
	case types.KindClass:
		buf.WriteByte(2)
		writeLenString(buf, t.Name)
	case types.KindNever:
		buf.WriteByte(3)
	}
	binary.Write(buf, binary.BigEndian, uint32(t.PtrDepth))
}

func decodeType(r *bytes.Reader) (types.Type, error) {
	cat, err := r.ReadByte()
	if err != nil {
		return types.Type{}, err
	}
	t := types.Type{}
	switch cat {
	case 0:
		t.Kind = types.KindUnit
	case 1:
		t.Kind = types.KindStruct
		t.Name, err = readLenString(r)
	case 2:
		t.Kind = types.KindClass
		t.Name, err = readLenString(r)
	case 3:
		t.Kind = types.KindNever
	default:
		return types.Type{}, fmt.Errorf("npk: unknown type category %d", cat)
	}
	if err != nil {
		return types.Type{}, err
	}
	var ptrDepth uint32
	if err := binary.Read(r, binary.BigEndian, &ptrDepth); err != nil {
		return types.Type{}, err
	}
	t.PtrDepth = int(ptrDepth)
	return t, nil
}

func writeLenString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.BigEndian, uint32(len(s)))
	buf.WriteString(s)
}

func readLenString(r *bytes.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}
