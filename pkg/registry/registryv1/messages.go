// Package registryv1 defines the wire messages for the registry service.
//
// Field encoding is done directly against google.golang.org/protobuf's
// protowire primitives rather than through protoc-gen-go's generated
// descriptor-backed types: this tree has no protoc toolchain available to
// regenerate a *_pb.go file's descriptor bytes, and hand-faking those bytes
// would produce a file that looks generated but decodes garbage. protowire
// gives the same wire format with plain structs.
package registryv1

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// FetchRequest asks the registry for one package version.
type FetchRequest struct {
	Name  string
	Major uint32
	Minor uint32
	Patch uint32
}

// FetchResponse carries the packed .npk bytes for the requested version.
type FetchResponse struct {
	NpkBytes []byte
}

// PublishRequest uploads a packed .npk to the registry.
type PublishRequest struct {
	NpkBytes []byte
}

// PublishResponse acknowledges a publish.
type PublishResponse struct {
	Ok bool
}

func (m *FetchRequest) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendString(b, m.Name)
	b = protowire.AppendTag(b, 2, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Major))
	b = protowire.AppendTag(b, 3, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Minor))
	b = protowire.AppendTag(b, 4, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.Patch))
	return b, nil
}

func (m *FetchRequest) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("registryv1: FetchRequest: bad tag")
		}
		b = b[n:]
		switch num {
		case 1:
			s, n := protowire.ConsumeString(b)
			if n < 0 {
				return fmt.Errorf("registryv1: FetchRequest: bad name")
			}
			m.Name = s
			b = b[n:]
		case 2:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("registryv1: FetchRequest: bad major")
			}
			m.Major = uint32(v)
			b = b[n:]
		case 3:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("registryv1: FetchRequest: bad minor")
			}
			m.Minor = uint32(v)
			b = b[n:]
		case 4:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("registryv1: FetchRequest: bad patch")
			}
			m.Patch = uint32(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("registryv1: FetchRequest: bad field %d", num)
			}
			b = b[n:]
		}
	}
	return nil
}

func (m *FetchResponse) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, m.NpkBytes)
	return b, nil
}

func (m *FetchResponse) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("registryv1: FetchResponse: bad tag")
		}
		b = b[n:]
		if num == 1 {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("registryv1: FetchResponse: bad npk_bytes")
			}
			m.NpkBytes = append([]byte(nil), v...)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return fmt.Errorf("registryv1: FetchResponse: bad field %d", num)
		}
		b = b[n:]
	}
	return nil
}

func (m *PublishRequest) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.BytesType)
	b = protowire.AppendBytes(b, m.NpkBytes)
	return b, nil
}

func (m *PublishRequest) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("registryv1: PublishRequest: bad tag")
		}
		b = b[n:]
		if num == 1 {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return fmt.Errorf("registryv1: PublishRequest: bad npk_bytes")
			}
			m.NpkBytes = append([]byte(nil), v...)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return fmt.Errorf("registryv1: PublishRequest: bad field %d", num)
		}
		b = b[n:]
	}
	return nil
}

func (m *PublishResponse) Marshal() ([]byte, error) {
	var b []byte
	b = protowire.AppendTag(b, 1, protowire.VarintType)
	ok := uint64(0)
	if m.Ok {
		ok = 1
	}
	b = protowire.AppendVarint(b, ok)
	return b, nil
}

func (m *PublishResponse) Unmarshal(b []byte) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("registryv1: PublishResponse: bad tag")
		}
		b = b[n:]
		if num == 1 {
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return fmt.Errorf("registryv1: PublishResponse: bad ok")
			}
			m.Ok = v != 0
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return fmt.Errorf("registryv1: PublishResponse: bad field %d", num)
		}
		b = b[n:]
	}
	return nil
}
