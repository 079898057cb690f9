package registryv1

import "fmt"

// wireMessage is implemented by every request/response type in messages.go.
type wireMessage interface {
	Marshal() ([]byte, error)
	Unmarshal([]byte) error
}

// Codec implements google.golang.org/grpc/encoding.Codec against wireMessage,
// registered under the "nitro-proto" content-subtype.
type Codec struct{}

func (Codec) Name() string { return "nitro-proto" }

func (Codec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(wireMessage)
	if !ok {
		return nil, fmt.Errorf("registryv1: %T does not implement wireMessage", v)
	}
	return m.Marshal()
}

func (Codec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(wireMessage)
	if !ok {
		return fmt.Errorf("registryv1: %T does not implement wireMessage", v)
	}
	return m.Unmarshal(data)
}
