package registryv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"
)

func init() {
	encoding.RegisterCodec(Codec{})
}

const (
	serviceName = "nitro.registry.v1.Registry"
	fetchMethod = "/" + serviceName + "/Fetch"
	publishMethod = "/" + serviceName + "/Publish"
)

// RegistryClient is the client-side stub for the registry service, in the
// shape protoc-gen-go-grpc would generate for a two-method unary service.
type RegistryClient interface {
	Fetch(ctx context.Context, in *FetchRequest, opts ...grpc.CallOption) (*FetchResponse, error)
	Publish(ctx context.Context, in *PublishRequest, opts ...grpc.CallOption) (*PublishResponse, error)
}

type registryClient struct {
	cc grpc.ClientConnInterface
}

// NewRegistryClient wraps a dialed connection with the Fetch/Publish stubs.
func NewRegistryClient(cc grpc.ClientConnInterface) RegistryClient {
	return &registryClient{cc: cc}
}

func (c *registryClient) Fetch(ctx context.Context, in *FetchRequest, opts ...grpc.CallOption) (*FetchResponse, error) {
	out := new(FetchResponse)
	opts = append(opts, grpc.CallContentSubtype(Codec{}.Name()))
	if err := c.cc.Invoke(ctx, fetchMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *registryClient) Publish(ctx context.Context, in *PublishRequest, opts ...grpc.CallOption) (*PublishResponse, error) {
	out := new(PublishResponse)
	opts = append(opts, grpc.CallContentSubtype(Codec{}.Name()))
	if err := c.cc.Invoke(ctx, publishMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// RegistryServer is the server-side contract a registry implementation fulfills.
type RegistryServer interface {
	Fetch(context.Context, *FetchRequest) (*FetchResponse, error)
	Publish(context.Context, *PublishRequest) (*PublishResponse, error)
}

// RegisterRegistryServer wires srv into s under the Registry service name.
func RegisterRegistryServer(s grpc.ServiceRegistrar, srv RegistryServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RegistryServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Fetch",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(FetchRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(RegistryServer).Fetch(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fetchMethod}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(RegistryServer).Fetch(ctx, req.(*FetchRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
		{
			MethodName: "Publish",
			Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
				in := new(PublishRequest)
				if err := dec(in); err != nil {
					return nil, err
				}
				if interceptor == nil {
					return srv.(RegistryServer).Publish(ctx, in)
				}
				info := &grpc.UnaryServerInfo{Server: srv, FullMethod: publishMethod}
				handler := func(ctx context.Context, req interface{}) (interface{}, error) {
					return srv.(RegistryServer).Publish(ctx, req.(*PublishRequest))
				}
				return interceptor(ctx, in, info, handler)
			},
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nitro/registry/v1/registry.proto",
}
