package registry

import (
	"context"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/nitrolang/nitro/pkg/registry/registryv1"
	"github.com/nitrolang/nitro/pkg/types"
)

type fakeServer struct {
	npk map[string][]byte
}

func (f *fakeServer) Fetch(ctx context.Context, req *registryv1.FetchRequest) (*registryv1.FetchResponse, error) {
	return &registryv1.FetchResponse{NpkBytes: f.npk[req.Name]}, nil
}

func (f *fakeServer) Publish(ctx context.Context, req *registryv1.PublishRequest) (*registryv1.PublishResponse, error) {
	f.npk["uploaded"] = req.NpkBytes
	return &registryv1.PublishResponse{Ok: true}, nil
}

func startTestServer(t *testing.T, srv *fakeServer) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	s := grpc.NewServer()
	registryv1.RegisterRegistryServer(s, srv)
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	return &Client{conn: conn, rpc: registryv1.NewRegistryClient(conn)}
}

func TestFetchReturnsBytes(t *testing.T) {
	name, _ := types.NewPackageName("widgets")
	srv := &fakeServer{npk: map[string][]byte{"widgets": {1, 2, 3}}}
	c := startTestServer(t, srv)

	got, err := c.Fetch(context.Background(), name, types.PackageVersion{Major: 1})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 bytes, got %v", got)
	}
}

func TestFetchMissingIsNotFound(t *testing.T) {
	name, _ := types.NewPackageName("missing")
	srv := &fakeServer{npk: map[string][]byte{}}
	c := startTestServer(t, srv)

	_, err := c.Fetch(context.Background(), name, types.PackageVersion{Major: 1})
	if _, ok := err.(NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestPublishRoundTrip(t *testing.T) {
	srv := &fakeServer{npk: map[string][]byte{}}
	c := startTestServer(t, srv)

	if err := c.Publish(context.Background(), []byte("payload")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if string(srv.npk["uploaded"]) != "payload" {
		t.Fatalf("got %q", srv.npk["uploaded"])
	}
}
