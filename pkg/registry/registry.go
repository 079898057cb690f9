// Package registry fetches and publishes .npk packages from a remote
// registry over gRPC, per spec §5.1/§6. pkg/driver consults it only when a
// manifest dependency isn't already in the local pkg/cache fetch cache; the
// type resolver (pkg/resolve) never talks to the network directly.
package registry

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/nitrolang/nitro/pkg/registry/registryv1"
	"github.com/nitrolang/nitro/pkg/types"
)

// NotFoundError reports that a registry has no matching {name, version}.
type NotFoundError struct {
	Name    types.PackageName
	Version types.PackageVersion
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("registry: %s@%s not found", e.Name, e.Version)
}

// Client is a connection to one registry endpoint.
type Client struct {
	conn *grpc.ClientConn
	rpc  registryv1.RegistryClient
}

// Dial connects to the registry at addr.
func Dial(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("registry: dial %s: %w", addr, err)
	}
	return &Client{conn: conn, rpc: registryv1.NewRegistryClient(conn)}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Fetch retrieves the raw .npk bytes for name@version, erroring with
// NotFoundError when the RPC reports no matching version. The caller is
// responsible for unpacking the result (pkg/npk.Unpack); Fetch never builds
// a types.Package itself.
func (c *Client) Fetch(ctx context.Context, name types.PackageName, ver types.PackageVersion) ([]byte, error) {
	resp, err := c.rpc.Fetch(ctx, &registryv1.FetchRequest{
		Name:  string(name),
		Major: uint32(ver.Major),
		Minor: uint32(ver.Minor),
		Patch: uint32(ver.Patch),
	})
	if err != nil {
		return nil, fmt.Errorf("registry: fetch %s@%s: %w", name, ver, err)
	}
	if len(resp.NpkBytes) == 0 {
		return nil, NotFoundError{Name: name, Version: ver}
	}
	return resp.NpkBytes, nil
}

// Publish uploads already-packed .npk bytes to the registry.
func (c *Client) Publish(ctx context.Context, npkBytes []byte) error {
	resp, err := c.rpc.Publish(ctx, &registryv1.PublishRequest{NpkBytes: npkBytes})
	if err != nil {
		return fmt.Errorf("registry: publish: %w", err)
	}
	if !resp.Ok {
		return fmt.Errorf("registry: publish rejected")
	}
	return nil
}
