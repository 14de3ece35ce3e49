package client

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/zkvault/internal/common"
	gs "github.com/dmitrijs2005/zkvault/internal/server/grpc"
)

type AdminClient struct {
	conn        *grpc.ClientConn
	client      *gs.AdminClient
	accessToken string
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (c *AdminClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	return invoker(withAccessToken(ctx, c.accessToken), method, req, reply, cc, opts...)
}

// NewAdminClient connects to the ops listener at addr. Extra options are
// appended after the defaults.
func NewAdminClient(addr, accessToken string, opts ...grpc.DialOption) (*AdminClient, error) {
	c := &AdminClient{accessToken: accessToken}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = gs.NewAdminClient(conn)
	return c, nil
}

func (c *AdminClient) Close() error {
	return c.conn.Close()
}

// Sweep asks the server to remove expired objects now and returns how many
// went.
func (c *AdminClient) Sweep(ctx context.Context) (int, error) {
	resp, err := c.client.Sweep(ctx)
	if err != nil {
		return 0, c.mapError(err)
	}
	return intField(resp, "deleted")
}

// PendingDeletions reports consume-once deletions not yet carried out.
func (c *AdminClient) PendingDeletions(ctx context.Context) (int, error) {
	resp, err := c.client.Status(ctx)
	if err != nil {
		return 0, c.mapError(err)
	}
	return intField(resp, "pending_deletions")
}

func intField(s *structpb.Struct, name string) (int, error) {
	v, ok := s.GetFields()[name]
	if !ok {
		return 0, fmt.Errorf("response has no %q", name)
	}
	return int(v.GetNumberValue()), nil
}

func (c *AdminClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
