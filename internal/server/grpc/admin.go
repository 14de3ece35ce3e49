package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AdminServiceName is the fully qualified name of the ops service. Its
// messages are protobuf well-known types, so no generated code is needed.
const AdminServiceName = "zkvault.admin.v1.AdminService"

const (
	SweepFullMethod  = "/" + AdminServiceName + "/Sweep"
	StatusFullMethod = "/" + AdminServiceName + "/Status"
)

// AdminServer is implemented by GRPCServer.
type AdminServer interface {
	// Sweep removes every expired object now and reports {"deleted": n}.
	Sweep(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	// Status reports {"pending_deletions": n}.
	Status(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

func unaryHandler(fullMethod string, call func(AdminServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdminServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AdminServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var adminServiceDesc = grpc.ServiceDesc{
	ServiceName: AdminServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Sweep", Handler: unaryHandler(SweepFullMethod, AdminServer.Sweep)},
		{MethodName: "Status", Handler: unaryHandler(StatusFullMethod, AdminServer.Status)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "zkvault/admin/v1/admin.proto",
}

func RegisterAdminServer(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&adminServiceDesc, srv)
}

// AdminClient calls the ops service.
type AdminClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminClient(cc grpc.ClientConnInterface) *AdminClient {
	return &AdminClient{cc: cc}
}

func (c *AdminClient) Sweep(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SweepFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) Status(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, StatusFullMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
