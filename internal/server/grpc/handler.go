package grpc

import (
	"context"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Sweep(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	s.logger.Info(ctx, "Sweep requested", "subject", subjectFromContext(ctx))

	n, err := s.admin.Sweep(ctx)
	if err != nil {
		s.logger.Error(ctx, "sweep failed", "deleted", n, "error", err.Error())
		return nil, status.Error(codes.Internal, "sweep failed")
	}

	return structpb.NewStruct(map[string]interface{}{"deleted": n})
}

func (s *GRPCServer) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {

	return structpb.NewStruct(map[string]interface{}{"pending_deletions": s.admin.PendingDeletions()})

}
