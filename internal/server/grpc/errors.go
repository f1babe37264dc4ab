package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/runavault/internal/common"
)

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrorUnauthorized, codes.Unauthenticated},
	{common.ErrorPermissionDenied, codes.PermissionDenied},
	{common.ErrorValidation, codes.InvalidArgument},
	{common.ErrorNotFound, codes.NotFound},
	{common.ErrorDuplicateSecret, codes.AlreadyExists},
	{common.ErrorIncompleteRecord, codes.DataLoss},
	{common.ErrorInconsistentWrite, codes.Aborted},
}

// toStatus maps a service error to a gRPC status. Unknown errors become
// Internal without their message.
func toStatus(err error) error {
	for _, sc := range statusCodes {
		if errors.Is(err, sc.err) {
			return status.Error(sc.code, err.Error())
		}
	}
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}

func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	if status.Code(st) == codes.Internal {
		s.logger.Error(ctx, op+" failed", "error", err)
	} else {
		s.logger.Info(ctx, op+" rejected", "error", err)
	}
	return st
}
