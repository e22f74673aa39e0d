package grpcapi

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-genealogy-service/internal/domain"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{domain.ErrMemberNotFound, codes.NotFound},
	{domain.ErrDuplicateMember, codes.AlreadyExists},
	{domain.ErrRootExists, codes.AlreadyExists},
	{domain.ErrInvalidSponsor, codes.InvalidArgument},
	{domain.ErrInvalidStatus, codes.InvalidArgument},
	{domain.ErrInvalidSide, codes.InvalidArgument},
	{domain.ErrInvalidVolume, codes.InvalidArgument},
	{domain.ErrInvalidMember, codes.InvalidArgument},
	{domain.ErrInvalidPage, codes.InvalidArgument},
	{domain.ErrConcurrentSlotConflict, codes.Aborted},
	{domain.ErrSlotOccupied, codes.Aborted},
	{domain.ErrPlacementExhausted, codes.FailedPrecondition},
	{domain.ErrOrphanDescendant, codes.FailedPrecondition},
	{domain.ErrTreeCorrupted, codes.FailedPrecondition},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return status.Error(e.code, err.Error())
		}
	}
	return status.Errorf(codes.Internal, "internal error: %v", err)
}
