package grpc

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/runavault/internal/common"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("%w: %w", common.ErrorUnauthorized, common.ErrTokenExpired), codes.Unauthenticated},
		{common.ErrorPermissionDenied, codes.PermissionDenied},
		{fmt.Errorf("%w: site is required", common.ErrorValidation), codes.InvalidArgument},
		{common.ErrorNotFound, codes.NotFound},
		{common.ErrorDuplicateSecret, codes.AlreadyExists},
		{fmt.Errorf("%w: a.com#p1#group:devs", common.ErrorIncompleteRecord), codes.DataLoss},
		{common.ErrorInconsistentWrite, codes.Aborted},
		{errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, status.Code(toStatus(tt.err)))
		})
	}
}

func TestToStatus_KeepsTaxonomyMessage(t *testing.T) {
	err := toStatus(fmt.Errorf("%w: notes too long", common.ErrorValidation))
	assert.Equal(t, "validation error: notes too long", status.Convert(err).Message())
}
