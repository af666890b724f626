package inbound

import (
	"context"

	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/activity/usecase"
)

type uc interface {
	Record(ctx context.Context, in usecase.RecordInput) error
	List(ctx context.Context, in usecase.ListInput) ([]entity.Activity, error)
}
