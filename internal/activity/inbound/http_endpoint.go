package inbound

import (
	"github.com/samber/lo"
	"github.com/shandysiswandi/otpkeeper/internal/activity/entity"
	"github.com/shandysiswandi/otpkeeper/internal/activity/usecase"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

type HTTPEndpoint struct {
	uc uc
}

func (h *HTTPEndpoint) List(r *router.Request) (any, error) {
	limit, err := r.GetQueryInt32("limit")
	if err != nil {
		return nil, err
	}

	items, err := h.uc.List(r.Context(), usecase.ListInput{Limit: limit})
	if err != nil {
		return nil, err
	}

	return lo.Map(items, func(a entity.Activity, _ int) ActivityResponse {
		return ActivityResponse{ID: a.ID, Kind: a.Kind.String(), Data: a.Data, OccurredAt: a.OccurredAt}
	}), nil
}
