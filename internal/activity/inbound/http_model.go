package inbound

import (
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/valueobject"
)

type ActivityResponse struct {
	ID         int64               `json:"id,string"`
	Kind       string              `json:"kind"`
	Data       valueobject.JSONMap `json:"data"`
	OccurredAt time.Time           `json:"occurred_at"`
}
