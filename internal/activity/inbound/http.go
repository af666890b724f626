package inbound

import (
	"github.com/shandysiswandi/otpkeeper/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.GET("/api/activity", end.List)
}
