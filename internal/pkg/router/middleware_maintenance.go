package router

import (
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/config"
)

// middlewareMaintenance answers 503 for routes listed in
// app.maintenance.endpoints. Entries ending in "/*" block every route under
// that prefix. The list is read per request so a config reload applies
// without a restart.
func middlewareMaintenance(cfg config.Config) Middleware {
	return func(next http.Handler) http.Handler {
		if cfg == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if underMaintenance(cfg.GetArray("app.maintenance.endpoints"), matchedRoutePath(r)) {
				writeJSON(w, errorResponse{Message: "service is under maintenance"}, http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func underMaintenance(patterns []string, route string) bool {
	for _, p := range patterns {
		p = strings.TrimSpace(p)
		switch {
		case p == "":
		case p == "*" || p == route:
			return true
		case strings.HasSuffix(p, "/*") && strings.HasPrefix(route, strings.TrimSuffix(p, "*")):
			return true
		}
	}
	return false
}
