package router

import (
	"log/slog"
	"net/http"

	"github.com/casbin/casbin/v3"
	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
)

// middlewareAuthorization checks (role, route, method) against the casbin policy.
// Anonymous requests already passed authentication and are not checked.
func middlewareAuthorization(e *casbin.Enforcer) Middleware {
	return func(next http.Handler) http.Handler {
		if e == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := authtoken.PrincipalFrom(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			allowed, err := e.Enforce(p.Role, matchedRoutePath(r), r.Method)
			if err != nil {
				slog.ErrorContext(r.Context(), "failed to enforce policy", "role", p.Role, "error", err)
				writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
				return
			}
			if !allowed {
				slog.WarnContext(r.Context(), "request denied by policy", "user_id", p.UserID, "role", p.Role)
				writeJSON(w, errorResponse{Message: "You do not have access to this resource"}, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
