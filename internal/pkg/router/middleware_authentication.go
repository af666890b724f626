package router

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/authtoken"
)

// Access tells the authentication middleware what an endpoint requires.
type Access int

const (
	// AccessProtected rejects requests without a valid bearer token.
	AccessProtected Access = iota
	// AccessOptional resolves a token when present and lets anonymous requests through.
	AccessOptional
	// AccessPublic skips token resolution entirely.
	AccessPublic
)

// Authenticator resolves a bearer token. ok is false for unknown or expired tokens.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (p authtoken.Principal, ok bool, err error)
}

// bearerToken reads "Authorization: Bearer <t>", falling back to the token query parameter.
func bearerToken(r *http.Request) string {
	if p := strings.Fields(r.Header.Get("Authorization")); len(p) == 2 && strings.EqualFold(p[0], "Bearer") {
		return p[1]
	}
	return strings.TrimSpace(r.URL.Query().Get("token"))
}

func (ro *Router) access(method, route string) Access {
	if s, ok := ro.endpoints[method]; ok {
		if acc, ok := s[route]; ok {
			return acc
		}
	}
	return AccessProtected
}

func (ro *Router) middlewareAuthentication(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		acc := ro.access(r.Method, matchedRoutePath(r))
		if acc == AccessPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" || ro.auth == nil {
			if acc == AccessOptional {
				next.ServeHTTP(w, r)
				return
			}
			writeJSON(w, errorResponse{Message: "Authentication required"}, http.StatusUnauthorized)
			return
		}

		p, ok, err := ro.auth.Authenticate(r.Context(), token)
		if err != nil {
			slog.ErrorContext(r.Context(), "failed to authenticate token", "error", err)
			writeJSON(w, errorResponse{Message: "Internal server error"}, http.StatusInternalServerError)
			return
		}
		if !ok {
			if acc == AccessOptional {
				next.ServeHTTP(w, r)
				return
			}
			writeJSON(w, errorResponse{Message: "Invalid or expired token"}, http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r.WithContext(authtoken.WithPrincipal(r.Context(), p)))
	})
}
