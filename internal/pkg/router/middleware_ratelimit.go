package router

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/shandysiswandi/otpkeeper/internal/pkg/ratelimit"
)

// middlewareRateLimit counts requests per client address. Store failures let the request through.
func middlewareRateLimit(l *ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res, err := l.Allow(r.Context(), "ip:"+r.RemoteAddr)
			if err != nil {
				slog.WarnContext(r.Context(), "rate limit store unavailable", "error", err)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter(time.Now())/time.Second)))
				writeJSON(w, errorResponse{Message: "Too many requests, please try again later"}, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
