package router

import (
	"net"
	"net/http"
	"strings"
)

// clientIPHeaders are consulted in order. Forwarded-for style headers may
// carry a chain, of which the first parseable address is the client.
var clientIPHeaders = []string{
	"True-Client-IP",
	"X-Vercel-Forwarded-For",
	"X-Real-IP",
	"X-Forwarded-For",
}

// middlewareIP rewrites RemoteAddr to the client address so the rate limiter
// and access logs key on the caller rather than the proxy.
func middlewareIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ip := clientIP(r); ip != "" {
			r.RemoteAddr = ip
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	for _, name := range clientIPHeaders {
		for _, candidate := range strings.Split(r.Header.Get(name), ",") {
			candidate = strings.TrimSpace(candidate)
			if net.ParseIP(candidate) != nil {
				return candidate
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil || net.ParseIP(host) == nil {
		return ""
	}
	return host
}
