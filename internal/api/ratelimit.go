package api

import (
	"encoding/json/v2"
	"log/slog"
	"net"
	"net/http"
	"strings"

	domainerrors "github.com/talesmith/talesmith-server/internal/errors"
	"github.com/talesmith/talesmith-server/internal/ratelimit"
)

const authPathPrefix = "/api/v1/auth/"

// authRateLimit throttles POSTs under /api/v1/auth/ by client IP.
// Returns 429 Too Many Requests when the limit is exceeded.
func authRateLimit(limiter ratelimit.Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || r.Method != http.MethodPost || !strings.HasPrefix(r.URL.Path, authPathPrefix) {
				next.ServeHTTP(w, r)
				return
			}

			key := getClientIP(r)
			if !limiter.Allow(r.Context(), "auth:"+key) {
				logger.Warn("rate limit exceeded", "ip", key, "path", r.URL.Path)
				writeEnvelope(w, http.StatusTooManyRequests, APIEnvelope{
					Version: EnvelopeVersion,
					Error:   "too many requests, please try again later",
					Code:    string(domainerrors.CodeRateLimited),
				}, logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeEnvelope(w http.ResponseWriter, status int, env APIEnvelope, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, env); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

// getClientIP extracts the client IP from the request.
// middleware.RealIP has already folded X-Forwarded-For and X-Real-IP into
// RemoteAddr, so only the port needs stripping.
func getClientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
