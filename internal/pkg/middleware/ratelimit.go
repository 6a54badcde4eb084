package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/cache"
	"invadjust/internal/pkg/httpjson"
	"invadjust/internal/pkg/logger"
)

// RateLimiter aplica uma janela fixa por IP, com o contador guardado no cache (Redis),
// para que o limite valha entre réplicas. Se o cache falhar a requisição segue.
func RateLimiter(client cache.Client, limit int, window time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "rate-limit:" + clientIP(r)
			ctx := r.Context()

			count, err := client.IncrWindow(ctx, key, window)
			if err != nil {
				log.Warn("Rate limit indisponível, seguindo sem limite.", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			remaining := limit - int(count)
			if remaining < 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				httpjson.WriteError(w, r, log, apperror.NewTooManyRequestsError("muitas requisições, tente novamente mais tarde."))
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP usa o RemoteAddr (o chi RealIP já o reescreve a partir dos headers de proxy).
func clientIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
