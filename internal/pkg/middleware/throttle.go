package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apperror "invadjust/internal/errors"
	"invadjust/internal/pkg/httpjson"
	"invadjust/internal/pkg/logger"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LoginThrottle limita, em memória e por IP, as tentativas em rotas sensíveis (login).
type LoginThrottle struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	now      func() time.Time
	logger   logger.Logger
}

// NewLoginThrottle cria um throttle de limit eventos/segundo com rajada burst.
func NewLoginThrottle(limit rate.Limit, burst int, log logger.Logger) *LoginThrottle {
	return &LoginThrottle{
		visitors: make(map[string]*visitor),
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		logger:   log,
	}
}

func (t *LoginThrottle) limiterFor(ip string) *rate.Limiter {
	t.mu.Lock()
	defer t.mu.Unlock()

	v, exists := t.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(t.limit, t.burst)}
		t.visitors[ip] = v
	}
	v.lastSeen = t.now()
	return v.limiter
}

// Middleware responde 429 quando o IP esgota a rajada.
func (t *LoginThrottle) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !t.limiterFor(clientIP(r)).Allow() {
			httpjson.WriteError(w, r, t.logger, apperror.NewTooManyRequestsError("muitas tentativas de login, aguarde antes de tentar novamente."))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Cleanup remove visitantes sem atividade há mais de maxIdle.
func (t *LoginThrottle) Cleanup(maxIdle time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for ip, v := range t.visitors {
		if t.now().Sub(v.lastSeen) > maxIdle {
			delete(t.visitors, ip)
		}
	}
}

// Len devolve o número de visitantes rastreados.
func (t *LoginThrottle) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.visitors)
}
