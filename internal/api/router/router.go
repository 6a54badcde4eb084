package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"invadjust/internal/api/adjustment"
	"invadjust/internal/api/alert"
	"invadjust/internal/api/user"
	"invadjust/internal/api/variant"
	"invadjust/internal/domain"
	"invadjust/internal/pkg/cache"
	"invadjust/internal/pkg/logger"
	"invadjust/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	User       *user.Handler
	Variant    *variant.Handler
	Adjustment *adjustment.Handler
	Alert      *alert.Handler
}

// Options configura os middlewares aplicados pelo roteador.
type Options struct {
	TokenService         middleware.TokenService
	Cache                cache.Client // nil desliga o rate limit global
	LoginThrottle        *middleware.LoginThrottle
	RateLimitMaxRequests int
	RateLimitPeriod      time.Duration
	Logger               logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/ping", PingHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	r.Route("/v1", func(r chi.Router) {
		if opts.Cache != nil {
			r.Use(middleware.RateLimiter(opts.Cache, opts.RateLimitMaxRequests, opts.RateLimitPeriod, opts.Logger))
		}

		r.Post("/register", h.User.RegisterUserHandler)
		r.With(opts.LoginThrottle.Middleware).Post("/login", h.User.LoginUserHandler)

		r.Get("/variants/{id}", h.Variant.GetVariantHandler)

		r.Route("/inventory", func(r chi.Router) {
			r.Use(middleware.NewAuthMiddleware(opts.TokenService, opts.Logger))
			r.Use(middleware.PermissionMiddleware(opts.Logger, domain.RoleAdmin, domain.RoleStaff))

			r.Post("/adjustments/validate", h.Adjustment.ValidateAdjustmentHandler)
			r.Post("/adjustments", h.Adjustment.CreateAdjustmentHandler)
			r.Get("/adjustments", h.Adjustment.ListAdjustmentsHandler)

			r.Get("/alerts", h.Alert.ListAlertsHandler)
			r.Post("/alerts/{id}/resolve", h.Alert.ResolveAlertHandler)
		})
	})

	return r
}

// PingHandler é o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
