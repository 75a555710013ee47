package router

import (
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/alokemajumder/rrweb-server/internal/config"
	"github.com/alokemajumder/rrweb-server/internal/metrics"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/handlers"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/middleware"
	"github.com/alokemajumder/rrweb-server/internal/transport/http/response"
)

type Deps struct {
	Sessions *handlers.SessionsHandler
	Config   *handlers.ConfigHandler
	Health   *handlers.HealthHandler
	// Limiter shares the rate limit through Redis. Nil means per-process.
	Limiter *middleware.RedisRateLimiter
}

func New(d Deps, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.TrustedRealIP(cfg.TrustedProxies))
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)
	r.Use(middleware.Tracing("rrweb-server"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Content-Encoding", middleware.HeaderXRequestID},
		ExposedHeaders: []string{middleware.HeaderXRequestID},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Fail(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	// ops endpoints are not rate limited
	r.Group(func(r chi.Router) {
		r.Use(middleware.SecurityHeaders)
		r.Get("/healthz", d.Health.Healthz)
		r.Get("/readyz", d.Health.Readyz)
		r.Handle("/metrics", metrics.Handler())
	})

	r.Group(func(r chi.Router) {
		if cfg.RLEnabled {
			r.Use(rateLimit(d.Limiter, cfg))
		}

		r.Group(func(r chi.Router) {
			r.Use(middleware.SecurityHeaders)
			r.Get("/config", d.Config.Get)
			r.With(
				middleware.BodyLimit(cfg.BodyMaxBytes),
				middleware.Decompress(cfg.BodyMaxBytes),
			).Post("/upload-session", d.Sessions.Upload)
		})

		if dirExists(cfg.StaticDir) {
			r.With(middleware.PageSecurityHeaders).
				Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
		}
	})

	return r
}

func rateLimit(l *middleware.RedisRateLimiter, cfg *config.Config) func(http.Handler) http.Handler {
	if l != nil {
		return l.Middleware(middleware.RateLimitConfig{
			Limit:  cfg.RLLimit,
			Window: cfg.RLWindow,
			KeyFn:  middleware.KeyByIP,
		})
	}
	return httprate.Limit(
		cfg.RLLimit,
		cfg.RLWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			response.Fail(w, http.StatusTooManyRequests, middleware.MsgTooManyRequests)
		}),
	)
}

func dirExists(dir string) bool {
	if dir == "" {
		return false
	}
	fi, err := os.Stat(dir)
	return err == nil && fi.IsDir()
}
