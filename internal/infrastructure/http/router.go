package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/http/handlers"
	"github.com/lsfernandes92/user-service-challenge/internal/infrastructure/http/middleware"
)

type RouterConfig struct {
	HealthHandler *handlers.HealthHandler
	UsersHandler  *handlers.UsersHandler
	Log           zerolog.Logger
	Secure        func(http.Handler) http.Handler
	IPRateLimit   func(http.Handler) http.Handler
	Metrics       bool // expose /metrics
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimid.RequestID)
	r.Use(chimid.RealIP)
	r.Use(loggerMiddleware(cfg.Log))
	r.Use(chimid.Recoverer)
	if cfg.Metrics {
		r.Use(middleware.PrometheusMiddleware)
	}
	if cfg.Secure != nil {
		r.Use(cfg.Secure)
	}
	if cfg.IPRateLimit != nil {
		r.Use(cfg.IPRateLimit)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	if cfg.HealthHandler != nil {
		r.Get("/health", cfg.HealthHandler.ServeHTTP)
	} else {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		})
	}
	if cfg.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.UsersHandler != nil {
		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.RequireJSON)
			r.Use(chimid.SetHeader("Content-Type", "application/json"))
			r.Get("/users", cfg.UsersHandler.List)
			r.Post("/users", cfg.UsersHandler.Create)
		})
	}

	return r
}

func writeErrors(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"errors":["` + message + `"]}` + "\n"))
}

func loggerMiddleware(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimid.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info().
				Str("request_id", chimid.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Msg("request")
		})
	}
}
