package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Shivanand-hulikatti/community-registration/internal/service"
)

// RouterConfig carries everything NewRouter wires together.
type RouterConfig struct {
	Sessions  *service.Sessions
	Logger    zerolog.Logger
	Gatherer  prometheus.Gatherer
	RateLimit float64
	RateBurst int
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	h := NewRegistrationHandler(cfg.Sessions, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer) // recover from panics, return 500
	r.Use(chimiddleware.RequestID) // attach request IDs
	r.Use(chimiddleware.RealIP)    // trust X-Forwarded-For
	r.Use(Logger(cfg.Logger))      // structured access log
	r.Use(CORS)

	// Health
	r.Get("/health", HealthCheck)
	r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(NewClientLimiter(cfg.RateLimit, cfg.RateBurst)))
		r.Use(WithClientID)

		r.Get("/", h.Page)

		r.Route("/api/registration", func(r chi.Router) {
			r.Get("/", h.State)
			r.Put("/fields/{field}", h.UpdateField)
			r.Post("/file", h.UploadFile)
			r.Delete("/file", h.ClearFile)
			r.Post("/share", h.Share)
			r.Post("/submit", h.Submit)
		})
	})

	return r
}
