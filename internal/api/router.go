package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Portfolio-Analytics-Engine/internal/api/middleware"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/config"
	"github.com/ndewijer/Portfolio-Analytics-Engine/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(systemService *service.SystemService, analyticsService *service.AnalyticsService, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
			r.Get("/", analyticsHandler.ListPortfolios)
			r.Post("/recompute", analyticsHandler.RecomputeAll)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)
				r.Get("/index", analyticsHandler.GetIndexSeries)
				r.Get("/risk", analyticsHandler.GetRiskMetrics)
				r.Get("/quality", analyticsHandler.GetDataQuality)
				r.Post("/recompute", analyticsHandler.Recompute)
			})
		})
	})

	return r
}
