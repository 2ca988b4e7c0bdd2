package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/plmware/forecast-api/internal/config"
	"github.com/plmware/forecast-api/internal/domain"
	"github.com/plmware/forecast-api/internal/http/handler"
	"github.com/plmware/forecast-api/internal/http/middleware"
	"github.com/plmware/forecast-api/internal/session"
	"github.com/plmware/forecast-api/internal/upstream"
	"go.uber.org/zap"
)

type Router struct {
	cfg               *config.Config
	logger            *zap.Logger
	upstream          *upstream.Client
	sessionMiddleware *session.Middleware
	rateLimiter       *middleware.RateLimiter
	authHandler       *handler.AuthHandler
	projectHandler    *handler.ProjectHandler
	forecastHandler   *handler.ForecastHandler
	dashboardHandler  *handler.DashboardHandler
	filtersHandler    *handler.FiltersHandler
	settingsHandler   *handler.SettingsHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	upstreamClient *upstream.Client,
	sessionMiddleware *session.Middleware,
	rateLimiter *middleware.RateLimiter,
	authHandler *handler.AuthHandler,
	projectHandler *handler.ProjectHandler,
	forecastHandler *handler.ForecastHandler,
	dashboardHandler *handler.DashboardHandler,
	filtersHandler *handler.FiltersHandler,
	settingsHandler *handler.SettingsHandler,
) *Router {
	return &Router{
		cfg:               cfg,
		logger:            logger,
		upstream:          upstreamClient,
		sessionMiddleware: sessionMiddleware,
		rateLimiter:       rateLimiter,
		authHandler:       authHandler,
		projectHandler:    projectHandler,
		forecastHandler:   forecastHandler,
		dashboardHandler:  dashboardHandler,
		filtersHandler:    filtersHandler,
		settingsHandler:   settingsHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Upstream health check (readiness probe with latency)
	r.Get("/health/upstream", func(w http.ResponseWriter, r *http.Request) {
		status := rt.upstream.HealthCheck(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if status.Status != "healthy" {
			rt.logger.Error("Upstream health check failed", zap.String("error", status.Error))
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":     status.Status,
			"service":    "upstream",
			"latency_ms": status.Latency.Milliseconds(),
			"error":      status.Error,
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		status := rt.upstream.HealthCheck(r.Context())
		if status.Status != "healthy" {
			rt.logger.Error("Upstream health check failed", zap.String("error", status.Error))
			checks["upstream"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  status.Error,
			}
			allHealthy = false
		} else {
			checks["upstream"] = map[string]interface{}{
				"status":     "healthy",
				"latency_ms": status.Latency.Milliseconds(),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Post("/auth/login", rt.authHandler.Login)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.sessionMiddleware.Authenticate)
			r.Use(rt.rateLimiter.LimitByUser)

			// Auth
			r.Get("/auth/me", rt.authHandler.Me)
			r.Post("/auth/logout", rt.authHandler.Logout)

			// Forecast records
			r.Route("/forecast", func(r chi.Router) {
				r.Get("/", rt.forecastHandler.List)
				r.Put("/edits", rt.forecastHandler.SaveEdits)
				r.Get("/export", rt.forecastHandler.Export)
				r.Post("/import-actuals", rt.forecastHandler.ImportActuals)
			})

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Post("/", rt.projectHandler.Create)
				r.Get("/check-op-forecast", rt.projectHandler.CheckOPForecast)
				r.Get("/editable-months", rt.projectHandler.EditableMonths)
				r.Get("/{id}", rt.projectHandler.Get)
				r.Put("/{id}", rt.projectHandler.Update)
				r.Delete("/{id}", rt.projectHandler.Delete)
				r.Put("/{id}/forecasts", rt.projectHandler.ReplaceForecasts)
			})

			// Dashboard
			r.Get("/dashboard/summary", rt.dashboardHandler.Summary)
			r.Get("/dashboard/series", rt.dashboardHandler.Series)
			r.Get("/dashboard/exchange-rates", rt.dashboardHandler.ExchangeRates)
			r.With(rt.sessionMiddleware.RequireRole(domain.RoleSalesHead)).
				Put("/dashboard/exchange-rates", rt.dashboardHandler.SetExchangeRates)

			// Filters
			r.Route("/filters", func(r chi.Router) {
				r.Get("/options", rt.filtersHandler.Options)
				r.Get("/form-options", rt.filtersHandler.FormOptions)
				r.Get("/source-countries", rt.filtersHandler.SourceCountries)
				r.Get("/customer-names", rt.filtersHandler.CustomerNames)
			})

			// Settings
			r.Route("/settings", func(r chi.Router) {
				r.Get("/freeze", rt.settingsHandler.FreezeStatus)
				r.With(rt.sessionMiddleware.RequireRole(domain.RoleSalesHead)).
					Put("/freeze", rt.settingsHandler.SetFreezeWindow)
			})
		})
	})

	return r
}
