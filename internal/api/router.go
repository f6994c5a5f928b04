// Package api implements the HTTP surface (C10): route binding and the
// middleware chain wired around the service container.
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/sys3222/akshare-mcp-adapter/internal/middleware"
	"github.com/sys3222/akshare-mcp-adapter/internal/service"
)

// NewRouter builds the full gorilla/mux router: logging, recovery,
// metrics, CORS, and body-size cap wrap every route globally. Rate
// limiting is scoped to the public and protected /api subrouters
// separately, with auth running before the limiter on the protected one
// so it can key on the resolved username instead of falling back to
// per-IP (§4.10).
func NewRouter(c *service.Container) *mux.Router {
	r := mux.NewRouter()
	h := &handlers{c: c}

	metrics := middleware.NewMetrics("akshare-mcp-adapter")
	rateLimiter := middleware.NewRateLimiterWithWindow(c.Config.RateLimitRequests, c.Config.RateLimitWindow, c.Config.RateLimitRequests, c.Logger)
	rateLimiter.StartCleanup(10 * time.Minute)
	recovery := middleware.NewRecoveryMiddleware(c.Logger)
	cors := middleware.NewCORSMiddleware(&middleware.CORSConfig{AllowedOrigins: c.Config.CORSAllowedOrigins})
	bodyLimit := middleware.NewBodyLimitMiddleware(0)
	auth := authMiddleware(c)

	r.Use(middleware.LoggingMiddleware(c.Logger))
	r.Use(recovery.Handler)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler)
	r.Use(bodyLimit.Handler)

	r.HandleFunc("/health", middleware.HealthHandler).Methods(http.MethodGet)

	// Public routes have no resolved username yet, so the rate limiter
	// falls back to per-IP keying here.
	public := r.PathPrefix("/api").Subrouter()
	public.Use(rateLimiter.Handler)
	public.HandleFunc("/token", h.issueToken).Methods(http.MethodPost)

	// Protected routes run auth first so the rate limiter can key on the
	// resolved username instead of falling back to per-IP.
	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(auth)
	protected.Use(rateLimiter.Handler)
	protected.HandleFunc("/users/me", h.whoAmI).Methods(http.MethodGet)
	protected.HandleFunc("/mcp-data/interfaces", h.listInterfaces).Methods(http.MethodGet)
	protected.HandleFunc("/mcp-data", h.fetchMarketData).Methods(http.MethodPost)
	protected.HandleFunc("/data/upload", h.uploadFile).Methods(http.MethodPost)
	protected.HandleFunc("/data/files", h.listFiles).Methods(http.MethodGet)
	protected.HandleFunc("/data/files/{filename}", h.deleteFile).Methods(http.MethodDelete)
	protected.HandleFunc("/data/explore/{filename}", h.exploreFile).Methods(http.MethodPost)
	protected.HandleFunc("/llm/chat", h.llmChat).Methods(http.MethodPost)
	protected.HandleFunc("/llm/analyze", h.llmAnalyze).Methods(http.MethodPost)

	if c.Config.MetricsEnabled {
		r.Handle("/metrics", metricsHandler())
	}

	return r
}
