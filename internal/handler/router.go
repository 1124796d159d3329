package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/vinayakry63/lead-manager/internal/domain"
	"github.com/vinayakry63/lead-manager/internal/infra/observability"
	"github.com/vinayakry63/lead-manager/internal/port"
	"github.com/vinayakry63/lead-manager/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// HealthChecker reports store connectivity for the health endpoint.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps bundles everything the router needs.
type Deps struct {
	Leads   *service.LeadService
	Auth    *service.AuthService
	Users   port.Cache[*domain.User]
	Store   HealthChecker
	Metrics *observability.Metrics
	Logger  *zap.Logger

	CORSOrigin   string
	CookieSecure bool
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract defined for the lead manager frontend.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(requestMetricsMiddleware(d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// Credentials ride on the session cookie, so the allowed origin must be
	// explicit, never a wildcard.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{d.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Store))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// Authentication
		// =============================================
		r.Route("/auth", func(r chi.Router) {
			// Public routes
			r.Post("/register", authRegisterHandler(d.Auth, d.CookieSecure, d.Logger))
			r.Post("/login", authLoginHandler(d.Auth, d.CookieSecure, d.Logger))

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(SessionAuthMiddleware(d.Auth, d.Users, d.Metrics, d.Logger))
				r.Post("/logout", authLogoutHandler(d.Users, d.CookieSecure, d.Logger))
				r.Get("/me", authMeHandler(d.Auth, d.Logger))
			})
		})

		// =============================================
		// Leads (protected)
		// =============================================
		r.Group(func(r chi.Router) {
			r.Use(SessionAuthMiddleware(d.Auth, d.Users, d.Metrics, d.Logger))

			r.Post("/leads", createLeadHandler(d.Leads, d.Logger))
			r.Get("/leads", listLeadsHandler(d.Leads, d.Logger))
			r.Get("/leads/{leadId}", getLeadHandler(d.Leads, d.Logger))
			r.Put("/leads/{leadId}", updateLeadHandler(d.Leads, d.Logger))
			r.Delete("/leads/{leadId}", deleteLeadHandler(d.Leads, d.Logger))
		})

		// =============================================
		// Metrics summary
		// =============================================
		r.Get("/metrics/summary", metricsSummaryHandler(d.Metrics))
	})

	return r
}

// requestMetricsMiddleware counts completed requests by outcome. 5xx counts
// as an error; client mistakes do not.
func requestMetricsMiddleware(metrics *observability.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if metrics == nil {
				return
			}
			if ww.Status() >= 500 {
				metrics.IncrRequest("error")
			} else {
				metrics.IncrRequest("success")
			}
		})
	}
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(store HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := "healthy"
		dbStatus := "healthy"
		start := time.Now()
		if store != nil {
			if err := store.Ping(ctx); err != nil {
				status = "degraded"
				dbStatus = "unreachable"
			}
		}

		code := http.StatusOK
		if status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{
			"status": status,
			"checks": map[string]any{
				"database": map[string]any{
					"status":     dbStatus,
					"latency_ms": time.Since(start).Milliseconds(),
				},
			},
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetSummary())
	}
}
