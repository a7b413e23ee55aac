package handler

import (
	"net/http"

	"github.com/boddenberg/ppob-bfa-go/internal/infra/observability"
	"github.com/boddenberg/ppob-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Every /v1 route except session creation addresses one session's client
// state through the X-Session-ID header.
func NewRouter(sessions *service.Sessions, checks []HealthCheck, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(checks))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/flows", flowMetricsHandler(metrics))

		if sessions == nil {
			r.Handle("/*", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusServiceUnavailable, "session registry unavailable")
			}))
			return
		}

		// =============================================
		// 1. Sessions
		// =============================================
		r.Post("/sessions", createSessionHandler(sessions, logger))

		r.Group(func(r chi.Router) {
			r.Use(SessionMiddleware(sessions, logger))

			r.Delete("/sessions", deleteSessionHandler(sessions, logger))
			r.Get("/state", stateHandler())
			r.Get("/events", eventsHandler(logger))

			// =============================================
			// 2. Auth (public)
			// =============================================
			r.Post("/auth/login", loginHandler(logger))
			r.Post("/auth/registration", registrationHandler(logger))
			r.Post("/auth/logout", logoutHandler(logger))
			r.Post("/auth/clear-status", clearSessionStatusHandler())

			r.Group(func(r chi.Router) {
				r.Use(RequireAuthMiddleware(logger))

				// =============================================
				// 3. Home & Profile
				// =============================================
				r.Post("/home", homeHandler(logger))
				r.Get("/profile", getProfileHandler(logger))
				r.Put("/profile", updateProfileHandler(logger))
				r.Put("/profile/image", updateProfileImageHandler(logger))
				r.Post("/profile/clear-status", clearProfileStatusHandler())

				// =============================================
				// 4. Balance
				// =============================================
				r.Get("/balance", getBalanceHandler(logger))
				r.Post("/balance/visibility", toggleBalanceHandler(logger))

				// =============================================
				// 5. Catalog
				// =============================================
				r.Get("/services", listServicesHandler(logger))
				r.Get("/banners", listBannersHandler(logger))

				// =============================================
				// 6. History
				// =============================================
				r.Get("/history", historyHandler(logger))
				r.Post("/history/more", loadMoreHistoryHandler(logger))

				// =============================================
				// 7. Transaction flows
				// =============================================
				r.Post("/topup", startTopUpHandler(logger))
				r.Post("/payments/{serviceCode}", startPaymentHandler(logger))
				r.Get("/flows", listFlowsHandler())
				r.Get("/flows/{flowId}", getFlowHandler(logger))
				r.Post("/flows/{flowId}/confirm", confirmFlowHandler(logger))
				r.Post("/flows/{flowId}/cancel", cancelFlowHandler(logger))
				r.Post("/flows/{flowId}/close", closeFlowHandler(logger))
			})
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func flowMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetFlowSnapshot())
	}
}
