// Package handler is the reference backend's HTTP layer: the /api routes the
// storefront data-access layer consumes, the /identity emulator of the
// external auth provider, and the operational endpoints.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/doceencanto/storefront-go/internal/domain"
	"github.com/doceencanto/storefront-go/internal/infra/observability"
	"github.com/doceencanto/storefront-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the bakeryd router. authRequired guards product mutations
// behind the bearer middleware; reads stay public either way, matching how
// the storefront calls them.
func NewRouter(backend *service.BackendService, identity *service.IdentityService, metrics *observability.Metrics, logger *zap.Logger, authRequired bool) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(backend))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Storefront API ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHealthHandler(backend))
		r.Get("/categories", categoriesHandler(backend))

		r.Get("/products", listProductsHandler(backend, logger))
		r.Get("/products/{productId}", getProductHandler(backend, logger))

		mutations := func(r chi.Router) {
			r.Post("/products", createProductHandler(backend, logger))
			r.Put("/products/{productId}", updateProductHandler(backend, logger))
			r.Patch("/products/{productId}", patchQuantityHandler(backend, logger))
			r.Delete("/products/{productId}", deleteProductHandler(backend, logger))
		}
		if authRequired {
			r.Group(func(r chi.Router) {
				r.Use(BearerAuthMiddleware(identity, logger))
				mutations(r)
			})
		} else {
			mutations(r)
		}

		r.Get("/reports/sales", salesReportHandler(backend, logger))
		r.Get("/reports/top-products", topProductsHandler(backend, logger))

		r.Get("/metrics/data", dataMetricsHandler(metrics))
	})

	// --- Identity emulator ---
	r.Route("/identity/v1", func(r chi.Router) {
		r.Post("/accounts:signUp", signUpHandler(identity, logger))
		r.Post("/accounts:signInWithPassword", signInHandler(identity, logger))
		r.Group(func(r chi.Router) {
			r.Use(BearerAuthMiddleware(identity, logger))
			r.Get("/profile", identityProfileHandler(identity, logger))
		})
	})

	return r
}

func apiHealthHandler(backend *service.BackendService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, backend.Health())
	}
}

func healthzHandler(backend *service.BackendService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		start := time.Now()
		_, err := backend.ListProducts(r.Context(), domain.CategoryAll, "")
		latency := time.Since(start).Milliseconds()
		storeStatus := "healthy"
		if err != nil {
			storeStatus = "degraded"
		}

		services := []domain.ServiceHealth{
			{Name: "bakeryd-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
			{Name: "catalog-store", Status: storeStatus, LatencyMs: latency, LastChecked: now},
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overall,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func categoriesHandler(backend *service.BackendService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, backend.Categories(r.Context()))
	}
}

func dataMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetDataSnapshot())
	}
}
