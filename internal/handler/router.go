package handler

import (
	"net/http"
	"time"

	"github.com/shehrozeikram/ERP-sub003/internal/domain"
	"github.com/shehrozeikram/ERP-sub003/internal/infra/observability"
	"github.com/shehrozeikram/ERP-sub003/internal/port"
	"github.com/shehrozeikram/ERP-sub003/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// backend may be nil (health then reports only this service). When
// jwtSecret is empty the /v1 routes are open.
func NewRouter(svc *service.InvoiceService, backend port.HealthChecker, metrics *observability.Metrics, jwtSecret string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(backend))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		if jwtSecret != "" {
			r.Use(JWTAuthMiddleware([]byte(jwtSecret), logger))
		}

		// Invoice figures
		r.Post("/invoices/calculate", calculateHandler(svc, logger))
		r.Get("/invoices/{invoiceId}/figures", figuresHandler(svc, logger))

		// Documents
		r.Get("/invoices/{invoiceId}/statement", statementHandler(svc, logger))
		r.Post("/statements/batch", batchStatementsHandler(svc, logger))

		// Invoice creation helpers
		r.Get("/properties/{propertyId}/carry-forward", carryForwardHandler(svc, logger))
		r.Post("/invoice-numbers", invoiceNumberHandler(svc, logger))

		r.Get("/metrics/billing", billingMetricsHandler(metrics))
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(backend port.HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "billing-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if backend != nil {
			start := time.Now()
			err := backend.Ping(r.Context())
			status := "healthy"
			if err != nil {
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name:        "taj-api",
				Status:      status,
				LatencyMs:   time.Since(start).Milliseconds(),
				LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func billingMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetBillingSnapshot())
	}
}
