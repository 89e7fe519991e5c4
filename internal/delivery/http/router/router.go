package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/equipment-scraper/internal/delivery/http/handler"
	"github.com/user/equipment-scraper/internal/delivery/http/middleware"
	"github.com/user/equipment-scraper/pkg/metrics"
)

// New builds the API router. gatherer backs GET /metrics.
func New(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(m))
	r.Use(chimw.Recoverer)

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", h.HandleListTables)
			r.Route("/{table}", func(r chi.Router) {
				r.Get("/", h.HandleDescribeTable)
				r.Get("/rows", h.HandleRows)
				r.Get("/export", h.HandleExport)
				r.Post("/records", h.HandlePersistRecord)
				r.Delete("/", h.HandleDropTable)
			})
		})

		r.Get("/datasets", h.HandleListDatasets)
		// Runs can take minutes; they are bound by the request context only.
		r.Post("/datasets/{name}/run", h.HandleRunDataset)
	})

	return r
}
