package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Tago-F/onsen-review/internal/service"
	"github.com/Tago-F/onsen-review/pkg/health"
	"github.com/Tago-F/onsen-review/pkg/middleware"
)

// RouterConfig holds the router's tunable parts.
type RouterConfig struct {
	CORS              middleware.CORSConfig
	PprofAllowedCIDRs []string
}

// NewRouter creates a chi router with all review API routes registered.
func NewRouter(
	reviewService *service.ReviewService,
	healthHandler *health.Handler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Tracing("review-api"))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.ContextLogger(logger))
	r.Use(middleware.PrometheusMetrics("review-api"))

	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	if len(cfg.PprofAllowedCIDRs) > 0 {
		middleware.RegisterPprof(r, cfg.PprofAllowedCIDRs, logger)
	}

	reviewHandler := NewReviewHandler(reviewService, logger)
	storageHandler := NewStorageHandler(reviewService, logger)

	r.Route("/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// Keep response caching far below the read SAS expiry so stamped
		// image URLs never outlive their tokens.
		r.With(middleware.CacheControl(30)).Get("/", reviewHandler.ListReviews)
		r.With(middleware.CacheControl(30)).Get("/{id}", reviewHandler.GetReview)
		r.Post("/", reviewHandler.CreateReview)
		r.Put("/{id}", reviewHandler.UpdateReview)
		r.Delete("/{id}", reviewHandler.DeleteReview)
	})

	r.Route("/storage", func(r chi.Router) {
		r.Use(ContentTypeJSON)
		r.Post("/generate-upload-url", storageHandler.GenerateUploadURL)
	})

	return r
}
