package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/user/article-mirror/internal/delivery/http/handler"
	"github.com/user/article-mirror/internal/delivery/http/middleware"
)

// Options configures the router.
type Options struct {
	// ImageDir is served under /images/.
	ImageDir       string
	RequestTimeout time.Duration
}

func New(h *handler.Handler, opts Options, logger *zap.Logger) http.Handler {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logging(logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS)
	r.Use(middleware.Metrics)
	r.Use(chimw.Timeout(opts.RequestTimeout))

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/api/health", h.HandleHealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/conversions/status", h.HandleConversionStatus)
		r.Get("/failed-assets", h.HandleFailedAssets)
	})

	r.Route("/wechat", func(r chi.Router) {
		r.Get("/articles", h.HandleListArticles)
		r.Get("/article/{id}", h.HandleGetArticle)
		r.Get("/drafts", h.HandleListDrafts)
		r.Post("/convertByUrl", h.HandleConvertByURL)
	})

	if opts.ImageDir != "" {
		r.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(opts.ImageDir))))
	}

	return r
}
