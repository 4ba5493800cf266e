package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	AssetsLocalizedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assets_localized_total",
			Help: "Total number of asset localization attempts.",
		},
		[]string{"kind", "status"}, // status: success, failure
	)

	AssetFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "asset_fetch_duration_seconds",
			Help:    "Duration of remote asset downloads.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		},
		[]string{"kind"},
	)

	TokenRefreshTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "access_token_refresh_total",
			Help: "Total number of credential exchanges.",
		},
		[]string{"status"},
	)

	ConversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "conversions_total",
			Help: "Total number of article conversions.",
		},
		[]string{"status", "source"}, // source: upstream, cache
	)

	ConversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "conversion_duration_seconds",
			Help:    "Duration of article conversions.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	registerOnce sync.Once
)

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HTTPRequestsTotal,
			HTTPRequestDuration,
			AssetsLocalizedTotal,
			AssetFetchDuration,
			TokenRefreshTotal,
			ConversionsTotal,
			ConversionDuration,
		)
	})
}
