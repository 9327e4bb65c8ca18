package eutelescope

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var metricsRegistry = prometheus.NewRegistry()

var (
	hitsProcessed = promauto.With(metricsRegistry).NewCounterVec(prometheus.CounterOpts{
		Name: "eutel_hits_processed_total",
		Help: "Hits checked against the hot pixel map.",
	}, []string{"collection"})

	hitsSkipped = promauto.With(metricsRegistry).NewCounterVec(prometheus.CounterOpts{
		Name: "eutel_hits_skipped_total",
		Help: "Hits dropped because their cluster contains a hot pixel.",
	}, []string{"collection"})

	decodeErrors = promauto.With(metricsRegistry).NewCounterVec(prometheus.CounterOpts{
		Name: "eutel_decode_errors_total",
		Help: "Hits whose cluster could not be decoded.",
	}, []string{"collection"})

	malformedRecords = promauto.With(metricsRegistry).NewCounter(prometheus.CounterOpts{
		Name: "eutel_malformed_records_total",
		Help: "Hot or noisy pixel records skipped while building a pixel map.",
	})

	hotPixelsLoaded = promauto.With(metricsRegistry).NewGauge(prometheus.GaugeOpts{
		Name: "eutel_hot_pixels",
		Help: "Number of pixels in the last hot pixel map built.",
	})
)

func MetricsRegistry() *prometheus.Registry {
	return metricsRegistry
}

func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(metricsRegistry, promhttp.HandlerOpts{})
}
