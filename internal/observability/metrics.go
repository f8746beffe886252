package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TurnsTotal    *prometheus.CounterVec
	FallbackTotal *prometheus.CounterVec
	Confidence    prometheus.Histogram
	ActiveClients prometheus.Gauge
	PersistEvents *prometheus.CounterVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_total",
			Help:      "Processed conversation turns by detected intent.",
		}, []string{"intent"}),
		FallbackTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_total",
			Help:      "Fallback responder invocations by result.",
		}, []string{"result"}),
		Confidence: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classification_confidence",
			Help:      "Distribution of intent classification confidence.",
			Buckets:   []float64{0.0, 0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.8, 1.0},
		}),
		ActiveClients: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_clients",
			Help:      "Number of client contexts currently in memory.",
		}),
		PersistEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_events_total",
			Help:      "Memory persistence attempts by result.",
		}, []string{"result"}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
