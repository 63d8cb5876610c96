package uiflow

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricCommands = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "uiflow",
		Name:      "commands_total",
		Help:      "Navigation commands executed, by kind and result.",
	}, []string{"kind", "result"})
	metricQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "uiflow",
		Name:      "queue_depth",
		Help:      "Navigation commands waiting behind the one in flight.",
	})
	metricTransitionSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "uiflow",
		Name:      "transition_duration_seconds",
		Help:      "Time spent executing a navigation command.",
		Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"kind"})
	metricSurfacesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "uiflow",
		Name:      "popup_surfaces_created_total",
		Help:      "Popup surfaces built because the free pool was empty.",
	})
)

func recordCommand(kind CommandKind, result Result, took time.Duration) {
	metricCommands.WithLabelValues(kind.String(), result.String()).Inc()
	metricTransitionSeconds.WithLabelValues(kind.String()).Observe(took.Seconds())
}

func recordQueueDepth(n int) {
	metricQueueDepth.Set(float64(n))
}

func recordSurfaceCreated() {
	metricSurfacesCreated.Inc()
}
