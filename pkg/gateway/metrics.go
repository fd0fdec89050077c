package gateway

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const resultOK = "ok"

var defaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

var (
	metricsOnce     sync.Once
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
)

func registerMetrics(buckets []float64) {
	metricsOnce.Do(func() {
		if len(buckets) == 0 {
			buckets = defaultBuckets
		}

		requestsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ccipgate_requests_total",
				Help: "Resolution requests by resolution method and result.",
			},
			[]string{"method", "result"},
		)

		requestDuration = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ccipgate_request_duration_seconds",
				Help:    "Time spent answering resolution requests.",
				Buckets: buckets,
			},
			[]string{"method"},
		)

		prometheus.MustRegister(requestsTotal, requestDuration)
	})
}

func observe(method string, kind Kind, start time.Time) {
	if requestsTotal == nil {
		return
	}

	result := resultOK
	if kind != "" {
		result = string(kind)
	}

	requestsTotal.WithLabelValues(method, result).Inc()
	requestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
}
