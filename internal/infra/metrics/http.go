package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(httpRequestDuration)
}

var httpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "http_request_duration_ms",
		Help:    "HTTP request latency distribution in milliseconds.",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3000},
	},
	[]string{"method", "path", "status"},
)

func ObserveHTTPRequest(method, path string, status int, elapsed time.Duration) {
	httpRequestDuration.
		WithLabelValues(method, path, strconv.Itoa(status)).
		Observe(float64(elapsed.Milliseconds()))
}
