package prometheus

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics counts requests per matched route. It is a Collector; pass it
// to [Handler] to publish it next to the engine metrics.
type HTTPMetrics struct {
	inFlight prom.Gauge
	requests *prom.CounterVec
	duration *prom.HistogramVec
}

func NewHTTPMetrics() *HTTPMetrics {
	return &HTTPMetrics{
		inFlight: prom.NewGauge(prom.GaugeOpts{
			Name: "goguard_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Name: "goguard_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		duration: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "goguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prom.DefBuckets,
		}, []string{"route"}),
	}
}

func (m *HTTPMetrics) Describe(ch chan<- *prom.Desc) {
	m.inFlight.Describe(ch)
	m.requests.Describe(ch)
	m.duration.Describe(ch)
}

func (m *HTTPMetrics) Collect(ch chan<- prom.Metric) {
	m.inFlight.Collect(ch)
	m.requests.Collect(ch)
	m.duration.Collect(ch)
}

// Instrument wraps a ServeMux. The route label is the matched mux pattern,
// which keeps path parameters out of the label set.
func (m *HTTPMetrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.inFlight.Inc()
		defer m.inFlight.Dec()

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(sw, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.requests.WithLabelValues(route, strconv.Itoa(sw.code)).Inc()
	})
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}
