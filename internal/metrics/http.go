// Package metrics exposes Prometheus collectors for the HTTP API and the
// scan ledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bomscan"

// httpLabels label every API series. sheet is the worksheet the server
// scans against, so two servers over different sheets stay apart.
var httpLabels = []string{"sheet", "method", "route", "status"}

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by sheet, route and status.",
		},
		httpLabels,
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "API request latency in seconds.",
			// Scan posts are sub-millisecond; xlsx exports can take seconds.
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		httpLabels,
	)

	requestsInFlight = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "api",
			Name:      "requests_in_flight",
			Help:      "API requests currently being served.",
		},
		[]string{"sheet"},
	)
)

// HTTP returns middleware that records request count, latency and the
// in-flight gauge for the API serving sheet. Requests chi could not route
// are recorded under route "unmatched".
func HTTP(sheet string) func(http.Handler) http.Handler {
	inFlight := requestsInFlight.WithLabelValues(sheet)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			labels := prometheus.Labels{
				"sheet":  sheet,
				"method": r.Method,
				"route":  routePattern(r),
				"status": strconv.Itoa(rec.status),
			}
			requestsTotal.With(labels).Inc()
			requestDuration.With(labels).Observe(time.Since(start).Seconds())
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
