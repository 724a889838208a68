// Package metrics holds the Prometheus collectors for graph builds and the
// HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/starford/wordhop/internal/models"
)

// Build sources.
const (
	SourceWordList = "wordlist"
	SourceEncoded  = "encoded"
	SourceFallback = "fallback"
)

var (
	// GraphBuilds counts completed graph builds.
	// Labels: source (wordlist, encoded, fallback)
	GraphBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordhop",
		Subsystem: "graph",
		Name:      "builds_total",
		Help:      "Total graph builds by source",
	}, []string{"source"})

	// GraphBuildDuration measures how long a build or decode took.
	GraphBuildDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "wordhop",
		Subsystem: "graph",
		Name:      "build_duration_seconds",
		Help:      "Graph build duration in seconds",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"source"})

	// GraphLoadErrors counts vocabulary files that could not be loaded.
	// Labels: reason (parse, decode, format, fetch)
	GraphLoadErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordhop",
		Subsystem: "graph",
		Name:      "load_errors_total",
		Help:      "Total vocabulary load failures by reason",
	}, []string{"reason"})

	GraphWords = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "wordhop",
		Subsystem: "graph",
		Name:      "words",
		Help:      "Words in the active graph",
	})

	GraphEdges = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "wordhop",
		Subsystem: "graph",
		Name:      "edges",
		Help:      "Directed edges in the active graph by kind",
	}, []string{"kind"})

	// HTTPRequests counts API requests.
	// Labels: route (chi route pattern), status
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "wordhop",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests by route and status",
	}, []string{"route", "status"})
)

// ObserveBuild records one finished build.
func ObserveBuild(source string, d time.Duration) {
	GraphBuilds.WithLabelValues(source).Inc()
	GraphBuildDuration.WithLabelValues(source).Observe(d.Seconds())
}

// SetGraphSize publishes the size of the active graph.
func SetGraphSize(words int, edges map[models.EdgeKind]int) {
	GraphWords.Set(float64(words))
	for _, k := range models.EdgeKinds {
		GraphEdges.WithLabelValues(string(k)).Set(float64(edges[k]))
	}
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware counts requests by matched route pattern.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
