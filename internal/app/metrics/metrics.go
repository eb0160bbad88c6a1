package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "recruiting_layer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruiting_layer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "path", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "recruiting_layer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "path"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruiting_layer",
			Subsystem: "applications",
			Name:      "submissions_total",
			Help:      "Total number of application submission attempts.",
		},
		[]string{"outcome"},
	)

	statusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruiting_layer",
			Subsystem: "applications",
			Name:      "status_transitions_total",
			Help:      "Total number of applied status transitions.",
		},
		[]string{"from", "to"},
	)

	interviewsScheduled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "recruiting_layer",
			Subsystem: "applications",
			Name:      "interviews_scheduled_total",
			Help:      "Total number of scheduled interviews.",
		},
		[]string{"type"},
	)

	// CleanupFailures counts attachment deletions handed to the sweeper
	// after failing inline.
	CleanupFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "recruiting_layer",
			Subsystem: "attachments",
			Name:      "cleanup_failures_total",
			Help:      "Total number of attachment deletions deferred to the sweeper.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		submissions,
		statusTransitions,
		interviewsScheduled,
		CleanupFailures,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// InstrumentHandler wraps the provided handler with HTTP metrics collection.
func InstrumentHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		path := canonicalPath(r.URL.Path)
		method := strings.ToUpper(r.Method)

		httpRequests.WithLabelValues(method, path, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	})
}

// RecordSubmission counts a submission attempt by outcome
// (accepted, conflict, rejected).
func RecordSubmission(outcome string) {
	submissions.WithLabelValues(outcome).Inc()
}

// RecordStatusTransition counts an applied status transition.
func RecordStatusTransition(from, to string) {
	statusTransitions.WithLabelValues(from, to).Inc()
}

// RecordInterviewScheduled counts a scheduled interview by type.
func RecordInterviewScheduled(interviewType string) {
	if interviewType == "" {
		interviewType = "unknown"
	}
	interviewsScheduled.WithLabelValues(interviewType).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

// canonicalPath collapses resource IDs so the path label stays low
// cardinality: /applications/123/interviews -> /applications/:id/interviews.
func canonicalPath(raw string) string {
	trimmed := strings.Trim(raw, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	switch parts[0] {
	case "applications":
		if len(parts) == 1 {
			return "/applications"
		}
		switch parts[1] {
		case "dashboard":
			return "/applications/dashboard"
		case "candidate":
			return "/applications/candidate/:id"
		case "job":
			return "/applications/job/:id"
		}
		if len(parts) == 2 {
			return "/applications/:id"
		}
		return "/applications/:id/" + parts[2]
	case "jobs":
		if len(parts) >= 3 {
			return "/jobs/:id/" + parts[2]
		}
		return "/jobs"
	default:
		return "/" + parts[0]
	}
}
