// Package metrics exposes Prometheus counters and histograms for job
// submissions and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/nanosynth/nanosynth/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements job.Observer on top of Prometheus collectors.
type Recorder struct {
	gatherer prometheus.Gatherer

	jobsSubmitted *prometheus.CounterVec
	jobsProcessed *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	httpRequests  *prometheus.CounterVec
}

// NewRecorder registers the collectors on reg. Passing nil uses a fresh
// registry, which keeps tests isolated from each other.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Recorder{
		gatherer: reg,
		jobsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_submitted_total",
			Help: "The total number of submitted jobs",
		}, []string{"kind"}),
		jobsProcessed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "jobs_processed_total",
			Help: "The total number of processed jobs",
		}, []string{"kind", "outcome"}), // outcome: completed, cancelled, or a failure reason
		jobDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "job_duration_seconds",
			Help:    "Duration of job processing including simulated latency.",
			Buckets: prometheus.LinearBuckets(0.5, 0.5, 10),
		}, []string{"kind"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "The total number of HTTP requests by route and status",
		}, []string{"method", "route", "status"}),
	}
}

func (r *Recorder) JobSubmitted(kind models.JobKind) {
	r.jobsSubmitted.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) JobFinished(kind models.JobKind, outcome string, elapsed time.Duration) {
	r.jobsProcessed.WithLabelValues(string(kind), outcome).Inc()
	r.jobDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// HTTPRequest counts one served request. route should be the route pattern,
// not the raw path, to keep label cardinality bounded.
func (r *Recorder) HTTPRequest(method, route string, status int) {
	r.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
