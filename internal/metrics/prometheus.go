package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once     sync.Once
	registry *Registry
)

// Plane label values.
const (
	PlaneControl = "ctlplane"
	PlaneData    = "dataplane"
)

// Registry holds all dvr metrics. A nil *Registry is valid and records nothing,
// so components built without metrics need no special casing.
type Registry struct {
	// Route table metrics
	RoutesAdded   *prometheus.CounterVec
	RoutesDeleted *prometheus.CounterVec
	Routes        *prometheus.GaugeVec

	// Data plane worker
	PacketsProcessed prometheus.Counter
	WorkerIterations prometheus.Counter
	WorkerRunning    prometheus.Gauge

	// API
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	gatherer prometheus.Gatherer
}

// Get returns the process-wide registry, creating it if necessary. It carries
// the Go runtime and process collectors in addition to the dvr metrics.
func Get() *Registry {
	once.Do(func() {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		registry = New(reg)
	})
	return registry
}

// New registers the dvr metrics on reg. Tests use a fresh prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Registry {
	f := promauto.With(reg)
	r := &Registry{gatherer: reg}

	r.RoutesAdded = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dvr_routes_added_total",
		Help: "Route inserts, including overwrites of an existing destination",
	}, []string{"plane"})

	r.RoutesDeleted = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dvr_routes_deleted_total",
		Help: "Route deletes that removed an entry",
	}, []string{"plane"})

	r.Routes = f.NewGaugeVec(prometheus.GaugeOpts{
		Name: "dvr_routes",
		Help: "Routes currently in the table",
	}, []string{"plane"})

	r.PacketsProcessed = f.NewCounter(prometheus.CounterOpts{
		Name: "dvr_packets_processed_total",
		Help: "Simulated packets processed by the data plane worker",
	})

	r.WorkerIterations = f.NewCounter(prometheus.CounterOpts{
		Name: "dvr_worker_iterations_total",
		Help: "Completed data plane worker iterations",
	})

	r.WorkerRunning = f.NewGauge(prometheus.GaugeOpts{
		Name: "dvr_worker_running",
		Help: "1 while the data plane worker is running",
	})

	r.APIRequests = f.NewCounterVec(prometheus.CounterOpts{
		Name: "dvr_api_requests_total",
		Help: "Control plane API requests by method, path and status",
	}, []string{"method", "path", "code"})

	r.APILatency = f.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dvr_api_request_duration_seconds",
		Help:    "Control plane API request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}

// RecordRouteAdded counts an insert and updates the table size gauge.
func (r *Registry) RecordRouteAdded(plane string, size int) {
	if r == nil {
		return
	}
	r.RoutesAdded.WithLabelValues(plane).Inc()
	r.Routes.WithLabelValues(plane).Set(float64(size))
}

// RecordRouteDeleted counts a successful delete and updates the table size gauge.
func (r *Registry) RecordRouteDeleted(plane string, size int) {
	if r == nil {
		return
	}
	r.RoutesDeleted.WithLabelValues(plane).Inc()
	r.Routes.WithLabelValues(plane).Set(float64(size))
}

// RecordWorkerTick records one worker iteration that processed packets.
func (r *Registry) RecordWorkerTick(packets int) {
	if r == nil {
		return
	}
	r.WorkerIterations.Inc()
	r.PacketsProcessed.Add(float64(packets))
}

// SetWorkerRunning flips the worker state gauge.
func (r *Registry) SetWorkerRunning(running bool) {
	if r == nil {
		return
	}
	if running {
		r.WorkerRunning.Set(1)
		return
	}
	r.WorkerRunning.Set(0)
}

// RecordAPIRequest records an API request. path should be a known route
// pattern; callers collapse unknown paths so label cardinality stays bounded.
func (r *Registry) RecordAPIRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.APIRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	r.APILatency.WithLabelValues(method, path).Observe(duration.Seconds())
}
