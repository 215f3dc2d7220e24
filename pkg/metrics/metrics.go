// Package metrics exports taxotree activity to Prometheus.
//
// A [Registry] implements the observability hook interfaces; [Registry.Install]
// routes the process-wide hooks to it and [Registry.Handler] serves the
// exposition endpoint.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/taxotree/pkg/observability"
)

const namespace = "taxotree"

// Registry holds every taxotree metric.
type Registry struct {
	// Backend (taxonomy REST API) requests
	BackendRequestsTotal   *prometheus.CounterVec
	BackendRequestDuration *prometheus.HistogramVec
	BackendErrorsTotal     *prometheus.CounterVec

	// Explorer
	TogglesTotal  *prometheus.CounterVec
	FetchDuration *prometheus.HistogramVec
	FetchedItems  *prometheus.HistogramVec
	RenderTime    prometheus.Histogram
	VisibleNodes  prometheus.Gauge

	// Artifact cache
	CacheHitsTotal    *prometheus.CounterVec
	CacheMissesTotal  *prometheus.CounterVec
	CacheBytesWritten *prometheus.CounterVec

	// Browser explorer HTTP server
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	ActiveSessions      prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with every metric registered, plus the Go
// runtime and process collectors.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{registry: reg}
	r.initBackendMetrics()
	r.initExplorerMetrics()
	r.initCacheMetrics()
	r.initHTTPMetrics()
	return r
}

func (r *Registry) initBackendMetrics() {
	f := promauto.With(r.registry)
	r.BackendRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_requests_total",
		Help:      "Requests sent to the taxonomy backend.",
	}, []string{"endpoint", "status"})
	r.BackendRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "backend_request_duration_seconds",
		Help:      "Taxonomy backend latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})
	r.BackendErrorsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "backend_errors_total",
		Help:      "Transport failures talking to the taxonomy backend.",
	}, []string{"endpoint"})
}

func (r *Registry) initExplorerMetrics() {
	f := promauto.With(r.registry)
	r.TogglesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "toggles_total",
		Help:      "Node clicks by direction and outcome.",
	}, []string{"direction", "outcome"})
	r.FetchDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_duration_seconds",
		Help:      "Time to fetch a node's neighbours.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"direction", "result"})
	r.FetchedItems = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetched_items",
		Help:      "Neighbours returned per successful fetch.",
		Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 250},
	}, []string{"direction"})
	r.RenderTime = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "render_duration_seconds",
		Help:      "Layout plus scene build time.",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1},
	})
	r.VisibleNodes = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "visible_nodes",
		Help:      "Visible nodes in the most recent render.",
	})
}

func (r *Registry) initCacheMetrics() {
	f := promauto.With(r.registry)
	r.CacheHitsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_hits_total",
		Help:      "Artifact cache hits.",
	}, []string{"format"})
	r.CacheMissesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_misses_total",
		Help:      "Artifact cache misses.",
	}, []string{"format"})
	r.CacheBytesWritten = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_written_bytes_total",
		Help:      "Bytes written to the artifact cache.",
	}, []string{"format"})
}

func (r *Registry) initHTTPMetrics() {
	f := promauto.With(r.registry)
	r.HTTPRequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Requests served by the browser explorer.",
	}, []string{"method", "route", "status"})
	r.HTTPRequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Browser explorer request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	r.ActiveSessions = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Explorer sessions held by the server.",
	})
}

// Prometheus returns the underlying registry.
func (r *Registry) Prometheus() *prometheus.Registry { return r.registry }

// Handler serves the metrics in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Install routes the global observability hooks to r.
func (r *Registry) Install() {
	observability.SetExplorerHooks(explorerHooks{r})
	observability.SetCacheHooks(cacheHooks{r})
	observability.SetHTTPHooks(httpHooks{r})
}

// RecordHTTPRequest records one request served by the browser explorer.
func (r *Registry) RecordHTTPRequest(method, route string, status int, d time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

type explorerHooks struct{ r *Registry }

func (h explorerHooks) OnToggle(_ context.Context, direction, outcome string) {
	h.r.TogglesTotal.WithLabelValues(direction, outcome).Inc()
}

func (h explorerHooks) OnFetch(_ context.Context, direction string, items int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	} else {
		h.r.FetchedItems.WithLabelValues(direction).Observe(float64(items))
	}
	h.r.FetchDuration.WithLabelValues(direction, result).Observe(d.Seconds())
}

func (h explorerHooks) OnRender(_ context.Context, visible int, d time.Duration) {
	h.r.RenderTime.Observe(d.Seconds())
	h.r.VisibleNodes.Set(float64(visible))
}

type cacheHooks struct{ r *Registry }

func (h cacheHooks) OnCacheHit(_ context.Context, format string) {
	h.r.CacheHitsTotal.WithLabelValues(format).Inc()
}

func (h cacheHooks) OnCacheMiss(_ context.Context, format string) {
	h.r.CacheMissesTotal.WithLabelValues(format).Inc()
}

func (h cacheHooks) OnCacheSet(_ context.Context, format string, size int) {
	h.r.CacheBytesWritten.WithLabelValues(format).Add(float64(size))
}

type httpHooks struct{ r *Registry }

func (httpHooks) OnRequest(context.Context, string, string, string) {}

func (h httpHooks) OnResponse(_ context.Context, _, _, path string, status int, d time.Duration) {
	ep := Endpoint(path)
	h.r.BackendRequestsTotal.WithLabelValues(ep, strconv.Itoa(status)).Inc()
	h.r.BackendRequestDuration.WithLabelValues(ep).Observe(d.Seconds())
}

func (h httpHooks) OnError(_ context.Context, _, _, path string, _ error) {
	h.r.BackendErrorsTotal.WithLabelValues(Endpoint(path)).Inc()
}

// Endpoint reduces a backend path to its route, dropping node ids and
// queries so label cardinality stays bounded:
//
//	/node/children/http%3A%2F%2Fx  → /node/children
//	/search/label/valve            → /search/label
//	/ping                          → /ping
func Endpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 2 {
		parts = parts[:2]
	}
	return "/" + strings.Join(parts, "/")
}

var (
	_ observability.ExplorerHooks = explorerHooks{}
	_ observability.CacheHooks    = cacheHooks{}
	_ observability.HTTPHooks     = httpHooks{}
)
