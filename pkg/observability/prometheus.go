package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusHooks records every hook event as a Prometheus metric.
type PrometheusHooks struct {
	resolves     *prometheus.CounterVec
	permutations prometheus.Counter
	duration     prometheus.Histogram
	cache        *prometheus.CounterVec
	cacheBytes   prometheus.Counter
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
}

// NewPrometheusHooks creates the metrics and registers them with reg.
// It panics if a metric is already registered, like prometheus.MustRegister.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	h := &PrometheusHooks{
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jrevolver_resolves_total",
			Help: "Layout resolutions by outcome.",
		}, []string{"outcome"}),
		permutations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jrevolver_permutations_total",
			Help: "Permutations produced by successful resolutions.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jrevolver_resolve_duration_seconds",
			Help:    "Duration of layout resolutions.",
			Buckets: prometheus.DefBuckets,
		}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jrevolver_cache_operations_total",
			Help: "Cache lookups and writes by key type and result.",
		}, []string{"key_type", "result"}),
		cacheBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jrevolver_cache_written_bytes_total",
			Help: "Bytes written to the cache.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "jrevolver_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "jrevolver_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(h.resolves, h.permutations, h.duration, h.cache, h.cacheBytes, h.requests, h.latency)
	return h
}

func (h *PrometheusHooks) OnResolveStart(context.Context, string) {}

func (h *PrometheusHooks) OnResolveComplete(_ context.Context, _ string, permutations int, duration time.Duration, err error) {
	h.duration.Observe(duration.Seconds())
	if err != nil {
		h.resolves.WithLabelValues("error").Inc()
		return
	}
	h.resolves.WithLabelValues("ok").Inc()
	h.permutations.Add(float64(permutations))
}

func (h *PrometheusHooks) OnCacheHit(_ context.Context, keyType string) {
	h.cache.WithLabelValues(keyType, "hit").Inc()
}

func (h *PrometheusHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cache.WithLabelValues(keyType, "miss").Inc()
}

func (h *PrometheusHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cache.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

func (h *PrometheusHooks) OnRequest(_ context.Context, method, route string, status int, duration time.Duration) {
	h.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	h.latency.WithLabelValues(method, route).Observe(duration.Seconds())
}

var (
	_ ResolveHooks = (*PrometheusHooks)(nil)
	_ CacheHooks   = (*PrometheusHooks)(nil)
	_ HTTPHooks    = (*PrometheusHooks)(nil)
)
