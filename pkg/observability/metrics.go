package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "clausetree"

// knownPaths keeps the path label bounded; anything else is "other".
var knownPaths = map[string]bool{
	"/healthz":        true,
	"/version":        true,
	"/metrics":        true,
	"/api/v1/convert": true,
}

// Metrics records pipeline, cache and HTTP events as Prometheus collectors.
// It implements all three hook interfaces; Install registers it and forwards
// every event to the hooks that were installed before it.
type Metrics struct {
	stageSeconds  *prometheus.HistogramVec
	artifactBytes *prometheus.HistogramVec
	cacheEvents   *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpSeconds   *prometheus.HistogramVec
	httpErrors    *prometheus.CounterVec
	inFlight      prometheus.Gauge

	nextPipeline PipelineHooks
	nextCache    CacheHooks
	nextHTTP     HTTPHooks
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		// Labels: stage (decode, build, render), format, status (ok, error)
		stageSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage", "format", "status"}),

		artifactBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "pipeline",
			Name:      "artifact_bytes",
			Help:      "Size of rendered artifacts in bytes",
			Buckets:   prometheus.ExponentialBuckets(512, 4, 8),
		}, []string{"format"}),

		// Labels: event (hit, miss, set), format
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Artifact cache lookups and writes",
		}, []string{"event", "format"}),

		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, path and status",
		}, []string{"method", "path", "status"}),

		httpSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),

		httpErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Failed HTTP requests by error code",
		}, []string{"code"}),

		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served",
		}),

		nextPipeline: NoopPipelineHooks{},
		nextCache:    NoopCacheHooks{},
		nextHTTP:     NoopHTTPHooks{},
	}
}

// Install registers m for all three concerns, chaining to whatever hooks
// are installed at the time of the call.
func (m *Metrics) Install() {
	if Pipeline() == PipelineHooks(m) {
		return
	}
	m.nextPipeline, m.nextCache, m.nextHTTP = Pipeline(), Cache(), HTTP()
	SetPipelineHooks(m)
	SetCacheHooks(m)
	SetHTTPHooks(m)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func pathLabel(path string) string {
	if knownPaths[path] {
		return path
	}
	return "other"
}

func (m *Metrics) OnDecode(ctx context.Context, format string, units int, d time.Duration, err error) {
	m.stageSeconds.WithLabelValues("decode", format, status(err)).Observe(d.Seconds())
	m.nextPipeline.OnDecode(ctx, format, units, d, err)
}

func (m *Metrics) OnBuild(ctx context.Context, nodes, edges int, d time.Duration, err error) {
	m.stageSeconds.WithLabelValues("build", "", status(err)).Observe(d.Seconds())
	m.nextPipeline.OnBuild(ctx, nodes, edges, d, err)
}

func (m *Metrics) OnRenderStart(ctx context.Context, format string) {
	m.nextPipeline.OnRenderStart(ctx, format)
}

func (m *Metrics) OnRenderComplete(ctx context.Context, format string, size int, d time.Duration, err error) {
	m.stageSeconds.WithLabelValues("render", format, status(err)).Observe(d.Seconds())
	if err == nil {
		m.artifactBytes.WithLabelValues(format).Observe(float64(size))
	}
	m.nextPipeline.OnRenderComplete(ctx, format, size, d, err)
}

func (m *Metrics) OnCacheHit(ctx context.Context, format string) {
	m.cacheEvents.WithLabelValues("hit", format).Inc()
	m.nextCache.OnCacheHit(ctx, format)
}

func (m *Metrics) OnCacheMiss(ctx context.Context, format string) {
	m.cacheEvents.WithLabelValues("miss", format).Inc()
	m.nextCache.OnCacheMiss(ctx, format)
}

func (m *Metrics) OnCacheSet(ctx context.Context, format string, size int) {
	m.cacheEvents.WithLabelValues("set", format).Inc()
	m.nextCache.OnCacheSet(ctx, format, size)
}

func (m *Metrics) OnRequest(ctx context.Context, method, path string) {
	m.inFlight.Inc()
	m.nextHTTP.OnRequest(ctx, method, path)
}

func (m *Metrics) OnResponse(ctx context.Context, method, path string, code int, d time.Duration) {
	m.inFlight.Dec()
	p := pathLabel(path)
	m.httpRequests.WithLabelValues(method, p, strconv.Itoa(code)).Inc()
	m.httpSeconds.WithLabelValues(method, p).Observe(d.Seconds())
	m.nextHTTP.OnResponse(ctx, method, path, code, d)
}

func (m *Metrics) OnError(ctx context.Context, method, path, code string) {
	m.httpErrors.WithLabelValues(code).Inc()
	m.nextHTTP.OnError(ctx, method, path, code)
}

var (
	_ PipelineHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)
