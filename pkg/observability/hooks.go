// Package observability lets a binary watch the pipeline, the cache and the
// HTTP server without those packages depending on a metrics or tracing
// backend.
//
// Each concern has a hook interface and a no-op implementation that is
// installed by default. A binary swaps in its own implementation at startup;
// the libraries call through the package-level accessors:
//
//	observability.SetPipelineHooks(myHooks{})
//	...
//	observability.Pipeline().OnDecode(ctx, "json", len(units), elapsed, err)
//
// The CLI uses this to print stage timings under --verbose, and serve
// installs [Metrics] to expose them to Prometheus.
package observability

import (
	"context"
	"sync/atomic"
	"time"
)

// PipelineHooks receives events from the conversion pipeline.
type PipelineHooks interface {
	// OnDecode is called after the input description is decoded.
	OnDecode(ctx context.Context, format string, unitCount int, duration time.Duration, err error)
	// OnBuild is called after the diagram graph is built.
	OnBuild(ctx context.Context, nodeCount, edgeCount int, duration time.Duration, err error)
	// OnRenderStart and OnRenderComplete bracket each output format.
	OnRenderStart(ctx context.Context, format string)
	OnRenderComplete(ctx context.Context, format string, size int, duration time.Duration, err error)
}

// CacheHooks receives artifact cache events. keyType is the output format
// ("json", "svg", ...).
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP API.
type HTTPHooks interface {
	OnRequest(ctx context.Context, method, path string)
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
	// OnError is called with the error code of a failed request.
	OnError(ctx context.Context, method, path, code string)
}

// NoopPipelineHooks ignores every pipeline event.
type NoopPipelineHooks struct{}

func (NoopPipelineHooks) OnDecode(context.Context, string, int, time.Duration, error)          {}
func (NoopPipelineHooks) OnBuild(context.Context, int, int, time.Duration, error)             {}
func (NoopPipelineHooks) OnRenderStart(context.Context, string)                               {}
func (NoopPipelineHooks) OnRenderComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores every cache event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every HTTP event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string)                {}

// slot holds one registered implementation, falling back to def when empty.
// Loads are lock-free since hooks fire on every request.
type slot[T any] struct {
	p   atomic.Pointer[T]
	def T
}

func (s *slot[T]) load() T {
	if v := s.p.Load(); v != nil {
		return *v
	}
	return s.def
}

func (s *slot[T]) store(v T) { s.p.Store(&v) }
func (s *slot[T]) clear()    { s.p.Store(nil) }

var (
	pipelineSlot = slot[PipelineHooks]{def: NoopPipelineHooks{}}
	cacheSlot    = slot[CacheHooks]{def: NoopCacheHooks{}}
	httpSlot     = slot[HTTPHooks]{def: NoopHTTPHooks{}}
)

// SetPipelineHooks installs h. A nil h is ignored.
func SetPipelineHooks(h PipelineHooks) {
	if h != nil {
		pipelineSlot.store(h)
	}
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		cacheSlot.store(h)
	}
}

// SetHTTPHooks installs h. A nil h is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		httpSlot.store(h)
	}
}

// Pipeline returns the installed pipeline hooks.
func Pipeline() PipelineHooks { return pipelineSlot.load() }

// Cache returns the installed cache hooks.
func Cache() CacheHooks { return cacheSlot.load() }

// HTTP returns the installed HTTP hooks.
func HTTP() HTTPHooks { return httpSlot.load() }

// Reset reinstalls the no-op hooks. Tests that install hooks defer it.
func Reset() {
	pipelineSlot.clear()
	cacheSlot.clear()
	httpSlot.clear()
}
