package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clausetree/pkg/observability"
)

// debugHooks logs pipeline and cache events at debug level. It is registered
// when --verbose is set.
type debugHooks struct {
	logger *log.Logger
}

func registerDebugHooks(logger *log.Logger) {
	h := &debugHooks{logger: logger.WithPrefix("hooks")}
	observability.SetPipelineHooks(h)
	observability.SetCacheHooks(h)
}

func (h *debugHooks) OnDecode(_ context.Context, format string, units int, d time.Duration, err error) {
	h.logger.Debug("decode", "format", format, "units", units, "duration", d, "error", err)
}

func (h *debugHooks) OnBuild(_ context.Context, nodes, edges int, d time.Duration, err error) {
	h.logger.Debug("build", "nodes", nodes, "edges", edges, "duration", d, "error", err)
}

func (h *debugHooks) OnRenderStart(_ context.Context, format string) {
	h.logger.Debug("render start", "format", format)
}

func (h *debugHooks) OnRenderComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	h.logger.Debug("render done", "format", format, "bytes", size, "duration", d, "error", err)
}

func (h *debugHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *debugHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *debugHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

var (
	_ observability.PipelineHooks = (*debugHooks)(nil)
	_ observability.CacheHooks    = (*debugHooks)(nil)
)
