package pipeline

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/clausetree/pkg/cache"
	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/diagram"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/observability"
	"github.com/matzehuels/clausetree/pkg/projection"
	"github.com/matzehuels/clausetree/pkg/render/dot"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store conversion results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	TTL    time.Duration
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		TTL:    cache.DefaultTTL,
	}
}

// Execute runs the complete decode → build → render pipeline on input.
//
// Decode and build failures carry MALFORMED_INPUT, MISSING_HEAD or
// MULTIPLE_HEADS codes. A render that outlives opts.RenderTimeout fails with
// TIMEOUT; cancellation of ctx itself is returned as the context error.
func (r *Runner) Execute(ctx context.Context, input []byte, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		InputHash: cache.Hash(input),
		Artifacts: make(map[string][]byte),
	}
	logger := opts.Logger.With("run", result.RunID[:8])

	// Stage 1: Decode
	start := time.Now()
	units, err := clause.DecodeFormat(bytes.NewReader(input), opts.InputFormat)
	result.Stats.DecodeTime = time.Since(start)
	observability.Pipeline().OnDecode(ctx, string(opts.InputFormat), len(units), result.Stats.DecodeTime, err)
	if err != nil {
		return nil, err
	}
	result.Units = units
	result.Stats.UnitCount = len(units)

	logger.Debug("decoded input",
		"format", opts.InputFormat,
		"units", len(units),
		"duration", result.Stats.DecodeTime)

	// Stage 2: Build
	start = time.Now()
	g, err := projection.Build(units)
	result.Stats.BuildTime = time.Since(start)
	if err != nil {
		observability.Pipeline().OnBuild(ctx, 0, 0, result.Stats.BuildTime, err)
		return nil, err
	}
	observability.Pipeline().OnBuild(ctx, g.NodeCount(), g.EdgeCount(), result.Stats.BuildTime, nil)
	result.Graph = g
	result.Head, _ = projection.Head(units)
	result.Stats.NodeCount = g.NodeCount()
	result.Stats.EdgeCount = g.EdgeCount()
	result.Stats.RankCount = g.RankCount()

	logger.Debug("built diagram",
		"head", result.Head,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount(),
		"ranks", g.RankCount(),
		"duration", result.Stats.BuildTime)

	// Stage 3: Render
	result.DOT = dot.Encode(g, opts.DOTOptions())

	start = time.Now()
	hit, err := r.render(ctx, result, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(start)
	result.CacheHit = hit

	logger.Info("converted",
		"units", result.Stats.UnitCount,
		"formats", opts.OutputFormats(),
		"cached", hit,
		"duration", result.Stats.DecodeTime+result.Stats.BuildTime+result.Stats.RenderTime)

	return result, nil
}

// ExecuteFile reads path and runs Execute on its contents. The input format
// is inferred from the file extension unless opts.InputFormat is set.
func (r *Runner) ExecuteFile(ctx context.Context, path string, opts Options) (*Result, error) {
	if opts.InputFormat == "" {
		format, err := clause.DetectFormat(path)
		if err != nil {
			return nil, err
		}
		opts.InputFormat = format
	}
	input, err := readInput(path)
	if err != nil {
		return nil, err
	}
	return r.Execute(ctx, input, opts)
}

// renderConcurrency bounds how many formats render at once. Each Graphviz
// render runs in its own wasm instance.
const renderConcurrency = 3

// render fills result.Artifacts for every output format, rendering cache
// misses concurrently. It reports whether all cacheable artifacts were served
// from the cache.
func (r *Runner) render(ctx context.Context, result *Result, opts Options) (bool, error) {
	renderCtx, cancel := context.WithTimeout(ctx, opts.RenderTimeout)
	defer cancel()

	var (
		mu              sync.Mutex
		cacheable, hits int
	)
	g, gctx := errgroup.WithContext(renderCtx)
	g.SetLimit(renderConcurrency)

	for _, format := range opts.OutputFormats() {
		key, ok := r.cacheKey(result, format, opts)
		if ok {
			cacheable++
			if data, hit := r.lookup(ctx, key, format); hit {
				mu.Lock()
				result.Artifacts[format] = data
				mu.Unlock()
				hits++
				continue
			}
		}

		g.Go(func() error {
			observability.Pipeline().OnRenderStart(ctx, format)
			start := time.Now()
			data, err := renderWithDeadline(gctx, result.Graph, result.DOT, format, opts)
			observability.Pipeline().OnRenderComplete(ctx, format, len(data), time.Since(start), err)
			if err != nil {
				return renderError(ctx, renderCtx, format, opts.RenderTimeout, err)
			}

			mu.Lock()
			result.Artifacts[format] = data
			mu.Unlock()
			if ok {
				r.store(ctx, key, format, data)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}
	return cacheable > 0 && hits == cacheable, nil
}

// cacheKey returns the key for an artifact. DOT output is never cached since
// encoding it is cheaper than a cache round trip. The JSON document depends
// only on the input, so it is keyed by GraphKey.
func (r *Runner) cacheKey(result *Result, format string, opts Options) (string, bool) {
	if opts.NoCache {
		return "", false
	}
	switch format {
	case FormatDOT:
		return "", false
	case FormatJSON:
		return r.Keyer.GraphKey(result.InputHash), true
	default:
		return r.Keyer.ArtifactKey(result.InputHash, opts.ArtifactKeyOpts(format)), true
	}
}

// lookup reads an artifact from the cache. Cache errors are logged and
// treated as misses.
func (r *Runner) lookup(ctx context.Context, key, format string) ([]byte, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "format", format, "error", err)
		return nil, false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, format)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, format)
	return data, true
}

// store writes an artifact to the cache. A failed write never fails the
// conversion.
func (r *Runner) store(ctx context.Context, key, format string, data []byte) {
	if err := r.Cache.Set(ctx, key, data, r.TTL); err != nil {
		r.Logger.Warn("cache write failed", "format", format, "error", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, format, len(data))
}

// renderError maps a failed render to a coded error. Expiry of the render
// deadline becomes TIMEOUT unless the caller's own context was cancelled.
func renderError(parent, renderCtx context.Context, format string, timeout time.Duration, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	if stderrors.Is(renderCtx.Err(), context.DeadlineExceeded) {
		return errors.Wrap(errors.ErrCodeTimeout, renderCtx.Err(), "render %s exceeded %s", format, timeout)
	}
	if errors.GetCode(err) != "" {
		return err
	}
	return errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
}

// Render produces a single artifact for an already built graph. It is used
// by callers that hold a graph but not its input bytes, such as the inspector.
func (r *Runner) Render(ctx context.Context, g *diagram.Graph, format string, opts Options) ([]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	if err := ValidateFormat(format); err != nil {
		return nil, err
	}
	renderCtx, cancel := context.WithTimeout(ctx, opts.RenderTimeout)
	defer cancel()

	data, err := renderWithDeadline(renderCtx, g, dot.Encode(g, opts.DOTOptions()), format, opts)
	if err != nil {
		return nil, renderError(ctx, renderCtx, format, opts.RenderTimeout, err)
	}
	return data, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// readInput reads an input file, mapping a missing file to FILE_NOT_FOUND.
func readInput(path string) ([]byte, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "input file not found: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
