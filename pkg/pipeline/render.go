package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/clausetree/pkg/diagram"
	"github.com/matzehuels/clausetree/pkg/render/dot"
)

// RenderArtifact produces one output format from a graph and its DOT source.
func RenderArtifact(ctx context.Context, g *diagram.Graph, src, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(src), nil
	case FormatJSON:
		var buf bytes.Buffer
		if err := diagram.WriteJSON(g, &buf); err != nil {
			return nil, fmt.Errorf("serialize graph: %w", err)
		}
		return buf.Bytes(), nil
	case FormatSVG:
		return dot.RenderSVG(ctx, src)
	case FormatPNG:
		return dot.RenderPNG(ctx, src, opts.Scale)
	case FormatPDF:
		return dot.RenderPDF(ctx, src)
	default:
		return nil, ValidateFormat(format)
	}
}

type rendered struct {
	data []byte
	err  error
}

// maxGraphvizRenders bounds Graphviz layouts in flight across all runners,
// including abandoned ones still finishing after a timeout.
const maxGraphvizRenders = 8

var graphvizSlots = semaphore.NewWeighted(maxGraphvizRenders)

// renderWithDeadline runs RenderArtifact and gives up when ctx is done. The
// Graphviz runtime only checks its context between calls, so a layout that
// is already running is left to finish in the background and its output is
// discarded. It keeps its slot in graphvizSlots until it returns.
func renderWithDeadline(ctx context.Context, g *diagram.Graph, src, format string, opts Options) ([]byte, error) {
	if !NeedsGraphviz(format) {
		return RenderArtifact(ctx, g, src, format, opts)
	}
	if err := graphvizSlots.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	done := make(chan rendered, 1)
	go func() {
		defer graphvizSlots.Release(1)
		data, err := RenderArtifact(ctx, g, src, format, opts)
		done <- rendered{data, err}
	}()

	select {
	case r := <-done:
		return r.data, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
