package dot

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/clausetree/pkg/diagram"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/render"
)

// DefaultName is the graph identifier used when Options.Name is empty.
const DefaultName = "clause"

// Options configures DOT generation.
type Options struct {
	// Name is the graph identifier. Defaults to DefaultName.
	Name string
	// FontName sets the node font. Empty leaves the Graphviz default.
	FontName string
	// Transparent renders without a background fill.
	Transparent bool
}

// Encode converts a diagram to Graphviz DOT source.
//
// Nodes are written in graph order with their label and group, edges as
// chains with dir=none for arrowless edges, and each rank group as a
// rank=same subgraph.
func Encode(g *diagram.Graph, opts Options) string {
	var buf bytes.Buffer
	_ = Write(&buf, g, opts)
	return buf.String()
}

// Write writes the DOT source for g to w.
func Write(w io.Writer, g *diagram.Graph, opts Options) error {
	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "digraph %s {\n", quote(name))
	buf.WriteString("  rankdir=TB;\n")
	if opts.Transparent {
		buf.WriteString("  bgcolor=\"transparent\";\n")
	}
	defaults := []string{"shape=plaintext"}
	if opts.FontName != "" {
		defaults = append(defaults, "fontname="+quote(opts.FontName))
	}
	fmt.Fprintf(&buf, "  node [%s];\n", strings.Join(defaults, ", "))
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %s [%s];\n", quote(n.ID.Name()), strings.Join(nodeAttrs(n), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		ids := make([]string, len(e.Path))
		for i, id := range e.Path {
			ids[i] = quote(id.Name())
		}
		fmt.Fprintf(&buf, "  %s", strings.Join(ids, " -> "))
		if attrs := edgeAttrs(e.Style); len(attrs) > 0 {
			fmt.Fprintf(&buf, " [%s]", strings.Join(attrs, ", "))
		}
		buf.WriteString(";\n")
	}

	for _, r := range g.Ranks() {
		buf.WriteString("\n")
		fmt.Fprintf(&buf, "  subgraph %s {\n", quote(r.Name))
		buf.WriteString("    rank=same;\n")
		for _, id := range r.Members {
			fmt.Fprintf(&buf, "    %s;\n", quote(id.Name()))
		}
		buf.WriteString("  }\n")
	}

	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

func nodeAttrs(n diagram.Node) []string {
	attrs := []string{"label=" + quote(n.Label)}
	if n.Group != "" {
		attrs = append(attrs, "group="+quote(n.Group))
	}
	return attrs
}

func edgeAttrs(s diagram.EdgeStyle) []string {
	var attrs []string
	if s.NoArrow {
		attrs = append(attrs, "dir=none")
	}
	switch {
	case s.Invisible:
		attrs = append(attrs, "style=invis")
	case s.Dotted:
		attrs = append(attrs, "style=dotted")
	}
	return attrs
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", "")

// quote returns s as a DOT double-quoted string. Unlike %q it leaves
// non-ASCII text alone, which Graphviz reads as UTF-8.
func quote(s string) string {
	return `"` + escaper.Replace(s) + `"`
}

// Check parses DOT source and reports syntax errors.
func Check(src string) error {
	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	return g.Close()
}

// RenderSVG renders DOT source to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, src string) ([]byte, error) {
	out, err := renderFormat(ctx, src, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(out), nil
}

// RenderPNG renders DOT source to PNG. A scale of 1 (or 0) renders through
// Graphviz directly; any other scale goes through SVG and rsvg-convert.
func RenderPNG(ctx context.Context, src string, scale float64) ([]byte, error) {
	if scale == 0 || scale == 1 {
		return renderFormat(ctx, src, graphviz.PNG)
	}
	svg, err := RenderSVG(ctx, src)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}

// RenderPDF renders DOT source as PDF via SVG conversion.
// This is a convenience wrapper around [RenderSVG] and [render.ToPDF].
//
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, src string) ([]byte, error) {
	svg, err := RenderSVG(ctx, src)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

func renderFormat(ctx context.Context, src string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "init graphviz")
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "parse DOT")
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "render %s", format)
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "render %s", format)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
