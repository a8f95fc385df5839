// Package render provides output rendering for clause diagrams.
//
// # Overview
//
// This package holds the format conversion shared by all renderers. The
// Graphviz adapter lives in the [dot] subpackage.
//
// # Format Conversion
//
// The [ToPDF] and [ToPNG] functions convert any SVG to other formats using
// the external rsvg-convert tool (from librsvg). Both take a context; the
// subprocess is killed when it is cancelled.
//
//	svg, err := dot.RenderSVG(ctx, src)
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0)  // 2x scale
//
// When rsvg-convert is missing the functions fail with code UNSUPPORTED.
// Use [Available] to check up front.
package render
