// Package dot renders clause diagrams through Graphviz.
//
// # Usage
//
// Convert a diagram to DOT, then render it:
//
//	src := dot.Encode(g, dot.Options{})
//	svg, err := dot.RenderSVG(ctx, src)
//
// For PDF or scaled PNG output the SVG is converted with rsvg-convert:
//
//	pdf, err := dot.RenderPDF(ctx, src)
//	png, err := dot.RenderPNG(ctx, src, 2.0)  // 2x scale
//
// # DOT Format
//
// [Encode] writes one statement per node, one chain statement per edge and
// one rank=same subgraph per rank group, all in graph order, so the same
// diagram always encodes to the same text. Node names come from
// [diagram.NodeID.Name]; labels are quoted and escaped, and non-ASCII text is
// passed through as UTF-8.
//
// Arrowless edges use dir=none, dotted edges style=dotted and invisible
// edges style=invis.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process rendering.
// PDF and scaled PNG conversion requires librsvg (rsvg-convert).
package dot
