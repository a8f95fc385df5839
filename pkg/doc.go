// Package pkg provides the core libraries for clausetree clause diagrams.
//
// # Overview
//
// Clausetree turns a sentence described as an ordered list of units into a
// layered projection diagram: an upper chain of clause layers the units'
// categories attach to, a lower chain of layers their operators scope, and a
// spine through the head. The diagram is encoded as Graphviz DOT and
// rendered to SVG, PNG or PDF.
//
// # Architecture
//
// The data flow through clausetree:
//
//	JSON / TOML description
//	         ↓
//	    [clause] package (decode units)
//	         ↓
//	    [projection] package (resolve the head, build the graph)
//	         ↓
//	    [diagram] package (graph model, JSON export)
//	         ↓
//	    [render/dot] package (DOT source, Graphviz rendering)
//	         ↓
//	    DOT/JSON/SVG/PNG/PDF output
//
// [pipeline] runs these stages for both the CLI and the HTTP API, with
// artifacts cached by input hash in [cache].
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/clausetree/pkg/clause"
//	    "github.com/matzehuels/clausetree/pkg/projection"
//	    "github.com/matzehuels/clausetree/pkg/render/dot"
//	)
//
//	units, _ := clause.ReadFile("sentence.json")
//	g, _ := projection.Build(units)
//	src := dot.Encode(g, dot.Options{})
//	svg, _ := dot.RenderSVG(ctx, src)
//
// # Main Packages
//
// [clause] - The record model: units, category and operator attachments, the
// closed set of layer kinds, and JSON/TOML decoding with located errors.
//
// [projection] - The graph builder. Checks that exactly one unit is the head,
// then emits the backbone, attachments, operators, spine and alignment ranks.
//
// [diagram] - The graph model: typed node IDs with stable DOT names, styled
// edge chains, same-rank groups and the JSON document format.
//
// [render/dot] - DOT encoding and rendering through go-graphviz.
//
// [render] - SVG to PDF/PNG conversion with rsvg-convert.
//
// [pipeline] - Decode → build → render orchestration with timeouts, caching
// and statistics.
//
// [cache] - Artifact caches: file, Redis, MongoDB and a no-op cache.
//
// [server] - The HTTP API.
//
// [errors] - Coded errors with input locations.
//
// [observability] - Hooks for pipeline, cache and HTTP events, and a
// Prometheus implementation of them.
//
// [buildinfo] - Version information set at build time.
package pkg
