// Package pipeline provides the conversion pipeline for clausetree.
//
// This package implements the complete decode → build → render pipeline that
// is shared by the CLI and the HTTP API. By centralizing this logic, both
// entry points report the same errors and produce byte-identical artifacts.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Decode: Read the unit list from JSON or TOML
//  2. Build: Project the units onto a diagram graph (exactly one head)
//  3. Render: Encode DOT and produce output in each requested format
//
// Rendering runs under Options.RenderTimeout. Rendered artifacts are cached
// by input hash and render options, so repeated conversions of the same
// description skip Graphviz entirely.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	result, err := runner.Execute(ctx, input, pipeline.Options{
//	    InputFormat: clause.FormatJSON,
//	    Formats:     []string{pipeline.FormatSVG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svg := result.Artifacts[pipeline.FormatSVG]
package pipeline

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clausetree/pkg/cache"
	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/diagram"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/render/dot"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultRenderTimeout bounds the Graphviz and rsvg-convert stage.
	DefaultRenderTimeout = 30 * time.Second

	// DefaultScale is the PNG scale factor. At 1 PNG is rendered by Graphviz
	// directly and does not need rsvg-convert.
	DefaultScale = 1.0

	// DefaultInputFormat is used when no input format is given.
	DefaultInputFormat = clause.FormatJSON
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatJSON = "json"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatPDF  = "pdf"
)

// DefaultFormat is the output format used when none is requested.
const DefaultFormat = FormatSVG

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatJSON: true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatPDF:  true,
}

// contentTypes maps output formats to MIME types.
var contentTypes = map[string]string{
	FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	FormatJSON: "application/json",
	FormatSVG:  "image/svg+xml",
	FormatPNG:  "image/png",
	FormatPDF:  "application/pdf",
}

// ContentType returns the MIME type for an output format, or
// application/octet-stream for unknown formats.
func ContentType(format string) string {
	if ct, ok := contentTypes[format]; ok {
		return ct
	}
	return "application/octet-stream"
}

// NeedsGraphviz reports whether producing format runs the layout engine.
func NeedsGraphviz(format string) bool {
	return format == FormatSVG || format == FormatPNG || format == FormatPDF
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a conversion.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Decode options
	InputFormat clause.Format `json:"input_format,omitempty"`

	// Render options
	Formats       []string      `json:"formats,omitempty"`
	Name          string        `json:"name,omitempty"` // DOT graph id
	FontName      string        `json:"font,omitempty"`
	Transparent   bool          `json:"transparent,omitempty"`
	Scale         float64       `json:"scale,omitempty"` // PNG scale factor
	RenderTimeout time.Duration `json:"render_timeout,omitempty"`

	// NoRender stops after DOT encoding. Image formats in Formats are skipped.
	NoRender bool `json:"no_render,omitempty"`

	// NoCache bypasses the artifact cache for both reads and writes.
	NoCache bool `json:"no_cache,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies this conversion in logs and API responses.
	RunID string

	// InputHash is the content hash of the raw input.
	InputHash string

	// Units is the decoded description.
	Units []clause.Unit

	// Head is the index of the head unit.
	Head int

	// Graph is the projected diagram.
	Graph *diagram.Graph

	// DOT is the encoded Graphviz source.
	DOT string

	// Artifacts contains outputs keyed by format.
	Artifacts map[string][]byte

	// Stats contains timing and size information.
	Stats Stats

	// CacheHit is true when every cacheable artifact came from the cache.
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	UnitCount  int
	NodeCount  int
	EdgeCount  int
	RankCount  int
	DecodeTime time.Duration
	BuildTime  time.Duration
	RenderTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, json, svg, png, pdf)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseFormats splits a comma-separated format list, trimming blanks and
// dropping duplicates. The result is validated.
func ParseFormats(s string) ([]string, error) {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" || slices.Contains(out, f) {
			continue
		}
		out = append(out, f)
	}
	if err := ValidateFormats(out); err != nil {
		return nil, err
	}
	return out, nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks option values and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.InputFormat == "" {
		o.InputFormat = DefaultInputFormat
	}
	if _, err := clause.ParseFormat(string(o.InputFormat)); err != nil {
		return err
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Name == "" {
		o.Name = dot.DefaultName
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid scale: %g (must be positive)", o.Scale)
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.RenderTimeout < 0 {
		return fmt.Errorf("invalid render timeout: %s", o.RenderTimeout)
	}
	if o.RenderTimeout == 0 {
		o.RenderTimeout = DefaultRenderTimeout
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// OutputFormats returns the formats Execute will produce: Formats without
// the image formats when NoRender is set.
func (o *Options) OutputFormats() []string {
	if !o.NoRender {
		return o.Formats
	}
	out := make([]string, 0, len(o.Formats))
	for _, f := range o.Formats {
		if !NeedsGraphviz(f) {
			out = append(out, f)
		}
	}
	return out
}

// DOTOptions returns the DOT encoder options.
func (o *Options) DOTOptions() dot.Options {
	return dot.Options{Name: o.Name, FontName: o.FontName, Transparent: o.Transparent}
}

// ArtifactKeyOpts returns cache key options for artifact rendering.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{
		Format:      format,
		Name:        o.Name,
		FontName:    o.FontName,
		Transparent: o.Transparent,
	}
	if format == FormatPNG {
		opts.Scale = o.Scale
	}
	return opts
}
