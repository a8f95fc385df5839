package pipeline

import (
	"slices"
	"testing"
	"time"

	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/render/dot"
)

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"dot", false},
		{"json", false},
		{"svg", false},
		{"png", false},
		{"pdf", false},
		{"invalid", true},
		{"SVG", true}, // case-sensitive
		{"", true},
	}

	for _, tt := range tests {
		err := ValidateFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidFormat) {
			t.Errorf("ValidateFormat(%q) code = %s, want INVALID_FORMAT", tt.format, errors.GetCode(err))
		}
	}
}

func TestValidateFormats(t *testing.T) {
	if err := ValidateFormats([]string{"svg", "dot"}); err != nil {
		t.Errorf("Valid formats should pass: %v", err)
	}

	if err := ValidateFormats([]string{"svg", "invalid"}); err == nil {
		t.Error("Invalid format should fail")
	}

	// Empty slice is valid
	if err := ValidateFormats(nil); err != nil {
		t.Errorf("Empty formats should pass: %v", err)
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in      string
		want    []string
		wantErr bool
	}{
		{"svg", []string{"svg"}, false},
		{"svg,png,pdf", []string{"svg", "png", "pdf"}, false},
		{" SVG , dot ", []string{"svg", "dot"}, false},
		{"svg,svg,json", []string{"svg", "json"}, false},
		{"svg,,dot", []string{"svg", "dot"}, false},
		{"", nil, false},
		{"svg,gif", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormats(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormats(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("ParseFormats(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptionsDefaults(t *testing.T) {
	opts := Options{}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Empty options should pass: %v", err)
	}

	if opts.InputFormat != clause.FormatJSON {
		t.Errorf("InputFormat should be json, got %q", opts.InputFormat)
	}
	if !slices.Equal(opts.Formats, []string{FormatSVG}) {
		t.Errorf("Formats should be [svg], got %v", opts.Formats)
	}
	if opts.Name != dot.DefaultName {
		t.Errorf("Name should be %q, got %q", dot.DefaultName, opts.Name)
	}
	if opts.Scale != DefaultScale {
		t.Errorf("Scale should be %g, got %g", DefaultScale, opts.Scale)
	}
	if opts.RenderTimeout != DefaultRenderTimeout {
		t.Errorf("RenderTimeout should be %s, got %s", DefaultRenderTimeout, opts.RenderTimeout)
	}
	if opts.Logger == nil {
		t.Error("Logger should default to a discard logger")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		code errors.Code
	}{
		{"bad input format", Options{InputFormat: "yaml"}, errors.ErrCodeInvalidFormat},
		{"bad output format", Options{Formats: []string{"gif"}}, errors.ErrCodeInvalidFormat},
		{"negative scale", Options{Scale: -1}, errors.ErrCodeInvalidFormat},
		{"negative timeout", Options{RenderTimeout: -time.Second}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q", got, tt.code)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{Formats: []string{"png"}, Scale: 2}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("First validation failed: %v", err)
	}
	originalName := opts.Name
	originalTimeout := opts.RenderTimeout

	// Second call should be idempotent
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("Second validation failed: %v", err)
	}
	if opts.Name != originalName {
		t.Error("Name changed on second call")
	}
	if opts.RenderTimeout != originalTimeout {
		t.Error("RenderTimeout changed on second call")
	}
	if opts.Scale != 2 {
		t.Errorf("explicit Scale overwritten: %g", opts.Scale)
	}
}

func TestOutputFormats(t *testing.T) {
	opts := Options{Formats: []string{"svg", "dot", "png", "json", "pdf"}}
	if got := opts.OutputFormats(); !slices.Equal(got, opts.Formats) {
		t.Errorf("OutputFormats() = %v, want all formats", got)
	}

	opts.NoRender = true
	if got := opts.OutputFormats(); !slices.Equal(got, []string{"dot", "json"}) {
		t.Errorf("OutputFormats() with NoRender = %v, want [dot json]", got)
	}
}

func TestArtifactKeyOpts(t *testing.T) {
	opts := Options{Name: "g", FontName: "Serif", Transparent: true, Scale: 3}

	png := opts.ArtifactKeyOpts(FormatPNG)
	if png.Scale != 3 || png.Format != "png" || png.Name != "g" || png.FontName != "Serif" || !png.Transparent {
		t.Errorf("ArtifactKeyOpts(png) = %+v", png)
	}
	if svg := opts.ArtifactKeyOpts(FormatSVG); svg.Scale != 0 {
		t.Errorf("scale should only key PNG artifacts, got %+v", svg)
	}
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"svg":  "image/svg+xml",
		"png":  "image/png",
		"pdf":  "application/pdf",
		"json": "application/json",
		"dot":  "text/vnd.graphviz; charset=utf-8",
		"gif":  "application/octet-stream",
	}
	for format, want := range tests {
		if got := ContentType(format); got != want {
			t.Errorf("ContentType(%q) = %q, want %q", format, got, want)
		}
	}
}
