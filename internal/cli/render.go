package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/pipeline"
)

// stdinPath selects standard input (or output, for -o).
const stdinPath = "-"

// renderFlags holds the command-line flags shared by render and dot.
type renderFlags struct {
	output      string        // output file (single format) or base path (multiple)
	formats     string        // comma-separated output formats
	inputFormat string        // json or toml; inferred from the extension when empty
	name        string        // DOT graph id
	font        string        // node font name
	transparent bool          // transparent background
	scale       float64       // PNG scale factor
	timeout     time.Duration // render timeout
	noCache     bool          // bypass the artifact cache
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var flags renderFlags

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a clause description to DOT, JSON, SVG, PNG or PDF",
		Long: `Render a clause description to one or more output formats.

The input is a JSON array of units or a TOML document of [[unit]] tables;
the format is inferred from the file extension, or set with --input-format.
Use "-" to read from stdin.

With a single format, -o names the output file ("-" writes to stdout). With
several formats, -o is a base path and each artifact is written to
<base>.<format>. Without -o, outputs are written next to the input.

Rendered artifacts are cached, so repeated runs on an unchanged description
skip Graphviz.`,
		Example: `  clausetree render sentence.json
  clausetree render sentence.toml -f svg,png -o out/sentence
  cat sentence.json | clausetree render - -f dot -o -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd.Context(), args[0], flags)
		},
	}

	c.addRenderFlags(cmd, &flags)
	cmd.Flags().StringVarP(&flags.formats, "format", "f", "", "output format(s): dot, json, svg, png, pdf (comma-separated; default from config or svg)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().BoolVar(&flags.noCache, "no-cache", false, "disable caching")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "render timeout (default from config or 30s)")
	cmd.Flags().Float64Var(&flags.scale, "scale", pipeline.DefaultScale, "PNG scale factor (other than 1 requires rsvg-convert)")

	return cmd
}

// addRenderFlags registers the flags that shape the DOT output.
func (c *CLI) addRenderFlags(cmd *cobra.Command, flags *renderFlags) {
	cmd.Flags().StringVarP(&flags.inputFormat, "input-format", "i", "", "input format: json, toml (default: from extension)")
	cmd.Flags().StringVar(&flags.name, "name", "", "graph name in the DOT output")
	cmd.Flags().StringVar(&flags.font, "font", "", "node font name (default from config)")
	cmd.Flags().BoolVar(&flags.transparent, "transparent", false, "transparent background")
}

// options turns flags and config into pipeline options.
func (c *CLI) options(input string, flags renderFlags) (pipeline.Options, error) {
	opts := pipeline.Options{
		Name:          flags.name,
		FontName:      flags.font,
		Transparent:   flags.transparent,
		Scale:         flags.scale,
		RenderTimeout: flags.timeout,
		NoCache:       flags.noCache,
		Logger:        c.Logger,
	}
	if opts.FontName == "" {
		opts.FontName = c.Config.FontName
	}
	if opts.RenderTimeout == 0 {
		opts.RenderTimeout = c.Config.RenderTimeout
	}

	formats := flags.formats
	if formats == "" {
		formats = c.Config.Format
	}
	parsed, err := pipeline.ParseFormats(formats)
	if err != nil {
		return opts, err
	}
	opts.Formats = parsed

	format, err := inputFormat(input, flags.inputFormat)
	if err != nil {
		return opts, err
	}
	opts.InputFormat = format
	return opts, opts.ValidateAndSetDefaults()
}

// inputFormat resolves the decoder for an input path. Stdin defaults to JSON.
func inputFormat(input, explicit string) (clause.Format, error) {
	if explicit != "" {
		return clause.ParseFormat(explicit)
	}
	if input == stdinPath {
		return clause.FormatJSON, nil
	}
	return clause.DetectFormat(input)
}

// readInput reads a description from a file or stdin.
func readInput(input string) ([]byte, error) {
	if input == stdinPath {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	if err := errors.ValidatePath(input); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(input)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeFileNotFound, "input file not found: %s", input)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", input, err)
	}
	return data, nil
}

// runRender converts input and writes every requested artifact.
func (c *CLI) runRender(ctx context.Context, input string, flags renderFlags) error {
	opts, err := c.options(input, flags)
	if err != nil {
		return err
	}
	data, err := readInput(input)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	prog := newProgress(loggerFromContext(ctx))
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Rendering %s...", strings.Join(opts.Formats, ", ")))
	spinner.Start()

	result, err := runner.Execute(ctx, data, opts)
	if err != nil {
		spinner.StopWithError("Render failed")
		return err
	}

	if flags.output == stdinPath {
		spinner.Stop()
	}
	paths, err := writeArtifacts(artifactWriteParams{
		artifacts: result.Artifacts,
		formats:   opts.Formats,
		input:     input,
		output:    flags.output,
	})
	if err != nil {
		spinner.StopWithError("Write failed")
		return err
	}
	if len(paths) == 0 {
		spinner.Stop()
	} else {
		spinner.StopWithSuccess("Rendered " + displayName(input))
	}

	for _, p := range paths {
		printFile(p)
	}
	if len(paths) > 0 {
		printStats(result.Stats.UnitCount, result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheHit)
	}
	prog.done(fmt.Sprintf("Rendered %d artifact(s)", len(result.Artifacts)))
	return nil
}

// artifactWriteParams describes where rendered artifacts go.
type artifactWriteParams struct {
	artifacts map[string][]byte
	formats   []string
	input     string
	output    string
}

// writeArtifacts writes artifacts in format order and returns the files
// written. A single artifact with output "-" goes to stdout.
func writeArtifacts(p artifactWriteParams) ([]string, error) {
	if p.output == stdinPath {
		if len(p.formats) != 1 {
			return nil, errors.New(errors.ErrCodeInvalidPath, "cannot write %d formats to stdout", len(p.formats))
		}
		_, err := os.Stdout.Write(p.artifacts[p.formats[0]])
		return nil, err
	}

	var paths []string
	for _, format := range p.formats {
		data, ok := p.artifacts[format]
		if !ok {
			continue
		}
		path := outputPath(p.output, p.input, format, len(p.formats) == 1)
		if samePath(path, p.input) {
			return paths, errors.New(errors.ErrCodeInvalidPath, "refusing to overwrite input %s", p.input)
		}
		if err := writeFile(path, data); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// outputPath picks the file for one artifact. A single format with an
// explicit output uses it verbatim; otherwise the format is appended to a
// base path derived from output or input. A derived path that would land on
// the input itself gets a ".graph" infix.
func outputPath(output, input, format string, single bool) string {
	if single && output != "" {
		return output
	}
	base := basePath(output, input)
	if path := base + "." + format; !samePath(path, input) {
		return path
	}
	return base + ".graph." + format
}

func samePath(a, b string) bool {
	if a == stdinPath || b == stdinPath {
		return false
	}
	return filepath.Clean(a) == filepath.Clean(b)
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		if input == stdinPath {
			return appName
		}
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
