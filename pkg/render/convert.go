package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/matzehuels/clausetree/pkg/errors"
)

// rsvgBinary is the converter looked up on PATH. Tests override it.
var rsvgBinary = "rsvg-convert"

// Available reports whether rsvg-convert is installed.
func Available() bool {
	_, err := exec.LookPath(rsvgBinary)
	return err == nil
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

// rsvgConvert shells out to rsvg-convert for format conversion. The process
// is killed when ctx is done.
func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if !Available() {
		return nil, errors.New(errors.ErrCodeUnsupported,
			"%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, rsvgBinary, args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeTimeout, ctx.Err(), "%s conversion", format)
		}
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
