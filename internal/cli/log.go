// Package cli implements the clausetree command-line interface.
//
// Commands are built with cobra. Each one decodes a clause description,
// runs it through pipeline.Runner and reports the result with the lipgloss
// styles in ui.go:
//
//   - render: write DOT, JSON, SVG, PNG or PDF files
//   - dot: print the Graphviz source
//   - check: validate a description and summarize it as a table
//   - inspect: browse units and their diagram nodes
//   - fmt: rewrite a description as canonical JSON
//   - serve: run the HTTP API
//   - cache: show or clear the artifact cache
//
// Diagnostics go to stderr through a charmbracelet/log logger carried in the
// command context. --verbose lowers its level to debug and installs hooks
// that log every pipeline stage.
package cli

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger returns a logger writing to w with sub-second timestamps.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs how long a command took once it finishes.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time, e.g. "Rendered 3 artifact(s) (41ms)".
func (p *progress) done(msg string) {
	elapsed := time.Since(p.start).Round(time.Millisecond)
	p.logger.Infof("%s (%s)", msg, elapsed)
}

type loggerKey struct{}

func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// loggerFromContext returns the command logger, or log.Default outside a
// command.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
