package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clausetree/pkg/observability"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("converted") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("cache miss") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("cache miss") }, true},
		{"warn at info level", log.InfoLevel, func(l *log.Logger) { l.Warn("unknown config key") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))

			if gotLog := buf.Len() > 0; gotLog != tt.wantLog {
				t.Errorf("got log output = %v, want %v", gotLog, tt.wantLog)
			}
		})
	}
}

var elapsedRe = regexp.MustCompile(`\(\d+(\.\d+)?m?s\)`)

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	time.Sleep(5 * time.Millisecond)
	prog.done("Rendered 2 artifact(s)")

	out := buf.String()
	if !strings.Contains(out, "Rendered 2 artifact(s)") {
		t.Errorf("progress output %q missing message", out)
	}
	if !elapsedRe.MatchString(out) {
		t.Errorf("progress output %q missing elapsed time", out)
	}
}

func TestLoggerContext(t *testing.T) {
	if loggerFromContext(context.Background()) == nil {
		t.Fatal("loggerFromContext should fall back to the default logger")
	}

	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)
	ctx := withLogger(context.Background(), custom)
	if got := loggerFromContext(ctx); got != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
}

func TestDebugHooks(t *testing.T) {
	t.Cleanup(observability.Reset)

	var buf bytes.Buffer
	registerDebugHooks(newLogger(&buf, log.DebugLevel))

	ctx := context.Background()
	observability.Pipeline().OnDecode(ctx, "json", 5, time.Millisecond, nil)
	observability.Pipeline().OnRenderComplete(ctx, "svg", 2048, time.Millisecond, nil)
	observability.Cache().OnCacheHit(ctx, "svg")

	out := buf.String()
	for _, want := range []string{"hooks", "decode", "units=5", "render done", "bytes=2048", "cache hit"} {
		if !strings.Contains(out, want) {
			t.Errorf("debug hook output missing %q:\n%s", want, out)
		}
	}
}

func TestPreRunVerboseRegistersHooks(t *testing.T) {
	t.Cleanup(observability.Reset)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var buf bytes.Buffer
	c := New(&buf, LogInfo)
	root := c.RootCommand()
	root.SetArgs([]string{"-v", "cache", "path"})
	root.SetOut(&bytes.Buffer{})
	captureOutput(t)

	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if c.Logger.GetLevel() != log.DebugLevel {
		t.Errorf("logger level = %v, want debug", c.Logger.GetLevel())
	}
	observability.Cache().OnCacheMiss(context.Background(), "json")
	if !strings.Contains(buf.String(), "cache miss") {
		t.Errorf("verbose run should register debug hooks, log:\n%s", buf.String())
	}
}
