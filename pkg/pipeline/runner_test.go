package pipeline

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/clausetree/pkg/cache"
	"github.com/matzehuels/clausetree/pkg/clause"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/observability"
)

const leavingJSON = `[
  {"phon": "Will", "bot": [{"op": "IF", "kind": "Clause"}, {"op": "TNS", "kind": "Clause"}]},
  {"phon": "they", "top": {"pos": "NP", "kind": "Core"}},
  {"phon": "have to", "bot": [{"op": "MOD", "kind": "Core"}]},
  {"phon": "be", "bot": [{"op": "ASP", "kind": "Nuc"}]},
  {"phon": "leaving", "top": {"pos": "V", "kind": "Pred"}, "bot": [{"op": "ASP", "kind": "Nuc"}]}
]`

const rainedTOML = `
[[unit]]
phon = "it"

[[unit]]
phon = "rained"
top = { pos = "V", kind = "Pred" }
`

// memCache is an in-memory cache that counts operations.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
	sets int
	fail bool
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.fail {
		return nil, false, cache.ErrNetwork
	}
	d, ok := c.data[key]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, data []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets++
	if c.fail {
		return cache.ErrNetwork
	}
	c.data[key] = data
	return nil
}

func (c *memCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memCache) Close() error { return nil }

func quietRunner(c cache.Cache) *Runner {
	r := NewRunner(c, nil, nil)
	r.Logger = discardLogger()
	return r
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func TestExecuteTextFormats(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"dot", "json"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if res.RunID == "" || res.InputHash != cache.Hash([]byte(leavingJSON)) {
		t.Errorf("RunID/InputHash not set: %q %q", res.RunID, res.InputHash)
	}
	if len(res.Units) != 5 || res.Head != 4 {
		t.Errorf("Units = %d, Head = %d, want 5 and 4", len(res.Units), res.Head)
	}
	if res.Graph == nil || res.Stats.NodeCount != res.Graph.NodeCount() || res.Stats.EdgeCount != res.Graph.EdgeCount() {
		t.Errorf("Stats do not match graph: %+v", res.Stats)
	}
	if string(res.Artifacts["dot"]) != res.DOT {
		t.Error("dot artifact should equal the encoded DOT source")
	}
	if !strings.HasPrefix(res.DOT, `digraph "clause" {`) {
		t.Errorf("DOT has unexpected header: %.40q", res.DOT)
	}
	if !strings.Contains(string(res.Artifacts["json"]), `"w4"`) {
		t.Error("json artifact missing terminal node")
	}
	if res.CacheHit {
		t.Error("NullCache run should not report a cache hit")
	}
}

func TestExecuteTOML(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(rainedTOML), Options{
		InputFormat: clause.FormatTOML,
		Formats:     []string{"dot"},
		Name:        "rain",
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if res.Head != 1 {
		t.Errorf("Head = %d, want 1", res.Head)
	}
	if !strings.HasPrefix(res.DOT, `digraph "rain" {`) {
		t.Errorf("Name option not applied: %.40q", res.DOT)
	}
}

func TestExecuteErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		code  errors.Code
	}{
		{"syntax", `[{"phon": `, errors.ErrCodeMalformedInput},
		{"unknown kind", `[{"phon": "x", "top": {"pos": "V", "kind": "Foo"}}]`, errors.ErrCodeMalformedInput},
		{"missing head", `[{"phon": "they", "top": {"pos": "NP", "kind": "Core"}}]`, errors.ErrCodeMissingHead},
		{"empty", `[]`, errors.ErrCodeMissingHead},
		{"multiple heads", `[
			{"phon": "a", "top": {"pos": "V", "kind": "Pred"}},
			{"phon": "b", "top": {"pos": "V", "kind": "Pred"}}
		]`, errors.ErrCodeMultipleHeads},
	}

	r := quietRunner(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := r.Execute(context.Background(), []byte(tt.input), Options{Formats: []string{"dot"}})
			if err == nil {
				t.Fatal("expected error")
			}
			if res != nil {
				t.Error("failed conversion should not return a result")
			}
			if got := errors.GetCode(err); got != tt.code {
				t.Errorf("code = %q, want %q (%v)", got, tt.code, err)
			}
		})
	}
}

func TestExecuteSVG(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(leavingJSON), Options{})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	svg := string(res.Artifacts["svg"])
	if !strings.Contains(svg, "<svg") || !strings.Contains(svg, "leaving") {
		t.Error("svg artifact is not a rendered diagram")
	}
}

func TestExecuteNoRender(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(leavingJSON), Options{
		Formats:  []string{"svg", "dot"},
		NoRender: true,
	})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if _, ok := res.Artifacts["svg"]; ok {
		t.Error("NoRender should skip svg")
	}
	if _, ok := res.Artifacts["dot"]; !ok {
		t.Error("NoRender should still produce dot")
	}
}

func TestExecuteCaching(t *testing.T) {
	c := newMemCache()
	r := quietRunner(c)
	opts := Options{Formats: []string{"svg", "json", "dot"}}

	first, err := r.Execute(context.Background(), []byte(leavingJSON), opts)
	if err != nil {
		t.Fatalf("first Execute() error: %v", err)
	}
	if first.CacheHit {
		t.Error("first run should miss")
	}
	if c.sets != 2 {
		t.Errorf("cache sets = %d, want 2 (svg and json, never dot)", c.sets)
	}

	second, err := r.Execute(context.Background(), []byte(leavingJSON), opts)
	if err != nil {
		t.Fatalf("second Execute() error: %v", err)
	}
	if !second.CacheHit {
		t.Error("second run should hit")
	}
	if string(second.Artifacts["svg"]) != string(first.Artifacts["svg"]) {
		t.Error("cached svg differs from rendered svg")
	}
	if c.sets != 2 {
		t.Errorf("cache hit should not write, sets = %d", c.sets)
	}

	// Render options are part of the key.
	third, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"svg"}, Name: "other"})
	if err != nil {
		t.Fatalf("third Execute() error: %v", err)
	}
	if third.CacheHit {
		t.Error("different graph name should miss")
	}
}

func TestExecuteNoCache(t *testing.T) {
	c := newMemCache()
	r := quietRunner(c)
	if _, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"json"}, NoCache: true}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if c.gets != 0 || c.sets != 0 {
		t.Errorf("NoCache touched the cache: gets=%d sets=%d", c.gets, c.sets)
	}
}

func TestExecuteCacheFailure(t *testing.T) {
	c := newMemCache()
	c.fail = true
	r := quietRunner(c)
	res, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"json"}})
	if err != nil {
		t.Fatalf("cache failures must not fail a conversion: %v", err)
	}
	if len(res.Artifacts["json"]) == 0 {
		t.Error("json artifact missing")
	}
}

// A cached format listed after a rendered one is stored while the render
// goroutine may still be writing its own artifact.
func TestExecuteMixedHitAndMiss(t *testing.T) {
	c := newMemCache()
	r := quietRunner(c)
	if _, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"json"}}); err != nil {
		t.Fatalf("seeding Execute() error: %v", err)
	}

	for i := range 20 {
		res, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"svg", "json"}})
		if err != nil {
			t.Fatalf("run %d: Execute() error: %v", i, err)
		}
		if len(res.Artifacts["svg"]) == 0 || len(res.Artifacts["json"]) == 0 {
			t.Fatalf("run %d: artifacts missing: %d formats", i, len(res.Artifacts))
		}
		if res.CacheHit {
			t.Errorf("run %d: svg was rendered, CacheHit should be false", i)
		}
		c.mu.Lock()
		for k := range c.data {
			if strings.HasPrefix(k, "artifact:") {
				delete(c.data, k)
			}
		}
		c.mu.Unlock()
	}
}

func TestExecuteFileCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	r := quietRunner(fc)
	opts := Options{Formats: []string{"json"}}
	if _, err := r.Execute(context.Background(), []byte(leavingJSON), opts); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	res, err := r.Execute(context.Background(), []byte(leavingJSON), opts)
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if !res.CacheHit {
		t.Error("second run should hit the file cache")
	}
}

func TestExecuteTimeout(t *testing.T) {
	r := quietRunner(nil)
	_, err := r.Execute(context.Background(), []byte(leavingJSON), Options{
		Formats:       []string{"svg"},
		RenderTimeout: time.Nanosecond,
	})
	if !errors.Is(err, errors.ErrCodeTimeout) {
		t.Errorf("expected TIMEOUT, got %v", err)
	}
}

func TestExecuteCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := quietRunner(nil)
	_, err := r.Execute(ctx, []byte(leavingJSON), Options{Formats: []string{"svg"}})
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestExecuteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rained.toml")
	if err := os.WriteFile(path, []byte(rainedTOML), 0o644); err != nil {
		t.Fatal(err)
	}

	r := quietRunner(nil)
	res, err := r.ExecuteFile(context.Background(), path, Options{Formats: []string{"dot"}})
	if err != nil {
		t.Fatalf("ExecuteFile() error: %v", err)
	}
	if len(res.Units) != 2 {
		t.Errorf("Units = %d, want 2", len(res.Units))
	}

	_, err = r.ExecuteFile(context.Background(), filepath.Join(dir, "missing.json"), Options{})
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file: expected FILE_NOT_FOUND, got %v", err)
	}

	_, err = r.ExecuteFile(context.Background(), filepath.Join(dir, "input.yaml"), Options{})
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("unknown extension: expected INVALID_FORMAT, got %v", err)
	}
}

func TestRunnerRender(t *testing.T) {
	r := quietRunner(nil)
	res, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"dot"}})
	if err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	data, err := r.Render(context.Background(), res.Graph, "dot", Options{Name: "again"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.HasPrefix(string(data), `digraph "again" {`) {
		t.Errorf("Render() ignored options: %.40q", data)
	}
	if _, err := r.Render(context.Background(), res.Graph, "gif", Options{}); err == nil {
		t.Error("Render() should reject unknown formats")
	}
}

// recordingHooks captures pipeline events.
type recordingHooks struct {
	observability.NoopPipelineHooks
	mu      sync.Mutex
	events  []string
	buildOK bool
}

func (h *recordingHooks) OnDecode(_ context.Context, format string, _ int, _ time.Duration, _ error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "decode:"+format)
}

func (h *recordingHooks) OnBuild(_ context.Context, nodes, _ int, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "build")
	h.buildOK = err == nil && nodes > 0
}

func (h *recordingHooks) OnRenderStart(_ context.Context, format string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, "render:"+format)
}

func TestExecuteHooks(t *testing.T) {
	hooks := &recordingHooks{}
	observability.SetPipelineHooks(hooks)
	defer observability.Reset()

	r := quietRunner(nil)
	if _, err := r.Execute(context.Background(), []byte(leavingJSON), Options{Formats: []string{"dot", "json"}}); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	// Formats render concurrently, so only the stage order is fixed.
	got := append([]string(nil), hooks.events...)
	if len(got) > 2 {
		slices.Sort(got[2:])
	}
	want := []string{"decode:json", "build", "render:dot", "render:json"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("events = %v, want %v", hooks.events, want)
	}
	if !hooks.buildOK {
		t.Error("OnBuild should report node counts and no error")
	}
}
