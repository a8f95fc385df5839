package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/clausetree/pkg/buildinfo"
	"github.com/matzehuels/clausetree/pkg/errors"
	"github.com/matzehuels/clausetree/pkg/observability"
	"github.com/matzehuels/clausetree/pkg/pipeline"
)

const leavingJSON = `[
  {"phon": "Will", "bot": [{"op": "IF", "kind": "Clause"}, {"op": "TNS", "kind": "Clause"}]},
  {"phon": "they", "top": {"pos": "NP", "kind": "Core"}},
  {"phon": "leaving", "top": {"pos": "V", "kind": "Pred"}, "bot": [{"op": "ASP", "kind": "Nuc"}]}
]`

const rainedTOML = `
[[unit]]
phon = "rained"
top = { pos = "V", kind = "Pred" }
`

func testServer(cfg Config) *Server {
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(pipeline.NewRunner(nil, nil, logger), logger, cfg)
}

func do(t *testing.T, s *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("error body is not JSON: %v", err)
	}
	return body
}

func TestHealth(t *testing.T) {
	rec := do(t, testServer(Config{}), http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Error("missing X-Request-ID")
	}
}

func TestVersion(t *testing.T) {
	rec := do(t, testServer(Config{}), http.MethodGet, "/version", "", "")
	var info buildinfo.Info
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info != buildinfo.Get() {
		t.Errorf("version = %+v, want %+v", info, buildinfo.Get())
	}
}

func TestRequestIDPassthrough(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	testServer(Config{}).Handler().ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}
}

func TestConvertFormats(t *testing.T) {
	tests := []struct {
		query       string
		contentType string
		want        string
	}{
		{"?format=dot", "text/vnd.graphviz; charset=utf-8", `digraph "clause" {`},
		{"?format=dot&name=T1", "text/vnd.graphviz; charset=utf-8", `digraph "T1" {`},
		{"?format=json", "application/json", `"nodes"`},
		{"", "image/svg+xml", "<svg"},
		{"?format=SVG", "image/svg+xml", "<svg"},
	}

	s := testServer(Config{})
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/convert"+tt.query, "application/json", leavingJSON)
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Content-Type = %q, want %q", got, tt.contentType)
			}
			if !strings.Contains(rec.Body.String(), tt.want) {
				t.Errorf("body missing %q", tt.want)
			}
			if rec.Header().Get(headerRunID) == "" || rec.Header().Get(headerCache) != "MISS" {
				t.Errorf("run headers = %q / %q", rec.Header().Get(headerRunID), rec.Header().Get(headerCache))
			}
		})
	}
}

func TestConvertTOML(t *testing.T) {
	s := testServer(Config{})
	for _, tc := range []struct{ target, contentType string }{
		{"/api/v1/convert?format=dot", "application/toml"},
		{"/api/v1/convert?format=dot", "text/toml; charset=utf-8"},
		{"/api/v1/convert?format=dot&input=toml", "text/plain"},
	} {
		rec := do(t, s, http.MethodPost, tc.target, tc.contentType, rainedTOML)
		if rec.Code != http.StatusOK {
			t.Errorf("%s (%s): status = %d, body = %s", tc.target, tc.contentType, rec.Code, rec.Body.String())
		}
	}
}

func TestConvertErrors(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		body   string
		status int
		code   string
		unit   *int
		field  string
	}{
		{
			name: "syntax", body: `[{"phon": `,
			status: http.StatusBadRequest, code: "MALFORMED_INPUT",
		},
		{
			name: "unknown kind", body: `[{"phon": "x", "top": {"pos": "V", "kind": "Foo"}}]`,
			status: http.StatusBadRequest, code: "MALFORMED_INPUT", unit: intPtr(0), field: "top.kind",
		},
		{
			name: "missing head", body: `[{"phon": "they"}]`,
			status: http.StatusUnprocessableEntity, code: "MISSING_HEAD",
		},
		{
			name: "multiple heads", body: `[
				{"phon": "a", "top": {"pos": "V", "kind": "Pred"}},
				{"phon": "b"},
				{"phon": "c", "top": {"pos": "V", "kind": "Pred"}}
			]`,
			status: http.StatusUnprocessableEntity, code: "MULTIPLE_HEADS", unit: intPtr(2), field: "top.kind",
		},
		{
			name: "bad format", query: "?format=gif", body: leavingJSON,
			status: http.StatusBadRequest, code: "INVALID_FORMAT",
		},
		{
			name: "bad input format", query: "?input=yaml", body: leavingJSON,
			status: http.StatusBadRequest, code: "INVALID_FORMAT",
		},
		{
			name: "bad scale", query: "?format=png&scale=-2", body: leavingJSON,
			status: http.StatusBadRequest, code: "INVALID_FORMAT",
		},
		{
			name: "bad transparent", query: "?transparent=maybe", body: leavingJSON,
			status: http.StatusBadRequest, code: "INVALID_FORMAT",
		},
	}

	s := testServer(Config{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/v1/convert"+tt.query, "application/json", tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.status, rec.Body.String())
			}
			body := decodeError(t, rec)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if body.Message == "" {
				t.Error("empty message")
			}
			if body.RequestID != rec.Header().Get(RequestIDHeader) {
				t.Errorf("request_id = %q, header = %q", body.RequestID, rec.Header().Get(RequestIDHeader))
			}
			if tt.unit != nil && (body.Unit == nil || *body.Unit != *tt.unit) {
				t.Errorf("unit = %v, want %d", body.Unit, *tt.unit)
			}
			if tt.unit == nil && body.Unit != nil {
				t.Errorf("unit = %d, want none", *body.Unit)
			}
			if body.Field != tt.field {
				t.Errorf("field = %q, want %q", body.Field, tt.field)
			}
		})
	}
}

func TestConvertBodyLimit(t *testing.T) {
	s := testServer(Config{MaxBodyBytes: 16})
	rec := do(t, s, http.MethodPost, "/api/v1/convert?format=dot", "application/json", leavingJSON)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if body := decodeError(t, rec); body.Code != "MALFORMED_INPUT" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestConvertTimeout(t *testing.T) {
	s := testServer(Config{RenderTimeout: time.Nanosecond})
	rec := do(t, s, http.MethodPost, "/api/v1/convert?format=svg", "application/json", leavingJSON)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504 (%s)", rec.Code, rec.Body.String())
	}
	if body := decodeError(t, rec); body.Code != "TIMEOUT" {
		t.Errorf("code = %q, want TIMEOUT", body.Code)
	}
}

func TestNotFoundAndMethod(t *testing.T) {
	s := testServer(Config{})
	if rec := do(t, s, http.MethodGet, "/nope", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/v1/convert", "", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /api/v1/convert = %d, want 405", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeMalformedInput, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeInvalidFormat, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeMissingHead, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeMultipleHeads, "x"), http.StatusUnprocessableEntity},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeRenderFailed, "x"), http.StatusInternalServerError},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
		{errTooLarge(10), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestInputFormat(t *testing.T) {
	tests := []struct {
		param, contentType string
		want               string
		wantErr            bool
	}{
		{"", "", "json", false},
		{"", "application/json", "json", false},
		{"", "application/toml", "toml", false},
		{"", "text/x-toml; charset=utf-8", "toml", false},
		{"toml", "application/json", "toml", false},
		{"JSON", "application/toml", "json", false},
		{"xml", "", "", true},
	}
	for _, tt := range tests {
		got, err := inputFormat(tt.param, tt.contentType)
		if (err != nil) != tt.wantErr {
			t.Errorf("inputFormat(%q, %q) error = %v", tt.param, tt.contentType, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("inputFormat(%q, %q) = %q, want %q", tt.param, tt.contentType, got, tt.want)
		}
	}
}

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Skipf("cannot listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := testServer(Config{})

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() = %v, want nil after shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func intPtr(i int) *int { return &i }

func TestMetricsEndpoint(t *testing.T) {
	if rec := do(t, testServer(Config{}), http.MethodGet, "/metrics", "", ""); rec.Code != http.StatusNotFound {
		t.Errorf("/metrics without a handler = %d, want 404", rec.Code)
	}

	reg := prometheus.NewRegistry()
	observability.NewMetrics(reg).Install()
	t.Cleanup(observability.Reset)

	s := testServer(Config{Metrics: promhttp.HandlerFor(reg, promhttp.HandlerOpts{})})
	if rec := do(t, s, http.MethodPost, "/api/v1/convert?format=dot", "application/json", leavingJSON); rec.Code != http.StatusOK {
		t.Fatalf("convert = %d", rec.Code)
	}

	rec := do(t, s, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("/metrics = %d, want 200", rec.Code)
	}
	for _, want := range []string{
		`clausetree_http_requests_total{method="POST",path="/api/v1/convert",status="200"} 1`,
		`clausetree_pipeline_stage_duration_seconds_count{format="json",stage="decode",status="ok"} 1`,
	} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("/metrics missing %s", want)
		}
	}
}
