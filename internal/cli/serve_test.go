package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/matzehuels/clausetree/pkg/observability"
)

func TestInstallMetrics(t *testing.T) {
	t.Cleanup(observability.Reset)

	h := installMetrics()
	observability.Cache().OnCacheHit(context.Background(), "svg")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`clausetree_cache_events_total{event="hit",format="svg"} 1`,
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %q", want)
		}
	}
}

func TestServeFlags(t *testing.T) {
	cmd := quietCLI().serveCommand()
	for _, name := range []string{"addr", "no-cache", "no-metrics"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("serve is missing --%s", name)
		}
	}
}
