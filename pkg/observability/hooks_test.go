package observability

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingPipeline struct {
	NoopPipelineHooks
	mu      sync.Mutex
	decodes int
}

func (c *countingPipeline) OnDecode(context.Context, string, int, time.Duration, error) {
	c.mu.Lock()
	c.decodes++
	c.mu.Unlock()
}

type namedCache struct{ NoopCacheHooks }
type namedHTTP struct{ NoopHTTPHooks }

func TestDefaultsAreNoop(t *testing.T) {
	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Errorf("Pipeline() = %T, want NoopPipelineHooks", Pipeline())
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Errorf("Cache() = %T, want NoopCacheHooks", Cache())
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Errorf("HTTP() = %T, want NoopHTTPHooks", HTTP())
	}

	ctx := context.Background()
	Pipeline().OnRenderComplete(ctx, "svg", 4096, time.Second, nil)
	Cache().OnCacheSet(ctx, "svg", 1024)
	HTTP().OnError(ctx, "POST", "/api/v1/convert", "MISSING_HEAD")
}

func TestSetAndReset(t *testing.T) {
	t.Cleanup(Reset)

	p, c, h := &countingPipeline{}, &namedCache{}, &namedHTTP{}
	SetPipelineHooks(p)
	SetCacheHooks(c)
	SetHTTPHooks(h)

	if Pipeline() != p || Cache() != c || HTTP() != h {
		t.Fatal("installed hooks are not returned")
	}

	SetPipelineHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)
	if Pipeline() != p || Cache() != c || HTTP() != h {
		t.Error("nil hooks should be ignored")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset did not restore the pipeline default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("Reset did not restore the HTTP default")
	}
}

func TestHooksConcurrentUse(t *testing.T) {
	t.Cleanup(Reset)
	p := &countingPipeline{}
	SetPipelineHooks(p)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Pipeline().OnDecode(context.Background(), "json", 1, 0, nil)
				SetCacheHooks(&namedCache{})
			}
		}()
	}
	wg.Wait()

	if p.decodes != 800 {
		t.Errorf("decodes = %d, want 800", p.decodes)
	}
}
