package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	e := NoopExplorerHooks{}
	e.OnToggle(ctx, "children", "expanded")
	e.OnFetch(ctx, "parents", 12, time.Second, nil)
	e.OnRender(ctx, 40, time.Millisecond)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "svg")
	c.OnCacheMiss(ctx, "svg")
	c.OnCacheSet(ctx, "svg", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "GET", "localhost:8000", "/node/children/A")
	h.OnResponse(ctx, "GET", "localhost:8000", "/node/children/A", 200, time.Second)
	h.OnError(ctx, "GET", "localhost:8000", "/node/children/A", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Explorer().(NoopExplorerHooks); !ok {
		t.Error("Explorer() should return NoopExplorerHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customExplorer := &testExplorerHooks{}
	SetExplorerHooks(customExplorer)
	if Explorer() != customExplorer {
		t.Error("SetExplorerHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Explorer().(NoopExplorerHooks); !ok {
		t.Error("Reset() should restore NoopExplorerHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testExplorerHooks{}
	SetExplorerHooks(custom)
	SetExplorerHooks(nil)

	if Explorer() != custom {
		t.Error("SetExplorerHooks(nil) should be ignored")
	}

	Reset()
}

type testExplorerHooks struct{ NoopExplorerHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
