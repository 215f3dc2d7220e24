// Package observability provides hooks for metrics and instrumentation.
//
// Libraries in taxotree report what they do through small hook interfaces
// and never import a metrics backend themselves. The binary registers an
// implementation at startup (pkg/metrics registers Prometheus collectors
// for `taxotree serve`); everything else sees the no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetExplorerHooks(m)
//	    observability.SetHTTPHooks(m)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	start := time.Now()
//	items, err := src.Children(ctx, id, dep)
//	observability.Explorer().OnFetch(ctx, "children", len(items), time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Explorer Hooks
// =============================================================================

// ExplorerHooks receives events from the expansion controller and the
// layout/render cycle that follows every structural change.
type ExplorerHooks interface {
	// OnToggle records the outcome of a node click ("expanded", "collapsed",
	// "noop", "fetch_failed").
	OnToggle(ctx context.Context, direction, outcome string)

	// OnFetch records a neighbour fetch against the taxonomy backend.
	OnFetch(ctx context.Context, direction string, items int, duration time.Duration, err error)

	// OnRender records one layout + scene build over the visible tree.
	OnRender(ctx context.Context, visibleNodes int, duration time.Duration)
}

// =============================================================================
// Cache Hooks
// =============================================================================

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	// OnCacheHit records a cache hit.
	OnCacheHit(ctx context.Context, keyType string)

	// OnCacheMiss records a cache miss.
	OnCacheMiss(ctx context.Context, keyType string)

	// OnCacheSet records a cache write.
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// =============================================================================
// HTTP Hooks
// =============================================================================

// HTTPHooks receives events from HTTP client operations.
type HTTPHooks interface {
	// OnRequest records an outgoing HTTP request.
	OnRequest(ctx context.Context, method, host, path string)

	// OnResponse records an HTTP response.
	OnResponse(ctx context.Context, method, host, path string, statusCode int, duration time.Duration)

	// OnError records an HTTP error (network failure, timeout).
	OnError(ctx context.Context, method, host, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopExplorerHooks is a no-op implementation of ExplorerHooks.
type NoopExplorerHooks struct{}

func (NoopExplorerHooks) OnToggle(context.Context, string, string)                   {}
func (NoopExplorerHooks) OnFetch(context.Context, string, int, time.Duration, error) {}
func (NoopExplorerHooks) OnRender(context.Context, int, time.Duration)               {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, string, int, time.Duration) {}
func (NoopHTTPHooks) OnError(context.Context, string, string, string, error)                 {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	explorerHooks ExplorerHooks = NoopExplorerHooks{}
	cacheHooks    CacheHooks    = NoopCacheHooks{}
	httpHooks     HTTPHooks     = NoopHTTPHooks{}
	hooksMu       sync.RWMutex
)

// SetExplorerHooks registers custom explorer hooks.
// This should be called once at application startup before any session is created.
func SetExplorerHooks(h ExplorerHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		explorerHooks = h
	}
}

// SetCacheHooks registers custom cache hooks.
// This should be called once at application startup before any cache operations.
func SetCacheHooks(h CacheHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		cacheHooks = h
	}
}

// SetHTTPHooks registers custom HTTP hooks.
// This should be called once at application startup before any HTTP operations.
func SetHTTPHooks(h HTTPHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		httpHooks = h
	}
}

// Explorer returns the registered explorer hooks.
func Explorer() ExplorerHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return explorerHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	explorerHooks = NoopExplorerHooks{}
	cacheHooks = NoopCacheHooks{}
	httpHooks = NoopHTTPHooks{}
}
