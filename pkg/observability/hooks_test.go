package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	// Route hooks
	r := NoopRouteHooks{}
	r.OnComputeStart(ctx, "Ostuna", "Alameda Grau")
	r.OnComputeComplete(ctx, "Ostuna", "Alameda Grau", 4, time.Second, nil)
	r.OnRender(ctx, "schematic", 21, time.Millisecond)
	r.OnResolve(ctx, 4, true, time.Second, nil)

	// Cache hooks
	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "osrm")
	c.OnCacheMiss(ctx, "osrm")
	c.OnCacheSet(ctx, "osrm", 1024)

	// HTTP hooks
	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "localhost:5000", "/calcular_ruta")
	h.OnResponse(ctx, "POST", "localhost:5000", "/calcular_ruta", 200, time.Second)
	h.OnError(ctx, "POST", "localhost:5000", "/calcular_ruta", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Route().(NoopRouteHooks); !ok {
		t.Error("Route() should return NoopRouteHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customRoute := &testRouteHooks{}
	SetRouteHooks(customRoute)
	if Route() != customRoute {
		t.Error("SetRouteHooks should set custom hooks")
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
	if _, ok := Route().(NoopRouteHooks); !ok {
		t.Error("Reset() should restore NoopRouteHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testRouteHooks{}
	SetRouteHooks(custom)
	SetRouteHooks(nil)

	if Route() != custom {
		t.Error("SetRouteHooks(nil) should be ignored")
	}

	Reset()
}

type testRouteHooks struct{ NoopRouteHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }

func TestStatsCounts(t *testing.T) {
	s := NewStats(nil)
	Install(s)
	defer Reset()

	ctx := context.Background()
	Route().OnComputeComplete(ctx, "A", "B", 3, time.Millisecond, nil)
	Route().OnComputeComplete(ctx, "A", "Z", 0, time.Millisecond, context.DeadlineExceeded)
	Route().OnRender(ctx, "schematic", 21, time.Millisecond)
	Route().OnRender(ctx, "schematic", 21, time.Millisecond)
	Route().OnRender(ctx, "overlay", 21, time.Millisecond)
	Route().OnResolve(ctx, 3, true, time.Second, nil)
	Cache().OnCacheMiss(ctx, "osrm")
	Cache().OnCacheSet(ctx, "osrm", 512)
	Cache().OnCacheHit(ctx, "osrm")
	HTTP().OnRequest(ctx, "GET", "router.project-osrm.org", "/route/v1/driving")
	HTTP().OnError(ctx, "GET", "router.project-osrm.org", "/route/v1/driving", context.Canceled)

	got := s.Snapshot()
	if got.Computes != 2 || got.ComputeErrors != 1 {
		t.Errorf("computes = %d/%d errors, want 2/1", got.Computes, got.ComputeErrors)
	}
	if got.Renders["schematic"] != 2 || got.Renders["overlay"] != 1 {
		t.Errorf("renders = %v", got.Renders)
	}
	if got.Resolutions != 1 || got.Fallbacks != 1 {
		t.Errorf("resolutions = %d, fallbacks = %d", got.Resolutions, got.Fallbacks)
	}
	if got.CacheHits != 1 || got.CacheMisses != 1 || got.CacheWrites != 1 {
		t.Errorf("cache = %d/%d/%d", got.CacheHits, got.CacheMisses, got.CacheWrites)
	}
	if got.Requests != 1 || got.RequestErrors != 1 {
		t.Errorf("requests = %d, errors = %d", got.Requests, got.RequestErrors)
	}

	// Snapshots are copies.
	got.Renders["schematic"] = 99
	if s.Snapshot().Renders["schematic"] != 2 {
		t.Error("snapshot shares the render map")
	}
}
