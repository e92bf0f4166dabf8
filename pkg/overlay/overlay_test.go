package overlay

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

var (
	geoA = route.LatLng{Lat: -12.3983, Lng: -74.8684}
	geoB = route.LatLng{Lat: -12.3994, Lng: -74.8696}
	geoC = route.LatLng{Lat: -12.4030, Lng: -74.8761}
	geoD = route.LatLng{Lat: -12.4241, Lng: -74.8719}
)

// sampleResult is the route A→B→C with a fourth place D off the route.
func sampleResult() *route.Result {
	return &route.Result{
		Stops: []route.Stop{
			{Order: 1, Place: "A", Geo: geoA},
			{Order: 2, Place: "B", Geo: geoB},
			{Order: 3, Place: "C", Geo: geoC},
		},
		Connections: []route.Connection{
			{From: "A", To: "B", FromGeo: geoA, ToGeo: geoB},
			{From: "B", To: "C", FromGeo: geoB, ToGeo: geoC},
			{From: "C", To: "D", FromGeo: geoC, ToGeo: geoD},
			{From: "A", To: "D", FromGeo: geoA, ToGeo: geoD},
		},
		Places: []route.Place{
			{Name: "A", Geo: geoA},
			{Name: "B", Geo: geoB},
			{Name: "C", Geo: geoC},
			{Name: "D", Geo: geoD},
		},
	}
}

type router struct {
	path orb.LineString
	err  error
}

func (r router) Route(context.Context, streetroute.Request) (*streetroute.Directions, error) {
	if r.err != nil {
		return nil, r.err
	}
	return &streetroute.Directions{Path: r.path}, nil
}

func newManager(rt streetroute.Router) (*Manager, *MemoryMap) {
	m := NewMemoryMap(DefaultCenter, DefaultZoom)
	return NewManager(NewScene(m), rt, nil, nil), m
}

func wait(t *testing.T, task *streetroute.Task) streetroute.Outcome {
	t.Helper()
	if task == nil {
		t.Fatal("no resolution task")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	out, err := task.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	return out
}

func TestRenderStreetRoute(t *testing.T) {
	streets := orb.LineString{geoA.Point(), {-74.869, -12.3988}, geoB.Point(), {-74.872, -12.401}, geoC.Point()}
	mgr, m := newManager(router{path: streets})

	out := wait(t, mgr.Render(context.Background(), sampleResult(), "A", "C"))
	if out.Fallback {
		t.Fatalf("outcome = %+v, want success", out)
	}

	routes := m.Polylines(KindRoute)
	if len(routes) != 1 {
		t.Fatalf("route overlays = %d, want 1", len(routes))
	}
	if !orb.Equal(routes[0].Path, streets) || routes[0].Style != streetroute.RouteStyle {
		t.Errorf("route overlay = %+v", routes[0])
	}
	if _, fitted := m.Viewport(); fitted {
		t.Error("viewport should not be refitted on success")
	}
	if got := len(m.Polylines(KindConnection)); got != 4 {
		t.Errorf("connections = %d, want 4", got)
	}
}

func TestRenderFallback(t *testing.T) {
	mgr, m := newManager(router{err: &streetroute.StatusError{Status: "NoRoute"}})

	out := wait(t, mgr.Render(context.Background(), sampleResult(), "A", "C"))
	if !out.Fallback {
		t.Fatalf("outcome = %+v, want fallback", out)
	}

	routes := m.Polylines(KindRoute)
	if len(routes) != 1 {
		t.Fatalf("route overlays = %d, want 1", len(routes))
	}
	want := orb.LineString{geoA.Point(), geoB.Point(), geoC.Point()}
	if !orb.Equal(routes[0].Path, want) {
		t.Errorf("fallback path = %v, want %v", routes[0].Path, want)
	}
	if !routes[0].Style.Geodesic {
		t.Error("fallback line should be geodesic")
	}

	b, fitted := m.Viewport()
	if !fitted {
		t.Fatal("viewport not fitted")
	}
	for _, c := range []route.LatLng{geoA, geoB, geoC} {
		if !b.Contains(c.Point()) {
			t.Errorf("viewport %v misses %v", b, c)
		}
	}
}

func TestRenderMarkers(t *testing.T) {
	mgr, m := newManager(router{err: errors.New("offline")})
	wait(t, mgr.Render(context.Background(), sampleResult(), "A", "C"))

	tests := []struct {
		title string
		label string
		icon  string
		cat   route.Category
	}{
		{"A", "🚩", "blue", route.CategoryStart},
		{"B", "2", "green", route.CategoryOnRoute},
		{"C", "🎯", "red", route.CategoryEnd},
		{"D", "", "grey", route.CategoryDefault},
	}
	markers := m.Markers()
	if len(markers) != len(tests) {
		t.Fatalf("markers = %d, want %d", len(markers), len(tests))
	}
	for i, tt := range tests {
		mk := markers[i]
		if mk.Title != tt.title || mk.Label != tt.label || mk.Icon != tt.icon || mk.Category != tt.cat {
			t.Errorf("marker %d = %+v, want %+v", i, mk, tt)
		}
		if mk.Info != tt.title {
			t.Errorf("marker %d info = %q", i, mk.Info)
		}
	}
}

func TestRepeatedRenderKeepsObjectCount(t *testing.T) {
	for _, rt := range []router{
		{path: orb.LineString{geoA.Point(), geoC.Point()}},
		{err: errors.New("rejected")},
	} {
		mgr, m := newManager(rt)
		res := sampleResult()
		want := len(res.Places) + len(res.Connections) + 1

		for range 5 {
			wait(t, mgr.Render(context.Background(), res, "A", "C"))
			if got := m.Count(); got != want {
				t.Fatalf("Count() = %d, want %d", got, want)
			}
			markers, lines, hasRoute := mgr.Scene.Len()
			if markers != 4 || lines != 4 || !hasRoute {
				t.Fatalf("Scene.Len() = %d, %d, %v", markers, lines, hasRoute)
			}
		}
	}
}

func TestRenderNilAndSingleStop(t *testing.T) {
	mgr, m := newManager(router{path: orb.LineString{geoA.Point(), geoB.Point()}})
	wait(t, mgr.Render(context.Background(), sampleResult(), "A", "C"))

	if task := mgr.Render(context.Background(), nil, "", ""); task != nil {
		t.Error("nil result should not start a resolution")
	}
	if m.Count() != 0 {
		t.Errorf("Count() after nil render = %d, want 0", m.Count())
	}

	res := sampleResult()
	res.Stops = res.Stops[:1]
	if task := mgr.Render(context.Background(), res, "A", "A"); task != nil {
		t.Error("single stop should not start a resolution")
	}
	if len(m.Polylines(KindRoute)) != 0 {
		t.Error("single stop drew a route overlay")
	}
}

// gatedRouter answers once gate is closed.
type gatedRouter struct{ gate chan struct{} }

func (g gatedRouter) Route(ctx context.Context, _ streetroute.Request) (*streetroute.Directions, error) {
	select {
	case <-g.gate:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &streetroute.Directions{Path: orb.LineString{geoA.Point(), geoB.Point(), geoC.Point()}}, nil
}

// removeHookMap runs onRemove before each removal.
type removeHookMap struct {
	*MemoryMap
	onRemove func()
}

func (m *removeHookMap) Remove(id string) {
	if m.onRemove != nil {
		m.onRemove()
	}
	m.MemoryMap.Remove(id)
}

func TestRenderSupersedesBeforeRelease(t *testing.T) {
	gate := make(chan struct{})
	m := &removeHookMap{MemoryMap: NewMemoryMap(DefaultCenter, DefaultZoom)}
	mgr := NewManager(NewScene(m), gatedRouter{gate}, nil, nil)

	pending := mgr.Render(context.Background(), sampleResult(), "A", "C")
	if pending == nil {
		t.Fatal("no resolution started")
	}

	// The pending answer arrives while the scene is being released.
	var once sync.Once
	m.onRemove = func() {
		once.Do(func() {
			close(gate)
			select {
			case <-pending.Done():
			case <-time.After(200 * time.Millisecond):
			}
		})
	}

	res := sampleResult()
	res.Stops = res.Stops[:1]
	if task := mgr.Render(context.Background(), res, "A", "A"); task != nil {
		t.Error("single stop should not start a resolution")
	}

	if out := wait(t, pending); !out.Superseded {
		t.Errorf("pending outcome = %+v, want superseded", out)
	}
	if _, _, hasRoute := mgr.Scene.Len(); hasRoute {
		t.Error("scene holds a route from the previous result")
	}
	if n := len(m.Polylines(KindRoute)); n != 0 {
		t.Errorf("route polylines = %d, want 0", n)
	}
}

func TestSceneReleaseIdempotent(t *testing.T) {
	m := NewMemoryMap(DefaultCenter, DefaultZoom)
	s := NewScene(m)
	s.AddMarker(Marker{Title: "A", Position: geoA})
	s.AddLine(orb.LineString{geoA.Point(), geoB.Point()}, ConnectionStyle)
	s.ReplaceRoute(orb.LineString{geoA.Point(), geoB.Point()}, streetroute.RouteStyle)
	s.ReplaceRoute(orb.LineString{geoB.Point(), geoC.Point()}, streetroute.RouteStyle)

	if m.Count() != 3 {
		t.Errorf("Count() = %d, want 3", m.Count())
	}
	s.Release()
	s.Release()
	if m.Count() != 0 {
		t.Errorf("Count() after Release = %d, want 0", m.Count())
	}
}

func TestFeatureCollection(t *testing.T) {
	mgr, m := newManager(router{err: errors.New("offline")})
	wait(t, mgr.Render(context.Background(), sampleResult(), "A", "C"))

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("UnmarshalFeatureCollection error: %v", err)
	}
	if len(fc.Features) != 9 {
		t.Errorf("features = %d, want 9", len(fc.Features))
	}

	var points, lines int
	for _, f := range fc.Features {
		switch f.Geometry.GeoJSONType() {
		case "Point":
			points++
		case "LineString":
			lines++
		}
	}
	if points != 4 || lines != 5 {
		t.Errorf("points = %d, lines = %d", points, lines)
	}
	if len(fc.BBox) != 4 {
		t.Errorf("BBox = %v, want the fitted viewport", fc.BBox)
	}
}

func TestMemoryProvider(t *testing.T) {
	p := &MemoryProvider{}
	m, err := p.Open(context.Background(), DefaultCenter, DefaultZoom)
	if err != nil {
		t.Fatal(err)
	}
	if p.Last() != m || p.Opens() != 1 {
		t.Errorf("Last() = %v, Opens() = %d", p.Last(), p.Opens())
	}
	if c, z := p.Last().Center(); c != DefaultCenter || z != DefaultZoom {
		t.Errorf("Center() = %v, %d", c, z)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Open(ctx, DefaultCenter, DefaultZoom); err == nil {
		t.Error("Open with cancelled context should fail")
	}
}
