package streetroute

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/pampasroute/pkg/cache"
	"github.com/matzehuels/pampasroute/pkg/errors"
)

const osrmOK = `{
  "code": "Ok",
  "routes": [{
    "distance": 1834.2,
    "duration": 245.5,
    "geometry": {"type": "LineString", "coordinates": [[-74.8684, -12.3983], [-74.8690, -12.3990], [-74.8696, -12.3994]]}
  }],
  "waypoints": []
}`

func newOSRM(t *testing.T, srv *httptest.Server, c cache.Cache) *OSRM {
	t.Helper()
	return NewOSRM(srv.URL, "", c, time.Hour).
		WithHTTPClient(srv.Client()).
		WithRetry(2, time.Millisecond)
}

func TestOSRMRoute(t *testing.T) {
	var gotPath string
	var gotQuery url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query()
		w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	req := BuildRequest(stopsOf(geoA, geoB, geoC), ModeDriving)
	dirs, err := newOSRM(t, srv, nil).Route(context.Background(), req)
	if err != nil {
		t.Fatalf("Route() error: %v", err)
	}

	wantPath := "/route/v1/driving/-74.868400,-12.398300;-74.869600,-12.399400;-74.876100,-12.403000"
	if gotPath != wantPath {
		t.Errorf("path = %s, want %s", gotPath, wantPath)
	}
	if gotQuery.Get("geometries") != "geojson" || gotQuery.Get("overview") != "full" {
		t.Errorf("query = %v", gotQuery)
	}
	if gotQuery.Has("waypoints") {
		t.Error("all-stopover request should not send waypoints")
	}

	if len(dirs.Path) != 3 || dirs.Path[0][0] != -74.8684 || dirs.Path[0][1] != -12.3983 {
		t.Errorf("Path = %v", dirs.Path)
	}
	if dirs.Distance != 1834.2 || dirs.Duration != 245500*time.Millisecond {
		t.Errorf("Distance = %v, Duration = %v", dirs.Distance, dirs.Duration)
	}
}

func TestOSRMViaPoints(t *testing.T) {
	o := NewOSRM("http://osrm.local", "", nil, 0)
	u := o.URL("driving", []string{"1,1", "2,2", "3,3", "4,4"}, []bool{true, false, true, true})
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatal(err)
	}
	if got := parsed.Query().Get("waypoints"); got != "0;2;3" {
		t.Errorf("waypoints = %q, want 0;2;3", got)
	}
}

func TestOSRMErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"no route", http.StatusOK, `{"code": "NoRoute", "message": "Impossible route"}`, func(err error) bool {
			var se *StatusError
			return stderrors.As(err, &se) && se.Status == "NoRoute"
		}},
		{"invalid query", http.StatusBadRequest, `{"code": "InvalidQuery", "message": "bad coords"}`, func(err error) bool {
			var se *StatusError
			return stderrors.As(err, &se) && se.Status == "InvalidQuery"
		}},
		{"empty routes", http.StatusOK, `{"code": "Ok", "routes": []}`, func(err error) bool {
			var se *StatusError
			return stderrors.As(err, &se)
		}},
		{"point geometry", http.StatusOK, `{"code": "Ok", "routes": [{"geometry": {"type": "Point", "coordinates": [1, 2]}}]}`, func(err error) bool {
			return errors.Is(err, errors.ErrCodeInvalidResponse)
		}},
		{"garbage", http.StatusOK, `<html>`, func(err error) bool {
			return errors.Is(err, errors.ErrCodeInvalidResponse)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newOSRM(t, srv, nil).Route(context.Background(), BuildRequest(stopsOf(geoA, geoB), ModeDriving))
			if err == nil || !tt.check(err) {
				t.Errorf("Route() error = %v", err)
			}
		})
	}
}

func TestOSRMRejectsOptimize(t *testing.T) {
	o := NewOSRM("http://osrm.invalid", "", nil, 0)
	req := BuildRequest(stopsOf(geoA, geoB, geoC), ModeDriving)
	req.OptimizeWaypoints = true
	if _, err := o.Route(context.Background(), req); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("Route() error = %v, want unsupported", err)
	}
}

func TestOSRMProfiles(t *testing.T) {
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	o := newOSRM(t, srv, nil)
	for _, mode := range []TravelMode{ModeDriving, ModeWalking, ModeBicycling} {
		if _, err := o.Route(context.Background(), BuildRequest(stopsOf(geoA, geoB), mode)); err != nil {
			t.Fatalf("Route(%s) error: %v", mode, err)
		}
	}
	for i, want := range []string{"/route/v1/driving/", "/route/v1/foot/", "/route/v1/bike/"} {
		if !strings.HasPrefix(paths[i], want) {
			t.Errorf("path %d = %s, want prefix %s", i, paths[i], want)
		}
	}

	_, err := o.Route(context.Background(), Request{Mode: "transit"})
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("transit error = %v", err)
	}
}

func TestOSRMCachesAnswers(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	o := newOSRM(t, srv, c)
	req := BuildRequest(stopsOf(geoA, geoB), ModeDriving)
	for range 3 {
		if _, err := o.Route(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("requests = %d, want 1", calls.Load())
	}
}

func TestOSRMDoesNotCacheFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(`{"code": "NoRoute"}`))
	}))
	defer srv.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	o := newOSRM(t, srv, c)
	req := BuildRequest(stopsOf(geoA, geoB), ModeDriving)
	_, _ = o.Route(context.Background(), req)
	_, _ = o.Route(context.Background(), req)
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2", calls.Load())
	}
}

func TestOSRMScopedKeys(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(osrmOK))
	}))
	defer srv.Close()

	c, _ := cache.NewFileCache(t.TempDir())
	req := BuildRequest(stopsOf(geoA, geoB), ModeDriving)

	// Two deployments sharing one cache each fetch once.
	for _, prefix := range []string{"staging:", "prod:", "staging:"} {
		o := newOSRM(t, srv, c).WithKeyer(cache.NewScopedKeyer(nil, prefix))
		if _, err := o.Route(context.Background(), req); err != nil {
			t.Fatal(err)
		}
	}
	if calls.Load() != 2 {
		t.Errorf("requests = %d, want 2", calls.Load())
	}
}
