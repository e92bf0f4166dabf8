package view

import (
	"context"
	"fmt"
	"image/color"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/pampasroute/pkg/errors"
	"github.com/matzehuels/pampasroute/pkg/overlay"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/schematic"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

const (
	plaza    = "Plaza de Armas de Pampas"
	alameda  = "Alameda Grau"
	catedral = "Iglesia Catedral San Pedro de Pampas"
)

func sampleResult() *route.Result {
	a := route.LatLng{Lat: -12.3983, Lng: -74.8684}
	b := route.LatLng{Lat: -12.3994, Lng: -74.8696}
	c := route.LatLng{Lat: -12.4030, Lng: -74.8761}
	return &route.Result{
		Stops: []route.Stop{
			{Order: 1, Place: plaza, Geo: a},
			{Order: 2, Place: alameda, Geo: b},
			{Order: 3, Place: catedral, Geo: c},
		},
		Connections: []route.Connection{
			{From: plaza, To: alameda, FromGeo: a, ToGeo: b},
			{From: alameda, To: catedral, FromGeo: b, ToGeo: c},
		},
		Places: []route.Place{
			{Name: plaza, Geo: a},
			{Name: alameda, Geo: b},
			{Name: catedral, Geo: c},
		},
		Cost: 12.5,
	}
}

// surface counts repaints.
type surface struct {
	mu      sync.Mutex
	clears  int
	circles int
}

func (s *surface) Size() (float64, float64)                              { return 900, 600 }
func (s *surface) FillGradient(color.Color, color.Color)                 {}
func (s *surface) StrokeLine(route.Point, route.Point, schematic.Stroke) {}
func (s *surface) FillPolygon([]route.Point, color.Color)                {}
func (s *surface) Text(string, route.Point, schematic.TextStyle)         {}

func (s *surface) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clears++
	s.circles = 0
}

func (s *surface) Circle(route.Point, float64, schematic.CircleStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.circles++
}

func (s *surface) counts() (clears, circles int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clears, s.circles
}

type notice struct {
	n   Notice
	msg string
}

type fakeUI struct {
	mu      sync.Mutex
	views   []Mode
	busy    []bool
	results []*route.Result
	notices []notice
}

func (u *fakeUI) ShowView(m Mode, title string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.views = append(u.views, m)
}

func (u *fakeUI) SetBusy(busy bool, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.busy = append(u.busy, busy)
}

func (u *fakeUI) ShowResult(r *route.Result) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.results = append(u.results, r)
}

func (u *fakeUI) Notify(n Notice, msg string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.notices = append(u.notices, notice{n, msg})
}

type computer struct {
	res   *route.Result
	err   error
	calls int
}

func (c *computer) Compute(context.Context, string, string) (*route.Result, error) {
	c.calls++
	return c.res, c.err
}

type failingProvider struct{}

func (failingProvider) Open(context.Context, route.LatLng, int) (overlay.Map, error) {
	return nil, fmt.Errorf("no map tiles")
}

type fixture struct {
	ctrl     *Controller
	surface  *surface
	provider *overlay.MemoryProvider
	ui       *fakeUI
	computer *computer
}

func newFixture() *fixture {
	f := &fixture{
		surface:  &surface{},
		provider: &overlay.MemoryProvider{},
		ui:       &fakeUI{},
		computer: &computer{res: sampleResult()},
	}
	f.ctrl = NewController(Options{
		Surface:    f.surface,
		Provider:   f.provider,
		Router:     streetroute.Offline{},
		Computer:   f.computer,
		UI:         f.ui,
		MountDelay: time.Millisecond,
	})
	return f
}

func waitCtrl(t *testing.T, c *Controller) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Wait(ctx); err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"schematic", ModeSchematic, true},
		{"esquema", ModeSchematic, true},
		{" Interactive ", ModeInteractive, true},
		{"map", ModeInteractive, true},
		{"satellite", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if (err == nil) != tt.ok {
				t.Fatalf("ParseMode(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseMode(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if !tt.ok && !errors.Is(err, errors.ErrCodeInvalidView) {
				t.Errorf("error code = %q", errors.GetCode(err))
			}
		})
	}
}

func TestTitles(t *testing.T) {
	if got := Title(ModeSchematic); got != "Esquema de Rutas Turísticas de Pampas" {
		t.Errorf("Title(schematic) = %q", got)
	}
	if got := Title(ModeInteractive); got != "Mapa Interactivo - Pampas, Tayacaja, Huancavelica" {
		t.Errorf("Title(interactive) = %q", got)
	}
	if ModeSchematic.Other() != ModeInteractive || ModeInteractive.Other() != ModeSchematic {
		t.Error("Other() does not toggle")
	}
}

func TestNewControllerPaintsIdle(t *testing.T) {
	f := newFixture()
	clears, circles := f.surface.counts()
	if clears != 1 || circles != 0 {
		t.Errorf("clears = %d, circles = %d, want idle paint", clears, circles)
	}
	st := f.ctrl.State()
	if st.Mode != ModeSchematic || st.Result != nil || st.Scene != nil {
		t.Errorf("State() = %+v", st)
	}
}

func TestMapOpensOnce(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	for range 3 {
		if err := f.ctrl.Select(ctx, ModeInteractive); err != nil {
			t.Fatal(err)
		}
		if err := f.ctrl.Select(ctx, ModeSchematic); err != nil {
			t.Fatal(err)
		}
	}
	if f.provider.Opens() != 1 {
		t.Errorf("Opens() = %d, want 1", f.provider.Opens())
	}
	c, zoom := f.provider.Last().Center()
	if c != overlay.DefaultCenter || zoom != overlay.DefaultZoom {
		t.Errorf("map opened at %v zoom %d", c, zoom)
	}
	if f.ctrl.State().Scene == nil {
		t.Error("scene not stored")
	}
	if len(f.ui.views) != 6 {
		t.Errorf("ShowView calls = %d, want 6", len(f.ui.views))
	}
}

func TestSelectInteractiveDrawsStoredResult(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ctrl.SetResult(ctx, sampleResult(), plaza, catedral)
	if err := f.ctrl.Select(ctx, ModeInteractive); err != nil {
		t.Fatal(err)
	}
	waitCtrl(t, f.ctrl)

	m := f.provider.Last()
	if len(m.Markers()) != 3 || len(m.Polylines(overlay.KindConnection)) != 2 {
		t.Errorf("markers = %d, connections = %d", len(m.Markers()), len(m.Polylines(overlay.KindConnection)))
	}
	if len(m.Polylines(overlay.KindRoute)) != 1 {
		t.Errorf("route overlays = %d, want 1", len(m.Polylines(overlay.KindRoute)))
	}
}

func TestSelectInteractiveWithoutResult(t *testing.T) {
	f := newFixture()
	if err := f.ctrl.Select(context.Background(), ModeInteractive); err != nil {
		t.Fatal(err)
	}
	waitCtrl(t, f.ctrl)
	if n := f.provider.Last().Count(); n != 0 {
		t.Errorf("Count() = %d, want an empty map", n)
	}
}

func TestSetResultRedrawsActiveViewOnly(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.ctrl.SetResult(ctx, sampleResult(), plaza, catedral)
	clears, circles := f.surface.counts()
	if clears != 2 || circles != 3 {
		t.Errorf("schematic: clears = %d, circles = %d", clears, circles)
	}

	if err := f.ctrl.Select(ctx, ModeInteractive); err != nil {
		t.Fatal(err)
	}
	waitCtrl(t, f.ctrl)
	m := f.provider.Last()

	next := sampleResult()
	next.Stops = next.Stops[:2]
	f.ctrl.SetResult(ctx, next, plaza, alameda)
	waitCtrl(t, f.ctrl)

	if clears, _ := f.surface.counts(); clears != 2 {
		t.Errorf("hidden schematic repainted: clears = %d", clears)
	}
	routes := m.Polylines(overlay.KindRoute)
	if len(routes) != 1 || len(routes[0].Path) != 2 {
		t.Errorf("route overlays = %+v, want the 2-stop route", routes)
	}
	if got := m.Count(); got != 3+2+1 {
		t.Errorf("Count() = %d, want 6", got)
	}

	// Switching back catches the schematic up with the new result.
	if err := f.ctrl.Select(ctx, ModeSchematic); err != nil {
		t.Fatal(err)
	}
	if clears, _ := f.surface.counts(); clears != 3 {
		t.Errorf("clears = %d, want 3", clears)
	}
}

func TestSelectMapFailure(t *testing.T) {
	ui := &fakeUI{}
	ctrl := NewController(Options{Surface: &surface{}, Provider: failingProvider{}, UI: ui})

	err := ctrl.Select(context.Background(), ModeInteractive)
	if !errors.Is(err, errors.ErrCodeProvider) {
		t.Fatalf("Select() error = %v, want provider error", err)
	}
	if len(ui.notices) != 1 || ui.notices[0].n != NoticeFailure {
		t.Errorf("notices = %+v", ui.notices)
	}
	if ctrl.State().Scene != nil {
		t.Error("scene stored after failed open")
	}
}

func TestCompute(t *testing.T) {
	prior := sampleResult()
	tests := []struct {
		name       string
		start, end string
		err        error
		wantNotice Notice
		wantCalls  int
	}{
		{name: "success", start: plaza, end: catedral, wantCalls: 1},
		{name: "no route", start: plaza, end: catedral, err: fmt.Errorf("compute: %w", route.ErrNoRoute), wantNotice: NoticeNoRoute, wantCalls: 1},
		{name: "network", start: plaza, end: catedral, err: errors.New(errors.ErrCodeNetwork, "backend unreachable"), wantNotice: NoticeFailure, wantCalls: 1},
		{name: "empty start", start: "", end: catedral, wantNotice: NoticeInvalidInput},
		{name: "blank destination", start: plaza, end: "  ", wantNotice: NoticeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			f.ctrl.SetResult(ctx, prior, alameda, catedral)

			fresh := sampleResult()
			f.computer.res, f.computer.err = fresh, tt.err
			if tt.err != nil {
				f.computer.res = nil
			}

			got, err := f.ctrl.Compute(ctx, tt.start, tt.end)
			if f.computer.calls != tt.wantCalls {
				t.Errorf("backend calls = %d, want %d", f.computer.calls, tt.wantCalls)
			}
			st := f.ctrl.State()

			if tt.wantNotice == "" {
				if err != nil {
					t.Fatalf("Compute() error: %v", err)
				}
				if got != fresh {
					t.Error("Compute() did not return the computed result")
				}
				if st.Result != fresh || st.Start != tt.start || st.End != tt.end {
					t.Errorf("state = %+v", st)
				}
				if len(f.ui.results) != 1 || len(f.ui.notices) != 0 {
					t.Errorf("results = %d, notices = %+v", len(f.ui.results), f.ui.notices)
				}
				return
			}

			if err == nil {
				t.Fatal("Compute() succeeded")
			}
			if len(f.ui.notices) != 1 || f.ui.notices[0].n != tt.wantNotice {
				t.Errorf("notices = %+v, want %s", f.ui.notices, tt.wantNotice)
			}
			if st.Result != prior || st.Start != alameda {
				t.Error("prior result not kept")
			}
			if len(f.ui.results) != 0 {
				t.Error("failed compute shown as result")
			}
		})
	}
}

func TestComputeBusyIndicator(t *testing.T) {
	f := newFixture()
	if _, err := f.ctrl.Compute(context.Background(), plaza, catedral); err != nil {
		t.Fatal(err)
	}
	if len(f.ui.busy) != 2 || !f.ui.busy[0] || f.ui.busy[1] {
		t.Errorf("busy = %v, want [true false]", f.ui.busy)
	}
	if err := f.ctrl.Wait(context.Background()); err != nil {
		t.Errorf("Wait() with nothing pending: %v", err)
	}
}

func TestExport(t *testing.T) {
	f := newFixture()
	var got schematic.Surface
	if err := f.ctrl.Export(func(s schematic.Surface) error {
		got = s
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if got != schematic.Surface(f.surface) || f.ctrl.Surface() != got {
		t.Error("Export did not hand out the controller surface")
	}
}
