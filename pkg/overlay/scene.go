package overlay

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

// Scene is the set of live objects drawn on a Map. Resolver completions run
// on their own goroutine, so every mutation holds the scene lock.
type Scene struct {
	m Map

	mu      sync.Mutex
	markers []string
	lines   []string
	route   string
}

var _ streetroute.Canvas = (*Scene)(nil)

// NewScene creates an empty scene on m.
func NewScene(m Map) *Scene {
	return &Scene{m: m}
}

// Map returns the underlying map.
func (s *Scene) Map() Map { return s.m }

// Release removes every object of the scene from the map. Calling it on an
// empty scene is a no-op.
func (s *Scene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.markers {
		s.m.Remove(id)
	}
	for _, id := range s.lines {
		s.m.Remove(id)
	}
	if s.route != "" {
		s.m.Remove(s.route)
	}
	s.markers, s.lines, s.route = nil, nil, ""
}

// AddMarker adds a marker to the scene.
func (s *Scene) AddMarker(mk Marker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers = append(s.markers, s.m.AddMarker(mk))
}

// AddLine adds a connection line to the scene.
func (s *Scene) AddLine(path orb.LineString, style streetroute.LineStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, s.m.AddPolyline(Polyline{Path: path, Style: style, Kind: KindConnection}))
}

// ReplaceRoute implements streetroute.Canvas.
func (s *Scene) ReplaceRoute(path orb.LineString, style streetroute.LineStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.route != "" {
		s.m.Remove(s.route)
	}
	s.route = s.m.AddPolyline(Polyline{Path: path, Style: style, Kind: KindRoute})
}

// FitBounds implements streetroute.Canvas.
func (s *Scene) FitBounds(b orb.Bound) {
	s.m.FitBounds(b)
}

// Len returns the number of objects owned by the scene.
func (s *Scene) Len() (markers, lines int, hasRoute bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers), len(s.lines), s.route != ""
}
