package overlay

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// MemoryMap is a Map that keeps its objects in memory. Objects get random
// UUIDs; the viewport is tracked as a bound.
type MemoryMap struct {
	mu       sync.RWMutex
	center   route.LatLng
	zoom     int
	viewport orb.Bound
	fitted   bool
	order    []string
	markers  map[string]Marker
	lines    map[string]Polyline
}

var _ Map = (*MemoryMap)(nil)

// NewMemoryMap creates an empty map centered on center.
func NewMemoryMap(center route.LatLng, zoom int) *MemoryMap {
	return &MemoryMap{
		center:  center,
		zoom:    zoom,
		markers: make(map[string]Marker),
		lines:   make(map[string]Polyline),
	}
}

// AddMarker implements Map.
func (m *MemoryMap) AddMarker(mk Marker) string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markers[id] = mk
	m.order = append(m.order, id)
	return id
}

// AddPolyline implements Map.
func (m *MemoryMap) AddPolyline(p Polyline) string {
	id := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[id] = p
	m.order = append(m.order, id)
	return id
}

// Remove implements Map. Unknown IDs are ignored.
func (m *MemoryMap) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, isMarker := m.markers[id]
	_, isLine := m.lines[id]
	if !isMarker && !isLine {
		return
	}
	delete(m.markers, id)
	delete(m.lines, id)
	for i, o := range m.order {
		if o == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

// FitBounds implements Map.
func (m *MemoryMap) FitBounds(b orb.Bound) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.viewport = b
	m.fitted = true
	m.center = route.FromPoint(b.Center())
}

// Count implements Map.
func (m *MemoryMap) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.markers) + len(m.lines)
}

// Viewport returns the last bound passed to FitBounds and whether one was set.
func (m *MemoryMap) Viewport() (orb.Bound, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.viewport, m.fitted
}

// Center returns the current map center and zoom.
func (m *MemoryMap) Center() (route.LatLng, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.center, m.zoom
}

// Markers returns the live markers in insertion order.
func (m *MemoryMap) Markers() []Marker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Marker
	for _, id := range m.order {
		if mk, ok := m.markers[id]; ok {
			out = append(out, mk)
		}
	}
	return out
}

// Polylines returns the live lines of the given kind in insertion order.
func (m *MemoryMap) Polylines(kind LineKind) []Polyline {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Polyline
	for _, id := range m.order {
		if p, ok := m.lines[id]; ok && p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

// FeatureCollection exports the live objects as GeoJSON. Markers become
// Point features and lines LineString features; styling goes into the
// properties using simplestyle names.
func (m *MemoryMap) FeatureCollection() *geojson.FeatureCollection {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fc := geojson.NewFeatureCollection()
	for _, id := range m.order {
		if mk, ok := m.markers[id]; ok {
			f := geojson.NewFeature(mk.Position.Point())
			f.ID = id
			f.Properties["title"] = mk.Title
			f.Properties["label"] = mk.Label
			f.Properties["description"] = mk.Info
			f.Properties["category"] = mk.Category.String()
			f.Properties["marker-color"] = IconColor(mk.Icon)
			fc.Append(f)
			continue
		}
		if p, ok := m.lines[id]; ok {
			f := geojson.NewFeature(p.Path)
			f.ID = id
			f.Properties["kind"] = string(p.Kind)
			f.Properties["stroke"] = p.Style.Color
			f.Properties["stroke-opacity"] = p.Style.Opacity
			f.Properties["stroke-width"] = p.Style.Weight
			f.Properties["geodesic"] = p.Style.Geodesic
			fc.Append(f)
		}
	}
	if m.fitted {
		fc.BBox = geojson.NewBBox(m.viewport)
	}
	return fc
}

// MarshalJSON encodes the map as a GeoJSON FeatureCollection.
func (m *MemoryMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.FeatureCollection())
}

// MemoryProvider opens MemoryMaps. The last opened map is kept so that
// callers can inspect it.
type MemoryProvider struct {
	mu    sync.Mutex
	last  *MemoryMap
	opens int
}

// Open implements Provider.
func (p *MemoryProvider) Open(ctx context.Context, center route.LatLng, zoom int) (Map, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last = NewMemoryMap(center, zoom)
	p.opens++
	return p.last, nil
}

// Last returns the most recently opened map, or nil.
func (p *MemoryProvider) Last() *MemoryMap {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Opens returns how many maps were opened.
func (p *MemoryProvider) Opens() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opens
}
