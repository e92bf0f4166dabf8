// Package route defines the passive value types shared by every renderer:
// places, connections, route stops and the route result produced by the
// external path-finding backend.
//
// A [Result] is produced atomically by the backend and treated as immutable
// once received. Renderers read it; nothing in this repository mutates it
// after decoding.
//
// # Categories
//
// Both the schematic and the interactive view color a place by the same
// strict precedence, implemented once by [Classify]:
//
//	start > end > on-route > default
//
// # Wire format
//
// [DecodeResponse] reads the JSON body returned by POST /calcular_ruta, whose
// keys are Spanish ("ruta", "conexiones", "todos_lugares", ...).
package route

import (
	"github.com/paulmach/orb"
)

// LatLng is a WGS84 geographic coordinate.
type LatLng struct {
	Lat float64 `json:"lat" toml:"lat"`
	Lng float64 `json:"lng" toml:"lng"`
}

// Point returns the coordinate as an orb.Point (longitude first).
func (c LatLng) Point() orb.Point { return orb.Point{c.Lng, c.Lat} }

// FromPoint converts an orb.Point (longitude first) back into a LatLng.
func FromPoint(p orb.Point) LatLng { return LatLng{Lat: p.Lat(), Lng: p.Lon()} }

// Point is a coordinate on the abstract schematic canvas.
// Y grows downwards, as on any raster surface.
type Point struct {
	X float64 `json:"x" toml:"x"`
	Y float64 `json:"y" toml:"y"`
}

// Place is a named tourist location. Pos is only meaningful for entries of
// a static [Table]; places carried inside a [Result] have a zero Pos.
type Place struct {
	Name string
	Pos  Point
	Geo  LatLng
}

// Connection is an unordered traversable edge between two places, with
// each endpoint's geographic coordinate embedded for rendering.
type Connection struct {
	From    string
	To      string
	FromGeo LatLng
	ToGeo   LatLng
}

// Stop is one entry of the chosen route.
type Stop struct {
	Order       int      // 1-based position within the route
	Place       string   // place name
	NextMinutes *float64 // travel time to the next stop; nil for the final stop
	Geo         LatLng
}

// Result is a computed route plus the context needed to draw it.
type Result struct {
	Stops          []Stop       // chosen path, order-significant
	Connections    []Connection // every graph edge, for background rendering
	Places         []Place      // every place, for node rendering
	Cost           float64      // aggregate cost in minutes
	NodesExplored  int          // nodes expanded by the solver
	ComputeSeconds float64      // solver wall time
}

// StopFor returns the route stop visiting the named place.
// If a place is visited more than once the first visit wins.
func (r *Result) StopFor(name string) (Stop, bool) {
	if r == nil {
		return Stop{}, false
	}
	for _, s := range r.Stops {
		if s.Place == name {
			return s, true
		}
	}
	return Stop{}, false
}

// OnRoute reports whether the named place is one of the route stops.
func (r *Result) OnRoute(name string) bool {
	_, ok := r.StopFor(name)
	return ok
}

// Coordinates returns the geographic coordinates of the stops in route order.
func (r *Result) Coordinates() []LatLng {
	if r == nil {
		return nil
	}
	out := make([]LatLng, len(r.Stops))
	for i, s := range r.Stops {
		out[i] = s.Geo
	}
	return out
}

// Bound returns the smallest bound enclosing every stop.
// The zero bound is returned for a result without stops.
func (r *Result) Bound() orb.Bound {
	return BoundOf(r.Coordinates())
}

// BoundOf returns the smallest bound enclosing all coordinates.
func BoundOf(coords []LatLng) orb.Bound {
	if len(coords) == 0 {
		return orb.Bound{}
	}
	mp := make(orb.MultiPoint, len(coords))
	for i, c := range coords {
		mp[i] = c.Point()
	}
	return mp.Bound()
}

// Start returns the name of the first stop, or "" when the route is empty.
func (r *Result) Start() string {
	if r == nil || len(r.Stops) == 0 {
		return ""
	}
	return r.Stops[0].Place
}

// End returns the name of the last stop, or "" when the route is empty.
func (r *Result) End() string {
	if r == nil || len(r.Stops) == 0 {
		return ""
	}
	return r.Stops[len(r.Stops)-1].Place
}
