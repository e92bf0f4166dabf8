// Package overlay draws a route result on an interactive geographic map.
//
// The map itself is a port ([Map], opened through a [Provider]); the shipped
// implementation is [MemoryMap], which keeps objects in memory and exports
// them as GeoJSON for the HTTP preview.
//
// A [Scene] owns every object currently on the map: one marker per place,
// one line per connection and at most one route overlay. [Manager.Render]
// releases the previous scene before drawing a new one, so repeated renders
// never accumulate objects.
package overlay

import (
	"context"

	"github.com/paulmach/orb"

	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

// DefaultCenter and DefaultZoom frame the town of Pampas, Tayacaja.
var DefaultCenter = route.LatLng{Lat: -12.3958, Lng: -74.8708}

const DefaultZoom = 13

// LineKind tells connection lines from the route overlay.
type LineKind string

const (
	KindConnection LineKind = "connection"
	KindRoute      LineKind = "route"
)

// Marker is a point marker with a colored dot icon and a short label.
type Marker struct {
	Position route.LatLng
	Title    string // tooltip, the place name
	Label    string // start/end mark, stop order or empty
	Info     string // info window content
	Icon     string // dot color, e.g. "blue"
	Category route.Category
}

// Polyline is a line on the map.
type Polyline struct {
	Path  orb.LineString
	Style streetroute.LineStyle
	Kind  LineKind
}

// Map is an initialized mapping surface. Implementations must be safe for
// concurrent use.
type Map interface {
	AddMarker(m Marker) string
	AddPolyline(p Polyline) string
	Remove(id string)
	FitBounds(b orb.Bound)
	// Count returns the number of live objects.
	Count() int
}

// Provider initializes a mapping surface.
type Provider interface {
	Open(ctx context.Context, center route.LatLng, zoom int) (Map, error)
}

// ConnectionStyle draws context connections.
var ConnectionStyle = streetroute.LineStyle{Color: "#d1d5db", Opacity: 0.4, Weight: 2, Geodesic: true}

// Marks holds the marker labels of the route endpoints.
type Marks struct {
	Start string
	End   string
}

// DefaultMarks are the start and end labels.
var DefaultMarks = Marks{Start: "🚩", End: "🎯"}

// Icon returns the dot color of a category.
func Icon(c route.Category) string {
	switch c {
	case route.CategoryStart:
		return "blue"
	case route.CategoryEnd:
		return "red"
	case route.CategoryOnRoute:
		return "green"
	default:
		return "grey"
	}
}

// IconColor returns the CSS color of a dot icon.
func IconColor(icon string) string {
	switch icon {
	case "blue":
		return "#3b82f6"
	case "red":
		return "#ef4444"
	case "green":
		return "#10b981"
	default:
		return "#6b7280"
	}
}
