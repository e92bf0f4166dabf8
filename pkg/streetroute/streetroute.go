// Package streetroute turns an ordered list of route stops into a
// street-following path drawn on the interactive map.
//
// A [Resolver] sends one request per resolution to a [Router] (the shipped
// implementation is [OSRM]) and draws the answer on a [Canvas]. When the
// router fails or rejects the request, the resolver falls back to a straight
// geodesic polyline through the stops and fits the viewport to them. There
// is no retry at this level.
//
// # Superseding
//
// Every Resolve call takes a token from a monotonically increasing counter.
// At completion the outcome is applied only if its token is still the most
// recent one; otherwise it is dropped and reported as superseded. The
// previous route overlay is released and replaced inside the completion,
// never at call time, so the last initiated resolution always owns the map.
package streetroute

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/paulmach/orb"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// MaxWaypoints is the routing provider's limit on intermediate stops.
const MaxWaypoints = 25

// ErrTooManyWaypoints is returned, without sending a request, when a route
// has more than MaxWaypoints intermediate stops.
var ErrTooManyWaypoints = stderrors.New("too many waypoints")

// TravelMode selects the routing profile.
type TravelMode string

const (
	ModeDriving   TravelMode = "driving"
	ModeWalking   TravelMode = "walking"
	ModeBicycling TravelMode = "bicycling"
)

// Waypoint is an intermediate location. A stopover splits the route into
// legs; a non-stopover only shapes the path.
type Waypoint struct {
	Location route.LatLng
	Stopover bool
}

// Request is one routing request.
type Request struct {
	Origin            route.LatLng
	Destination       route.LatLng
	Waypoints         []Waypoint
	Mode              TravelMode
	OptimizeWaypoints bool
}

// Directions is a routing answer.
type Directions struct {
	Path     orb.LineString
	Distance float64 // meters
	Duration time.Duration
}

// Router is the routing capability of the mapping provider.
type Router interface {
	Route(ctx context.Context, req Request) (*Directions, error)
}

// StatusError is returned when the provider answers with a non-OK status.
type StatusError struct {
	Status  string
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return "routing status " + e.Status
	}
	return fmt.Sprintf("routing status %s: %s", e.Status, e.Message)
}

// LineStyle styles a polyline on the map.
type LineStyle struct {
	Color    string
	Opacity  float64
	Weight   float64
	Geodesic bool
}

var (
	// RouteStyle draws a provider path.
	RouteStyle = LineStyle{Color: "#10b981", Opacity: 0.8, Weight: 6}
	// FallbackStyle draws the straight-line path through the stops.
	FallbackStyle = LineStyle{Color: "#10b981", Opacity: 1, Weight: 5, Geodesic: true}
)

// Canvas is the part of the live map scene the resolver draws on.
type Canvas interface {
	// ReplaceRoute releases the current route overlay, if any, and draws
	// path as the new one.
	ReplaceRoute(path orb.LineString, style LineStyle)
	// FitBounds adjusts the visible viewport to enclose b.
	FitBounds(b orb.Bound)
}

// Indicator shows the transient "resolving" state.
type Indicator interface {
	SetBusy(busy bool, msg string)
}

// BusyMessage is shown while a request is in flight.
const BusyMessage = "Tracing route along streets..."

// BuildRequest builds the request for stops, which must hold at least two
// entries. Intermediate stops become mandatory stopovers in their original
// order; waypoint optimization is always disabled.
func BuildRequest(stops []route.Stop, mode TravelMode) Request {
	req := Request{
		Origin:      stops[0].Geo,
		Destination: stops[len(stops)-1].Geo,
		Mode:        mode,
	}
	if len(stops) > 2 {
		req.Waypoints = make([]Waypoint, 0, len(stops)-2)
		for _, s := range stops[1 : len(stops)-1] {
			req.Waypoints = append(req.Waypoints, Waypoint{Location: s.Geo, Stopover: true})
		}
	}
	return req
}

// StraightPath returns the polyline through the stops in route order.
func StraightPath(stops []route.Stop) orb.LineString {
	ls := make(orb.LineString, len(stops))
	for i, s := range stops {
		ls[i] = s.Geo.Point()
	}
	return ls
}

// Offline is a Router that rejects every request, so every resolution
// falls back to the straight-line path.
type Offline struct{}

func (Offline) Route(context.Context, Request) (*Directions, error) {
	return nil, &StatusError{Status: "OFFLINE", Message: "street routing disabled"}
}
