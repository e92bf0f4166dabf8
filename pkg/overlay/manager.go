package overlay

import (
	"context"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/paulmach/orb"

	"github.com/matzehuels/pampasroute/pkg/observability"
	"github.com/matzehuels/pampasroute/pkg/route"
	"github.com/matzehuels/pampasroute/pkg/streetroute"
)

// Manager draws route results on a scene and delegates the route overlay
// to a street resolver.
type Manager struct {
	Scene    *Scene
	Resolver *streetroute.Resolver
	Marks    Marks
	Logger   *log.Logger
}

// NewManager creates a manager whose resolver draws on the same scene.
func NewManager(scene *Scene, router streetroute.Router, ind streetroute.Indicator, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		Scene:    scene,
		Resolver: streetroute.NewResolver(router, scene, ind, logger),
		Marks:    DefaultMarks,
		Logger:   logger,
	}
}

// Render replaces the scene with r: one line per connection, one marker per
// place, then a street route resolution when the route has more than one
// stop. It returns the resolution task, or nil when none was started.
//
// Pending resolutions are superseded before the scene is released, so none
// of them can draw into the new scene.
func (m *Manager) Render(ctx context.Context, r *route.Result, start, end string) *streetroute.Task {
	began := time.Now()
	m.Resolver.Invalidate()
	m.Scene.Release()
	if r == nil {
		return nil
	}

	for _, c := range r.Connections {
		m.Scene.AddLine(orb.LineString{c.FromGeo.Point(), c.ToGeo.Point()}, ConnectionStyle)
	}
	for _, p := range r.Places {
		m.Scene.AddMarker(m.marker(r, p, start, end))
	}

	observability.Route().OnRender(ctx, "overlay", len(r.Places), time.Since(began))
	m.Logger.Debug("rendered overlay",
		"markers", len(r.Places),
		"connections", len(r.Connections),
		"stops", len(r.Stops))

	if len(r.Stops) < 2 {
		return nil
	}
	return m.Resolver.Resolve(ctx, r.Stops)
}

func (m *Manager) marker(r *route.Result, p route.Place, start, end string) Marker {
	cat := route.Classify(r, p.Name, start, end)
	var label string
	switch cat {
	case route.CategoryStart:
		label = m.Marks.Start
	case route.CategoryEnd:
		label = m.Marks.End
	case route.CategoryOnRoute:
		stop, _ := r.StopFor(p.Name)
		label = strconv.Itoa(stop.Order)
	}
	return Marker{
		Position: p.Geo,
		Title:    p.Name,
		Label:    label,
		Info:     p.Name,
		Icon:     Icon(cat),
		Category: cat,
	}
}
