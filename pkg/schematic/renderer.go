package schematic

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// Summary reports what a Render call drew.
type Summary struct {
	Edges    int // context connections
	Segments int // directed route segments (each with one arrowhead)
	Nodes    int // node markers
	Skipped  int // places, connections or segments missing from the table
}

// Renderer paints route results onto a Surface using fixed schematic
// coordinates from a static table. It keeps no paint state between calls:
// every Render clears the surface first.
type Renderer struct {
	Table  *route.Table
	Theme  Theme
	Logger *log.Logger
}

// NewRenderer creates a renderer with the default theme.
// A nil table falls back to route.DefaultTable; a nil logger to log.Default.
func NewRenderer(table *route.Table, logger *log.Logger) *Renderer {
	if table == nil {
		table = route.DefaultTable()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{Table: table, Theme: DefaultTheme(), Logger: logger}
}

// Render repaints s from scratch. A nil result leaves only the background
// (idle state). Entries missing from the table are skipped silently.
func (r *Renderer) Render(s Surface, res *route.Result, start, end string) Summary {
	var sum Summary

	s.Clear()
	s.FillGradient(r.Theme.BackgroundFrom, r.Theme.BackgroundTo)
	if res == nil {
		return sum
	}

	r.drawEdges(s, res, &sum)
	r.drawRoute(s, res, &sum)
	r.drawNodes(s, res, start, end, &sum)

	r.Logger.Debug("rendered schematic",
		"edges", sum.Edges,
		"segments", sum.Segments,
		"nodes", sum.Nodes,
		"skipped", sum.Skipped)
	return sum
}

func (r *Renderer) drawEdges(s Surface, res *route.Result, sum *Summary) {
	for _, c := range res.Connections {
		a, okA := r.Table.Coord(c.From)
		b, okB := r.Table.Coord(c.To)
		if !okA || !okB {
			sum.Skipped++
			continue
		}
		s.StrokeLine(a, b, r.Theme.Edge)
		sum.Edges++
	}
}

func (r *Renderer) drawRoute(s Surface, res *route.Result, sum *Summary) {
	for i := 0; i+1 < len(res.Stops); i++ {
		a, okA := r.Table.Coord(res.Stops[i].Place)
		b, okB := r.Table.Coord(res.Stops[i+1].Place)
		if !okA || !okB {
			sum.Skipped++
			continue
		}
		s.StrokeLine(a, b, r.Theme.Route)
		head := Arrowhead(a, b, r.Theme.ArrowSize)
		s.FillPolygon(head[:], r.Theme.ArrowColor)
		sum.Segments++
	}
}

func (r *Renderer) drawNodes(s Surface, res *route.Result, start, end string, sum *Summary) {
	t := r.Theme
	for _, p := range res.Places {
		pos, ok := r.Table.Coord(p.Name)
		if !ok {
			sum.Skipped++
			continue
		}

		cat := route.Classify(res, p.Name, start, end)
		radius := t.radius(cat)
		s.Circle(pos, radius, CircleStyle{
			Fill:    t.Fill[cat],
			Outline: t.NodeOutline,
			Shadow:  t.NodeShadow,
		})

		y := pos.Y + radius + t.LabelGap
		for i, line := range WrapLabel(p.Name) {
			s.Text(line, route.Point{X: pos.X, Y: y + float64(i)*t.LineGap}, t.Label)
		}

		stop, _ := res.StopFor(p.Name)
		if g := Glyph(t, cat, stop); g != "" {
			s.Text(g, pos, t.Glyph)
		}
		sum.Nodes++
	}
}
