package schematic

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// dotScale converts canvas pixels to Graphviz points.
const dotScale = 72.0

// ToDOT converts a route result to Graphviz DOT with every place pinned to
// its schematic coordinate. Route segments are drawn bold in the route color;
// context connections are grey. Places missing from the table are omitted.
func (r *Renderer) ToDOT(res *route.Result, start, end string) string {
	t := r.Theme
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  layout=neato;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=circle, style=filled, fontcolor=white, fixedsize=true, width=0.35, label=\"\"];\n")
	buf.WriteString("  edge [arrowsize=0.6];\n")
	if res == nil {
		buf.WriteString("}\n")
		return buf.String()
	}

	var h float64
	for _, p := range r.Table.Places() {
		h = max(h, p.Pos.Y)
	}

	buf.WriteString("\n")
	for _, p := range res.Places {
		pos, ok := r.Table.Coord(p.Name)
		if !ok {
			continue
		}
		cat := route.Classify(res, p.Name, start, end)
		stop, _ := res.StopFor(p.Name)
		attrs := []string{
			fmt.Sprintf("pos=\"%.2f,%.2f!\"", pos.X/dotScale, (h-pos.Y)/dotScale),
			fmt.Sprintf("fillcolor=%q", cssColor(t.Fill[cat])),
			fmt.Sprintf("xlabel=%q", strings.Join(WrapLabel(p.Name), "\n")),
			fmt.Sprintf("tooltip=%q", p.Name),
		}
		if g := Glyph(t, cat, stop); g != "" {
			attrs = append(attrs, fmt.Sprintf("label=%q", g))
		}
		if cat == route.CategoryStart || cat == route.CategoryEnd {
			attrs = append(attrs, "width=0.5")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", p.Name, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range res.Connections {
		if _, ok := r.Table.Coord(c.From); !ok {
			continue
		}
		if _, ok := r.Table.Coord(c.To); !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [dir=none, color=%q];\n", c.From, c.To, cssColor(t.Edge.Color))
	}
	for i := 0; i+1 < len(res.Stops); i++ {
		a, b := res.Stops[i].Place, res.Stops[i+1].Place
		if _, ok := r.Table.Coord(a); !ok {
			continue
		}
		if _, ok := r.Table.Coord(b); !ok {
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [color=%q, penwidth=3];\n", a, b, cssColor(t.Route.Color))
	}

	buf.WriteString("}\n")
	return buf.String()
}

// RenderDOTSVG renders a DOT graph produced by ToDOT to SVG with Graphviz,
// keeping pinned positions.
func RenderDOTSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
