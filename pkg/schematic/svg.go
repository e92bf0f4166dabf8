package schematic

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"image/color"
	"strings"

	"github.com/matzehuels/pampasroute/pkg/fonts"
	"github.com/matzehuels/pampasroute/pkg/route"
)

// SVG is a Surface that records drawing calls as SVG elements.
type SVG struct {
	w, h    float64
	body    bytes.Buffer
	shadows map[Shadow]string
	defs    bytes.Buffer
	grads   int
}

var _ Surface = (*SVG)(nil)

// NewSVG creates an empty SVG surface of w×h pixels.
func NewSVG(w, h float64) *SVG {
	return &SVG{w: w, h: h, shadows: make(map[Shadow]string)}
}

// Size implements Surface.
func (s *SVG) Size() (w, h float64) { return s.w, s.h }

// Clear implements Surface.
func (s *SVG) Clear() {
	s.body.Reset()
	s.defs.Reset()
	clear(s.shadows)
	s.grads = 0
}

// FillGradient implements Surface.
func (s *SVG) FillGradient(from, to color.Color) {
	s.grads++
	id := fmt.Sprintf("bg%d", s.grads)
	fmt.Fprintf(&s.defs, `    <linearGradient id="%s" x1="0" y1="0" x2="1" y2="1">`+"\n", id)
	fmt.Fprintf(&s.defs, `      <stop offset="0" stop-color="%s"/>`+"\n", cssColor(from))
	fmt.Fprintf(&s.defs, `      <stop offset="1" stop-color="%s"/>`+"\n", cssColor(to))
	s.defs.WriteString("    </linearGradient>\n")
	fmt.Fprintf(&s.body, `  <rect x="0" y="0" width="%.1f" height="%.1f" fill="url(#%s)"/>`+"\n", s.w, s.h, id)
}

// StrokeLine implements Surface.
func (s *SVG) StrokeLine(a, b route.Point, st Stroke) {
	fmt.Fprintf(&s.body, `  <line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="%s"%s stroke-width="%.1f" stroke-linecap="round"/>`+"\n",
		a.X, a.Y, b.X, b.Y, cssColor(st.Color), opacityAttr("stroke-opacity", st.Color), st.Width)
}

// FillPolygon implements Surface.
func (s *SVG) FillPolygon(pts []route.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	coords := make([]string, len(pts))
	for i, p := range pts {
		coords[i] = fmt.Sprintf("%.1f,%.1f", p.X, p.Y)
	}
	fmt.Fprintf(&s.body, `  <polygon points="%s" fill="%s"%s/>`+"\n",
		strings.Join(coords, " "), cssColor(c), opacityAttr("fill-opacity", c))
}

// Circle implements Surface.
func (s *SVG) Circle(center route.Point, r float64, style CircleStyle) {
	filter := ""
	if style.Shadow.Color != nil {
		filter = fmt.Sprintf(` filter="url(#%s)"`, s.shadowID(style.Shadow))
	}
	stroke := ""
	if style.Outline.Width > 0 {
		stroke = fmt.Sprintf(` stroke="%s" stroke-width="%.1f"`, cssColor(style.Outline.Color), style.Outline.Width)
	}
	fmt.Fprintf(&s.body, `  <circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s"%s%s/>`+"\n",
		center.X, center.Y, r, cssColor(style.Fill), stroke, filter)
}

func (s *SVG) shadowID(sh Shadow) string {
	if id, ok := s.shadows[sh]; ok {
		return id
	}
	id := fmt.Sprintf("shadow%d", len(s.shadows)+1)
	s.shadows[sh] = id
	_, _, _, a := sh.Color.RGBA()
	fmt.Fprintf(&s.defs, `    <filter id="%s" x="-50%%" y="-50%%" width="200%%" height="200%%">`+"\n", id)
	fmt.Fprintf(&s.defs, `      <feDropShadow dx="%.1f" dy="%.1f" stdDeviation="%.1f" flood-color="%s" flood-opacity="%.2f"/>`+"\n",
		sh.OffsetX, sh.OffsetY, sh.Blur/2, cssColor(sh.Color), float64(a)/0xffff)
	s.defs.WriteString("    </filter>\n")
	return id
}

// Text implements Surface.
func (s *SVG) Text(str string, at route.Point, style TextStyle) {
	weight := "normal"
	if style.Bold {
		weight = "bold"
	}
	fmt.Fprintf(&s.body, `  <text x="%.1f" y="%.1f" text-anchor="middle" dominant-baseline="central" font-family="%s" font-size="%.0f" font-weight="%s" fill="%s">%s</text>`+"\n",
		at.X, at.Y, fonts.FontFamily, style.Size, weight, cssColor(style.Color), escapeXML(str))
}

// Bytes returns the complete SVG document.
func (s *SVG) Bytes() []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f">`+"\n",
		s.w, s.h, s.w, s.h)
	if s.defs.Len() > 0 {
		buf.WriteString("  <defs>\n")
		buf.Write(s.defs.Bytes())
		buf.WriteString("  </defs>\n")
	}
	buf.Write(s.body.Bytes())
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func cssColor(c color.Color) string {
	if c == nil {
		return "none"
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02x%02x%02x", n.R, n.G, n.B)
}

func opacityAttr(name string, c color.Color) string {
	if c == nil {
		return ""
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if n.A == 0xff {
		return ""
	}
	return fmt.Sprintf(` %s="%.2f"`, name, float64(n.A)/0xff)
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
