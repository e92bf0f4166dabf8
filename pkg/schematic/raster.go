package schematic

import (
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/pampasroute/pkg/fonts"
	"github.com/matzehuels/pampasroute/pkg/route"
)

// Raster is a Surface backed by an in-memory RGBA image. It is not safe for
// concurrent use.
type Raster struct {
	dc    *gg.Context
	faces map[faceKey]font.Face
	err   error
}

type faceKey struct {
	size float64
	bold bool
}

var _ Surface = (*Raster)(nil)

// NewRaster creates a transparent raster surface of w×h pixels.
func NewRaster(w, h int) *Raster {
	return &Raster{
		dc:    gg.NewContext(w, h),
		faces: make(map[faceKey]font.Face),
	}
}

// Size implements Surface.
func (r *Raster) Size() (w, h float64) {
	return float64(r.dc.Width()), float64(r.dc.Height())
}

// Clear implements Surface.
func (r *Raster) Clear() {
	r.dc.SetColor(color.Transparent)
	r.dc.Clear()
}

// FillGradient implements Surface.
func (r *Raster) FillGradient(from, to color.Color) {
	w, h := r.Size()
	g := gg.NewLinearGradient(0, 0, w, h)
	g.AddColorStop(0, from)
	g.AddColorStop(1, to)
	r.dc.SetFillStyle(g)
	r.dc.DrawRectangle(0, 0, w, h)
	r.dc.Fill()
}

// StrokeLine implements Surface.
func (r *Raster) StrokeLine(a, b route.Point, s Stroke) {
	r.dc.SetLineCap(gg.LineCapRound)
	r.dc.SetLineWidth(s.Width)
	r.dc.SetColor(s.Color)
	r.dc.DrawLine(a.X, a.Y, b.X, b.Y)
	r.dc.Stroke()
}

// FillPolygon implements Surface.
func (r *Raster) FillPolygon(pts []route.Point, c color.Color) {
	if len(pts) < 3 {
		return
	}
	r.dc.NewSubPath()
	r.dc.MoveTo(pts[0].X, pts[0].Y)
	for _, p := range pts[1:] {
		r.dc.LineTo(p.X, p.Y)
	}
	r.dc.ClosePath()
	r.dc.SetColor(c)
	r.dc.Fill()
}

// Circle implements Surface. The shadow blur is approximated with
// concentric translucent discs.
func (r *Raster) Circle(center route.Point, radius float64, style CircleStyle) {
	if sh := style.Shadow; sh.Color != nil {
		cr, cg, cb, ca := sh.Color.RGBA()
		steps := int(sh.Blur)
		if steps < 1 {
			steps = 1
		}
		for i := steps; i >= 1; i-- {
			alpha := float64(ca) / 0xffff / float64(steps)
			r.dc.SetRGBA(float64(cr)/0xffff, float64(cg)/0xffff, float64(cb)/0xffff, alpha)
			r.dc.DrawCircle(center.X+sh.OffsetX, center.Y+sh.OffsetY, radius+float64(i)/2)
			r.dc.Fill()
		}
	}

	r.dc.DrawCircle(center.X, center.Y, radius)
	r.dc.SetColor(style.Fill)
	r.dc.FillPreserve()
	if style.Outline.Width > 0 {
		r.dc.SetLineWidth(style.Outline.Width)
		r.dc.SetColor(style.Outline.Color)
		r.dc.Stroke()
		return
	}
	r.dc.ClearPath()
}

// Text implements Surface. Font errors are recorded and reported by Err;
// the text is skipped.
func (r *Raster) Text(s string, at route.Point, style TextStyle) {
	face, err := r.face(style)
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.dc.SetFontFace(face)
	r.dc.SetColor(style.Color)
	r.dc.DrawStringAnchored(s, at.X, at.Y, 0.5, 0.5)
}

func (r *Raster) face(style TextStyle) (font.Face, error) {
	key := faceKey{size: style.Size, bold: style.Bold}
	if f, ok := r.faces[key]; ok {
		return f, nil
	}
	f, err := fonts.Face(style.Size, style.Bold)
	if err != nil {
		return nil, err
	}
	r.faces[key] = f
	return f, nil
}

// Err returns the first error met while drawing text.
func (r *Raster) Err() error { return r.err }

// Image returns the painted image.
func (r *Raster) Image() image.Image { return r.dc.Image() }

// EncodePNG writes the surface as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if r.err != nil {
		return r.err
	}
	return r.dc.EncodePNG(w)
}
