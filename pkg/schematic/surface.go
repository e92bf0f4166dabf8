package schematic

import (
	"image/color"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// Stroke describes a line: width in pixels and color.
type Stroke struct {
	Width float64
	Color color.Color
}

// Shadow is a drop shadow offset from the shape it belongs to.
// A nil Color disables the shadow.
type Shadow struct {
	Color            color.Color
	Blur             float64
	OffsetX, OffsetY float64
}

// CircleStyle styles a node marker.
type CircleStyle struct {
	Fill    color.Color
	Outline Stroke
	Shadow  Shadow
}

// TextStyle styles a label or glyph. Text is centered on its anchor point.
type TextStyle struct {
	Size  float64
	Bold  bool
	Color color.Color
}

// Surface is the 2D drawing surface the Renderer paints on.
//
// Implementations:
//   - [Raster]: PNG output through fogleman/gg
//   - [SVG]: standalone SVG document
//
// Coordinates are canvas pixels with Y growing downwards.
type Surface interface {
	// Size returns the surface dimensions.
	Size() (w, h float64)
	// Clear erases everything painted so far.
	Clear()
	// FillGradient paints the whole surface with a diagonal gradient
	// from the top-left corner to the bottom-right corner.
	FillGradient(from, to color.Color)
	// StrokeLine draws a straight line with round caps.
	StrokeLine(a, b route.Point, s Stroke)
	// FillPolygon fills a closed polygon.
	FillPolygon(pts []route.Point, c color.Color)
	// Circle draws a filled, outlined circle with an optional shadow.
	Circle(center route.Point, r float64, style CircleStyle)
	// Text draws s centered horizontally and vertically on at.
	Text(s string, at route.Point, style TextStyle)
}
