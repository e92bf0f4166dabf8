package schematic

import (
	"image/color"

	"github.com/matzehuels/pampasroute/pkg/route"
)

// Theme holds the colors and sizes of the schematic. Only the start/end
// radius distinction and the category colors carry meaning; everything else
// is presentation.
type Theme struct {
	BackgroundFrom color.Color
	BackgroundTo   color.Color

	Edge  Stroke // context connections
	Route Stroke // chosen route segments

	ArrowColor color.Color
	ArrowSize  float64 // length of the arrowhead along the segment

	NodeRadius     float64
	EndpointRadius float64 // start and end nodes
	NodeOutline    Stroke
	NodeShadow     Shadow
	Fill           map[route.Category]color.Color

	Label     TextStyle
	LineGap   float64 // vertical distance between label lines
	LabelGap  float64 // distance from the node edge to the first label line
	Glyph     TextStyle
	StartMark string
	EndMark   string
}

func hex(v uint32) color.RGBA {
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// DefaultTheme returns the palette of the Pampas tourist map.
func DefaultTheme() Theme {
	green := hex(0x10b981)
	return Theme{
		BackgroundFrom: hex(0xf0fdf4),
		BackgroundTo:   hex(0xe0f2fe),

		Edge:  Stroke{Width: 2, Color: hex(0xd1d5db)},
		Route: Stroke{Width: 5, Color: green},

		ArrowColor: green,
		ArrowSize:  10,

		NodeRadius:     12,
		EndpointRadius: 18,
		NodeOutline:    Stroke{Width: 3, Color: color.White},
		NodeShadow: Shadow{
			Color:   color.RGBA{A: 0x33},
			Blur:    5,
			OffsetX: 2,
			OffsetY: 2,
		},
		Fill: map[route.Category]color.Color{
			route.CategoryStart:   hex(0x3b82f6),
			route.CategoryEnd:     hex(0xef4444),
			route.CategoryOnRoute: green,
			route.CategoryDefault: hex(0x6b7280),
		},

		Label:     TextStyle{Size: 11, Bold: true, Color: hex(0x1f2937)},
		LineGap:   12,
		LabelGap:  10,
		Glyph:     TextStyle{Size: 14, Bold: true, Color: color.White},
		StartMark: "►",
		EndMark:   "■",
	}
}

// radius returns the marker radius for a category.
func (t Theme) radius(c route.Category) float64 {
	if c == route.CategoryStart || c == route.CategoryEnd {
		return t.EndpointRadius
	}
	return t.NodeRadius
}
