package schematic

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/matzehuels/pampasroute/pkg/route"
)

const (
	maxLabelRunes = 25
	ellipsis      = "..."
)

// Midpoint returns the arithmetic mean of a and b.
func Midpoint(a, b route.Point) route.Point {
	return route.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Angle returns the direction of travel from a to b, atan2(dy, dx).
func Angle(a, b route.Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// Arrowhead returns the triangle drawn at the midpoint of the segment a→b.
// The tip sits on the midpoint and points along the direction of travel;
// the base lies size units behind it and is size wide.
func Arrowhead(a, b route.Point, size float64) [3]route.Point {
	mid := Midpoint(a, b)
	angle := Angle(a, b)
	sin, cos := math.Sincos(angle)

	local := [3]route.Point{
		{X: 0, Y: 0},
		{X: -size, Y: -size / 2},
		{X: -size, Y: size / 2},
	}
	var out [3]route.Point
	for i, p := range local {
		out[i] = route.Point{
			X: mid.X + p.X*cos - p.Y*sin,
			Y: mid.Y + p.X*sin + p.Y*cos,
		}
	}
	return out
}

// WrapLabel splits a place name into label lines.
//
// Names longer than 25 characters are truncated and suffixed with "...".
// The result is split on whitespace: more than three words become exactly
// two lines (the first two words, then the rest); otherwise each word gets
// its own line.
func WrapLabel(name string) []string {
	if utf8.RuneCountInString(name) > maxLabelRunes {
		name = string([]rune(name)[:maxLabelRunes]) + ellipsis
	}
	words := strings.Fields(name)
	if len(words) > 3 {
		return []string{
			strings.Join(words[:2], " "),
			strings.Join(words[2:], " "),
		}
	}
	return words
}

// Glyph returns the mark drawn inside a node: the start or end mark, the
// stop's order index for intermediate route stops, and "" otherwise.
func Glyph(t Theme, c route.Category, stop route.Stop) string {
	switch c {
	case route.CategoryStart:
		return t.StartMark
	case route.CategoryEnd:
		return t.EndMark
	case route.CategoryOnRoute:
		return strconv.Itoa(stop.Order)
	default:
		return ""
	}
}
