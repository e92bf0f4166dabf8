// Package fonts provides the font faces used to draw labels and glyphs on the
// schematic raster surface.
//
// The fonts are the Go fonts shipped with golang.org/x/image, compiled into
// the binary, so rendering needs no system fonts. Parsed fonts are cached;
// faces are created per size because a font.Face is not safe for concurrent
// use.
package fonts

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// FontFamily is the CSS font-family used by the SVG surface.
const FontFamily = "Go, Arial, Helvetica, sans-serif"

var (
	regular, bold *opentype.Font
	parseOnce     sync.Once
	parseErr      error
)

func parse() error {
	parseOnce.Do(func() {
		if regular, parseErr = opentype.Parse(goregular.TTF); parseErr != nil {
			return
		}
		bold, parseErr = opentype.Parse(gobold.TTF)
	})
	return parseErr
}

// Face returns a new face of the given size in points (72 DPI, so points
// equal pixels). Bold selects Go Bold instead of Go Regular.
func Face(size float64, isBold bool) (font.Face, error) {
	if err := parse(); err != nil {
		return nil, err
	}
	f := regular
	if isBold {
		f = bold
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}
