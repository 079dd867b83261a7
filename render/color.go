package render

import (
	"image/color"
	"math"
)

// LayerColor deterministically derives a fill color for a (layer, datatype)
// pair: hue = (137*layer + 53*datatype) mod 360 (spec.md §4.6), fixed
// saturation (0.65) and value (0.95) so colors stay visually distinguishable across
// the full layer range without a user-provided palette.
func LayerColor(layer, datatype int) color.RGBA {
	hue := float64(((137*layer+53*datatype)%360 + 360) % 360)
	r, g, b := hsvToRGB(hue, 0.65, 0.95)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

func hsvToRGB(h, s, v float64) (r, g, b uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var rf, gf, bf float64
	switch {
	case h < 60:
		rf, gf, bf = c, x, 0
	case h < 120:
		rf, gf, bf = x, c, 0
	case h < 180:
		rf, gf, bf = 0, c, x
	case h < 240:
		rf, gf, bf = 0, x, c
	case h < 300:
		rf, gf, bf = x, 0, c
	default:
		rf, gf, bf = c, 0, x
	}

	return uint8((rf + m) * 255), uint8((gf + m) * 255), uint8((bf + m) * 255)
}

// strokeWidthForScale returns the stroke width in world (database) units
// that renders as exactly outlinePixelWidth screen pixels at the given
// screen-pixels-per-dbunit scale (spec.md §4.6 "2 screen-px stroke width
// via effectiveScale").
const outlinePixelWidth = 2.0

func strokeWidthForScale(scale float64) float64 {
	if scale <= 0 {
		return 0
	}
	return outlinePixelWidth / scale
}
