// Package overlay implements the non-geometry HUD elements drawn over the
// viewport: a dynamic grid, an adaptive scale bar, a coordinates readout,
// an FPS counter, and a minimap. Grounded on the teacher's fps.go widget
// and a trimmed-down version of its text-layout shape; the minimap reuses
// render.Renderer itself rather than any teacher sprite machinery.
package overlay

import "math"

// Grid computes dynamically spaced gridlines: the spacing is always a
// power of 10 (in world/database units) chosen so at least 10 lines are
// visible across the viewport (spec.md §4.8).
type Grid struct{}

// Line is one gridline position in world coordinates plus a flag for
// whether it is a "major" line (crosses world X=0 or Y=0).
type Line struct {
	Position float64
	Major    bool
}

// Spacing returns the world-unit spacing between gridlines for a visible
// world-space span of worldSpan units, the largest power of 10 that still
// yields at least minLines lines across that span.
func Spacing(worldSpan float64) float64 {
	const minLines = 10
	if worldSpan <= 0 {
		return 1
	}
	raw := worldSpan / minLines
	exp := math.Floor(math.Log10(raw))
	return math.Pow(10, exp)
}

// Lines returns every gridline position within [minWorld, maxWorld] at the
// given spacing, each flagged major if it crosses zero.
func Lines(minWorld, maxWorld, spacing float64) []Line {
	if spacing <= 0 {
		return nil
	}
	start := math.Ceil(minWorld/spacing) * spacing
	var out []Line
	for v := start; v <= maxWorld; v += spacing {
		out = append(out, Line{Position: v, Major: math.Abs(v) < spacing/1e6})
	}
	return out
}
