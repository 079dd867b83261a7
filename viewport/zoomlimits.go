// Package viewport holds the pan/zoom affine state of the GDSII view
// (ZoomLimits, Manager) — grounded directly on the teacher's camera.go
// view-matrix math, generalized to the Y-axis-flip and scale-bar-derived
// zoom bounds this domain requires.
package viewport

import (
	"math"

	"github.com/jwt625/gdsjam-sub000/gds"
)

// Scale-bar bounds (spec.md §4.3): the physical length represented by one
// screen pixel is never allowed outside [1 nanometer, 1 meter]. Below the
// lower bound the scale bar would read sub-nanometer, which no GDSII
// geometry can usefully resolve; above the upper bound panning becomes
// imprecise and the scale bar would read in kilometers.
const (
	minPhysicalPerPixelMeters = 1e-9
	maxPhysicalPerPixelMeters = 1.0
)

// ZoomLimits is a stateless function of a document's Units: the smallest
// and largest screen-pixels-per-database-unit scale factor that keep the
// physical-length-per-pixel within the scale bar's representable range.
type ZoomLimits struct {
	metersPerDBUnit float64
}

// NewZoomLimits derives limits from a document's declared units.
func NewZoomLimits(units gds.Units) ZoomLimits {
	return ZoomLimits{metersPerDBUnit: units.ToMeters(1)}
}

// MinScale is the most-zoomed-out allowed scale (screen px per db unit),
// corresponding to 1 meter of physical length per screen pixel.
func (z ZoomLimits) MinScale() float64 {
	if z.metersPerDBUnit <= 0 {
		return 1e-12
	}
	return z.metersPerDBUnit / maxPhysicalPerPixelMeters
}

// MaxScale is the most-zoomed-in allowed scale (screen px per db unit),
// corresponding to 1 nanometer of physical length per screen pixel.
func (z ZoomLimits) MaxScale() float64 {
	if z.metersPerDBUnit <= 0 {
		return 1e12
	}
	return z.metersPerDBUnit / minPhysicalPerPixelMeters
}

// Clamp restricts newScale to [MinScale(), MaxScale()].
func (z ZoomLimits) Clamp(newScale float64) float64 {
	lo, hi := z.MinScale(), z.MaxScale()
	if lo > hi {
		lo, hi = hi, lo
	}
	return math.Max(lo, math.Min(newScale, hi))
}
