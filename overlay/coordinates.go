package overlay

import (
	"fmt"

	"github.com/jwt625/gdsjam-sub000/gds"
)

// Coordinates formats a cursor's world-space position for the readout
// overlay: micrometers, 3 decimal places, Y-corrected so the displayed
// value matches the document's own upward-Y convention rather than the
// screen's downward-Y one (spec.md §4.8).
type Coordinates struct {
	units gds.Units
}

// NewCoordinates builds a Coordinates formatter for a document's units.
func NewCoordinates(units gds.Units) Coordinates {
	return Coordinates{units: units}
}

// Format renders worldX, worldY (already in database units, Y increasing
// upward) as a "X: ..., Y: ..." µm label.
func (c Coordinates) Format(worldX, worldY float64) string {
	umPerDBUnit := c.units.ToMeters(1) * 1e6
	x := worldX * umPerDBUnit
	y := worldY * umPerDBUnit
	return fmt.Sprintf("X: %.3f um, Y: %.3f um", x, y)
}
