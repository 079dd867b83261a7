// Package gds parses a GDSII binary stream into an in-memory hierarchical
// Document (cells, polygons, instances, units, bounding boxes) and exposes
// the invariants the rest of the rendering core relies on: a cycle-free
// instance DAG, recursively-computed cell bounding boxes, and a stably
// ordered top-cell list with context cells excluded.
package gds

import (
	"sort"
	"strings"

	"github.com/jwt625/gdsjam-sub000/geom"
)

// Units records the two nested scale factors a GDSII library declares.
type Units struct {
	// DBPerUser is the size of one database unit in user units (GDSII UNITS
	// record, first value; e.g. 0.001 for a 1nm database unit in microns).
	DBPerUser float64
	// UserPerMeter is user units per meter (GDSII UNITS record, first value
	// divided by second value — see ToMeters).
	UserPerMeter float64
}

// ToMeters converts a length in database units to physical meters.
func (u Units) ToMeters(dbUnits float64) float64 {
	return dbUnits * u.DBPerUser / u.UserPerMeter
}

// Polygon is a single filled shape on one (layer, datatype) pair.
type Polygon struct {
	Layer    int
	Datatype int
	// Points holds >= 3 unique vertices; degenerate polygons are dropped at
	// parse time and never appear here (invariant, spec.md §3.3 / §8.7).
	Points []geom.Point
}

// PathType identifies the end-cap style of a PATH record (GDSII PATHTYPE).
type PathType int

const (
	PathTypeFlush    PathType = 0
	PathTypeRound    PathType = 1
	PathTypeExtended PathType = 2
)

// Path is the preserved centerline of a PATH record. The core does not
// widen paths into polygons (spec.md §9 Open Question); it only retains
// enough information for a shell-level widening pass to do so later.
type Path struct {
	Layer    int
	Datatype int
	Width    float64
	PathType PathType
	Points   []geom.Point
}

// Instance places another cell inside this one with an affine transform
// (GDSII SREF). Instances form a DAG rooted at the document's top cells;
// cycles are rejected during parsing (spec.md §3 invariant 2 / ParseError
// CYCLIC_REFERENCE).
type Instance struct {
	CellRef       string
	X, Y          float64
	RotationDeg   float64
	Mirror        bool
	Magnification float64
}

// Cell is a named reusable definition containing polygons and instances of
// other cells. Cells are owned by a Document and are immutable once parsed.
type Cell struct {
	Name      string
	Polygons  []Polygon
	Paths     []Path
	Instances []Instance

	// BoundingBox is the recursive bbox of this cell's own polygons plus
	// every transformed child-instance bbox, computed once after parsing
	// (spec.md §3 invariant 3).
	BoundingBox geom.Rect

	// SkipInMinimap is true when the cell is small in both dimensions
	// relative to the document (spec.md §4.1 "AND, not OR").
	SkipInMinimap bool

	isContext bool
}

// IsContext reports whether this is an auxiliary library cell (name starts
// with "$$$" or contains "CONTEXT_INFO"). Context cells are never rendered
// and are excluded from the referenced-set computation that determines top
// cells (spec.md §3 invariant 2, §4.1, §4.6).
func (c *Cell) IsContext() bool { return c.isContext }

func isContextCellName(name string) bool {
	return strings.HasPrefix(name, "$$$") || strings.Contains(name, "CONTEXT_INFO")
}

// Statistics accumulates parse-time counts used for the shell's non-modal
// status line (spec.md §7).
type Statistics struct {
	BoundaryRecords    int
	SREFRecords        int
	PathRecords        int
	BoxRecords         int
	ARefRecords        int
	TextRecords        int
	DegeneratePolygons int
	UsedFallbackParser bool
}

// Document is the immutable, fully-parsed result of Parse. Cells live with
// the Document for its lifetime; it is discarded wholesale when the shell
// loads a new file (spec.md §3 Lifecycles).
type Document struct {
	Units Units
	Cells map[string]*Cell
	// TopCells is stably ordered by first-seen cell name among cells not
	// referenced by any non-context cell (spec.md §4.1).
	TopCells []*Cell
	// OverallBBox is the union of all top cells' bounding boxes.
	OverallBBox geom.Rect
	Statistics  Statistics
}

// Cell looks up a cell by name, or returns (nil, false).
func (d *Document) Cell(name string) (*Cell, bool) {
	c, ok := d.Cells[name]
	return c, ok
}

// finalizeTopCells computes the referenced set over non-context cells and
// returns the complement, stably ordered by first appearance in insertion
// order (spec.md §4.1).
func finalizeTopCells(cells map[string]*Cell, order []string) ([]*Cell, error) {
	referenced := make(map[string]bool)
	for _, name := range order {
		c := cells[name]
		if c.isContext {
			continue
		}
		for _, inst := range c.Instances {
			referenced[inst.CellRef] = true
		}
	}

	var top []*Cell
	for _, name := range order {
		c := cells[name]
		if c.isContext {
			continue
		}
		if !referenced[name] {
			top = append(top, c)
		}
	}
	return top, nil
}

// computeBBoxesInDependencyOrder computes each cell's recursive bounding box
// in topological order (children before parents), returning CYCLIC_REFERENCE
// if the instance graph is not a DAG (spec.md §4.1 "Recursive bbox").
func computeBBoxesInDependencyOrder(cells map[string]*Cell, order []string) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(cells))

	var visit func(name string) error
	visit = func(name string) error {
		c, ok := cells[name]
		if !ok {
			return nil // dangling SNAME reference; tolerated, contributes no geometry
		}
		switch color[name] {
		case black:
			return nil
		case gray:
			return &ParseError{Stage: "bbox", Offset: -1, Cause: ErrCyclicReference}
		}
		color[name] = gray

		bbox := geom.EmptyRect()
		for _, p := range c.Polygons {
			bbox = bbox.Union(geom.HullOfPoints(p.Points))
		}
		for i := range c.Instances {
			inst := &c.Instances[i]
			if err := visit(inst.CellRef); err != nil {
				return err
			}
			child, ok := cells[inst.CellRef]
			if !ok || child.BoundingBox.IsEmpty() {
				continue
			}
			xf := instanceTransform(identityTransform(), inst)
			bbox = bbox.Union(xf.ApplyToRectHull(child.BoundingBox))
		}

		c.BoundingBox = bbox
		color[name] = black
		return nil
	}

	for _, name := range order {
		if err := visit(name); err != nil {
			return err
		}
	}
	return nil
}

// markSkipInMinimap applies the per-dimension AND rule (spec.md §4.1).
func markSkipInMinimap(cells map[string]*Cell, overall geom.Rect) {
	docW, docH := overall.Width(), overall.Height()
	if docW <= 0 || docH <= 0 {
		return
	}
	for _, c := range cells {
		if c.BoundingBox.IsEmpty() {
			continue
		}
		w, h := c.BoundingBox.Width(), c.BoundingBox.Height()
		c.SkipInMinimap = w < minimapSkipThreshold*docW && h < minimapSkipThreshold*docH
	}
}

// minimapSkipThreshold is spec.md §6 MINIMAP_SKIP_THRESHOLD.
const minimapSkipThreshold = 0.01

// sortedCellNames returns the keys of cells sorted for deterministic
// secondary use (e.g. debug dumps); the authoritative top-cell order comes
// from parse-time first-seen insertion order, not this.
func sortedCellNames(cells map[string]*Cell) []string {
	names := make([]string, 0, len(cells))
	for n := range cells {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
