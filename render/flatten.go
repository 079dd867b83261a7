package render

import (
	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/lod"
)

// InstanceBudgetShare is the fraction of a depth's polygon budget reserved
// for geometry reached through instances, as opposed to polygons owned
// directly by a rendered cell. Pinned as a constant rather than made
// depth-dependent (spec.md §9 Open Question; see DESIGN.md).
const InstanceBudgetShare = 0.30

// DirectBudgetShare is the complementary share for directly-owned polygons.
const DirectBudgetShare = 1 - InstanceBudgetShare

// progressYieldEvery is how often (in polygons processed) the flatten pass
// invokes its progress callback (spec.md §5 "progress yield every ~10,000
// polygons").
const progressYieldEvery = 10_000

// flattenState accumulates output and budget counters across the recursive
// hierarchy walk.
type flattenState struct {
	doc   *gds.Document
	view  geom.Affine // world-to-screen transform applied at emit time
	depth int

	directBudget   int
	instanceBudget int
	directUsed     int
	instanceUsed   int

	batches map[TileKey]*Batch

	polygonsProcessed int
	onProgress        func(int)
	cancelled         func() bool

	fillMode bool
	scale    float64

	skipCell func(*gds.Cell) bool

	visited map[string]bool // cycle guard during flatten, independent of parse-time check
}

// flattenResult is the output of a flatten pass.
type flattenResult struct {
	Batches       []Batch
	PolygonCount  int
	InstanceCount int
	Truncated     bool
}

// flatten walks the document's top cells (excluding context cells) down to
// maxDepth levels of instance recursion, composing transforms in the
// mirror->rotate->magnify->translate order gds.InstanceTransform enforces,
// and groups resulting screen-space polygons into per-tile batches.
func flatten(doc *gds.Document, view geom.Affine, maxDepth int, fillMode bool, scale float64, onProgress func(int), cancelled func() bool, skipCell func(*gds.Cell) bool) (*flattenResult, error) {
	budget := lod.BudgetForDepth(maxDepth)
	st := &flattenState{
		doc:            doc,
		view:           view,
		depth:          maxDepth,
		directBudget:   int(float64(budget) * DirectBudgetShare),
		instanceBudget: int(float64(budget) * InstanceBudgetShare),
		batches:        make(map[TileKey]*Batch),
		onProgress:     onProgress,
		cancelled:      cancelled,
		fillMode:       fillMode,
		scale:          scale,
		skipCell:       skipCell,
		visited:        make(map[string]bool),
	}

	for _, c := range doc.TopCells {
		if c.IsContext() || st.skipCell != nil && st.skipCell(c) {
			continue
		}
		if err := st.walkCell(c, geom.Identity, 0); err != nil {
			return nil, err
		}
	}

	out := &flattenResult{
		PolygonCount:  st.directUsed + st.instanceUsed,
		InstanceCount: st.instanceUsed,
		Truncated:     st.directUsed >= st.directBudget || st.instanceUsed >= st.instanceBudget,
	}
	for _, b := range st.batches {
		out.Batches = append(out.Batches, *b)
	}
	return out, nil
}

// ErrCancelledRender is returned by Render when its cancellation callback
// reports true mid-flatten.
var ErrCancelledRender = errCancelled{}

type errCancelled struct{}

func (errCancelled) Error() string { return "render: cancelled" }

func (st *flattenState) walkCell(c *gds.Cell, transform geom.Affine, depth int) error {
	if st.cancelled != nil && st.cancelled() {
		return ErrCancelledRender
	}
	if st.visited[c.Name] {
		return nil // defensive cycle guard; Parse already rejects true cycles
	}
	st.visited[c.Name] = true
	defer delete(st.visited, c.Name)

	budgetName := &st.directUsed
	if depth > 0 {
		// Polygons reached only via at least one instance hop count against
		// the instance share, not the direct share (spec.md §9 pinned split).
		budgetName = &st.instanceUsed
	}

	for _, p := range c.Polygons {
		if *budgetName >= st.directBudgetFor(depth) {
			break
		}
		st.emitPolygon(p, transform)
		*budgetName++
		st.polygonsProcessed++
		if st.onProgress != nil && st.polygonsProcessed%progressYieldEvery == 0 {
			st.onProgress(st.polygonsProcessed)
		}
	}

	if depth >= st.depth {
		return nil
	}
	for i := range c.Instances {
		inst := &c.Instances[i]
		child, ok := st.doc.Cell(inst.CellRef)
		if !ok || child.IsContext() || st.skipCell != nil && st.skipCell(child) {
			continue
		}
		childTransform := gds.InstanceTransform(transform, inst)
		if err := st.walkCell(child, childTransform, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (st *flattenState) directBudgetFor(depth int) int {
	if depth == 0 {
		return st.directBudget
	}
	return st.instanceBudget
}

func (st *flattenState) emitPolygon(p gds.Polygon, transform geom.Affine) {
	bbox := geom.HullOfPoints(p.Points)
	key := TileKeyFor(p.Layer, p.Datatype, transform.ApplyToRectHull(bbox))
	screen := st.view.Mul(transform)

	screenPts := make([]float64, 0, len(p.Points)*2)
	for _, pt := range p.Points {
		x, y := screen.Apply(pt.X, pt.Y)
		screenPts = append(screenPts, x, y)
	}

	b, ok := st.batches[key]
	if !ok {
		b = &Batch{Key: key}
		st.batches[key] = b
	}
	b.Polygons = append(b.Polygons, screenPts)
}
