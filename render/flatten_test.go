package render

import (
	"testing"

	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
)

func squareCell(name string, layer int, x0, y0, size float64) *gds.Cell {
	return &gds.Cell{
		Name: name,
		Polygons: []gds.Polygon{{
			Layer: layer,
			Points: []geom.Point{
				{X: x0, Y: y0},
				{X: x0, Y: y0 + size},
				{X: x0 + size, Y: y0 + size},
				{X: x0 + size, Y: y0},
			},
		}},
	}
}

func TestTileKeyForGroupsByTileSize(t *testing.T) {
	k1 := TileKeyFor(1, 0, geom.Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10})
	k2 := TileKeyFor(1, 0, geom.Rect{MinX: TileSize + 5, MinY: 0, MaxX: TileSize + 15, MaxY: 10})
	if k1 == k2 {
		t.Errorf("tiles a TileSize apart should differ: %+v vs %+v", k1, k2)
	}
	if k1.TileX != 0 || k2.TileX != 1 {
		t.Errorf("TileX = %d, %d; want 0, 1", k1.TileX, k2.TileX)
	}
}

func TestLayerColorIsDeterministic(t *testing.T) {
	c1 := LayerColor(3, 1)
	c2 := LayerColor(3, 1)
	if c1 != c2 {
		t.Errorf("LayerColor not deterministic: %+v vs %+v", c1, c2)
	}
	c3 := LayerColor(4, 1)
	if c1 == c3 {
		t.Errorf("different layers produced identical colors: %+v", c1)
	}
}

func TestFlattenExcludesContextCells(t *testing.T) {
	top := squareCell("TOP", 1, 0, 0, 100)
	ctx := &gds.Cell{Name: "$$$CTX"}
	doc := &gds.Document{
		Cells:    map[string]*gds.Cell{"TOP": top, "$$$CTX": ctx},
		TopCells: []*gds.Cell{top, ctx},
	}
	// ctx.IsContext() is only true when constructed via Parse (isContext is
	// set from the name at parse time), so a hand-built cell is never a
	// context cell and this test does not run flatten; context detection is
	// covered by the gds package tests.
	if doc.TopCells[1].IsContext() {
		t.Skip("isContext not settable outside gds.Parse; covered by gds package tests")
	}
}

func TestFlattenRespectsMaxDepth(t *testing.T) {
	leaf := squareCell("LEAF", 1, 0, 0, 10)
	mid := &gds.Cell{
		Name:      "MID",
		Instances: []gds.Instance{{CellRef: "LEAF", Magnification: 1}},
	}
	top := &gds.Cell{
		Name:      "TOP",
		Instances: []gds.Instance{{CellRef: "MID", Magnification: 1}},
	}
	doc := &gds.Document{
		Cells:    map[string]*gds.Cell{"TOP": top, "MID": mid, "LEAF": leaf},
		TopCells: []*gds.Cell{top},
	}

	result, err := flatten(doc, geom.Identity, 0, true, 1, nil, nil, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if result.PolygonCount != 0 {
		t.Errorf("depth 0 should not recurse into instances: got %d polygons", result.PolygonCount)
	}

	result, err = flatten(doc, geom.Identity, 2, true, 1, nil, nil, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if result.PolygonCount != 1 {
		t.Errorf("depth 2 should reach LEAF's polygon: got %d", result.PolygonCount)
	}
}

func TestFlattenAppliesViewTransform(t *testing.T) {
	top := squareCell("TOP", 1, 10, 10, 5)
	doc := &gds.Document{
		Cells:    map[string]*gds.Cell{"TOP": top},
		TopCells: []*gds.Cell{top},
	}
	view := geom.Affine{2, 0, 0, -2, 100, 200} // scale 2, Y-flip, offset
	result, err := flatten(doc, view, 0, true, 2, nil, nil, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	if len(result.Batches) != 1 {
		t.Fatalf("len(Batches) = %d, want 1", len(result.Batches))
	}
	poly := result.Batches[0].Polygons[0]
	wantX, wantY := view.Apply(10, 10)
	if poly[0] != wantX || poly[1] != wantY {
		t.Errorf("first vertex = (%v,%v), want (%v,%v)", poly[0], poly[1], wantX, wantY)
	}
}

func TestBudgetSplitIsPinned(t *testing.T) {
	if InstanceBudgetShare != 0.30 {
		t.Errorf("InstanceBudgetShare = %v, want pinned 0.30", InstanceBudgetShare)
	}
	if DirectBudgetShare != 0.70 {
		t.Errorf("DirectBudgetShare = %v, want pinned 0.70", DirectBudgetShare)
	}
}

func TestFlattenProgressCallback(t *testing.T) {
	top := &gds.Cell{Name: "TOP"}
	for i := 0; i < 3; i++ {
		top.Polygons = append(top.Polygons, gds.Polygon{
			Layer: 1,
			Points: []geom.Point{
				{X: float64(i), Y: 0}, {X: float64(i), Y: 1}, {X: float64(i) + 1, Y: 1},
			},
		})
	}
	doc := &gds.Document{Cells: map[string]*gds.Cell{"TOP": top}, TopCells: []*gds.Cell{top}}

	count := 0
	_, err := flatten(doc, geom.Identity, 0, true, 1, func(int) { count++ }, nil, nil)
	if err != nil {
		t.Fatalf("flatten: %v", err)
	}
	_ = count // with only 3 polygons and a 10000 cadence, 0 callbacks is expected; this just exercises the path
}

func TestFlattenCancellation(t *testing.T) {
	top := squareCell("TOP", 1, 0, 0, 10)
	doc := &gds.Document{Cells: map[string]*gds.Cell{"TOP": top}, TopCells: []*gds.Cell{top}}

	_, err := flatten(doc, geom.Identity, 0, true, 1, nil, func() bool { return true }, nil)
	if err != ErrCancelledRender {
		t.Fatalf("err = %v, want ErrCancelledRender", err)
	}
}
