package gdsview

import (
	"image/color"
	"testing"
	"time"

	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/render"
)

type stubGraphics struct {
	fills int
}

func (g *stubGraphics) FillPolygon(points []float64, c color.Color)                       { g.fills++ }
func (g *stubGraphics) StrokePolygon(points []float64, strokeWidth float32, c color.Color) {}

type stubSurface struct{ g stubGraphics }

func (s *stubSurface) Graphics() render.Graphics { return &s.g }
func (s *stubSurface) Size() (int, int)          { return 800, 600 }

func squareCell(name string, layer int, x, y, size float64) *gds.Cell {
	return &gds.Cell{
		Name: name,
		Polygons: []gds.Polygon{{
			Layer: layer,
			Points: []geom.Point{
				{X: x, Y: y}, {X: x, Y: y + size}, {X: x + size, Y: y + size}, {X: x + size, Y: y},
			},
		}},
	}
}

func testDoc() *gds.Document {
	top := squareCell("TOP", 1, 0, 0, 100)
	doc := &gds.Document{
		Units:       gds.Units{DBPerUser: 1e-9, UserPerMeter: 1},
		Cells:       map[string]*gds.Cell{"TOP": top},
		TopCells:    []*gds.Cell{top},
		OverallBBox: geom.Rect{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100},
	}
	return doc
}

func newTestViewer(t *testing.T) *Viewer {
	t.Helper()
	v := NewViewer(nil)
	v.Init(Options{Width: 800, Height: 600})
	return v
}

func TestLayerKeyFormatsCanonicalString(t *testing.T) {
	if got := LayerKey(3, 0); got != "3:0" {
		t.Errorf("LayerKey(3,0) = %q, want %q", got, "3:0")
	}
}

func TestSetFillModeTogglesState(t *testing.T) {
	v := newTestViewer(t)
	if !v.fillMode {
		t.Fatal("fillMode should default to true")
	}
	v.SetFillMode(false)
	if v.fillMode {
		t.Error("SetFillMode(false) should clear fillMode")
	}
}

func TestFitToViewNoOpWithoutDocument(t *testing.T) {
	v := newTestViewer(t)
	v.FitToView() // must not panic with doc == nil
}

func TestLoadByDirectAssignmentThenFitToViewCentersBBox(t *testing.T) {
	v := newTestViewer(t)
	v.doc = testDoc()
	v.FitToView()

	cx, cy := v.viewportMgr.ScreenToWorld(v.screenW/2, v.screenH/2)
	if cx < 40 || cx > 60 || cy < 40 || cy > 60 {
		t.Errorf("after FitToView, screen center maps to world (%v,%v), want near (50,50)", cx, cy)
	}
}

func TestRenderPublishesFrameAndDrawSubmitsBatches(t *testing.T) {
	v := NewViewer(&stubSurface{})
	v.Init(Options{Width: 800, Height: 600})
	v.doc = testDoc()
	v.FitToView()

	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	v.Draw() // must not panic
}

func TestSetRenderDepthOverridesLODDepth(t *testing.T) {
	v := newTestViewer(t)
	v.doc = testDoc()
	v.SetRenderDepth(2)
	if got := v.lodMgr.Depth(); got != 2 {
		t.Errorf("lodMgr.Depth() = %d after SetRenderDepth(2), want 2", got)
	}
}

func TestSetLayerVisibilityFiltersRenderedBatches(t *testing.T) {
	v := NewViewer(&stubSurface{})
	v.Init(Options{Width: 800, Height: 600})
	top := &gds.Cell{Name: "TOP"}
	top.Polygons = append(top.Polygons,
		gds.Polygon{Layer: 1, Points: []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}},
		gds.Polygon{Layer: 2, Points: []geom.Point{{X: 10, Y: 10}, {X: 10, Y: 11}, {X: 11, Y: 11}}},
	)
	v.doc = &gds.Document{
		Cells:       map[string]*gds.Cell{"TOP": top},
		TopCells:    []*gds.Cell{top},
		OverallBBox: geom.Rect{MinX: 0, MinY: 0, MaxX: 11, MaxY: 11},
	}
	v.FitToView()
	v.SetLayerVisibility(map[string]bool{LayerKey(1, 0): true, LayerKey(2, 0): false})

	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}
	frame := v.renderer.CurrentFrame()
	for _, b := range frame.Batches {
		if b.Key.Layer != 1 {
			t.Errorf("Batches = %+v, want only layer 1", frame.Batches)
		}
	}
}

func TestOnHoverFiresWithWorldCoordinates(t *testing.T) {
	v := newTestViewer(t)
	v.doc = testDoc()
	v.FitToView()

	var gotX, gotY float64
	var fired bool
	unsub := v.OnHover(func(wx, wy float64) { gotX, gotY = wx, wy; fired = true })
	defer unsub()

	v.inputCB.OnHover(v.screenW/2, v.screenH/2)
	if !fired {
		t.Fatal("OnHover callback never fired")
	}
	if gotX < 40 || gotX > 60 {
		t.Errorf("hover world X = %v, want near 50", gotX)
	}
	if gotY < 40 || gotY > 60 {
		t.Errorf("hover world Y = %v, want near 50", gotY)
	}
}

func TestOnHoverUnsubscribeStopsDelivery(t *testing.T) {
	v := newTestViewer(t)
	v.doc = testDoc()
	v.FitToView()

	calls := 0
	unsub := v.OnHover(func(wx, wy float64) { calls++ })
	v.inputCB.OnHover(0, 0)
	unsub()
	v.inputCB.OnHover(0, 0)

	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1 before unsubscribe", calls)
	}
}

func TestOnViewportChangedFiresOnUpdate(t *testing.T) {
	v := NewViewer(&stubSurface{})
	v.Init(Options{Width: 800, Height: 600})
	v.doc = testDoc()
	v.index = buildSpatialIndex(v.doc)
	v.FitToView()

	var calls int
	v.OnViewportChanged(func(vp ViewportState, bbox geom.Rect) { calls++ })
	v.Update(16 * time.Millisecond)

	if calls != 1 {
		t.Errorf("calls = %d, want 1 after one Update", calls)
	}
}

func TestClearDiscardsDocumentAndCancelsLoad(t *testing.T) {
	v := newTestViewer(t)
	v.doc = testDoc()
	genBefore := v.loadGeneration.Load()

	v.Clear()

	if v.doc != nil {
		t.Error("Clear() should discard the document")
	}
	if v.loadGeneration.Load() == genBefore {
		t.Error("Clear() should bump the load generation to cancel in-flight work")
	}
}

func TestGetPerformanceMetricsReportsDepthAndBudget(t *testing.T) {
	v := NewViewer(&stubSurface{})
	v.Init(Options{Width: 800, Height: 600})
	v.doc = testDoc()
	v.FitToView()
	if err := v.Render(); err != nil {
		t.Fatalf("Render: %v", err)
	}

	m := v.GetPerformanceMetrics()
	if m.Budget <= 0 {
		t.Errorf("Budget = %d, want > 0", m.Budget)
	}
	if m.VisiblePolygons != 1 {
		t.Errorf("VisiblePolygons = %d, want 1", m.VisiblePolygons)
	}
	if m.TotalPolygons != 1 {
		t.Errorf("TotalPolygons = %d, want 1", m.TotalPolygons)
	}
}

func TestFormatCoordinatesEmptyWithoutDocument(t *testing.T) {
	v := newTestViewer(t)
	if got := v.FormatCoordinates(1, 2); got != "" {
		t.Errorf("FormatCoordinates without a document = %q, want empty", got)
	}
}
