package render

import (
	"image/color"
	"testing"

	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
)

type fakeGraphics struct {
	fills   int
	strokes int
}

func (g *fakeGraphics) FillPolygon(points []float64, c color.Color)                      { g.fills++ }
func (g *fakeGraphics) StrokePolygon(points []float64, strokeWidth float32, c color.Color) { g.strokes++ }

type fakeSurface struct {
	g *fakeGraphics
}

func (s *fakeSurface) Graphics() Graphics    { return s.g }
func (s *fakeSurface) Size() (int, int)      { return 800, 600 }

func TestRenderThenDrawSubmitsBatches(t *testing.T) {
	top := squareCell("TOP", 1, 0, 0, 10)
	doc := &gds.Document{Cells: map[string]*gds.Cell{"TOP": top}, TopCells: []*gds.Cell{top}}

	g := &fakeGraphics{}
	r := NewRenderer(&fakeSurface{g: g})

	frame, err := r.Render(doc, geom.Identity, Options{Depth: 0, FillMode: true, Scale: 1})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if frame.PolygonCount != 1 {
		t.Fatalf("PolygonCount = %d, want 1", frame.PolygonCount)
	}

	r.Draw()
	if g.fills != 1 {
		t.Errorf("fills = %d, want 1", g.fills)
	}
	if g.strokes != 0 {
		t.Errorf("strokes = %d, want 0 in fill mode", g.strokes)
	}
}

func TestRenderOutlineModeStrokes(t *testing.T) {
	top := squareCell("TOP", 1, 0, 0, 10)
	doc := &gds.Document{Cells: map[string]*gds.Cell{"TOP": top}, TopCells: []*gds.Cell{top}}

	g := &fakeGraphics{}
	r := NewRenderer(&fakeSurface{g: g})
	if _, err := r.Render(doc, geom.Identity, Options{Depth: 0, FillMode: false, Scale: 1}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	r.Draw()
	if g.strokes != 1 || g.fills != 0 {
		t.Errorf("fills=%d strokes=%d, want fills=0 strokes=1", g.fills, g.strokes)
	}
}

func TestCurrentFrameNilBeforeFirstRender(t *testing.T) {
	r := NewRenderer(nil)
	if r.CurrentFrame() != nil {
		t.Error("CurrentFrame() before any Render should be nil")
	}
	r.Draw() // must not panic with nil surface/frame
}

func TestRenderAppliesLayerVisibilityFilter(t *testing.T) {
	top := &gds.Cell{Name: "TOP"}
	top.Polygons = append(top.Polygons,
		gds.Polygon{Layer: 1, Points: []geom.Point{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}}},
		gds.Polygon{Layer: 2, Points: []geom.Point{{X: 10, Y: 10}, {X: 10, Y: 11}, {X: 11, Y: 11}}},
	)
	doc := &gds.Document{Cells: map[string]*gds.Cell{"TOP": top}, TopCells: []*gds.Cell{top}}

	g := &fakeGraphics{}
	r := NewRenderer(&fakeSurface{g: g})
	frame, err := r.Render(doc, geom.Identity, Options{
		Depth:        0,
		FillMode:     true,
		Scale:        1,
		LayerVisible: func(layer int) bool { return layer == 1 },
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if len(frame.Batches) != 1 || frame.Batches[0].Key.Layer != 1 {
		t.Errorf("Batches = %+v, want only layer 1", frame.Batches)
	}
}
