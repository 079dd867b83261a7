package viewport

import (
	"math"
	"testing"
	"time"

	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/spatial"
)

func approxEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func testUnits() gds.Units {
	// 1 user unit = 1 micron, 1 dbunit = 0.001 user unit -> 1 dbunit = 1nm.
	return gds.Units{DBPerUser: 0.001, UserPerMeter: 1e6}
}

func TestZoomLimitsClampWithinBounds(t *testing.T) {
	zl := NewZoomLimits(testUnits())
	if zl.MinScale() >= zl.MaxScale() {
		t.Fatalf("MinScale (%v) >= MaxScale (%v)", zl.MinScale(), zl.MaxScale())
	}
	clamped := zl.Clamp(zl.MaxScale() * 10)
	if clamped != zl.MaxScale() {
		t.Errorf("Clamp(huge) = %v, want MaxScale %v", clamped, zl.MaxScale())
	}
	clamped = zl.Clamp(zl.MinScale() / 10)
	if clamped != zl.MinScale() {
		t.Errorf("Clamp(tiny) = %v, want MinScale %v", clamped, zl.MinScale())
	}
}

func TestWorldToScreenRoundTrip(t *testing.T) {
	m := NewManager(NewZoomLimits(testUnits()))
	m.SetViewportSize(800, 600)
	m.sx = 2

	sx, sy := m.WorldToScreen(100, 200)
	wx, wy := m.ScreenToWorld(sx, sy)
	if !approxEqual(wx, 100, 1e-6) || !approxEqual(wy, 200, 1e-6) {
		t.Errorf("round trip = (%v, %v), want (100, 200)", wx, wy)
	}
}

func TestYAxisIsFlipped(t *testing.T) {
	m := NewManager(NewZoomLimits(testUnits()))
	m.SetViewportSize(800, 600)
	m.sx = 1

	_, sy1 := m.WorldToScreen(0, 0)
	_, sy2 := m.WorldToScreen(0, 100)
	if sy2 >= sy1 {
		t.Errorf("increasing world Y should decrease screen Y (sy=-sx invariant): sy1=%v sy2=%v", sy1, sy2)
	}
}

func TestZoomAroundScreenPointKeepsWorldPointFixed(t *testing.T) {
	m := NewManager(NewZoomLimits(testUnits()))
	m.SetViewportSize(800, 600)
	m.sx = 1

	screenX, screenY := 400.0, 300.0
	wx, wy := m.ScreenToWorld(screenX, screenY)

	m.ZoomAroundScreenPoint(screenX, screenY, 2.0)

	gotX, gotY := m.WorldToScreen(wx, wy)
	if !approxEqual(gotX, screenX, 1e-6) || !approxEqual(gotY, screenY, 1e-6) {
		t.Errorf("after zoom, world point maps to (%v,%v), want (%v,%v)", gotX, gotY, screenX, screenY)
	}
}

func TestFitToViewShowsEntireBBoxIgnoringLimits(t *testing.T) {
	zl := NewZoomLimits(testUnits())
	m := NewManager(zl)
	m.SetViewportSize(800, 600)

	// A bbox so large it would require a scale below ZoomLimits.MinScale().
	huge := geom.Rect{MinX: 0, MinY: 0, MaxX: 1e15, MaxY: 1e15}
	m.FitToView(huge)

	visible := m.VisibleBounds()
	if visible.Width() < huge.Width()*0.9 {
		t.Errorf("FitToView did not expand enough: visible width %v, bbox width %v", visible.Width(), huge.Width())
	}
}

func TestFitToViewCentersBBox(t *testing.T) {
	m := NewManager(NewZoomLimits(testUnits()))
	m.SetViewportSize(800, 600)
	box := geom.Rect{MinX: 100, MinY: 100, MaxX: 300, MaxY: 300}
	m.FitToView(box)

	sx, sy := m.WorldToScreen(box.CenterX(), box.CenterY())
	if !approxEqual(sx, 400, 1) || !approxEqual(sy, 300, 1) {
		t.Errorf("center of bbox maps to (%v,%v), want viewport center (400,300)", sx, sy)
	}
}

func TestUpdateVisibilityIsDebounced(t *testing.T) {
	idx := spatial.New()
	idx.InsertMany([]spatial.Entry{
		{Box: geom.Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, Value: 1},
	})

	m := NewManager(NewZoomLimits(testUnits()))
	m.SetViewportSize(800, 600)

	first := m.UpdateVisibility(idx, nil)
	if len(first) != 1 {
		t.Fatalf("first UpdateVisibility = %v, want 1 entry", first)
	}

	// Replace the index contents; within the debounce window the stale
	// result should still be returned.
	idx.Clear()
	second := m.UpdateVisibility(idx, nil)
	if len(second) != 1 {
		t.Errorf("UpdateVisibility inside debounce window returned %v, want cached 1-entry result", second)
	}

	m.Update(200 * time.Millisecond)
	third := m.UpdateVisibility(idx, nil)
	if len(third) != 0 {
		t.Errorf("UpdateVisibility after debounce window returned %v, want fresh empty result", third)
	}
}

func TestUpdateVisibilityAppliesLayerMask(t *testing.T) {
	idx := spatial.New()
	idx.InsertMany([]spatial.Entry{
		{Box: geom.Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, Value: 1},
		{Box: geom.Rect{MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}, Value: 2},
	})
	m := NewManager(NewZoomLimits(testUnits()))
	m.SetViewportSize(800, 600)

	got := m.UpdateVisibility(idx, func(layer int) bool { return layer == 1 })
	if len(got) != 1 || got[0].Value.(int) != 1 {
		t.Errorf("UpdateVisibility with layer mask = %+v, want only layer 1", got)
	}
}
