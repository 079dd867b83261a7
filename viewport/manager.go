package viewport

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"

	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/spatial"
)

// visibilityDebounce is the minimum interval between SpatialIndex
// re-queries triggered by viewport motion (spec.md §4.3 "debounced ~100ms").
const visibilityDebounce = 100 * time.Millisecond

// scrollAnim mirrors the teacher's camera.go scrollTween: independent
// tweens for the two translation axes plus the scale, so a ScrollTo that
// lands exactly on an axis boundary still completes cleanly.
type scrollAnim struct {
	tweenX, tweenY, tweenScale *gween.Tween
	doneX, doneY, doneScale    bool
}

// Manager is the ViewportManager: the affine view state {tx, ty, sx, sy}
// mapping world (database-unit) coordinates to screen pixels, with the
// sy = -sx invariant (world Y increases upward, screen Y increases
// downward) spec.md §3 mandates.
type Manager struct {
	limits ZoomLimits

	tx, ty, sx float64

	viewportW, viewportH float64

	anim *scrollAnim

	sinceLastVisibilityUpdate time.Duration
	lastVisible               []spatial.Entry
}

// NewManager creates a Manager at scale 1 with the world origin at the
// screen's top-left corner.
func NewManager(limits ZoomLimits) *Manager {
	return &Manager{
		limits: limits,
		sx:     1,
	}
}

// SetViewportSize records the current screen-space viewport dimensions,
// used by ZoomAroundScreenPoint, FitToView, and VisibleBounds.
func (m *Manager) SetViewportSize(w, h float64) {
	m.viewportW, m.viewportH = w, h
}

// affine returns the current view transform as geom.Affine with sy = -sx.
func (m *Manager) affine() geom.Affine {
	return geom.Affine{m.sx, 0, 0, -m.sx, m.tx, m.ty}
}

// Affine exposes the current view transform for callers (e.g. the
// Orchestrator) that need to hand it directly to render.Renderer.Render.
func (m *Manager) Affine() geom.Affine { return m.affine() }

// TX and TY expose the current screen-space translation, for callers that
// need to persist {tx, ty, sx} (spec.md §6 "Persistent state layout").
func (m *Manager) TX() float64 { return m.tx }
func (m *Manager) TY() float64 { return m.ty }

// SetLimits replaces the ZoomLimits clamp a Manager enforces, e.g. once a
// document's Units become known after a Load.
func (m *Manager) SetLimits(limits ZoomLimits) { m.limits = limits }

// SetState restores a persisted {tx, ty, sx} triple directly (sx is still
// clamped through ZoomLimits), without
// re-deriving it from a world point (spec.md §6 "the orchestrator must
// accept reconstruction of viewport state from {tx, ty, sx} on init").
func (m *Manager) SetState(tx, ty, sx float64) {
	m.tx, m.ty, m.sx = tx, ty, m.limits.Clamp(sx)
}

// WorldToScreen maps a world (database-unit) point to screen pixels.
func (m *Manager) WorldToScreen(wx, wy float64) (sx, sy float64) {
	return m.affine().Apply(wx, wy)
}

// ScreenToWorld maps a screen pixel to world (database-unit) coordinates.
func (m *Manager) ScreenToWorld(screenX, screenY float64) (wx, wy float64) {
	return m.affine().Invert().Apply(screenX, screenY)
}

// Scale returns the current screen-pixels-per-database-unit scale factor.
func (m *Manager) Scale() float64 { return m.sx }

// Pan shifts the view by a screen-space delta (e.g. a mouse drag delta).
func (m *Manager) Pan(dxScreen, dyScreen float64) {
	m.tx += dxScreen
	m.ty += dyScreen
}

// ZoomAroundScreenPoint multiplies the current scale by factor while
// keeping the world point currently under (screenX, screenY) fixed on
// screen, clamped through ZoomLimits.
func (m *Manager) ZoomAroundScreenPoint(screenX, screenY, factor float64) {
	wx, wy := m.ScreenToWorld(screenX, screenY)
	newScale := m.limits.Clamp(m.sx * factor)
	m.sx = newScale
	// Re-solve tx, ty so (wx, wy) still maps to (screenX, screenY).
	sx2, sy2 := m.affine().Apply(wx, wy)
	m.tx += screenX - sx2
	m.ty += screenY - sy2
}

// SetCenterAndScale centers the view on a world point at an explicit scale,
// clamped through ZoomLimits.
func (m *Manager) SetCenterAndScale(worldX, worldY, scale float64) {
	m.sx = m.limits.Clamp(scale)
	sx, sy := m.affine().Apply(worldX, worldY)
	m.tx += m.viewportW/2 - sx
	m.ty += m.viewportH/2 - sy
}

// fitToViewMargin is the fraction of the viewport left empty on each side
// by FitToView (spec.md §4.3).
const fitToViewMargin = 0.05

// FitToView centers and scales the view so bbox is entirely visible with a
// margin, ignoring ZoomLimits — the one operation spec.md exempts, since a
// very small or very large design must still fit fully on screen.
func (m *Manager) FitToView(bbox geom.Rect) {
	if bbox.IsEmpty() || m.viewportW <= 0 || m.viewportH <= 0 {
		return
	}
	usableW := m.viewportW * (1 - 2*fitToViewMargin)
	usableH := m.viewportH * (1 - 2*fitToViewMargin)

	scale := m.sx
	if bbox.Width() > 0 {
		scale = usableW / bbox.Width()
	}
	if bbox.Height() > 0 {
		if s := usableH / bbox.Height(); s < scale {
			scale = s
		}
	}
	if scale <= 0 {
		scale = 1
	}

	m.sx = scale
	cx, cy := bbox.CenterX(), bbox.CenterY()
	sx, sy := m.affine().Apply(cx, cy)
	m.tx += m.viewportW/2 - sx
	m.ty += m.viewportH/2 - sy
}

// VisibleBounds returns the world-space rect currently visible on screen.
func (m *Manager) VisibleBounds() geom.Rect {
	inv := m.affine().Invert()
	return inv.ApplyToRectHull(geom.Rect{MinX: 0, MinY: 0, MaxX: m.viewportW, MaxY: m.viewportH})
}

// ScrollTo animates the view to center on (worldX, worldY) at the given
// scale over duration seconds, mirroring camera.go's ScrollTo.
func (m *Manager) ScrollTo(worldX, worldY, scale float64, duration float32, easeFn ease.TweenFunc) {
	scale = m.limits.Clamp(scale)
	curX, curY := m.centerWorld()
	m.anim = &scrollAnim{
		tweenX:     gween.New(float32(curX), float32(worldX), duration, easeFn),
		tweenY:     gween.New(float32(curY), float32(worldY), duration, easeFn),
		tweenScale: gween.New(float32(m.sx), float32(scale), duration, easeFn),
	}
}

func (m *Manager) centerWorld() (float64, float64) {
	return m.ScreenToWorld(m.viewportW/2, m.viewportH/2)
}

// Update advances any in-flight ScrollTo animation and the visibility
// debounce clock. dt is the elapsed time since the previous Update call.
func (m *Manager) Update(dt time.Duration) {
	if m.anim != nil {
		df := float32(dt.Seconds())
		if !m.anim.doneX {
			x, done := m.anim.tweenX.Update(df)
			_ = x
			m.anim.doneX = done
		}
		if !m.anim.doneY {
			y, done := m.anim.tweenY.Update(df)
			_ = y
			m.anim.doneY = done
		}
		if !m.anim.doneScale {
			s, done := m.anim.tweenScale.Update(df)
			m.sx = m.limits.Clamp(float64(s))
			m.anim.doneScale = done
		}
		if m.anim.doneX && m.anim.doneY && m.anim.doneScale {
			cx, _ := m.anim.tweenX.Update(0)
			cy, _ := m.anim.tweenY.Update(0)
			m.SetCenterAndScale(float64(cx), float64(cy), m.sx)
			m.anim = nil
		} else if !m.anim.doneX || !m.anim.doneY {
			cx, _ := m.anim.tweenX.Update(0)
			cy, _ := m.anim.tweenY.Update(0)
			m.SetCenterAndScale(float64(cx), float64(cy), m.sx)
		}
	}
	m.sinceLastVisibilityUpdate += dt
}

// UpdateVisibility re-queries the spatial index for entries intersecting
// the current visible bounds, masked by layerVisible, but only if at least
// visibilityDebounce has elapsed since the last query (spec.md §4.3). It
// returns the (possibly unchanged, possibly stale-but-recent) result.
func (m *Manager) UpdateVisibility(index *spatial.RTree, layerVisible func(layer int) bool) []spatial.Entry {
	if m.sinceLastVisibilityUpdate < visibilityDebounce && m.lastVisible != nil {
		return m.lastVisible
	}
	m.sinceLastVisibilityUpdate = 0

	raw := index.Query(m.VisibleBounds())
	if layerVisible == nil {
		m.lastVisible = raw
		return raw
	}
	filtered := raw[:0:0]
	for _, e := range raw {
		if layer, ok := e.Value.(int); ok {
			if !layerVisible(layer) {
				continue
			}
		}
		filtered = append(filtered, e)
	}
	m.lastVisible = filtered
	return filtered
}
