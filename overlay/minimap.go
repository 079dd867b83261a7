package overlay

import (
	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/render"
)

// minimapDepth is the instance recursion depth the minimap always renders
// at: it covers the full document regardless of the main viewport's
// current LOD depth (the same value as lod.MaxDepth, written here as a
// literal), since the minimap's cell-level culling (skipCell)
// keeps its polygon count low on its own.
const minimapDepth = 3

// Minimap is a secondary Renderer instance that draws the whole document
// at a fixed small scale, culling cells marked gds.Cell.SkipInMinimap, and
// overlays the main viewport's visible-bounds rectangle. Grounded on
// scene.go's pattern of driving a Renderer from a Document plus a view
// transform; generalized here to a second, independently-scaled Renderer
// instance rather than a second scene (spec.md §4.8).
type Minimap struct {
	renderer *render.Renderer

	panelX, panelY, panelW, panelH float64
	docBBox                        geom.Rect
	transform                      geom.Affine
}

// NewMinimap creates a Minimap drawing into surface.
func NewMinimap(surface render.RenderSurface) *Minimap {
	return &Minimap{renderer: render.NewRenderer(surface)}
}

// SetPanelBounds positions the minimap's screen-space panel (e.g. a fixed
// corner of the window).
func (m *Minimap) SetPanelBounds(x, y, w, h float64) {
	m.panelX, m.panelY, m.panelW, m.panelH = x, y, w, h
	m.recomputeTransform()
}

// SetDocumentBounds fixes the world bbox the minimap fits to its panel.
// Call once per loaded document.
func (m *Minimap) SetDocumentBounds(bbox geom.Rect) {
	m.docBBox = bbox
	m.recomputeTransform()
}

func (m *Minimap) recomputeTransform() {
	if m.docBBox.IsEmpty() || m.panelW <= 0 || m.panelH <= 0 {
		m.transform = geom.Identity
		return
	}
	const margin = 0.9 // leave a small border inside the panel
	sx := m.panelW * margin / m.docBBox.Width()
	sy := m.panelH * margin / m.docBBox.Height()
	s := sx
	if sy < s {
		s = sy
	}
	cx, cy := m.docBBox.CenterX(), m.docBBox.CenterY()
	// Y-flip, same convention as viewport.Manager.affine.
	m.transform = geom.Affine{s, 0, 0, -s, m.panelX + m.panelW/2 - cx*s, m.panelY + m.panelH/2 + cy*s}
}

// Render flattens doc through the minimap's own transform, skipping cells
// marked SkipInMinimap, and submits the result to the minimap's surface.
func (m *Minimap) Render(doc *gds.Document) (*render.Frame, error) {
	return m.renderer.Render(doc, m.transform, render.Options{
		Depth:    minimapDepth,
		FillMode: true,
		Scale:    1,
		SkipCell: func(c *gds.Cell) bool { return c.SkipInMinimap },
	})
}

// Draw submits the minimap's last rendered frame to its surface.
func (m *Minimap) Draw() { m.renderer.Draw() }

// ViewportRect maps the main viewport's visible world bounds into the
// minimap's screen space, for drawing the "you are here" rectangle.
func (m *Minimap) ViewportRect(visibleWorld geom.Rect) geom.Rect {
	return m.transform.ApplyToRectHull(visibleWorld)
}

// HitTest maps a screen click within the minimap panel to world
// coordinates; ok is false if the click landed outside the panel.
func (m *Minimap) HitTest(screenX, screenY float64) (worldX, worldY float64, ok bool) {
	if screenX < m.panelX || screenX > m.panelX+m.panelW ||
		screenY < m.panelY || screenY > m.panelY+m.panelH {
		return 0, 0, false
	}
	wx, wy := m.transform.Invert().Apply(screenX, screenY)
	return wx, wy, true
}
