// Package render flattens a parsed gds.Document through the current
// viewport and LOD depth into tile-batched draw calls, and submits them to
// a RenderSurface. Grounded on the teacher's scene.go/batch.go draw-call
// pipeline, generalized from sprite atlases to arbitrary filled/outlined
// polygons.
package render

import "image/color"

// Graphics is the minimal 2D drawing surface a Renderer needs: filled and
// stroked polygon paths in screen-pixel coordinates. Grounded on
// scene.go's Scene.Draw(screen *ebiten.Image) boundary — an injected
// collaborator, not a concrete GPU type, so the renderer and its tests do
// not depend on an ebiten context being available.
type Graphics interface {
	FillPolygon(points []float64, c color.Color)
	StrokePolygon(points []float64, strokeWidth float32, c color.Color)
}

// RenderSurface is the GPU-canvas abstraction spec.md §1 calls out as an
// injected collaborator: something that can be asked for a Graphics to draw
// into and for its pixel size.
type RenderSurface interface {
	Graphics() Graphics
	Size() (width, height int)
}
