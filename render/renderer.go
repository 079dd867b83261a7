package render

import (
	"fmt"
	"sync/atomic"

	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
)

// Options controls one Render call.
type Options struct {
	Depth        int
	FillMode     bool // false = outline mode
	Scale        float64
	OnProgress   func(polygonsProcessed int)
	Cancelled    func() bool
	LayerVisible func(layer int) bool
	// SkipCell, if set, excludes a cell (and everything reached only through
	// it) from flattening entirely. Used by overlay.Minimap to drop cells
	// marked gds.Cell.SkipInMinimap (spec.md §4.1/§4.8).
	SkipCell func(*gds.Cell) bool
}

// Frame is a fully flattened, tile-batched snapshot ready to submit to a
// RenderSurface. Renderer swaps the live *Frame atomically so an
// in-progress Render never interferes with a Draw of the previous frame
// (spec.md §5 "atomic reference swap for seamless render-to-render
// transitions").
type Frame struct {
	Batches       []Batch
	PolygonCount  int
	InstanceCount int
	Truncated     bool
	FillMode      bool
	Scale         float64
}

// RenderError is a non-fatal error encountered while producing a frame;
// Render passes it to DebugLog and returns the underlying error, and the
// previously published frame stays current (spec.md §7).
type RenderError struct {
	Cause error
}

func (e *RenderError) Error() string { return fmt.Sprintf("render: %v", e.Cause) }
func (e *RenderError) Unwrap() error { return e.Cause }

// Renderer is the Renderer component: it flattens a gds.Document through a
// view transform and LOD depth into a Frame, and submits that Frame's
// batches to a RenderSurface. Grounded on scene.go's Scene.Draw entry point
// and batch.go's coalesced-submission pipeline.
type Renderer struct {
	surface RenderSurface
	current atomic.Pointer[Frame]

	// DebugLog, if set, receives non-fatal RenderErrors (spec.md §7,
	// AMBIENT STACK "Logging" — the teacher's debug.go fmt.Fprintf pattern).
	DebugLog func(err error)
}

// NewRenderer creates a Renderer drawing into surface.
func NewRenderer(surface RenderSurface) *Renderer {
	return &Renderer{surface: surface}
}

// SetSurface retargets the renderer, e.g. after a window resize replaces
// the backing image.
func (r *Renderer) SetSurface(surface RenderSurface) { r.surface = surface }

// Render flattens doc through view at opts.Depth and atomically publishes
// the result as the current frame. A cancellation mid-flatten leaves the
// previous frame in place rather than publishing a partial one.
func (r *Renderer) Render(doc *gds.Document, view geom.Affine, opts Options) (*Frame, error) {
	result, err := flatten(doc, view, opts.Depth, opts.FillMode, opts.Scale, opts.OnProgress, opts.Cancelled, opts.SkipCell)
	if err != nil {
		if r.DebugLog != nil {
			r.DebugLog(&RenderError{Cause: err})
		}
		return nil, err
	}

	if opts.LayerVisible != nil {
		result.Batches = filterBatchesByLayer(result.Batches, opts.LayerVisible)
	}

	frame := &Frame{
		Batches:       result.Batches,
		PolygonCount:  result.PolygonCount,
		InstanceCount: result.InstanceCount,
		Truncated:     result.Truncated,
		FillMode:      opts.FillMode,
		Scale:         opts.Scale,
	}
	r.current.Store(frame)
	return frame, nil
}

func filterBatchesByLayer(batches []Batch, layerVisible func(layer int) bool) []Batch {
	out := batches[:0:0]
	for _, b := range batches {
		if layerVisible(b.Key.Layer) {
			out = append(out, b)
		}
	}
	return out
}

// CurrentFrame returns the most recently published frame, or nil if Render
// has never succeeded.
func (r *Renderer) CurrentFrame() *Frame {
	return r.current.Load()
}

// Draw submits the current frame's batches to the renderer's surface. It
// is safe to call concurrently with Render (the frame pointer is read
// once, atomically, at the top).
func (r *Renderer) Draw() {
	frame := r.current.Load()
	if frame == nil || r.surface == nil {
		return
	}
	g := r.surface.Graphics()
	// Batches are already flattened into screen-space coordinates, so the
	// on-screen stroke width is simply the pinned constant (spec.md §4.6
	// "2 screen-px stroke width"); strokeWidthForScale exists for a
	// world-space caller (see DESIGN.md).
	strokeWidth := float32(outlinePixelWidth)

	for _, b := range frame.Batches {
		c := LayerColor(b.Key.Layer, b.Key.Datatype)
		for _, poly := range b.Polygons {
			if frame.FillMode {
				g.FillPolygon(poly, c)
			} else {
				g.StrokePolygon(poly, strokeWidth, c)
			}
		}
	}
}
