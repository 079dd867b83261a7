// Package gdsview is the Orchestrator (spec.md §6): it wires the Parser,
// SpatialIndex, ViewportManager, LODManager, Renderer, InputController,
// and overlay family into the single host-facing API surface a shell
// embeds. Grounded on the teacher's scene.go (NewScene/Run/gameShell/
// SetDebugMode) — Viewer plays the role Scene plus gameShell played for
// the teacher, generalized from an arbitrary node-tree game loop to this
// domain's one-document, one-viewport pipeline.
package gdsview

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/jwt625/gdsjam-sub000/gds"
	"github.com/jwt625/gdsjam-sub000/geom"
	"github.com/jwt625/gdsjam-sub000/input"
	"github.com/jwt625/gdsjam-sub000/lod"
	"github.com/jwt625/gdsjam-sub000/overlay"
	"github.com/jwt625/gdsjam-sub000/render"
	"github.com/jwt625/gdsjam-sub000/spatial"
	"github.com/jwt625/gdsjam-sub000/viewport"
)

// ViewportState is the persistent {tx, ty, sx} triple the host shell may
// save and restore across sessions (spec.md §6 "Persistent state layout").
type ViewportState struct {
	Tx, Ty, Sx float64
}

// Options configures Init.
type Options struct {
	Width, Height   int
	InitialViewport *ViewportState
	MinimapWidth    float64
	MinimapHeight   float64
}

// Thresholds reports the zoom-factor crossings that trigger an LOD
// re-evaluation (spec.md §4.4).
type Thresholds struct {
	ZoomOutFactor float64
	ZoomInFactor  float64
}

// PerformanceMetrics is the snapshot returned by GetPerformanceMetrics
// (spec.md §6).
type PerformanceMetrics struct {
	FPS             float64
	VisiblePolygons int
	TotalPolygons   int
	Budget          int
	Depth           int
	Zoom            float64
	Thresholds      Thresholds
	ViewportBBox    geom.Rect
}

// Viewer is the Orchestrator. Zero value is not usable; build one with
// NewViewer.
type Viewer struct {
	surface   render.RenderSurface
	minimapSf render.RenderSurface

	doc   *gds.Document
	index *spatial.RTree

	viewportMgr *viewport.Manager
	lodMgr      *lod.Manager
	renderer    *render.Renderer
	minimap     *overlay.Minimap
	input       *input.Controller
	inputCB     input.Callbacks
	hasPoller   bool
	fpsCounter  *overlay.FPSCounter
	coords      overlay.Coordinates

	fillMode     bool
	layerVisible map[string]bool
	depthHint    int

	screenW, screenH float64

	loadGeneration atomic.Int64

	hoverSubs           map[int]func(worldX, worldY float64)
	viewportChangedSubs map[int]func(ViewportState, geom.Rect)
	nextSubID           int

	// DebugLog receives non-fatal errors encountered during Render,
	// mirroring render.Renderer.DebugLog (spec.md §7, AMBIENT STACK
	// "Logging").
	DebugLog func(err error)
}

// NewViewer creates a Viewer driving surface. Call Init before Load.
func NewViewer(surface render.RenderSurface) *Viewer {
	v := &Viewer{
		surface:             surface,
		renderer:            render.NewRenderer(surface),
		layerVisible:        make(map[string]bool),
		fillMode:            true,
		hoverSubs:           make(map[int]func(float64, float64)),
		viewportChangedSubs: make(map[int]func(ViewportState, geom.Rect)),
	}
	v.renderer.DebugLog = func(err error) {
		if v.DebugLog != nil {
			v.DebugLog(err)
		}
	}
	return v
}

// Init sizes the viewport and optionally restores a persisted {tx,ty,sx}.
// Corresponds to spec.md §6 init(canvas, options).
func (v *Viewer) Init(opts Options) {
	w, h := opts.Width, opts.Height
	if w == 0 {
		w = 640
	}
	if h == 0 {
		h = 480
	}
	v.screenW, v.screenH = float64(w), float64(h)

	v.viewportMgr = viewport.NewManager(viewport.ZoomLimits{})
	v.viewportMgr.SetViewportSize(v.screenW, v.screenH)
	v.lodMgr = lod.NewManager(initialDepth(v.doc))
	v.fpsCounter = overlay.NewFPSCounter()

	if opts.InitialViewport != nil {
		iv := opts.InitialViewport
		v.viewportMgr.SetState(iv.Tx, iv.Ty, iv.Sx)
	}

	mw, mh := opts.MinimapWidth, opts.MinimapHeight
	if mw == 0 {
		mw = 160
	}
	if mh == 0 {
		mh = 120
	}
	v.minimap = overlay.NewMinimap(v.minimapSf)
	v.minimap.SetPanelBounds(v.screenW-mw-8, v.screenH-mh-8, mw, mh)

	v.inputCB = input.Callbacks{
		OnPan: func(dx, dy float64) {
			v.viewportMgr.Pan(dx, dy)
			_ = v.Render()
		},
		OnZoom: func(x, y, factor float64) {
			v.viewportMgr.ZoomAroundScreenPoint(x, y, factor)
			_ = v.Render()
		},
		OnHover: func(x, y float64) {
			wx, wy := v.viewportMgr.ScreenToWorld(x, y)
			for _, fn := range v.hoverSubs {
				fn(wx, wy)
			}
		},
		OnToggle: func(name string, pressed bool) {
			if !pressed {
				return
			}
			switch name {
			case "fit":
				v.FitToView()
			case "outline":
				v.SetFillMode(!v.fillMode)
			}
		},
	}
}

// SetPoller attaches the live input source (e.g. an ebiten-backed Poller).
// Separated from Init so the Controller can be unit-tested with a fake
// Poller while Init itself stays deterministic, and so a headless Viewer
// (no poller) never dispatches input at all.
func (v *Viewer) SetPoller(p input.Poller) {
	v.input = input.NewController(p, v.inputCB)
	v.input.SetCanvasSize(float64(v.screenW), float64(v.screenH))
	v.hasPoller = true
}

// SetMinimapSurface attaches a second RenderSurface for the minimap panel.
// Until called, Render/Draw skip the minimap entirely.
func (v *Viewer) SetMinimapSurface(surface render.RenderSurface) {
	v.minimapSf = surface
	v.minimap = overlay.NewMinimap(surface)
	if v.doc != nil {
		v.minimap.SetDocumentBounds(v.doc.OverallBBox)
	}
	if v.screenW > 0 {
		mw, mh := 160.0, 120.0
		v.minimap.SetPanelBounds(v.screenW-mw-8, v.screenH-mh-8, mw, mh)
	}
}

// Load parses bytes into a new Document, replacing any previously loaded
// one, and rebuilds the spatial index. A subsequent Load call cancels any
// in-flight one via a monotonic generation counter checked at each parse
// yield point (spec.md §5 "a new document load cancels any in-flight
// parse/render").
func (v *Viewer) Load(r io.Reader, onProgress gds.ProgressFunc) (*gds.Document, error) {
	gen := v.loadGeneration.Add(1)

	doc, err := gds.Parse(r, gds.Options{
		OnProgress: onProgress,
		Cancelled:  func() bool { return v.loadGeneration.Load() != gen },
	})
	if err != nil {
		return nil, fmt.Errorf("gdsview: load: %w", err)
	}
	if v.loadGeneration.Load() != gen {
		return nil, gds.ErrCancelled
	}

	v.doc = doc
	v.index = buildSpatialIndex(doc)
	v.minimap.SetDocumentBounds(doc.OverallBBox)
	v.lodMgr = lod.NewManager(initialDepth(doc))
	v.viewportMgr.SetLimits(viewport.NewZoomLimits(doc.Units))
	v.coords = overlay.NewCoordinates(doc.Units)
	v.FitToView()
	return doc, nil
}

// FormatCoordinates renders a world-space point using the loaded
// document's units (spec.md §4.8 CoordinatesDisplay); returns "" if no
// document is loaded.
func (v *Viewer) FormatCoordinates(worldX, worldY float64) string {
	if v.doc == nil {
		return ""
	}
	return v.coords.Format(worldX, worldY)
}

// initialDepth picks the LOD starting depth per spec.md §4.5: 3 if the top
// cells hold zero direct polygons but have instances (a purely hierarchical
// file, which would otherwise render nothing at depth 0), else 0. A nil doc
// (Init before any Load) starts flat.
func initialDepth(doc *gds.Document) int {
	if doc == nil || len(doc.TopCells) == 0 {
		return lod.MinDepth
	}
	for _, c := range doc.TopCells {
		if len(c.Polygons) > 0 || len(c.Instances) == 0 {
			return lod.MinDepth
		}
	}
	return lod.MaxDepth
}

func totalPolygons(doc *gds.Document) int {
	total := 0
	for _, c := range doc.Cells {
		total += len(c.Polygons)
	}
	return total
}

// Clear discards the current document and spatial index. The shell must
// only call Clear after a successful Load of a replacement document
// (spec.md §4 "Parser errors abort the load; previous document remains on
// screen").
func (v *Viewer) Clear() {
	v.loadGeneration.Add(1) // cancel any in-flight load/render
	v.doc = nil
	v.index = nil
}

// FitToView scales and centers the viewport on the document's overall
// bounding box, ignoring ZoomLimits if necessary (spec.md §4.4).
func (v *Viewer) FitToView() {
	if v.doc == nil {
		return
	}
	v.viewportMgr.FitToView(v.doc.OverallBBox)
}

// SetFillMode toggles between filled polygons and outline-mode strokes.
func (v *Viewer) SetFillMode(fill bool) { v.fillMode = fill }

// SetLayerVisibility replaces the visible-layer mask, keyed by the
// canonical "<layer>:<datatype>" layerKey (spec.md §6).
func (v *Viewer) SetLayerVisibility(visibility map[string]bool) {
	v.layerVisible = visibility
}

// LayerKey formats the canonical "<layer>:<datatype>" key spec.md §6
// defines for SetLayerVisibility's map.
func LayerKey(layer, datatype int) string {
	return fmt.Sprintf("%d:%d", layer, datatype)
}

// layerVisibleFunc adapts the per-(layer,datatype) visibility map into the
// layer-only predicate render.Options and viewport.Manager expect: a layer
// is visible if at least one of its datatypes is visible, or if the map
// has no entries at all for that layer (default-visible). Neither the
// SpatialIndex (see buildSpatialIndex) nor render.Renderer's batch filter
// masks by datatype, so hiding one datatype of a layer while another of its
// datatypes stays visible leaves every datatype of that layer drawn.
func (v *Viewer) layerVisibleFunc() func(layer int) bool {
	if len(v.layerVisible) == 0 {
		return nil
	}
	return func(layer int) bool {
		anyKeyForLayer := false
		for key, visible := range v.layerVisible {
			var l, d int
			if _, err := fmt.Sscanf(key, "%d:%d", &l, &d); err != nil || l != layer {
				continue
			}
			anyKeyForLayer = true
			if visible {
				return true
			}
		}
		return !anyKeyForLayer
	}
}

// SetRenderDepth hints a preferred hierarchy-flattening depth; the LOD
// manager may override it on the next zoom-threshold crossing (spec.md §6).
func (v *Viewer) SetRenderDepth(depth int) {
	v.depthHint = depth
	if v.lodMgr != nil {
		v.lodMgr.SetDepthHint(depth)
	}
}

// Render flattens the current document through the viewport's affine at
// the LOD manager's current depth and publishes a new Frame. Call once per
// frame before Draw.
func (v *Viewer) Render() error {
	if v.doc == nil {
		return nil
	}
	gen := v.loadGeneration.Load()

	v.lodMgr.SetRerendering(true)
	defer v.lodMgr.SetRerendering(false)

	view := v.viewportMgr.Affine()
	_, err := v.renderer.Render(v.doc, view, render.Options{
		Depth:        v.lodMgr.Depth(),
		FillMode:     v.fillMode,
		Scale:        v.viewportMgr.Scale(),
		LayerVisible: v.layerVisibleFunc(),
		Cancelled:    func() bool { return v.loadGeneration.Load() != gen },
	})
	if err != nil {
		if v.DebugLog != nil {
			v.DebugLog(err)
		}
		return nil // spec.md §7: logged; the previous frame stays current
	}
	if v.minimapSf != nil {
		if _, err := v.minimap.Render(v.doc); err != nil && v.DebugLog != nil {
			v.DebugLog(err)
		}
	}
	return nil
}

// Draw submits the current frame (and minimap, if attached) to their
// surfaces. Call once per frame after Render.
func (v *Viewer) Draw() {
	v.renderer.Draw()
	if v.minimapSf != nil {
		v.minimap.Draw()
	}
}

// Update advances viewport tweens, the debounced visibility query, and the
// LOD decision machine, and notifies onViewportChanged subscribers with the
// current viewport state on every call made while a document is loaded.
// Call once per frame alongside Render/Draw.
func (v *Viewer) Update(dt time.Duration) {
	v.viewportMgr.Update(dt)
	if v.hasPoller {
		v.input.Update()
	}
	if v.doc == nil {
		return
	}

	frame := v.renderer.CurrentFrame()
	rendered := 0
	if frame != nil {
		rendered = frame.PolygonCount
	}
	decision := v.lodMgr.Check(v.viewportMgr.Scale(), rendered, !v.fillMode)
	if decision.Changed {
		_ = v.Render()
	}

	visible := v.viewportMgr.UpdateVisibility(v.index, v.layerVisibleFunc())
	_ = visible

	vp := ViewportState{Tx: v.viewportMgr.TX(), Ty: v.viewportMgr.TY(), Sx: v.viewportMgr.Scale()}
	bbox := v.viewportMgr.VisibleBounds()
	for _, fn := range v.viewportChangedSubs {
		fn(vp, bbox)
	}
}

// GetPerformanceMetrics returns a snapshot for the shell's status line
// (spec.md §6).
func (v *Viewer) GetPerformanceMetrics() PerformanceMetrics {
	m := PerformanceMetrics{
		Depth:      v.lodMgr.Depth(),
		Zoom:       v.viewportMgr.Scale(),
		Thresholds: Thresholds{ZoomOutFactor: lod.ZoomOutFactor, ZoomInFactor: lod.ZoomInFactor},
	}
	if frame := v.renderer.CurrentFrame(); frame != nil {
		m.VisiblePolygons = frame.PolygonCount
	}
	if v.doc != nil {
		m.ViewportBBox = v.viewportMgr.VisibleBounds()
		m.TotalPolygons = totalPolygons(v.doc)
	}
	m.Budget = lod.BudgetForDepth(m.Depth)
	if v.fpsCounter != nil {
		m.FPS = v.fpsCounter.Value()
	}
	return m
}

// SampleFPS folds one frame's instantaneous FPS into the smoothed counter
// GetPerformanceMetrics reports. The host shell calls this once per frame
// with whatever its game loop reports (e.g. ebiten.ActualFPS()).
func (v *Viewer) SampleFPS(instantFPS float64) {
	if v.fpsCounter != nil {
		v.fpsCounter.Sample(instantFPS)
	}
}

// OnHover registers fn to be called with world coordinates on pointer
// movement. Returns an unsubscribe function (spec.md §6).
func (v *Viewer) OnHover(fn func(worldX, worldY float64)) func() {
	id := v.nextSubID
	v.nextSubID++
	v.hoverSubs[id] = fn
	return func() { delete(v.hoverSubs, id) }
}

// OnViewportChanged registers fn to be called with the viewport state and
// visible bbox on every Update while a document is loaded, whether or not
// they changed. Returns an unsubscribe function (spec.md §6).
func (v *Viewer) OnViewportChanged(fn func(ViewportState, geom.Rect)) func() {
	id := v.nextSubID
	v.nextSubID++
	v.viewportChangedSubs[id] = fn
	return func() { delete(v.viewportChangedSubs, id) }
}
