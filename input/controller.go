// Package input dispatches mouse, keyboard, and touch events into viewport
// pan/zoom and shell-level toggle callbacks. Grounded directly on the
// teacher's input.go pointer state machine and pinch detector, simplified:
// this domain has no pickable nodes, so hit-testing and pointer capture are
// dropped — every event is a scene-level (here: viewport-level) callback
// (spec.md §4.7).
package input

import "math"

const (
	maxTouchPointers   = 10 // slot 0 = mouse, 1-9 = touch, mirrors input.go's maxPointers
	dragDeadZonePixels = 4.0
	arrowPanPixels     = 50.0
	keyboardZoomFactor = 1.1
)

// MouseButton identifies which mouse button is involved in an event.
type MouseButton int

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
)

// Poller is the polled-input source the Controller reads each Update —
// an injected collaborator so Controller can be tested without an ebiten
// context running, mirroring render.Graphics/RenderSurface's role for the
// Renderer.
type Poller interface {
	CursorPosition() (x, y float64)
	WheelDelta() (dx, dy float64)
	IsMouseButtonPressed(b MouseButton) bool
	IsKeyPressed(key string) bool
	IsKeyJustPressed(key string) bool
	IsKeyJustReleased(key string) bool
	SpaceHeld() bool
	TouchPositions() map[int]struct{ X, Y float64 } // touch ID -> screen position
}

// Callbacks are invoked by Update in response to dispatched input. Any may
// be left nil.
type Callbacks struct {
	OnPan              func(dxScreen, dyScreen float64)
	OnZoom             func(screenX, screenY, factor float64)
	OnHover            func(screenX, screenY float64)
	OnToggle           func(name string, pressed bool)
	OnPinch            func(centerX, centerY, scaleDelta float64)
}

// toggleKeys maps spec.md §4.7 single-key shortcuts (F fit, G grid, O
// outline, P performance panel, L layer panel, M minimap) to toggle names;
// each fires OnToggle twice per physical press: once on press, once on
// release, so the shell can implement both "tap to toggle" and
// "hold to preview" semantics from the same event stream.
var toggleKeys = map[string]string{
	"F": "fit",
	"G": "grid",
	"O": "outline",
	"P": "performance",
	"L": "layers",
	"M": "minimap",
}

type pointerState struct {
	down     bool
	startX   float64
	startY   float64
	lastX    float64
	lastY    float64
	dragging bool
}

type pinchState struct {
	active      bool
	id0, id1    int
	initialDist float64
	prevDist    float64
}

// Controller is the InputController: it polls a Poller every Update and
// dispatches Callbacks.
type Controller struct {
	poller    Poller
	callbacks Callbacks

	mouse        pointerState
	touch        map[int]*pointerState
	pinch        pinchState
	toggleActive map[string]bool

	canvasW, canvasH float64
}

// NewController creates a Controller reading from poller and invoking cb.
func NewController(poller Poller, cb Callbacks) *Controller {
	return &Controller{
		poller:       poller,
		callbacks:    cb,
		touch:        make(map[int]*pointerState),
		toggleActive: make(map[string]bool),
	}
}

// SetCanvasSize records the current canvas dimensions so keyboard zoom
// (spec.md §4.7) can center on the canvas rather than the cursor.
func (c *Controller) SetCanvasSize(w, h float64) {
	c.canvasW, c.canvasH = w, h
}

// Update polls the input source once and dispatches any resulting events.
// Call once per frame.
func (c *Controller) Update() {
	c.processMouse()
	c.processTouch()
	c.processKeyboard()
}

func (c *Controller) processMouse() {
	sx, sy := c.poller.CursorPosition()

	if dx, dy := c.poller.WheelDelta(); dy != 0 && c.callbacks.OnZoom != nil {
		factor := math.Pow(1.1, dy)
		c.callbacks.OnZoom(sx, sy, factor)
	} else {
		_ = dx
	}

	panHeld := c.poller.IsMouseButtonPressed(MouseButtonMiddle) || c.poller.SpaceHeld()
	ps := &c.mouse

	switch {
	case panHeld && !ps.down:
		ps.down = true
		ps.startX, ps.startY = sx, sy
		ps.lastX, ps.lastY = sx, sy
		ps.dragging = false

	case panHeld && ps.down:
		if sx != ps.lastX || sy != ps.lastY {
			if !ps.dragging {
				dist := math.Hypot(sx-ps.startX, sy-ps.startY)
				if dist > dragDeadZonePixels {
					ps.dragging = true
				}
			}
			if ps.dragging && c.callbacks.OnPan != nil {
				c.callbacks.OnPan(sx-ps.lastX, sy-ps.lastY)
			}
			ps.lastX, ps.lastY = sx, sy
		}

	case !panHeld && ps.down:
		ps.down = false
		ps.dragging = false

	default:
		if (sx != ps.lastX || sy != ps.lastY) && c.callbacks.OnHover != nil {
			c.callbacks.OnHover(sx, sy)
		}
		ps.lastX, ps.lastY = sx, sy
	}
}

func (c *Controller) processTouch() {
	positions := c.poller.TouchPositions()

	for id, pos := range positions {
		ps, ok := c.touch[id]
		if !ok {
			ps = &pointerState{down: true, startX: pos.X, startY: pos.Y, lastX: pos.X, lastY: pos.Y}
			c.touch[id] = ps
			continue
		}
		if (pos.X != ps.lastX || pos.Y != ps.lastY) && len(positions) == 1 && c.callbacks.OnPan != nil {
			c.callbacks.OnPan(pos.X-ps.lastX, pos.Y-ps.lastY)
		}
		ps.lastX, ps.lastY = pos.X, pos.Y
	}
	for id := range c.touch {
		if _, ok := positions[id]; !ok {
			delete(c.touch, id)
		}
	}

	c.detectPinch(positions)
}

func (c *Controller) detectPinch(positions map[int]struct{ X, Y float64 }) {
	if len(positions) != 2 {
		c.pinch.active = false
		return
	}
	var ids []int
	for id := range positions {
		ids = append(ids, id)
	}
	p0, p1 := positions[ids[0]], positions[ids[1]]
	cx, cy := (p0.X+p1.X)/2, (p0.Y+p1.Y)/2
	dist := math.Hypot(p1.X-p0.X, p1.Y-p0.Y)

	if !c.pinch.active {
		c.pinch = pinchState{active: true, id0: ids[0], id1: ids[1], initialDist: dist, prevDist: dist}
		return
	}
	if c.pinch.prevDist > 0 && c.callbacks.OnPinch != nil {
		scaleDelta := dist/c.pinch.prevDist - 1.0
		c.callbacks.OnPinch(cx, cy, scaleDelta)
	}
	c.pinch.prevDist = dist
}

func (c *Controller) processKeyboard() {
	shift := c.poller.IsKeyPressed("Shift")

	if c.poller.IsKeyJustPressed("ArrowLeft") && c.callbacks.OnPan != nil {
		c.callbacks.OnPan(arrowPanPixels, 0)
	}
	if c.poller.IsKeyJustPressed("ArrowRight") && c.callbacks.OnPan != nil {
		c.callbacks.OnPan(-arrowPanPixels, 0)
	}
	if c.poller.IsKeyJustPressed("ArrowUp") && c.callbacks.OnPan != nil {
		c.callbacks.OnPan(0, arrowPanPixels)
	}
	if c.poller.IsKeyJustPressed("ArrowDown") && c.callbacks.OnPan != nil {
		c.callbacks.OnPan(0, -arrowPanPixels)
	}

	if c.poller.IsKeyJustPressed("Enter") && c.callbacks.OnZoom != nil {
		factor := keyboardZoomFactor
		if shift {
			factor = 1 / keyboardZoomFactor
		}
		c.callbacks.OnZoom(c.canvasW/2, c.canvasH/2, factor)
	}

	for key, name := range toggleKeys {
		if c.poller.IsKeyJustPressed(key) {
			c.toggleActive[name] = true
			if c.callbacks.OnToggle != nil {
				c.callbacks.OnToggle(name, true)
			}
		}
		if c.poller.IsKeyJustReleased(key) && c.toggleActive[name] {
			c.toggleActive[name] = false
			if c.callbacks.OnToggle != nil {
				c.callbacks.OnToggle(name, false)
			}
		}
	}
}
