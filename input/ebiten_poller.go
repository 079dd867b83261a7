package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// EbitenPoller is the default Poller, backed directly by ebiten's global
// input functions. Grounded on phanxgames-willow/input.go's
// processPointers/processKeyboard, which reads the same ebiten calls inline
// rather than through an interface — Poller exists precisely so this
// module's Controller does not have to.
type EbitenPoller struct {
	prevTouchIDs []ebiten.TouchID
}

// NewEbitenPoller creates an EbitenPoller.
func NewEbitenPoller() *EbitenPoller { return &EbitenPoller{} }

func (p *EbitenPoller) CursorPosition() (x, y float64) {
	cx, cy := ebiten.CursorPosition()
	return float64(cx), float64(cy)
}

func (p *EbitenPoller) WheelDelta() (dx, dy float64) {
	return ebiten.Wheel()
}

func (p *EbitenPoller) IsMouseButtonPressed(b MouseButton) bool {
	return ebiten.IsMouseButtonPressed(toEbitenMouseButton(b))
}

func (p *EbitenPoller) IsKeyPressed(key string) bool {
	k, ok := keyNames[key]
	if !ok {
		return false
	}
	return ebiten.IsKeyPressed(k)
}

func (p *EbitenPoller) IsKeyJustPressed(key string) bool {
	k, ok := keyNames[key]
	if !ok {
		return false
	}
	return inpututil.IsKeyJustPressed(k)
}

func (p *EbitenPoller) IsKeyJustReleased(key string) bool {
	k, ok := keyNames[key]
	if !ok {
		return false
	}
	return inpututil.IsKeyJustReleased(k)
}

func (p *EbitenPoller) SpaceHeld() bool {
	return ebiten.IsKeyPressed(ebiten.KeySpace)
}

// TouchPositions mirrors scene.go's processTouch touch-ID bookkeeping
// (AppendTouchIDs into a reused slice, then TouchPosition per ID).
func (p *EbitenPoller) TouchPositions() map[int]struct{ X, Y float64 } {
	ids := ebiten.AppendTouchIDs(p.prevTouchIDs[:0])
	p.prevTouchIDs = ids
	if len(ids) == 0 {
		return nil
	}
	out := make(map[int]struct{ X, Y float64 }, len(ids))
	for _, id := range ids {
		x, y := ebiten.TouchPosition(id)
		out[int(id)] = struct{ X, Y float64 }{float64(x), float64(y)}
	}
	return out
}

func toEbitenMouseButton(b MouseButton) ebiten.MouseButton {
	switch b {
	case MouseButtonMiddle:
		return ebiten.MouseButtonMiddle
	case MouseButtonRight:
		return ebiten.MouseButtonRight
	default:
		return ebiten.MouseButtonLeft
	}
}

// keyNames maps the string key names Controller.processKeyboard uses (the
// spec.md §4.7 toggle letters plus navigation keys) onto ebiten.Key
// constants.
var keyNames = map[string]ebiten.Key{
	"Shift":      ebiten.KeyShift,
	"Enter":      ebiten.KeyEnter,
	"ArrowLeft":  ebiten.KeyArrowLeft,
	"ArrowRight": ebiten.KeyArrowRight,
	"ArrowUp":    ebiten.KeyArrowUp,
	"ArrowDown":  ebiten.KeyArrowDown,
	"F":          ebiten.KeyF,
	"G":          ebiten.KeyG,
	"O":          ebiten.KeyO,
	"P":          ebiten.KeyP,
	"L":          ebiten.KeyL,
	"M":          ebiten.KeyM,
}
