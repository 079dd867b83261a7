package render

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// EbitenSurface is the default RenderSurface, backed by an ebiten.Image.
// It replaces the teacher's sprite-atlas DrawImage/DrawTriangles path with
// vector.Path fill/stroke, the natural ebiten-native way to rasterize
// arbitrary polygons that have no corresponding texture (spec.md §4.6).
type EbitenSurface struct {
	target *ebiten.Image
}

// NewEbitenSurface wraps an existing ebiten.Image (typically the screen
// passed into Game.Draw) as a RenderSurface.
func NewEbitenSurface(target *ebiten.Image) *EbitenSurface {
	return &EbitenSurface{target: target}
}

// SetTarget retargets the surface to a new image, e.g. the new screen
// passed to Draw() each frame.
func (s *EbitenSurface) SetTarget(target *ebiten.Image) { s.target = target }

func (s *EbitenSurface) Graphics() Graphics {
	return ebitenGraphics{target: s.target}
}

func (s *EbitenSurface) Size() (int, int) {
	if s.target == nil {
		return 0, 0
	}
	b := s.target.Bounds()
	return b.Dx(), b.Dy()
}

type ebitenGraphics struct {
	target *ebiten.Image
}

func (g ebitenGraphics) FillPolygon(points []float64, c color.Color) {
	if g.target == nil || len(points) < 6 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(points[0]), float32(points[1]))
	for i := 2; i+1 < len(points); i += 2 {
		path.LineTo(float32(points[i]), float32(points[i+1]))
	}
	path.Close()

	vs, is := path.AppendVerticesAndIndicesForFilling(nil, nil)
	r, gg, b, a := c.RGBA()
	cr, cg, cb, ca := toFloat32Color(r, gg, b, a)
	for i := range vs {
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = cr, cg, cb, ca
	}
	var op ebiten.DrawTrianglesOptions
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	g.target.DrawTriangles(vs, is, whitePixel(), &op)
}

func (g ebitenGraphics) StrokePolygon(points []float64, strokeWidth float32, c color.Color) {
	if g.target == nil || len(points) < 4 {
		return
	}
	var path vector.Path
	path.MoveTo(float32(points[0]), float32(points[1]))
	for i := 2; i+1 < len(points); i += 2 {
		path.LineTo(float32(points[i]), float32(points[i+1]))
	}
	path.Close()

	so := &vector.StrokeOptions{Width: strokeWidth}
	vs, is := path.AppendVerticesAndIndicesForStroke(nil, nil, so)
	r, gg, b, a := c.RGBA()
	cr, cg, cb, ca := toFloat32Color(r, gg, b, a)
	for i := range vs {
		vs[i].ColorR, vs[i].ColorG, vs[i].ColorB, vs[i].ColorA = cr, cg, cb, ca
	}
	var op ebiten.DrawTrianglesOptions
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	g.target.DrawTriangles(vs, is, whitePixel(), &op)
}

func toFloat32Color(r, g, b, a uint32) (cr, cg, cb, ca float32) {
	if a == 0 {
		return 0, 0, 0, 0
	}
	af := float32(a) / 0xffff
	return (float32(r) / 0xffff), (float32(g) / 0xffff), (float32(b) / 0xffff), af
}

var whitePixelImage *ebiten.Image

func whitePixel() *ebiten.Image {
	if whitePixelImage == nil {
		whitePixelImage = ebiten.NewImage(3, 3)
		whitePixelImage.Fill(color.White)
	}
	return whitePixelImage.SubImage(whitePixelImage.Bounds()).(*ebiten.Image)
}
