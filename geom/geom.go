// Package geom provides the coordinate primitives and affine math shared by
// the parser, spatial index, viewport, renderer, and overlays: points,
// axis-aligned rectangles, and 2D affine transforms in the database-unit
// coordinate space GDSII documents are expressed in.
package geom

import "math"

// Point is a 2D coordinate in database units.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in database units.
type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

// EmptyRect returns a rect in the "nothing accumulated yet" state: any real
// point or rect unioned with it replaces it outright.
func EmptyRect() Rect {
	return Rect{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
}

// IsEmpty reports whether r has never been unioned with a point.
func (r Rect) IsEmpty() bool {
	return r.MinX > r.MaxX || r.MinY > r.MaxY
}

// Width returns MaxX - MinX.
func (r Rect) Width() float64 { return r.MaxX - r.MinX }

// Height returns MaxY - MinY.
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// CenterX returns the horizontal midpoint.
func (r Rect) CenterX() float64 { return (r.MinX + r.MaxX) / 2 }

// CenterY returns the vertical midpoint.
func (r Rect) CenterY() float64 { return (r.MinY + r.MaxY) / 2 }

// UnionPoint returns the smallest rect containing r and (x, y).
func (r Rect) UnionPoint(x, y float64) Rect {
	return Rect{
		MinX: math.Min(r.MinX, x), MinY: math.Min(r.MinY, y),
		MaxX: math.Max(r.MaxX, x), MaxY: math.Max(r.MaxY, y),
	}
}

// Union returns the smallest rect containing both r and o.
func (r Rect) Union(o Rect) Rect {
	if o.IsEmpty() {
		return r
	}
	if r.IsEmpty() {
		return o
	}
	return Rect{
		MinX: math.Min(r.MinX, o.MinX), MinY: math.Min(r.MinY, o.MinY),
		MaxX: math.Max(r.MaxX, o.MaxX), MaxY: math.Max(r.MaxY, o.MaxY),
	}
}

// Intersects reports whether r and o overlap, including edge contact.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && r.MaxX >= o.MinX &&
		r.MinY <= o.MaxY && r.MaxY >= o.MinY
}

// Contains reports whether (x, y) lies inside r, edges included.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Area returns the rect's area, 0 for an empty or degenerate rect.
func (r Rect) Area() float64 {
	if r.IsEmpty() {
		return 0
	}
	w, h := r.Width(), r.Height()
	if w < 0 || h < 0 {
		return 0
	}
	return w * h
}

// Affine is a 2D affine matrix [a, b, c, d, tx, ty]:
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
type Affine [6]float64

// Identity is the identity affine matrix.
var Identity = Affine{1, 0, 0, 1, 0, 0}

// Mul returns the composition of p and c: the matrix that first applies c,
// then p (result = p * c in matrix-multiplication order).
func (p Affine) Mul(c Affine) Affine {
	return Affine{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// Apply transforms a point by the matrix.
func (m Affine) Apply(x, y float64) (float64, float64) {
	return m[0]*x + m[2]*y + m[4], m[1]*x + m[3]*y + m[5]
}

// Invert returns the inverse matrix, or Identity if m is singular.
func (m Affine) Invert() Affine {
	det := m[0]*m[3] - m[2]*m[1]
	if det == 0 {
		return Identity
	}
	invDet := 1.0 / det
	a := m[3] * invDet
	b := -m[1] * invDet
	c := -m[2] * invDet
	d := m[0] * invDet
	return Affine{
		a, b, c, d,
		-(a*m[4] + c*m[5]),
		-(b*m[4] + d*m[5]),
	}
}

// ApplyToRectHull returns the tight axis-aligned hull of r's four corners
// after being transformed by m.
func (m Affine) ApplyToRectHull(r Rect) Rect {
	if r.IsEmpty() {
		return r
	}
	x0, y0 := m.Apply(r.MinX, r.MinY)
	x1, y1 := m.Apply(r.MaxX, r.MinY)
	x2, y2 := m.Apply(r.MaxX, r.MaxY)
	x3, y3 := m.Apply(r.MinX, r.MaxY)
	out := EmptyRect()
	out = out.UnionPoint(x0, y0)
	out = out.UnionPoint(x1, y1)
	out = out.UnionPoint(x2, y2)
	out = out.UnionPoint(x3, y3)
	return out
}

// ApplyToPoints transforms each point of pts into out, reusing out's backing
// array when its capacity is at least len(pts) and allocating a new slice
// otherwise, and returns the filled slice of length len(pts).
func ApplyToPoints(m Affine, pts []Point, out []Point) []Point {
	if cap(out) < len(pts) {
		out = make([]Point, len(pts))
	}
	out = out[:len(pts)]
	for i, p := range pts {
		out[i].X, out[i].Y = m.Apply(p.X, p.Y)
	}
	return out
}

// HullOfPoints returns the tight axis-aligned bounding rect of pts.
func HullOfPoints(pts []Point) Rect {
	out := EmptyRect()
	for _, p := range pts {
		out = out.UnionPoint(p.X, p.Y)
	}
	return out
}
