package gds

import (
	"math"

	"github.com/jwt625/gdsjam-sub000/geom"
)

// identityTransform returns the identity affine, the base of composition
// before any instance transform is applied.
func identityTransform() geom.Affine {
	return geom.Identity
}

// instanceTransform composes parent (the accumulated transform of the cell
// that owns inst) with inst's own mirror/rotate/magnify/translate, in that
// mandatory order (spec.md §4.6): mirror about X first, then rotate, then
// magnify, then translate. Reordering this regresses the "mirrored cell
// rotated 180 degrees lands upside-down" case.
// InstanceTransform composes parent with inst's own mirror/rotate/magnify/
// translate in the mandatory spec.md §4.6 order. Exported so the renderer
// can reuse the exact same composition when flattening the hierarchy.
func InstanceTransform(parent geom.Affine, inst *Instance) geom.Affine {
	return instanceTransform(parent, inst)
}

func instanceTransform(parent geom.Affine, inst *Instance) geom.Affine {
	local := geom.Identity
	if inst.Mirror {
		// Reflect about the X axis: (x, y) -> (x, -y).
		local = geom.Affine{1, 0, 0, -1, 0, 0}
	}
	if inst.RotationDeg != 0 {
		rad := inst.RotationDeg * math.Pi / 180
		cos, sin := math.Cos(rad), math.Sin(rad)
		rot := geom.Affine{cos, sin, -sin, cos, 0, 0}
		local = rot.Mul(local)
	}
	if inst.Magnification != 0 && inst.Magnification != 1 {
		scale := geom.Affine{inst.Magnification, 0, 0, inst.Magnification, 0, 0}
		local = scale.Mul(local)
	}
	translate := geom.Affine{1, 0, 0, 1, inst.X, inst.Y}
	local = translate.Mul(local)

	return parent.Mul(local)
}
