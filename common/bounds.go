package common

import (
	"github.com/go-gl/mathgl/mgl32"
)

// AABB is an axis-aligned bounding box in world space.
// A box with Min == Max is a valid degenerate box (a point).
type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// NewAABB builds a box from a center point and half-extents along each axis.
//
// Parameters:
//   - center: the world-space center of the box
//   - halfExtents: half of the box size along x, y and z
//
// Returns:
//   - AABB: the resulting box
func NewAABB(center, halfExtents mgl32.Vec3) AABB {
	return AABB{
		Min: center.Sub(halfExtents),
		Max: center.Add(halfExtents),
	}
}

// Center returns the midpoint of the box.
func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Extents returns the half-size of the box along each axis.
func (b AABB) Extents() mgl32.Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

// ContainsPoint reports whether p lies inside or on the surface of the box.
func (b AABB) ContainsPoint(p mgl32.Vec3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// Intersects reports whether the two boxes overlap. Touching faces count as overlap.
func (b AABB) Intersects(o AABB) bool {
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y() &&
		b.Min.Z() <= o.Max.Z() && b.Max.Z() >= o.Min.Z()
}

// Union returns the smallest box enclosing both b and o.
func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{min(b.Min.X(), o.Min.X()), min(b.Min.Y(), o.Min.Y()), min(b.Min.Z(), o.Min.Z())},
		Max: mgl32.Vec3{max(b.Max.X(), o.Max.X()), max(b.Max.Y(), o.Max.Y()), max(b.Max.Z(), o.Max.Z())},
	}
}

// Octant returns the child box for octant index i (0-7) when the box is split at its center.
// Bit 0 selects the upper x half, bit 1 the upper y half and bit 2 the upper z half.
//
// Parameters:
//   - i: octant index in the range [0, 7]
//
// Returns:
//   - AABB: the octant's bounds
func (b AABB) Octant(i int) AABB {
	c := b.Center()
	var o AABB
	for axis := 0; axis < 3; axis++ {
		if i&(1<<axis) != 0 {
			o.Min[axis], o.Max[axis] = c[axis], b.Max[axis]
		} else {
			o.Min[axis], o.Max[axis] = b.Min[axis], c[axis]
		}
	}
	return o
}
