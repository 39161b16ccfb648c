package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// planeEpsilon is the tolerance used by the inclusive plane tests. Boxes whose positive vertex
// sits within this distance behind a plane are still treated as inside.
const planeEpsilon = 1e-5

// Plane represents a plane in 3D space using the equation: ax + by + cz + d = 0
// where (a, b, c) is the normal and d is the distance from origin.
type Plane struct {
	Normal   mgl32.Vec3
	Distance float32
}

// SignedDistance returns the signed distance from p to the plane. Positive values are on the
// side the normal points to.
func (p Plane) SignedDistance(v mgl32.Vec3) float32 {
	return p.Normal.Dot(v) + p.Distance
}

// Frustum represents the six planes of a view frustum for culling.
// Planes are oriented so that positive half-space is inside the frustum.
type Frustum struct {
	Planes [6]Plane // Left, Right, Bottom, Top, Near, Far
}

// FrustumPlane indices for clarity
const (
	FrustumLeft   = 0
	FrustumRight  = 1
	FrustumBottom = 2
	FrustumTop    = 3
	FrustumNear   = 4
	FrustumFar    = 5
)

// Containment is the result of testing a box against a frustum.
type Containment int

const (
	// Outside means the box lies entirely on the negative side of at least one plane.
	Outside Containment = iota
	// Intersecting means the box straddles one or more planes.
	Intersecting
	// Inside means the box lies entirely inside all six planes.
	Inside
)

// ExtractFrustumFromMatrix extracts frustum planes from a view-projection matrix.
// The matrix should be the combined Projection * View matrix.
// Uses the Gribb/Hartmann method for plane extraction.
//
// Reference: https://www8.cs.umu.se/kurser/5DV051/HT12/lab/plane_extraction.pdf
//
// Parameters:
//   - viewProj: the view-projection matrix (column-major, as stored by mgl32)
//
// Returns:
//   - Frustum: the extracted frustum with normalized planes
func ExtractFrustumFromMatrix(viewProj mgl32.Mat4) Frustum {
	var f Frustum

	// For column-major matrix M, element M[row][col] is at index col*4 + row.
	row := func(r int) [4]float32 {
		return [4]float32{viewProj[r], viewProj[4+r], viewProj[8+r], viewProj[12+r]}
	}
	r0, r1, r2, r3 := row(0), row(1), row(2), row(3)

	set := func(index int, a [4]float32, b [4]float32, sign float32) {
		f.Planes[index].Normal = mgl32.Vec3{a[0] + sign*b[0], a[1] + sign*b[1], a[2] + sign*b[2]}
		f.Planes[index].Distance = a[3] + sign*b[3]
	}

	set(FrustumLeft, r3, r0, 1)    // row3 + row0
	set(FrustumRight, r3, r0, -1)  // row3 - row0
	set(FrustumBottom, r3, r1, 1)  // row3 + row1
	set(FrustumTop, r3, r1, -1)    // row3 - row1
	set(FrustumFar, r3, r2, -1)    // row3 - row2

	// clip depth is [0, 1] as produced by Perspective, so the near plane is row2 alone
	f.Planes[FrustumNear].Normal = mgl32.Vec3{r2[0], r2[1], r2[2]}
	f.Planes[FrustumNear].Distance = r2[3]

	// Normalize all planes
	for i := range f.Planes {
		f.normalizePlane(i)
	}

	return f
}

// normalizePlane normalizes a frustum plane so that the normal has unit length.
func (f *Frustum) normalizePlane(index int) {
	p := &f.Planes[index]
	length := float32(math.Sqrt(float64(p.Normal.Dot(p.Normal))))

	if length > 0 {
		invLen := 1.0 / length
		p.Normal = p.Normal.Mul(invLen)
		p.Distance *= invLen
	}
}

// ContainsPoint reports whether p lies inside (or on the boundary of) all six planes.
func (f *Frustum) ContainsPoint(p mgl32.Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(p) < -planeEpsilon {
			return false
		}
	}
	return true
}

// IntersectsAABB performs the conservative positive-vertex test: for every plane the box corner
// most aligned with the plane normal is selected, and the box is rejected only when that corner
// lies behind the plane. Boxes exactly touching a plane are kept.
//
// Parameters:
//   - box: the world-space bounding box to test
//
// Returns:
//   - bool: false only when the box is guaranteed to be outside the frustum
func (f *Frustum) IntersectsAABB(box AABB) bool {
	for i := range f.Planes {
		p := &f.Planes[i]
		if p.SignedDistance(positiveVertex(p.Normal, box)) < -planeEpsilon {
			return false
		}
	}
	return true
}

// ClassifyAABB reports whether the box is outside, straddling or fully inside the frustum.
// The hierarchical culler uses Inside to accept whole subtrees without further tests.
func (f *Frustum) ClassifyAABB(box AABB) Containment {
	result := Inside
	for i := range f.Planes {
		p := &f.Planes[i]
		if p.SignedDistance(positiveVertex(p.Normal, box)) < -planeEpsilon {
			return Outside
		}
		// negative vertex is the corner least aligned with the normal
		if p.SignedDistance(positiveVertex(p.Normal.Mul(-1), box)) < -planeEpsilon {
			result = Intersecting
		}
	}
	return result
}

// positiveVertex returns the corner of box furthest along normal.
func positiveVertex(normal mgl32.Vec3, box AABB) mgl32.Vec3 {
	v := box.Min
	for axis := 0; axis < 3; axis++ {
		if normal[axis] >= 0 {
			v[axis] = box.Max[axis]
		}
	}
	return v
}
