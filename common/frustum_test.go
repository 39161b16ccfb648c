package common

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// =============================================================================
// Helpers
// =============================================================================

func testViewProjection(eye, target mgl32.Vec3, fovDeg, near, far float32) mgl32.Mat4 {
	view := LookAt(eye, target, mgl32.Vec3{0, 1, 0})
	proj := Perspective(mgl32.DegToRad(fovDeg), 1, near, far)
	return proj.Mul4(view)
}

// =============================================================================
// Plane Extraction Tests
// =============================================================================

func TestExtractFrustumFromMatrix_NormalizedPlanes(t *testing.T) {
	f := ExtractFrustumFromMatrix(testViewProjection(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, 60, 0.1, 100))

	for i, p := range f.Planes {
		l := p.Normal.Len()
		if math.Abs(float64(l-1)) > 1e-4 {
			t.Errorf("plane %d normal length = %f, want 1", i, l)
		}
	}
}

func TestExtractFrustumFromMatrix_FarPlaneDistance(t *testing.T) {
	// camera at origin looking down -Z, so the far plane sits at z = -100
	f := ExtractFrustumFromMatrix(testViewProjection(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 60, 0.1, 100))

	if !f.ContainsPoint(mgl32.Vec3{0, 0, -99}) {
		t.Error("point just before the far plane should be inside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, -101}) {
		t.Error("point beyond the far plane should be outside")
	}
	if f.ContainsPoint(mgl32.Vec3{0, 0, 10}) {
		t.Error("point behind the camera should be outside")
	}
}

func TestExtractFrustumFromMatrix_NearPlaneDistance(t *testing.T) {
	// camera at origin looking down -Z with the near plane at z = -0.5
	f := ExtractFrustumFromMatrix(testViewProjection(mgl32.Vec3{}, mgl32.Vec3{0, 0, -1}, 60, 0.5, 100))
	near := f.Planes[FrustumNear]

	type spec struct {
		depth float32
		want  float32
	}
	specs := []spec{
		{0.5, 0},
		{1, 0.5},
		{10, 9.5},
		{0.25, -0.25},
	}

	for index, s := range specs {
		got := near.Normal.Dot(mgl32.Vec3{0, 0, -s.depth}) + near.Distance
		if math.Abs(float64(got-s.want)) > 1e-4 {
			t.Fatalf("[spec %d] near plane distance at depth %f = %f, want %f", index, s.depth, got, s.want)
		}
	}

	if f.ContainsPoint(mgl32.Vec3{0, 0, -0.3}) {
		t.Error("point between the eye and the near plane should be outside")
	}
	if !f.ContainsPoint(mgl32.Vec3{0, 0, -0.6}) {
		t.Error("point just past the near plane should be inside")
	}
}

// =============================================================================
// AABB Tests
// =============================================================================

func TestFrustum_IntersectsAABB(t *testing.T) {
	f := ExtractFrustumFromMatrix(testViewProjection(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}, 60, 0.1, 1000))

	type spec struct {
		name string
		box  AABB
		want bool
	}
	specs := []spec{
		{"origin box", NewAABB(mgl32.Vec3{}, mgl32.Vec3{5, 5, 5}), true},
		{"behind far plane", NewAABB(mgl32.Vec3{0, 0, 2000}, mgl32.Vec3{5, 5, 5}), false},
		{"behind camera", NewAABB(mgl32.Vec3{0, 0, -200}, mgl32.Vec3{5, 5, 5}), false},
		{"far left", NewAABB(mgl32.Vec3{500, 0, 0}, mgl32.Vec3{5, 5, 5}), false},
		{"straddling left plane", NewAABB(mgl32.Vec3{30, 0, 0}, mgl32.Vec3{5, 5, 5}), true},
		{"huge box enclosing frustum", NewAABB(mgl32.Vec3{}, mgl32.Vec3{1e4, 1e4, 1e4}), true},
	}

	for index, s := range specs {
		if got := f.IntersectsAABB(s.box); got != s.want {
			t.Fatalf("[spec %d: %s] IntersectsAABB = %t, want %t", index, s.name, got, s.want)
		}
	}
}

func TestFrustum_ClassifyAABB(t *testing.T) {
	f := ExtractFrustumFromMatrix(testViewProjection(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}, 60, 0.1, 1000))

	if got := f.ClassifyAABB(NewAABB(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})); got != Inside {
		t.Errorf("small centered box = %v, want Inside", got)
	}
	if got := f.ClassifyAABB(NewAABB(mgl32.Vec3{}, mgl32.Vec3{1e4, 1e4, 1e4})); got != Intersecting {
		t.Errorf("enclosing box = %v, want Intersecting", got)
	}
	if got := f.ClassifyAABB(NewAABB(mgl32.Vec3{0, 0, -500}, mgl32.Vec3{1, 1, 1})); got != Outside {
		t.Errorf("box behind camera = %v, want Outside", got)
	}
}

// =============================================================================
// Bounds Tests
// =============================================================================

func TestAABB_Octant(t *testing.T) {
	b := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{2, 2, 2}}

	union := b.Octant(0)
	for i := 1; i < 8; i++ {
		o := b.Octant(i)
		if o.Extents() != (mgl32.Vec3{0.5, 0.5, 0.5}) {
			t.Fatalf("octant %d extents = %v, want 0.5 on every axis", i, o.Extents())
		}
		union = union.Union(o)
	}
	if union != b {
		t.Errorf("union of octants = %v, want %v", union, b)
	}

	if got := b.Octant(7).Min; got != (mgl32.Vec3{1, 1, 1}) {
		t.Errorf("octant 7 min = %v, want (1,1,1)", got)
	}
}

func TestAABB_ContainsAndIntersects(t *testing.T) {
	a := NewAABB(mgl32.Vec3{}, mgl32.Vec3{1, 1, 1})
	b := NewAABB(mgl32.Vec3{2, 0, 0}, mgl32.Vec3{1, 1, 1})
	c := NewAABB(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{1, 1, 1})

	if !a.Intersects(b) {
		t.Error("touching boxes should intersect")
	}
	if a.Intersects(c) {
		t.Error("separated boxes should not intersect")
	}
	if !a.ContainsPoint(mgl32.Vec3{1, 1, 1}) {
		t.Error("corner point should be contained")
	}
	if a.ContainsPoint(mgl32.Vec3{1.1, 0, 0}) {
		t.Error("outside point should not be contained")
	}
}
