package cull

import (
	"slices"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
)

// =============================================================================
// Helpers
// =============================================================================

type testObject struct {
	bounds common.AABB
	layer  frame.Layer
}

func (o *testObject) Bounds() common.AABB  { return o.bounds }
func (o *testObject) Position() mgl32.Vec3 { return o.bounds.Center() }
func (o *testObject) Layer() frame.Layer   { return o.layer }

func cube(x, y, z, half float32) Object {
	return &testObject{bounds: common.NewAABB(mgl32.Vec3{x, y, z}, mgl32.Vec3{half, half, half})}
}

func cameraAt(eye, target mgl32.Vec3, far float32) CameraView {
	view := common.LookAt(eye, target, mgl32.Vec3{0, 1, 0})
	proj := common.Perspective(mgl32.DegToRad(60), 1, 0.1, far)
	return CameraView{
		Position:       eye,
		View:           view,
		Projection:     proj,
		ViewProjection: proj.Mul4(view),
		Near:           0.1,
		Far:            far,
	}
}

func grid() []Object {
	var out []Object
	for x := -100; x < 100; x += 10 {
		for y := -25; y < 25; y += 10 {
			for z := -100; z < 100; z += 10 {
				out = append(out, cube(float32(x), float32(y), float32(z), 2))
			}
		}
	}
	return out
}

type halfSpaceOccluder struct {
	supported bool
}

func (o halfSpaceOccluder) Supported() bool { return o.supported }
func (o halfSpaceOccluder) Occluded(obj Object, _ CameraView) bool {
	return obj.Position().X() > 0
}

// =============================================================================
// Stage Tests
// =============================================================================

func TestCull_Frustum(t *testing.T) {
	f := NewFilter()
	cam := cameraAt(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}, 1000)

	origin := cube(0, 0, 0, 5)
	beyondFar := cube(0, 0, 2000, 5)
	behind := cube(0, 0, -200, 5)
	aside := cube(500, 0, 0, 5)

	got := f.Cull([]Object{origin, beyondFar, behind, aside}, cam, 0)
	if !slices.Equal(got, []Object{origin}) {
		t.Fatalf("visible = %v, want only the origin box", got)
	}
	if f.LastCulled() != 3 {
		t.Errorf("LastCulled = %d, want 3", f.LastCulled())
	}
	if s := f.LastStats(); s.FrustumCulled != 3 || s.Visible != 1 {
		t.Errorf("stats = %+v, want 3 frustum culled and 1 visible", s)
	}
}

func TestCull_Distance(t *testing.T) {
	cam := cameraAt(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}, 1000)

	type spec struct {
		z           float32
		maxDistance float32
		want        bool
	}
	specs := []spec{
		{z: 49, maxDistance: 100, want: true},
		{z: 50, maxDistance: 100, want: true},
		{z: 51, maxDistance: 100, want: false},
		{z: 500, maxDistance: 0, want: true},
		{z: 500, maxDistance: -1, want: true},
	}

	for index, s := range specs {
		f := NewFilter()
		got := f.Cull([]Object{cube(0, 0, s.z, 0.5)}, cam, s.maxDistance)
		if (len(got) == 1) != s.want {
			t.Fatalf("[spec %d] visible = %t, want %t", index, len(got) == 1, s.want)
		}
		if !s.want && f.LastStats().DistanceCulled != 1 {
			t.Fatalf("[spec %d] DistanceCulled = %d, want 1", index, f.LastStats().DistanceCulled)
		}
	}
}

func TestCull_FarCameraRejectedByDistance(t *testing.T) {
	f := NewFilter()
	cam := cameraAt(mgl32.Vec3{0, 0, -50000}, mgl32.Vec3{}, 100000)

	if got := f.Cull([]Object{cube(0, 0, 0, 5)}, cam, 1000); len(got) != 0 {
		t.Fatalf("visible = %d, want 0", len(got))
	}
	if s := f.LastStats(); s.DistanceCulled != 1 || s.FrustumCulled != 0 {
		t.Errorf("stats = %+v, want the distance stage to reject the box", s)
	}
}

func TestCull_BoxContainingCameraKept(t *testing.T) {
	f := NewFilter()
	eye := mgl32.Vec3{3, 4, 5}
	cam := cameraAt(eye, mgl32.Vec3{}, 100)

	point := &testObject{bounds: common.AABB{Min: eye, Max: eye}}
	if got := f.Cull([]Object{point}, cam, 0); len(got) != 1 {
		t.Errorf("a box at the camera position should be visible")
	}
}

func TestCull_Occlusion(t *testing.T) {
	cam := cameraAt(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{}, 1000)
	left, right := cube(-5, 0, 0, 1), cube(5, 0, 0, 1)

	f := NewFilter(WithOccluder(halfSpaceOccluder{supported: true}), WithOcclusionEnabled(true))
	if got := f.Cull([]Object{left, right}, cam, 0); !slices.Equal(got, []Object{left}) {
		t.Errorf("visible = %v, want only the left box", got)
	}
	if f.LastStats().OcclusionCulled != 1 {
		t.Errorf("OcclusionCulled = %d, want 1", f.LastStats().OcclusionCulled)
	}

	f.SetOcclusionEnabled(false)
	if got := f.Cull([]Object{left, right}, cam, 0); len(got) != 2 {
		t.Errorf("disabled occlusion should keep both boxes, got %d", len(got))
	}

	f.SetOcclusionEnabled(true)
	f.SetOccluder(halfSpaceOccluder{supported: false})
	if got := f.Cull([]Object{left, right}, cam, 0); len(got) != 2 {
		t.Errorf("unsupported occluder should keep both boxes, got %d", len(got))
	}

	f.SetOccluder(nil)
	if got := f.Cull([]Object{left, right}, cam, 0); len(got) != 2 {
		t.Errorf("default occluder should keep both boxes, got %d", len(got))
	}
}

func TestCull_Empty(t *testing.T) {
	f := NewFilter()
	got := f.Cull(nil, cameraAt(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{}, 100), 50)
	if got == nil || len(got) != 0 {
		t.Errorf("Cull(nil) = %v, want empty slice", got)
	}
	if f.LastCulled() != 0 {
		t.Errorf("LastCulled = %d, want 0", f.LastCulled())
	}
}

// =============================================================================
// Equivalence Tests
// =============================================================================

func TestCull_HierarchicalMatchesFlat(t *testing.T) {
	objects := grid()
	cams := []CameraView{
		cameraAt(mgl32.Vec3{0, 0, -150}, mgl32.Vec3{}, 220),
		cameraAt(mgl32.Vec3{0, 0, 0}, mgl32.Vec3{60, 0, 10}, 80),
		cameraAt(mgl32.Vec3{300, 200, 300}, mgl32.Vec3{}, 1000),
	}

	flat := NewFilter(WithHierarchicalThreshold(0), WithParallelThreshold(0))
	tree := NewFilter(WithHierarchicalThreshold(1), WithParallelThreshold(0))

	for index, cam := range cams {
		want := flat.Cull(objects, cam, 400)
		got := tree.Cull(objects, cam, 400)
		if !tree.LastStats().Hierarchical {
			t.Fatalf("[spec %d] hierarchical stage was not used", index)
		}
		if !slices.Equal(got, want) {
			t.Fatalf("[spec %d] hierarchical result has %d objects, flat has %d", index, len(got), len(want))
		}
		if len(want) == 0 || len(want) == len(objects) {
			t.Fatalf("[spec %d] camera should cull some but not all objects, visible %d", index, len(want))
		}
	}
}

func TestCull_ParallelMatchesSerial(t *testing.T) {
	objects := grid()
	cam := cameraAt(mgl32.Vec3{0, 0, -150}, mgl32.Vec3{}, 220)

	serial := NewFilter(WithHierarchicalThreshold(0), WithParallelThreshold(0))
	parallel := NewFilter(WithHierarchicalThreshold(0), WithParallelThreshold(1), WithWorkers(4))

	want := serial.Cull(objects, cam, 180)
	got := parallel.Cull(objects, cam, 180)

	if parallel.LastStats().Shards != 4 {
		t.Errorf("Shards = %d, want 4", parallel.LastStats().Shards)
	}
	if !slices.Equal(got, want) {
		t.Fatalf("parallel result has %d objects, serial has %d", len(got), len(want))
	}
	if serial.LastStats().Visible != parallel.LastStats().Visible {
		t.Errorf("visible counts differ")
	}
}

func TestCull_PreservesOrder(t *testing.T) {
	objects := grid()
	f := NewFilter(WithHierarchicalThreshold(1))
	got := f.Cull(objects, cameraAt(mgl32.Vec3{0, 0, -150}, mgl32.Vec3{}, 220), 0)

	last := -1
	for _, o := range got {
		i := slices.Index(objects, o)
		if i <= last {
			t.Fatalf("object at input index %d returned after index %d", i, last)
		}
		last = i
	}
}

// =============================================================================
// Octree Tests
// =============================================================================

func TestOctree_CollectsEveryItem(t *testing.T) {
	objects := grid()
	boxes := make([]common.AABB, len(objects))
	for i, o := range objects {
		boxes[i] = o.Bounds()
	}

	root := buildOctree(boxes)
	items := root.collect(nil)
	if len(items) != len(objects) {
		t.Fatalf("octree holds %d items, want %d", len(items), len(objects))
	}
	slices.Sort(items)
	for i, item := range items {
		if item != i {
			t.Fatalf("item %d missing from the octree", i)
		}
	}
	if len(root.children) == 0 {
		t.Error("a large input should be split")
	}
}

func TestOctree_IdenticalCentersStop(t *testing.T) {
	boxes := make([]common.AABB, 100)
	for i := range boxes {
		boxes[i] = common.NewAABB(mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 1, 1})
	}
	root := buildOctree(boxes)
	if len(root.children) != 0 || len(root.items) != 100 {
		t.Errorf("identical centers should produce one leaf, got %d children and %d items", len(root.children), len(root.items))
	}
}
