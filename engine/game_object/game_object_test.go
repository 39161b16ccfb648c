package game_object

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestGameObject_BoundsFollowTransform(t *testing.T) {
	g := NewGameObject(WithPosition(1, 2, 3), WithHalfExtents(1, 1, 1), WithScale(2, -1, 1))

	b := g.Bounds()
	if b.Min != (mgl32.Vec3{-1, 1, 2}) || b.Max != (mgl32.Vec3{3, 3, 4}) {
		t.Errorf("Bounds = %v, want min (-1,1,2) max (3,3,4)", b)
	}

	g.SetPosition(0, 0, 0)
	if c := g.Bounds().Center(); c != (mgl32.Vec3{}) {
		t.Errorf("center after move = %v, want origin", c)
	}
}

func TestGameObject_Defaults(t *testing.T) {
	g := NewGameObject()
	if !g.Enabled() {
		t.Error("objects should start enabled")
	}
	if g.TriangleCount() != 12 {
		t.Errorf("TriangleCount = %d, want 12", g.TriangleCount())
	}
	g.SetEnabled(false)
	if g.Enabled() {
		t.Error("SetEnabled(false) did not disable the object")
	}
}
