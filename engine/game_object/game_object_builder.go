package game_object

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the unique identifier for the GameObject.
//
// Parameters:
//   - id: the unique identifier to assign
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the ID option
func WithID(id uint64) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.id = id
	}
}

// WithEnabled sets whether the GameObject is initially enabled for rendering.
//
// Parameters:
//   - enabled: true to enable rendering, false to disable
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the enabled state option
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.enabled.Store(enabled)
	}
}

// WithEphemeral marks the GameObject as ephemeral.
// Ephemeral objects are not tracked in the scene's registry.
//
// Parameters:
//   - ephemeral: true to mark as ephemeral
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the ephemeral option
func WithEphemeral(ephemeral bool) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.ephemeral = ephemeral
	}
}

// WithPosition sets the world position of the GameObject.
//
// Parameters:
//   - x, y, z: position components
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the position option
func WithPosition(x, y, z float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.position = mgl32.Vec3{x, y, z}
	}
}

// WithScale sets the per-axis scale of the GameObject.
//
// Parameters:
//   - sx, sy, sz: scale components
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the scale option
func WithScale(sx, sy, sz float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.scale = mgl32.Vec3{sx, sy, sz}
	}
}

// WithHalfExtents sets the local half-size of the bounding box before scaling.
//
// Parameters:
//   - hx, hy, hz: half-extents along each axis
//
// Returns:
//   - GameObjectBuilderOption: a function that applies the bounds option
func WithHalfExtents(hx, hy, hz float32) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.halfExtents = mgl32.Vec3{hx, hy, hz}
	}
}

// WithLayer sets the render layer the object is drawn on.
func WithLayer(layer frame.Layer) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.layer = layer
	}
}

// WithTriangleCount sets how many triangles a draw of the object submits.
func WithTriangleCount(triangles int) GameObjectBuilderOption {
	return func(g *gameObject) {
		g.triangles = triangles
	}
}
