package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/go-gl/mathgl/mgl32"
)

type gameObject struct {
	mu *sync.Mutex

	id        uint64
	enabled   atomic.Bool
	ephemeral bool

	position    mgl32.Vec3
	scale       mgl32.Vec3
	halfExtents mgl32.Vec3

	layer     frame.Layer
	triangles int
}

// GameObject defines the interface for a scene entity the render passes can draw.
// Its world bounds are the local half-extents scaled and centered on its position.
type GameObject interface {
	frame.Drawable
	frame.TriangleCounter

	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled for rendering.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// Ephemeral returns whether this object is ephemeral.
	// Ephemeral objects are not persisted in the scene's registry when added.
	//
	// Returns:
	//   - bool: true if ephemeral
	Ephemeral() bool

	// Scale returns the per-axis scale.
	//
	// Returns:
	//   - mgl32.Vec3: the scale
	Scale() mgl32.Vec3

	// SetID sets the object's identifier. The scene assigns ids on insertion.
	//
	// Parameters:
	//   - id: the new id
	SetID(id uint64)

	// SetEnabled toggles whether the object is submitted for rendering.
	//
	// Parameters:
	//   - enabled: the new state
	SetEnabled(enabled bool)

	// SetPosition moves the object.
	//
	// Parameters:
	//   - x, y, z: the new world position
	SetPosition(x, y, z float32)

	// SetScale changes the per-axis scale.
	//
	// Parameters:
	//   - sx, sy, sz: the new scale
	SetScale(sx, sy, sz float32)
}

var _ GameObject = &gameObject{}

// NewGameObject creates a GameObject with a unit cube bound, unit scale, the opaque layer and
// twelve triangles, then applies the options.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - GameObject: the new object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	g := &gameObject{
		mu:          &sync.Mutex{},
		scale:       mgl32.Vec3{1, 1, 1},
		halfExtents: mgl32.Vec3{0.5, 0.5, 0.5},
		layer:       frame.LayerOpaque,
		triangles:   12,
	}
	g.enabled.Store(true)
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *gameObject) ID() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) Ephemeral() bool {
	return g.ephemeral
}

func (g *gameObject) Position() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.position
}

func (g *gameObject) Scale() mgl32.Vec3 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.scale
}

func (g *gameObject) Bounds() common.AABB {
	g.mu.Lock()
	defer g.mu.Unlock()
	half := mgl32.Vec3{
		g.halfExtents[0] * abs(g.scale[0]),
		g.halfExtents[1] * abs(g.scale[1]),
		g.halfExtents[2] * abs(g.scale[2]),
	}
	return common.NewAABB(g.position, half)
}

func (g *gameObject) Layer() frame.Layer {
	return g.layer
}

func (g *gameObject) TriangleCount() int {
	return g.triangles
}

func (g *gameObject) SetID(id uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.id = id
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) SetPosition(x, y, z float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = mgl32.Vec3{x, y, z}
}

func (g *gameObject) SetScale(sx, sy, sz float32) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = mgl32.Vec3{sx, sy, sz}
}

func abs(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
