// Package frame holds the per-frame data snapshot handed to every render pass and the
// statistics produced once the frame completes.
package frame

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/go-gl/mathgl/mgl32"
)

// Layer identifies the rendering layer an object is submitted on.
type Layer int

const (
	// LayerOpaque is drawn by the shadow and G-buffer passes.
	LayerOpaque Layer = iota
	// LayerTransparent is drawn by the forward transparency pass.
	LayerTransparent
	// LayerUI is drawn by the composite pass with depth testing disabled.
	LayerUI
	// LayerDebug is drawn only by the debug pass.
	LayerDebug
)

// String returns the lowercase name of the layer.
func (l Layer) String() string {
	switch l {
	case LayerOpaque:
		return "opaque"
	case LayerTransparent:
		return "transparent"
	case LayerUI:
		return "ui"
	case LayerDebug:
		return "debug"
	}
	return "unknown"
}

// Drawable is the view a pass has of a visible object.
type Drawable interface {
	Bounds() common.AABB
	Position() mgl32.Vec3
	Layer() Layer
}

// TriangleCounter is implemented by drawables that know their triangle count.
// Drawables that do not implement it are accounted as a single triangle.
type TriangleCounter interface {
	TriangleCount() int
}

// CameraData is the immutable camera state captured at the start of a frame.
type CameraData struct {
	Position       mgl32.Vec3
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
	Near, Far      float32
	Fov            float32
	Aspect         float32
}

// Settings are render toggles that passes read but never write.
type Settings struct {
	Width, Height       int
	ShadowMapResolution int
	SSAOEnabled         bool
	PostProcessEnabled  bool
	Wireframe           bool
}

// Context is the per-frame snapshot. It is created once per frame by the frame pipeline and must
// not be mutated by passes; anything a pass produces goes through the Counters.
type Context struct {
	Index     uint64
	DeltaTime time.Duration
	Camera    CameraData
	Frustum   common.Frustum
	Lights    []light.Light
	Settings  Settings

	// Visible is the culled object set for this frame, in scene order.
	Visible []Drawable

	Counters *Counters
}

// VisibleOn returns the visible drawables on the given layer.
func (c *Context) VisibleOn(layer Layer) []Drawable {
	out := make([]Drawable, 0, len(c.Visible))
	for _, d := range c.Visible {
		if d.Layer() == layer {
			out = append(out, d)
		}
	}
	return out
}

// Counters accumulate draw work submitted by passes during a frame.
// Passes run sequentially on the render goroutine so no locking is needed.
type Counters struct {
	DrawCalls int
	Triangles int
}

// AddDraw records one draw call covering the given number of triangles.
func (c *Counters) AddDraw(triangles int) {
	c.DrawCalls++
	c.Triangles += triangles
}

// Reset zeroes the counters.
func (c *Counters) Reset() {
	*c = Counters{}
}
