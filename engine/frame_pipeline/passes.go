package frame_pipeline

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/graph"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
	"github.com/go-gl/mathgl/mgl32"
)

// Names of the standard passes.
const (
	PassShadow       = "shadow"
	PassGBuffer      = "gbuffer"
	PassSSAO         = "ssao"
	PassLighting     = "lighting"
	PassTransparency = "transparency"
	PassPostProcess  = "postprocess"
	PassComposite    = "composite"
	PassDebug        = "debug"
)

const (
	// fullscreenTriangles is the triangle count of a fullscreen quad.
	fullscreenTriangles = 2

	// boundsTriangles is the triangle count of a debug bounding box.
	boundsTriangles = 12

	// gbufferTargets is the number of G-buffer attachments: albedo, normal, material, depth.
	gbufferTargets = 4

	// ssaoKernelSize is the number of hemisphere samples in the SSAO kernel.
	ssaoKernelSize = 64

	// postProcessUniformSize covers exposure, gamma, bloom threshold and padding.
	postProcessUniformSize = 64
)

// standardPass describes one pass of the standard frame and its dependencies.
type standardPass struct {
	pass      *stagePass
	dependsOn []string
	enabled   bool
}

// stagePass is the shared implementation of the standard passes. Each frame it borrows its
// transient buffers from the pool, accounts the draws for the layers it renders, hands the work
// to the submitter and returns every buffer.
type stagePass struct {
	mu *sync.Mutex

	name     string
	compute  bool
	optional bool

	pool      pool.Pool
	submitter Submitter

	// skip reports whether the effect is switched off by the frame settings.
	skip func(fc *frame.Context) bool
	// persistent are allocated once during Init and held until teardown.
	persistent []bufferRequest
	// transient allocates the per-frame buffers.
	transient func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error)
	// draw accounts the pass's draw calls.
	draw func(fc *frame.Context)

	held []*pool.Buffer
}

type bufferRequest struct {
	category pool.Category
	size     uint64
	label    string
}

var (
	_ graph.Pass         = &stagePass{}
	_ graph.Initializer  = &stagePass{}
	_ graph.PipelineUser = &stagePass{}
)

func (s *stagePass) Name() string {
	return s.name
}

// PipelineKey returns the shader pipeline the pass draws with. It matches the pass name.
func (s *stagePass) PipelineKey() string {
	return s.name
}

// Compute reports whether the pass runs a compute pipeline.
func (s *stagePass) Compute() bool {
	return s.compute
}

// Init allocates the pass's persistent buffers.
func (s *stagePass) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, req := range s.persistent {
		b, err := s.pool.Allocate(req.category, req.size, req.label)
		if err != nil {
			s.releaseHeld()
			return fmt.Errorf("allocate %s: %w", req.label, err)
		}
		s.held = append(s.held, b)
	}
	return nil
}

// Teardown returns the persistent buffers to the pool.
func (s *stagePass) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseHeld()
}

func (s *stagePass) releaseHeld() {
	for _, b := range s.held {
		s.pool.Release(b)
	}
	s.held = nil
}

func (s *stagePass) Execute(_ context.Context, fc *frame.Context) error {
	if s.skip != nil && s.skip(fc) {
		return nil
	}

	var buffers []*pool.Buffer
	if s.transient != nil {
		var err error
		buffers, err = s.transient(s.pool, fc)
		defer func() {
			for _, b := range buffers {
				s.pool.Release(b)
			}
		}()
		if err != nil {
			if s.optional && errors.Is(err, pool.ErrBudgetExceeded) {
				logger.Warningf("frame %d: skipping %s: %v", fc.Index, s.name, err)
				return nil
			}
			return err
		}
	}

	if s.draw != nil {
		s.draw(fc)
	}

	if s.submitter != nil {
		return s.submitter.Submit(s.name, fc, buffers)
	}
	return nil
}

// allocator borrows a sequence of buffers and keeps what it got so the caller can release it
// even when a later request fails.
type allocator struct {
	p       pool.Pool
	buffers []*pool.Buffer
	err     error
}

func (a *allocator) raw(category pool.Category, size uint64, label string) {
	if a.err != nil {
		return
	}
	b, err := a.p.Allocate(category, size, label)
	a.keep(b, err)
}

func (a *allocator) keep(b *pool.Buffer, err error) {
	if err != nil {
		a.err = err
		return
	}
	a.buffers = append(a.buffers, b)
}

func (a *allocator) result() ([]*pool.Buffer, error) {
	return a.buffers, a.err
}

// cameraBlock is the camera uniform uploaded by every pass that transforms geometry.
type cameraBlock struct {
	View           mgl32.Mat4
	Projection     mgl32.Mat4
	ViewProjection mgl32.Mat4
	Position       mgl32.Vec4
}

func newCameraBlock(cam frame.CameraData) *cameraBlock {
	return &cameraBlock{
		View:           cam.View,
		Projection:     cam.Projection,
		ViewProjection: cam.ViewProjection,
		Position:       cam.Position.Vec4(1),
	}
}

// lightBlock is the std430 layout of one light in the lighting pass storage buffer.
type lightBlock struct {
	Position  mgl32.Vec4 // xyz position, w type
	Direction mgl32.Vec4 // xyz direction, w range
	Color     mgl32.Vec4 // rgb color, a intensity
}

func newLightBlocks(lights []light.Light) []lightBlock {
	out := make([]lightBlock, 0, len(lights))
	for _, l := range lights {
		if !l.Enabled {
			continue
		}
		out = append(out, lightBlock{
			Position:  l.Position.Vec4(float32(l.Type)),
			Direction: l.Direction.Vec4(l.Range),
			Color:     l.Color.Vec4(l.Intensity),
		})
	}
	return out
}

// instanceTransforms returns one model matrix per drawable.
func instanceTransforms(drawables []frame.Drawable) []mgl32.Mat4 {
	out := make([]mgl32.Mat4, len(drawables))
	for i, d := range drawables {
		p := d.Position()
		out[i] = mgl32.Translate3D(p.X(), p.Y(), p.Z())
	}
	return out
}

// drawEach records one draw per drawable.
func drawEach(fc *frame.Context, drawables []frame.Drawable) {
	for _, d := range drawables {
		fc.Counters.AddDraw(triangles(d))
	}
}

func triangles(d frame.Drawable) int {
	if tc, ok := d.(frame.TriangleCounter); ok {
		return tc.TriangleCount()
	}
	return 1
}

// shadowCasters returns the enabled shadow casting lights, capped at light.MaxShadowCasters.
func shadowCasters(lights []light.Light) []light.Light {
	casters := light.ShadowCasters(lights)
	if len(casters) > light.MaxShadowCasters {
		casters = casters[:light.MaxShadowCasters]
	}
	return casters
}

func screenPixels(fc *frame.Context) uint64 {
	return uint64(max(fc.Settings.Width, 1)) * uint64(max(fc.Settings.Height, 1))
}

// standardPasses builds the passes of a standard frame in registration order.
//
// Parameters:
//   - p: the pool every pass borrows from
//   - submitter: the optional command submission hook
//   - debug: whether the debug pass starts enabled
//
// Returns:
//   - []standardPass: the passes with their dependencies
func standardPasses(p pool.Pool, submitter Submitter, debug bool) []standardPass {
	newPass := func(name string) *stagePass {
		return &stagePass{mu: &sync.Mutex{}, name: name, pool: p, submitter: submitter}
	}

	shadow := newPass(PassShadow)
	shadow.persistent = []bufferRequest{
		{pool.CategoryUniform, light.MaxShadowCasters * light.ShadowUniformSize, "shadow light matrices"},
	}
	shadow.skip = func(fc *frame.Context) bool {
		return len(shadowCasters(fc.Lights)) == 0
	}
	shadow.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		opaque := fc.VisibleOn(frame.LayerOpaque)
		a.keep(pool.AllocateInstances(p, instanceTransforms(opaque), "shadow instances"))
		res := uint64(max(fc.Settings.ShadowMapResolution, 1))
		for range shadowCasters(fc.Lights) {
			a.raw(pool.CategoryStorage, res*res*4, "shadow depth")
		}
		return a.result()
	}
	shadow.draw = func(fc *frame.Context) {
		opaque := fc.VisibleOn(frame.LayerOpaque)
		for range shadowCasters(fc.Lights) {
			drawEach(fc, opaque)
		}
	}

	gbuffer := newPass(PassGBuffer)
	gbuffer.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		a.keep(pool.AllocateUniform(p, newCameraBlock(fc.Camera), "gbuffer camera"))
		a.keep(pool.AllocateInstances(p, instanceTransforms(fc.VisibleOn(frame.LayerOpaque)), "gbuffer instances"))
		a.raw(pool.CategoryStorage, screenPixels(fc)*4*gbufferTargets, "gbuffer targets")
		return a.result()
	}
	gbuffer.draw = func(fc *frame.Context) {
		drawEach(fc, fc.VisibleOn(frame.LayerOpaque))
	}

	ssao := newPass(PassSSAO)
	ssao.compute = true
	ssao.optional = true
	ssao.persistent = []bufferRequest{
		{pool.CategoryUniform, ssaoKernelSize * 16, "ssao kernel"},
	}
	ssao.skip = func(fc *frame.Context) bool {
		return !fc.Settings.SSAOEnabled
	}
	ssao.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		a.raw(pool.CategoryCompute, screenPixels(fc), "ssao occlusion")
		return a.result()
	}

	lighting := newPass(PassLighting)
	lighting.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		a.keep(pool.AllocateUniform(p, newCameraBlock(fc.Camera), "lighting camera"))
		a.keep(pool.AllocateTyped(p, pool.CategoryStorage, newLightBlocks(fc.Lights), "lighting lights"))
		return a.result()
	}
	lighting.draw = func(fc *frame.Context) {
		fc.Counters.AddDraw(fullscreenTriangles)
	}

	transparency := newPass(PassTransparency)
	transparency.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		a.keep(pool.AllocateInstances(p, instanceTransforms(backToFront(fc)), "transparency instances"))
		return a.result()
	}
	transparency.draw = func(fc *frame.Context) {
		drawEach(fc, backToFront(fc))
	}

	postprocess := newPass(PassPostProcess)
	postprocess.optional = true
	postprocess.skip = func(fc *frame.Context) bool {
		return !fc.Settings.PostProcessEnabled
	}
	postprocess.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		a.raw(pool.CategoryUniform, postProcessUniformSize, "postprocess settings")
		a.raw(pool.CategoryStorage, screenPixels(fc)*8, "postprocess color")
		return a.result()
	}
	postprocess.draw = func(fc *frame.Context) {
		fc.Counters.AddDraw(fullscreenTriangles)
	}

	composite := newPass(PassComposite)
	composite.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		if ui := fc.VisibleOn(frame.LayerUI); len(ui) > 0 {
			a.keep(pool.AllocateInstances(p, instanceTransforms(ui), "composite ui"))
		}
		return a.result()
	}
	composite.draw = func(fc *frame.Context) {
		fc.Counters.AddDraw(fullscreenTriangles)
		drawEach(fc, fc.VisibleOn(frame.LayerUI))
	}

	debugPass := newPass(PassDebug)
	debugPass.optional = true
	debugPass.transient = func(p pool.Pool, fc *frame.Context) ([]*pool.Buffer, error) {
		a := &allocator{p: p}
		a.keep(pool.AllocateInstances(p, instanceTransforms(fc.Visible), "debug bounds"))
		return a.result()
	}
	debugPass.draw = func(fc *frame.Context) {
		for range fc.Visible {
			fc.Counters.AddDraw(boundsTriangles)
		}
		drawEach(fc, fc.VisibleOn(frame.LayerDebug))
	}

	return []standardPass{
		{pass: shadow, enabled: true},
		{pass: gbuffer, enabled: true},
		{pass: ssao, dependsOn: []string{PassGBuffer}, enabled: true},
		{pass: lighting, dependsOn: []string{PassGBuffer, PassShadow, PassSSAO}, enabled: true},
		{pass: transparency, dependsOn: []string{PassLighting}, enabled: true},
		{pass: postprocess, dependsOn: []string{PassTransparency}, enabled: true},
		{pass: composite, dependsOn: []string{PassPostProcess}, enabled: true},
		{pass: debugPass, dependsOn: []string{PassComposite}, enabled: debug},
	}
}

// backToFront returns the visible transparent drawables sorted farthest first.
func backToFront(fc *frame.Context) []frame.Drawable {
	out := fc.VisibleOn(frame.LayerTransparent)
	eye := fc.Camera.Position
	slices.SortStableFunc(out, func(a, b frame.Drawable) int {
		return cmp.Compare(b.Position().Sub(eye).LenSqr(), a.Position().Sub(eye).LenSqr())
	})
	return out
}
