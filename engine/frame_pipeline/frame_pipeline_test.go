package frame_pipeline

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/graph"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
)

// =============================================================================
// Helpers
// =============================================================================

type countingPresenter struct {
	begins, ends, presents int
	failBegin              bool
}

func (p *countingPresenter) BeginFrame() error {
	p.begins++
	if p.failBegin {
		return errors.New("surface lost")
	}
	return nil
}

func (p *countingPresenter) EndFrame() { p.ends++ }
func (p *countingPresenter) Present()  { p.presents++ }

type failingInitPass struct{}

func (failingInitPass) Name() string                                  { return "broken" }
func (failingInitPass) Execute(context.Context, *frame.Context) error { return nil }
func (failingInitPass) Init(context.Context) error                    { return errors.New("no render target") }

// testInput is a camera at (0, 0, 10) looking at the origin with three opaque cubes, one
// transparent cube and one UI marker in view, and one opaque cube far behind the camera.
func testInput() FrameInput {
	cam := camera.NewCamera(camera.WithPosition(0, 0, 10), camera.WithAspect(1), camera.WithFar(100))
	objects := []frame.Drawable{
		game_object.NewGameObject(),
		game_object.NewGameObject(game_object.WithPosition(2, 0, 0)),
		game_object.NewGameObject(game_object.WithPosition(-2, 0, 0)),
		game_object.NewGameObject(game_object.WithPosition(0, 1, 0), game_object.WithLayer(frame.LayerTransparent)),
		game_object.NewGameObject(game_object.WithPosition(0, -1, 0), game_object.WithLayer(frame.LayerUI)),
		game_object.NewGameObject(game_object.WithPosition(0, 0, 500)),
	}
	return FrameInput{
		DeltaTime: 16 * time.Millisecond,
		Camera:    cam.Snapshot(),
		Objects:   objects,
		Lights: []light.Light{
			light.NewLight(light.LightTypeDirectional, light.WithCastsShadows(true)),
			light.NewLight(light.LightTypePoint),
		},
		Settings: frame.Settings{
			Width:               64,
			Height:              64,
			ShadowMapResolution: 64,
			SSAOEnabled:         true,
			PostProcessEnabled:  true,
		},
	}
}

func testConfig() Config {
	config := DefaultConfig()
	config.Pool.MemoryLimit = 64 << 20
	return config
}

func startPipeline(t *testing.T, options ...FramePipelineBuilderOption) FramePipeline {
	t.Helper()
	fp := NewFramePipeline(append([]FramePipelineBuilderOption{WithConfig(testConfig())}, options...)...)
	if err := fp.Init(context.Background()); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	t.Cleanup(func() { _ = fp.Shutdown() })
	return fp
}

func inUse(p pool.Pool) int {
	n := 0
	for _, cs := range p.Stats().Categories {
		n += cs.InUse
	}
	return n
}

// =============================================================================
// Pass Graph Tests
// =============================================================================

func TestNewFramePipeline_StandardOrder(t *testing.T) {
	fp := NewFramePipeline()

	want := []string{PassShadow, PassGBuffer, PassSSAO, PassLighting, PassTransparency, PassPostProcess, PassComposite}
	if got := fp.Graph().ExecutionOrder(); !slices.Equal(got, want) {
		t.Errorf("ExecutionOrder = %v, want %v", got, want)
	}
	if fp.Graph().Enabled(PassDebug) {
		t.Error("debug pass should start disabled")
	}
	if fp.State() != StateUninitialized {
		t.Errorf("State = %s, want uninitialized", fp.State())
	}
}

func TestNewFramePipeline_DebugEnabled(t *testing.T) {
	config := DefaultConfig()
	config.Debug = true
	fp := NewFramePipeline(WithConfig(config))

	order := fp.Graph().ExecutionOrder()
	if len(order) != 8 || order[len(order)-1] != PassDebug {
		t.Errorf("ExecutionOrder = %v, want debug last", order)
	}
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func TestRenderFrame_BeforeInit(t *testing.T) {
	fp := NewFramePipeline()
	if _, err := fp.RenderFrame(context.Background(), testInput()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("RenderFrame error = %v, want ErrNotRunning", err)
	}
}

func TestInit_CompilesPipelinesAndHoldsPersistentBuffers(t *testing.T) {
	fp := startPipeline(t)

	if fp.State() != StateRunning {
		t.Fatalf("State = %s, want running", fp.State())
	}
	for _, name := range fp.Graph().Passes() {
		if !fp.Library().HasPipeline(name) {
			t.Errorf("pipeline for %s not compiled", name)
		}
	}
	// shadow light matrices and the ssao kernel
	if got := inUse(fp.Pool()); got != 2 {
		t.Errorf("in-use buffers after Init = %d, want 2", got)
	}
	if err := fp.Init(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second Init error = %v, want ErrInvalidState", err)
	}
}

func TestInit_FailureReturnsToUninitialized(t *testing.T) {
	fp := NewFramePipeline(WithConfig(testConfig()), WithPass(failingInitPass{}))

	if err := fp.Init(context.Background()); err == nil {
		t.Fatal("Init should fail")
	}
	if fp.State() != StateUninitialized {
		t.Errorf("State = %s, want uninitialized", fp.State())
	}
	if got := inUse(fp.Pool()); got != 0 {
		t.Errorf("in-use buffers after failed Init = %d, want 0", got)
	}
}

func TestPauseResume(t *testing.T) {
	fp := startPipeline(t)

	if err := fp.Pause(); err != nil {
		t.Fatalf("Pause error = %v", err)
	}
	if _, err := fp.RenderFrame(context.Background(), testInput()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("RenderFrame while paused error = %v, want ErrNotRunning", err)
	}
	if fp.Pool().BufferCount() == 0 {
		t.Error("Pause should keep pooled buffers")
	}
	if err := fp.Resume(); err != nil {
		t.Fatalf("Resume error = %v", err)
	}
	if _, err := fp.RenderFrame(context.Background(), testInput()); err != nil {
		t.Errorf("RenderFrame after resume error = %v", err)
	}
	if err := fp.Resume(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Resume while running error = %v, want ErrInvalidState", err)
	}
}

func TestShutdown_DrainsPool(t *testing.T) {
	fp := NewFramePipeline(WithConfig(testConfig()))
	if err := fp.Init(context.Background()); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	if _, err := fp.RenderFrame(context.Background(), testInput()); err != nil {
		t.Fatalf("RenderFrame error = %v", err)
	}

	if err := fp.Shutdown(); err != nil {
		t.Fatalf("Shutdown error = %v", err)
	}
	if fp.State() != StateTerminated {
		t.Errorf("State = %s, want terminated", fp.State())
	}
	if n := fp.Pool().BufferCount(); n != 0 {
		t.Errorf("BufferCount after Shutdown = %d, want 0", n)
	}
	if _, err := fp.RenderFrame(context.Background(), testInput()); !errors.Is(err, ErrNotRunning) {
		t.Errorf("RenderFrame after Shutdown error = %v, want ErrNotRunning", err)
	}
	if err := fp.Shutdown(); err != nil {
		t.Errorf("second Shutdown error = %v, want nil", err)
	}
	if err := fp.Init(context.Background()); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Init after Shutdown error = %v, want ErrInvalidState", err)
	}
}

// =============================================================================
// Frame Tests
// =============================================================================

func TestRenderFrame_Statistics(t *testing.T) {
	presenter := &countingPresenter{}
	fp := startPipeline(t, WithPresenter(presenter))

	stats, err := fp.RenderFrame(context.Background(), testInput())
	if err != nil {
		t.Fatalf("RenderFrame error = %v", err)
	}

	type spec struct {
		name      string
		got, want int
	}
	specs := []spec{
		{"frame", int(stats.Frame), 1},
		{"passes", len(stats.Passes), 7},
		{"candidates", stats.Candidates, 6},
		{"visible", stats.Visible, 5},
		{"culled", stats.Culled, 1},
		// shadow 3, gbuffer 3, lighting 1, transparency 1, postprocess 1, composite 1 + 1 UI
		{"draw calls", stats.DrawCalls, 11},
		// 36 + 36 + 2 + 12 + 2 + 2 + 12
		{"triangles", stats.Triangles, 102},
		{"begins", presenter.begins, 1},
		{"presents", presenter.presents, 1},
	}
	for index, s := range specs {
		if s.got != s.want {
			t.Errorf("[spec %d: %s] got %d, want %d", index, s.name, s.got, s.want)
		}
	}

	if !stats.Presented {
		t.Error("frame should be presented")
	}
	if stats.PoolMemory == 0 || stats.PoolBuffers == 0 {
		t.Errorf("pool counters not captured: %d bytes, %d buffers", stats.PoolMemory, stats.PoolBuffers)
	}
	if _, ok := stats.PassTime(PassSSAO); !ok {
		t.Error("ssao timing missing")
	}
	if got := inUse(fp.Pool()); got != 2 {
		t.Errorf("in-use buffers after frame = %d, want only the 2 persistent ones", got)
	}
}

func TestRenderFrame_RollingAverage(t *testing.T) {
	fp := startPipeline(t)

	var stats frame.Statistics
	for i := 0; i < 3; i++ {
		var err error
		if stats, err = fp.RenderFrame(context.Background(), testInput()); err != nil {
			t.Fatalf("frame %d error = %v", i, err)
		}
	}
	if stats.Frame != 3 {
		t.Errorf("Frame = %d, want 3", stats.Frame)
	}
	if stats.AverageFPS <= 0 {
		t.Errorf("AverageFPS = %f, want > 0", stats.AverageFPS)
	}
	if last := fp.Statistics(); last.Frame != 3 {
		t.Errorf("Statistics().Frame = %d, want 3", last.Frame)
	}
}

func TestRenderFrame_PassFailureDropsFrame(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	submitter := SubmitterFunc(func(pass string, _ *frame.Context, _ []*pool.Buffer) error {
		if pass == PassLighting && fail.Load() {
			return errors.New("device lost")
		}
		return nil
	})
	presenter := &countingPresenter{}
	fp := startPipeline(t, WithSubmitter(submitter), WithPresenter(presenter))

	stats, err := fp.RenderFrame(context.Background(), testInput())
	var passErr *graph.PassError
	if !errors.As(err, &passErr) || passErr.Pass != PassLighting {
		t.Fatalf("RenderFrame error = %v, want a lighting PassError", err)
	}
	if stats.Presented || presenter.presents != 0 {
		t.Error("failed frame must not be presented")
	}
	if presenter.ends != 1 {
		t.Errorf("EndFrame calls = %d, want 1", presenter.ends)
	}
	if stats.DroppedFrames != 1 {
		t.Errorf("DroppedFrames = %d, want 1", stats.DroppedFrames)
	}
	if len(stats.Passes) != 4 || stats.Passes[3].Err == nil {
		t.Errorf("timings = %v, want 4 entries ending with the failure", stats.Passes)
	}
	if got := inUse(fp.Pool()); got != 2 {
		t.Errorf("in-use buffers after dropped frame = %d, want 2", got)
	}

	fail.Store(false)
	stats, err = fp.RenderFrame(context.Background(), testInput())
	if err != nil {
		t.Fatalf("next frame error = %v", err)
	}
	if !stats.Presented || stats.DroppedFrames != 1 {
		t.Errorf("next frame presented=%t dropped=%d, want true and 1", stats.Presented, stats.DroppedFrames)
	}
}

func TestRenderFrame_PresenterFailure(t *testing.T) {
	presenter := &countingPresenter{failBegin: true}
	fp := startPipeline(t, WithPresenter(presenter))

	stats, err := fp.RenderFrame(context.Background(), testInput())
	if !errors.Is(err, ErrPresent) {
		t.Fatalf("RenderFrame error = %v, want ErrPresent", err)
	}
	if len(stats.Passes) != 0 || presenter.ends != 0 {
		t.Error("no pass should run when the surface cannot be acquired")
	}
	if stats.DroppedFrames != 1 {
		t.Errorf("DroppedFrames = %d, want 1", stats.DroppedFrames)
	}
}

func TestRenderFrame_OptionalPassDegradesOnBudget(t *testing.T) {
	config := testConfig()
	config.Pool.MemoryLimit = 32 << 20
	compute := config.Pool.Categories[pool.CategoryCompute]
	compute.DefaultSize = 64 << 20
	config.Pool.Categories[pool.CategoryCompute] = compute

	fp := NewFramePipeline(WithConfig(config))
	if err := fp.Init(context.Background()); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	defer fp.Shutdown()

	stats, err := fp.RenderFrame(context.Background(), testInput())
	if err != nil {
		t.Fatalf("RenderFrame error = %v, want the ssao pass to be skipped", err)
	}
	if !stats.Presented {
		t.Error("frame should still be presented")
	}
	if fp.Pool().Stats().Failures == 0 {
		t.Error("pool should record the failed ssao allocation")
	}
	if fp.Pool().TotalMemoryUsage() > config.Pool.MemoryLimit {
		t.Errorf("pool memory %d exceeds limit %d", fp.Pool().TotalMemoryUsage(), config.Pool.MemoryLimit)
	}
}

func TestRenderFrame_RequiredPassFailsOnBudget(t *testing.T) {
	config := testConfig()
	config.Pool.MemoryLimit = 32 << 20
	storage := config.Pool.Categories[pool.CategoryStorage]
	storage.DefaultSize = 64 << 20
	config.Pool.Categories[pool.CategoryStorage] = storage

	fp := NewFramePipeline(WithConfig(config))
	if err := fp.Init(context.Background()); err != nil {
		t.Fatalf("Init error = %v", err)
	}
	defer fp.Shutdown()

	_, err := fp.RenderFrame(context.Background(), testInput())
	if !errors.Is(err, pool.ErrBudgetExceeded) {
		t.Fatalf("RenderFrame error = %v, want ErrBudgetExceeded", err)
	}

	// the pool is still usable after the failure
	b, err := fp.Pool().Allocate(pool.CategoryUniform, 256, "probe")
	if err != nil {
		t.Fatalf("Allocate after failure error = %v", err)
	}
	fp.Pool().Release(b)
}

func TestRenderFrame_SettingsSkipEffects(t *testing.T) {
	var submitted []string
	submitter := SubmitterFunc(func(pass string, _ *frame.Context, _ []*pool.Buffer) error {
		submitted = append(submitted, pass)
		return nil
	})
	fp := startPipeline(t, WithSubmitter(submitter))

	in := testInput()
	in.Settings.SSAOEnabled = false
	in.Settings.PostProcessEnabled = false
	in.Lights = nil
	if _, err := fp.RenderFrame(context.Background(), in); err != nil {
		t.Fatalf("RenderFrame error = %v", err)
	}

	want := []string{PassGBuffer, PassLighting, PassTransparency, PassComposite}
	if !slices.Equal(submitted, want) {
		t.Errorf("submitted = %v, want %v", submitted, want)
	}
}

func TestRenderFrame_TransparencyBackToFront(t *testing.T) {
	cam := camera.NewCamera(camera.WithPosition(0, 0, 10), camera.WithAspect(1))
	near := game_object.NewGameObject(game_object.WithPosition(0, 0, 5), game_object.WithLayer(frame.LayerTransparent))
	far := game_object.NewGameObject(game_object.WithPosition(0, 0, -5), game_object.WithLayer(frame.LayerTransparent))

	fc := &frame.Context{Camera: cam.Snapshot(), Visible: []frame.Drawable{near, far}}
	got := backToFront(fc)
	if len(got) != 2 || got[0] != frame.Drawable(far) {
		t.Errorf("backToFront should put the farthest object first")
	}
}

func TestInputFromScene(t *testing.T) {
	s := scene.NewScene(scene.WithLights(light.NewLight(light.LightTypePoint)))
	scene.PopulateGrid(s, 20, 2)

	in := InputFromScene(s, time.Millisecond)
	if len(in.Objects) != 20 || len(in.Lights) != 1 {
		t.Errorf("input has %d objects and %d lights, want 20 and 1", len(in.Objects), len(in.Lights))
	}
	if in.Settings.Width == 0 {
		t.Error("settings should come from the scene environment")
	}
}
