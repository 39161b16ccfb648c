// Package frame_pipeline drives one displayed frame: it snapshots the frame context, culls the
// scene, runs the pass graph and records the frame statistics.
package frame_pipeline

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/cull"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/graph"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/Carmen-Shannon/oxy-pipeline/log"
)

var logger = log.New("frame_pipeline")

// FrameInput is everything the scene provides for one frame.
type FrameInput struct {
	DeltaTime time.Duration
	Camera    frame.CameraData
	Objects   []frame.Drawable
	Lights    []light.Light
	Settings  frame.Settings
}

// InputFromScene captures the scene's camera, enabled objects, lights and settings.
//
// Parameters:
//   - s: the scene to read
//   - dt: the time since the previous frame
//
// Returns:
//   - FrameInput: the frame input
func InputFromScene(s scene.Scene, dt time.Duration) FrameInput {
	return FrameInput{
		DeltaTime: dt,
		Camera:    s.Camera().Snapshot(),
		Objects:   s.Objects(),
		Lights:    s.Lights(),
		Settings:  s.Environment().Settings,
	}
}

type framePipeline struct {
	mu *sync.Mutex
	// renderMu serializes RenderFrame and Shutdown.
	renderMu *sync.Mutex

	state  State
	config Config

	graph    graph.PassGraph
	pool     pool.Pool
	filter   cull.Filter
	library  shader.Library
	profiler *profiler.Profiler

	backend     pool.Backend
	presenter   Presenter
	submitter   Submitter
	occluder    cull.Occluder
	cullWorkers int
	extraPasses []extraPass

	standard []*stagePass

	frameIndex uint64
	dropped    uint64
	counters   frame.Counters
	last       frame.Statistics
}

type extraPass struct {
	pass      graph.Pass
	dependsOn []string
}

// FramePipeline owns a PassGraph populated with the standard passes, a ResourcePool and a
// GeometryVisibilityFilter, and produces one frame per RenderFrame call.
type FramePipeline interface {
	// Init prepares the pipeline: compiles the shader pipelines the passes need, runs every pass's
	// one-time setup concurrently and warms up the pool. On failure the pipeline returns to
	// StateUninitialized.
	//
	// Parameters:
	//   - ctx: cancels outstanding setup work
	//
	// Returns:
	//   - error: the first setup failure, or ErrInvalidState outside StateUninitialized
	Init(ctx context.Context) error

	// RenderFrame culls the input, runs every enabled pass in dependency order and presents.
	// A pass failure drops the frame: presentation is skipped, the timings captured so far are kept
	// and the error is returned. The next call starts fresh.
	//
	// Parameters:
	//   - ctx: passed to every pass
	//   - in: the scene snapshot for this frame
	//
	// Returns:
	//   - frame.Statistics: the frame's statistics, also for dropped frames
	//   - error: ErrNotRunning, a presenter failure or a *graph.PassError
	RenderFrame(ctx context.Context, in FrameInput) (frame.Statistics, error)

	// Pause stops accepting frames without releasing resources.
	Pause() error

	// Resume accepts frames again after Pause.
	Resume() error

	// Shutdown waits for the frame in flight, releases pass resources and drains the pool.
	// Calling it again after termination is a no-op.
	Shutdown() error

	// State returns the lifecycle state.
	State() State

	// Statistics returns the statistics of the most recent frame.
	Statistics() frame.Statistics

	// Graph returns the pass graph, for enabling passes or adding custom ones.
	Graph() graph.PassGraph

	// Pool returns the buffer pool.
	Pool() pool.Pool

	// Filter returns the visibility filter.
	Filter() cull.Filter

	// Library returns the shader library.
	Library() shader.Library
}

var _ FramePipeline = &framePipeline{}

// NewFramePipeline creates a FramePipeline with the standard passes registered.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - FramePipeline: the new pipeline in StateUninitialized
func NewFramePipeline(options ...FramePipelineBuilderOption) FramePipeline {
	fp := &framePipeline{
		mu:       &sync.Mutex{},
		renderMu: &sync.Mutex{},
		state:    StateUninitialized,
		config:   DefaultConfig(),
	}
	for _, option := range options {
		option(fp)
	}

	fp.pool = pool.NewPool(pool.WithConfig(fp.config.Pool), pool.WithBackend(fp.backend))
	fp.profiler = profiler.NewProfiler(fp.config.StatsWindow)
	fp.profiler.SetReportInterval(fp.config.ReportInterval)
	if fp.library == nil {
		fp.library = shader.NewLibrary()
	}

	filterOptions := []cull.FilterBuilderOption{
		cull.WithHierarchicalThreshold(fp.config.HierarchicalCullThreshold),
		cull.WithParallelThreshold(fp.config.ParallelCullThreshold),
		cull.WithOcclusionEnabled(fp.config.EnableOcclusionCulling),
		cull.WithOccluder(fp.occluder),
	}
	if fp.cullWorkers > 0 {
		filterOptions = append(filterOptions, cull.WithWorkers(fp.cullWorkers))
	}
	fp.filter = cull.NewFilter(filterOptions...)

	fp.graph = graph.NewPassGraph()
	for _, sp := range standardPasses(fp.pool, fp.submitter, fp.config.Debug) {
		if err := fp.graph.AddPass(sp.pass, sp.dependsOn...); err != nil {
			logger.Errorf("register pass %s: %v", sp.pass.Name(), err)
			continue
		}
		if !sp.enabled {
			_ = fp.graph.SetEnabled(sp.pass.Name(), false)
		}
		fp.standard = append(fp.standard, sp.pass)
	}
	for _, ep := range fp.extraPasses {
		if err := fp.graph.AddPass(ep.pass, ep.dependsOn...); err != nil {
			logger.Errorf("register pass %s: %v", ep.pass.Name(), err)
		}
	}
	return fp
}

func (fp *framePipeline) Init(ctx context.Context) error {
	if err := fp.transition(StateInitializing, StateUninitialized); err != nil {
		return err
	}

	if err := fp.init(ctx); err != nil {
		fp.setState(StateUninitialized)
		return err
	}

	fp.setState(StateRunning)
	logger.Infof("pipeline running with passes %v", fp.graph.ExecutionOrder())
	return nil
}

func (fp *framePipeline) init(ctx context.Context) error {
	if err := fp.graph.Cycle(); err != nil {
		logger.Warningf("pass graph is degraded: %v", err)
	}

	// every pass that asks for a pipeline gets a placeholder if none was registered
	for _, name := range fp.graph.Passes() {
		p, _ := fp.graph.Pass(name)
		user, ok := p.(graph.PipelineUser)
		if !ok {
			continue
		}
		key := user.PipelineKey()
		if _, registered := fp.library.Pipeline(key); registered {
			continue
		}
		shaders := shader.PlaceholderRenderShaders(key)
		if c, ok := p.(interface{ Compute() bool }); ok && c.Compute() {
			shaders = shader.PlaceholderComputeShaders(key)
		}
		if err := fp.library.Register(key, shaders...); err != nil {
			return fmt.Errorf("frame_pipeline: register pipeline %s: %w", key, err)
		}
	}

	if err := fp.library.Compile(ctx); err != nil {
		return fmt.Errorf("frame_pipeline: compile shaders: %w", err)
	}
	if err := fp.graph.InitAll(ctx, fp.library); err != nil {
		fp.teardownPasses()
		return fmt.Errorf("frame_pipeline: init passes: %w", err)
	}
	if err := fp.pool.WarmUp(); err != nil {
		logger.Warningf("pool warm-up incomplete: %v", err)
	}
	return nil
}

func (fp *framePipeline) RenderFrame(ctx context.Context, in FrameInput) (frame.Statistics, error) {
	fp.renderMu.Lock()
	defer fp.renderMu.Unlock()

	if state := fp.State(); state != StateRunning {
		return frame.Statistics{}, fmt.Errorf("%w: %s", ErrNotRunning, state)
	}

	start := time.Now()
	fp.frameIndex++
	fp.counters.Reset()

	visible := fp.filter.Cull(in.Objects, in.Camera, fp.config.MaxRenderDistance)
	cullStats := fp.filter.LastStats()

	fc := &frame.Context{
		Index:     fp.frameIndex,
		DeltaTime: in.DeltaTime,
		Camera:    in.Camera,
		Frustum:   common.ExtractFrustumFromMatrix(in.Camera.ViewProjection),
		Lights:    slices.Clone(in.Lights),
		Settings:  in.Settings,
		Visible:   visible,
		Counters:  &fp.counters,
	}

	var (
		timings []frame.PassTiming
		err     error
	)
	if fp.presenter != nil {
		if perr := fp.presenter.BeginFrame(); perr != nil {
			err = fmt.Errorf("%w: %v", ErrPresent, perr)
		}
	}
	if err == nil {
		timings, err = fp.graph.ExecuteAll(ctx, fc)
		if fp.presenter != nil {
			fp.presenter.EndFrame()
			if err == nil {
				fp.presenter.Present()
			}
		}
	}

	frameTime := time.Since(start)
	stats := frame.Statistics{
		Frame:       fp.frameIndex,
		Passes:      timings,
		FrameTime:   frameTime,
		CullTime:    cullStats.Duration,
		AverageFPS:  fp.profiler.Record(frameTime),
		DrawCalls:   fp.counters.DrawCalls,
		Triangles:   fp.counters.Triangles,
		Candidates:  cullStats.Input,
		Visible:     cullStats.Visible,
		Culled:      cullStats.Culled(),
		PoolMemory:  fp.pool.TotalMemoryUsage(),
		PoolBuffers: fp.pool.BufferCount(),
		Presented:   err == nil,
	}
	if err != nil {
		fp.dropped++
		var passErr *graph.PassError
		if errors.As(err, &passErr) {
			logger.Warningf("frame %d dropped: %v", fp.frameIndex, err)
		}
	}
	stats.DroppedFrames = fp.dropped

	fp.mu.Lock()
	fp.last = stats
	fp.mu.Unlock()

	return copyStatistics(stats), err
}

func (fp *framePipeline) Pause() error {
	return fp.transition(StatePaused, StateRunning)
}

func (fp *framePipeline) Resume() error {
	return fp.transition(StateRunning, StatePaused)
}

func (fp *framePipeline) Shutdown() error {
	fp.mu.Lock()
	switch fp.state {
	case StateTerminated:
		fp.mu.Unlock()
		return nil
	case StateInitializing, StateShuttingDown:
		state := fp.state
		fp.mu.Unlock()
		return fmt.Errorf("%w: shutdown while %s", ErrInvalidState, state)
	}
	fp.state = StateShuttingDown
	fp.mu.Unlock()

	// wait for the frame in flight
	fp.renderMu.Lock()
	defer fp.renderMu.Unlock()

	fp.teardownPasses()
	err := fp.pool.Close()

	fp.setState(StateTerminated)
	logger.Infof("pipeline terminated after %d frames, %d dropped", fp.frameIndex, fp.dropped)
	return err
}

func (fp *framePipeline) State() State {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.state
}

func (fp *framePipeline) Statistics() frame.Statistics {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return copyStatistics(fp.last)
}

func (fp *framePipeline) Graph() graph.PassGraph {
	return fp.graph
}

func (fp *framePipeline) Pool() pool.Pool {
	return fp.pool
}

func (fp *framePipeline) Filter() cull.Filter {
	return fp.filter
}

func (fp *framePipeline) Library() shader.Library {
	return fp.library
}

// transition moves to next if the current state is from.
func (fp *framePipeline) transition(next, from State) error {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.state != from {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, fp.state, next)
	}
	fp.state = next
	return nil
}

func (fp *framePipeline) setState(state State) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.state = state
}

func (fp *framePipeline) teardownPasses() {
	for _, p := range fp.standard {
		p.Teardown()
	}
}

func copyStatistics(s frame.Statistics) frame.Statistics {
	s.Passes = slices.Clone(s.Passes)
	return s
}
