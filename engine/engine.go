// Package engine runs the render loop: it feeds the active scene to the frame pipeline once per
// frame on a dedicated goroutine, ticks game logic at a fixed rate and handles pause and quit.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame_pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
	"github.com/Carmen-Shannon/oxy-pipeline/log"
)

var logger = log.New("engine")

// pausedPoll is how long the render goroutine sleeps between checks while paused.
const pausedPoll = 10 * time.Millisecond

// ErrNoScene is returned by Run when no scene was set.
var ErrNoScene = errors.New("engine: no scene")

// Resizer is notified when the window's framebuffer size changes.
type Resizer interface {
	Resize(width, height int)
}

// engine implements the Engine interface.
// Coordinates the tick, render and window threads.
type engine struct {
	mu *sync.Mutex

	tickRateChannel chan time.Duration

	running atomic.Bool
	wg      sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once

	window   window.Window
	resizers []Resizer

	pipeline frame_pipeline.FramePipeline
	scene    scene.Scene

	engineTickRate   time.Duration
	tickCallback     func(deltaTime float32)
	frameCallback    func(stats frame.Statistics)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
	maxFrames        uint64        // quit after this many frames; 0 = unlimited

	frames      atomic.Uint64
	frameErrors atomic.Uint64
}

// Engine is the main entry point. It owns the render loop around a FramePipeline.
type Engine interface {
	// Pipeline returns the frame pipeline.
	Pipeline() frame_pipeline.FramePipeline

	// Scene returns the scene rendered each frame.
	Scene() scene.Scene

	// SetScene replaces the scene rendered each frame.
	//
	// Parameters:
	//   - s: the new scene
	SetScene(s scene.Scene)

	// Window returns the underlying window, or nil when headless.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for game logic updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetFrameCallback registers the function called with the statistics of every rendered frame,
	// dropped frames included.
	//
	// Parameters:
	//   - callback: receives the frame statistics on the render goroutine
	SetFrameCallback(callback func(stats frame.Statistics))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// TogglePause pauses a running pipeline or resumes a paused one.
	TogglePause()

	// Frames returns the number of frames rendered or dropped so far.
	Frames() uint64

	// FrameErrors returns the number of frames that returned an error.
	FrameErrors() uint64

	// Run initializes the pipeline if needed and renders until Quit, the frame limit, the window
	// closing or ctx being cancelled. With a window it pumps window events on the calling
	// goroutine. The pipeline is shut down before Run returns; the window is left for the caller
	// to close.
	//
	// Parameters:
	//   - ctx: stops the loop when cancelled
	//
	// Returns:
	//   - error: an initialization or shutdown error, or ErrNoScene
	Run(ctx context.Context) error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

var _ Engine = &engine{}

// NewEngine creates a new Engine with the provided options. Without WithPipeline a headless
// pipeline with the default configuration is created.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		mu:              &sync.Mutex{},
		tickRateChannel: make(chan time.Duration, 1),
		quitChannel:     make(chan struct{}),
		engineTickRate:  time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}
	if e.pipeline == nil {
		e.pipeline = frame_pipeline.NewFramePipeline()
	}

	if e.window != nil {
		e.window.SetResizeCallback(e.handleResize)
	}
	return e
}

func (e *engine) Pipeline() frame_pipeline.FramePipeline {
	return e.pipeline
}

func (e *engine) Scene() scene.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scene
}

func (e *engine) SetScene(s scene.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scene = s
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Frames() uint64 {
	return e.frames.Load()
}

func (e *engine) FrameErrors() uint64 {
	return e.frameErrors.Load()
}

func (e *engine) Run(ctx context.Context) error {
	if e.Scene() == nil {
		return ErrNoScene
	}
	if e.pipeline.State() == frame_pipeline.StateUninitialized {
		if err := e.pipeline.Init(ctx); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}

	e.running.Store(true)
	e.handle(ctx)

	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	e.running.Store(false)

	logger.Infof("render loop stopped after %d frames, %d with errors", e.frames.Load(), e.frameErrors.Load())
	if err := e.pipeline.Shutdown(); err != nil {
		return fmt.Errorf("engine: shutdown: %w", err)
	}
	return nil
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
		if e.window != nil {
			e.window.RequestClose()
		}
	})
}

// handle launches the engine, render, and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle(ctx context.Context) {
	e.wg.Add(3)
	go e.handleEngine()
	go e.handleRender(ctx)
	go e.handleQuit(ctx)
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.pipeline.State() == frame_pipeline.StatePaused {
				continue
			}
			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Frame errors are absorbed: they are counted and logged and the next frame starts fresh.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender(ctx context.Context) {
	defer e.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("render goroutine recovered from panic: %v", r)
			e.signalQuit()
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		if e.pipeline.State() == frame_pipeline.StatePaused {
			time.Sleep(pausedPoll)
			lastRender = time.Now()
			continue
		}

		now := time.Now()
		dt := now.Sub(lastRender)
		lastRender = now

		s := e.Scene()
		stats, err := e.pipeline.RenderFrame(ctx, frame_pipeline.InputFromScene(s, dt))

		if errors.Is(err, frame_pipeline.ErrNotRunning) {
			// paused or shut down between the state check and the frame
			time.Sleep(pausedPoll)
			continue
		}
		s.ClearEphemeral()
		if err != nil {
			e.frameErrors.Add(1)
			logger.Warningf("frame %d: %v", stats.Frame, err)
		}
		if e.frameCallback != nil {
			e.frameCallback(stats)
		}

		if frames := e.frames.Add(1); e.maxFrames > 0 && frames >= e.maxFrames {
			e.signalQuit()
			return
		}

		// Frame rate limiting
		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - time.Since(now); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// handleQuit blocks until the quit channel is closed or ctx is cancelled.
func (e *engine) handleQuit(ctx context.Context) {
	defer e.wg.Done()
	select {
	case <-e.quitChannel:
	case <-ctx.Done():
		e.signalQuit()
	}
}

// handleResize updates the camera aspect and the render size, then notifies the resizers.
func (e *engine) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if s := e.Scene(); s != nil {
		if c := s.Camera(); c != nil {
			c.SetAspect(float32(width) / float32(height))
		}
		env := s.Environment()
		env.Settings.Width, env.Settings.Height = width, height
		s.SetEnvironment(env)
	}
	for _, r := range e.resizers {
		r.Resize(width, height)
	}
}

func (e *engine) TogglePause() {
	switch e.pipeline.State() {
	case frame_pipeline.StateRunning:
		if err := e.pipeline.Pause(); err == nil {
			logger.Notice("paused")
		}
	case frame_pipeline.StatePaused:
		if err := e.pipeline.Resume(); err == nil {
			logger.Notice("resumed")
		}
	}
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Duration(float64(time.Second) / fps)

	if !e.running.Load() {
		e.engineTickRate = newRate
		return
	}

	// Non-blocking send - if channel is full, replace the pending value
	select {
	case e.tickRateChannel <- newRate:
	default:
		select {
		case <-e.tickRateChannel:
		default:
		}
		e.tickRateChannel <- newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetFrameCallback registers the function called after each frame.
func (e *engine) SetFrameCallback(callback func(stats frame.Statistics)) {
	e.frameCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
