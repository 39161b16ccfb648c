package engine

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame_pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
)

// EngineBuilderOption is a functional option for configuring an Engine.
// Use the With* functions to create options that are applied directly to the engine instance.
type EngineBuilderOption func(*engine)

// WithPipeline sets the frame pipeline the engine drives.
//
// Parameters:
//   - p: the pipeline, initialized or not
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithPipeline(p frame_pipeline.FramePipeline) EngineBuilderOption {
	return func(e *engine) {
		e.pipeline = p
	}
}

// WithScene sets the scene rendered each frame.
//
// Parameters:
//   - s: the scene
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithScene(s scene.Scene) EngineBuilderOption {
	return func(e *engine) {
		e.scene = s
	}
}

// WithTickRate sets the engine tick rate in frames per second.
// Values <= 0 will be treated as the default (60Hz).
//
// Parameters:
//   - fps: target ticks per second (default 60)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithTickRate(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			fps = 60.0
		}
		e.engineTickRate = time.Duration(float64(time.Second) / fps)
	}
}

// WithWindow sets the window whose events are pumped by Run.
//
// Parameters:
//   - w: a pre-configured Window instance
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithWindow(w window.Window) EngineBuilderOption {
	return func(e *engine) {
		e.window = w
	}
}

// WithResizer registers a component notified of window resizes, such as the renderer.
func WithResizer(r Resizer) EngineBuilderOption {
	return func(e *engine) {
		e.resizers = append(e.resizers, r)
	}
}

// WithFrameCallback registers the function called with every frame's statistics.
func WithFrameCallback(callback func(stats frame.Statistics)) EngineBuilderOption {
	return func(e *engine) {
		e.frameCallback = callback
	}
}

// WithRenderFrameLimit sets an optional render frame rate cap in frames per second.
// Pass 0 to uncap the render loop (default).
//
// Parameters:
//   - fps: maximum render frames per second (0 = uncapped)
//
// Returns:
//   - EngineBuilderOption: option function to apply
func WithRenderFrameLimit(fps float64) EngineBuilderOption {
	return func(e *engine) {
		if fps <= 0 {
			e.renderFrameLimit = 0
			return
		}
		e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
	}
}

// WithMaxFrames stops the render loop after n frames. Zero renders until Quit.
func WithMaxFrames(n uint64) EngineBuilderOption {
	return func(e *engine) {
		e.maxFrames = n
	}
}
