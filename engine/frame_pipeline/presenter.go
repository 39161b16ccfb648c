package frame_pipeline

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
)

// Presenter acquires, submits and presents the frame's output surface.
// A FramePipeline without a presenter runs headless.
type Presenter interface {
	// BeginFrame acquires the next surface image. An error drops the frame before any pass runs.
	BeginFrame() error

	// EndFrame submits the recorded work. It is called whether or not the passes succeeded.
	EndFrame()

	// Present displays the submitted frame. It is only called when every pass succeeded.
	Present()
}

// Submitter receives the GPU work of a standard pass once its buffers are filled and its draws are
// accounted. It stands in for the native command submission of each pass.
type Submitter interface {
	// Submit issues the pass's commands.
	//
	// Parameters:
	//   - pass: the pass name
	//   - fc: the frame snapshot
	//   - buffers: the transient buffers the pass borrowed, valid until Submit returns
	//
	// Returns:
	//   - error: a non-nil error fails the pass and drops the frame
	Submit(pass string, fc *frame.Context, buffers []*pool.Buffer) error
}

// SubmitterFunc adapts a function into a Submitter.
type SubmitterFunc func(pass string, fc *frame.Context, buffers []*pool.Buffer) error

// Submit calls f.
func (f SubmitterFunc) Submit(pass string, fc *frame.Context, buffers []*pool.Buffer) error {
	return f(pass, fc, buffers)
}
