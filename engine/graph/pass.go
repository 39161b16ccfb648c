package graph

import (
	"context"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
)

// Pass is a single render pass. The graph owns a pass once it is registered and calls Execute
// once per frame in dependency order.
type Pass interface {
	// Name returns the unique name of the pass.
	//
	// Returns:
	//   - string: the pass name
	Name() string

	// Execute records the pass's work for one frame.
	//
	// Parameters:
	//   - ctx: the frame's context
	//   - fc: the immutable per-frame snapshot
	//
	// Returns:
	//   - error: a non-nil error drops the rest of the frame
	Execute(ctx context.Context, fc *frame.Context) error
}

// Initializer is implemented by passes that need one-time setup before the first frame,
// such as creating render targets.
type Initializer interface {
	Init(ctx context.Context) error
}

// PipelineUser is implemented by passes that draw with a compiled pipeline. InitAll verifies
// the key is available from the PipelineProvider.
type PipelineUser interface {
	PipelineKey() string
}

// PipelineProvider reports whether a compiled pipeline exists for a key.
type PipelineProvider interface {
	HasPipeline(key string) bool
}

// PassFunc adapts a plain function into a Pass.
type PassFunc struct {
	PassName string
	Fn       func(ctx context.Context, fc *frame.Context) error
}

var _ Pass = PassFunc{}

// Name returns the pass name.
func (p PassFunc) Name() string {
	return p.PassName
}

// Execute calls Fn. A nil Fn does nothing.
func (p PassFunc) Execute(ctx context.Context, fc *frame.Context) error {
	if p.Fn == nil {
		return nil
	}
	return p.Fn(ctx, fc)
}
