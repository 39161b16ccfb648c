package frame_pipeline

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/cull"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/graph"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
)

// FramePipelineBuilderOption is a functional option for configuring a FramePipeline.
type FramePipelineBuilderOption func(*framePipeline)

// WithConfig replaces the pipeline configuration.
//
// Parameters:
//   - config: the configuration
//
// Returns:
//   - FramePipelineBuilderOption: option function to apply
func WithConfig(config Config) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.config = config
	}
}

// WithBackend sets the backend the pool creates buffers with. Defaults to host memory.
//
// Parameters:
//   - backend: the pool backend
//
// Returns:
//   - FramePipelineBuilderOption: option function to apply
func WithBackend(backend pool.Backend) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.backend = backend
	}
}

// WithPresenter sets the surface presenter. Without one the pipeline runs headless.
//
// Parameters:
//   - presenter: the presenter
//
// Returns:
//   - FramePipelineBuilderOption: option function to apply
func WithPresenter(presenter Presenter) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.presenter = presenter
	}
}

// WithSubmitter sets the hook every standard pass hands its work to.
//
// Parameters:
//   - submitter: the submitter
//
// Returns:
//   - FramePipelineBuilderOption: option function to apply
func WithSubmitter(submitter Submitter) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.submitter = submitter
	}
}

// WithOccluder sets the occluder used when occlusion culling is enabled.
func WithOccluder(occluder cull.Occluder) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.occluder = occluder
	}
}

// WithCullWorkers sets the number of cull workers.
func WithCullWorkers(workers int) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.cullWorkers = workers
	}
}

// WithLibrary sets the shader library. Pipelines missing for a pass are filled with placeholders
// during Init.
//
// Parameters:
//   - library: the shader library
//
// Returns:
//   - FramePipelineBuilderOption: option function to apply
func WithLibrary(library shader.Library) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.library = library
	}
}

// WithPass registers an additional pass after the standard ones.
//
// Parameters:
//   - p: the pass
//   - dependsOn: the passes it runs after
//
// Returns:
//   - FramePipelineBuilderOption: option function to apply
func WithPass(p graph.Pass, dependsOn ...string) FramePipelineBuilderOption {
	return func(fp *framePipeline) {
		fp.extraPasses = append(fp.extraPasses, extraPass{pass: p, dependsOn: dependsOn})
	}
}
