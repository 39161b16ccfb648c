package cull

// FilterBuilderOption configures a Filter during construction.
type FilterBuilderOption func(*filterImpl)

// WithHierarchicalThreshold sets the candidate count at which the octree is used.
// Zero or negative disables the hierarchical stage.
//
// Parameters:
//   - threshold: the candidate count
//
// Returns:
//   - FilterBuilderOption: a function that sets the threshold
func WithHierarchicalThreshold(threshold int) FilterBuilderOption {
	return func(f *filterImpl) {
		f.hierarchicalThreshold = threshold
	}
}

// WithParallelThreshold sets the candidate count at which per-object tests are sharded across workers.
// Zero or negative keeps every test on the calling goroutine.
//
// Parameters:
//   - threshold: the candidate count
//
// Returns:
//   - FilterBuilderOption: a function that sets the threshold
func WithParallelThreshold(threshold int) FilterBuilderOption {
	return func(f *filterImpl) {
		f.parallelThreshold = threshold
	}
}

// WithWorkers sets the number of cull workers. Defaults to runtime.NumCPU().
//
// Parameters:
//   - workers: the worker count
//
// Returns:
//   - FilterBuilderOption: a function that sets the worker count
func WithWorkers(workers int) FilterBuilderOption {
	return func(f *filterImpl) {
		f.workers = workers
	}
}

// WithOccluder sets the occluder used by the occlusion stage.
func WithOccluder(o Occluder) FilterBuilderOption {
	return func(f *filterImpl) {
		if o != nil {
			f.occluder = o
		}
	}
}

// WithOcclusionEnabled toggles the occlusion stage.
func WithOcclusionEnabled(enabled bool) FilterBuilderOption {
	return func(f *filterImpl) {
		f.occlusionEnabled = enabled
	}
}
