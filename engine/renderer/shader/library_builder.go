package shader

// LibraryBuilderOption configures a Library during construction.
type LibraryBuilderOption func(*libraryImpl)

// WithCompileWorkers limits how many pipelines compile at once. Defaults to runtime.NumCPU().
//
// Parameters:
//   - workers: the maximum concurrent compiles
//
// Returns:
//   - LibraryBuilderOption: a function that sets the worker limit
func WithCompileWorkers(workers int) LibraryBuilderOption {
	return func(l *libraryImpl) {
		l.workers = workers
	}
}

// WithPipeline registers a pipeline at construction time. Duplicate keys are ignored.
//
// Parameters:
//   - key: the pipeline key
//   - shaders: the stage modules
//
// Returns:
//   - LibraryBuilderOption: a function that registers the pipeline
func WithPipeline(key string, shaders ...Shader) LibraryBuilderOption {
	return func(l *libraryImpl) {
		if _, ok := l.pipelines[key]; ok || len(shaders) == 0 {
			return
		}
		l.pipelines[key] = &pipelineEntry{shaders: shaders}
	}
}
