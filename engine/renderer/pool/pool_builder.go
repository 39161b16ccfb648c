package pool

import "maps"

// PoolBuilderOption configures a Pool during construction.
type PoolBuilderOption func(*poolImpl)

// WithBackend sets the backend that creates buffer memory.
//
// Parameters:
//   - backend: the backend to use
//
// Returns:
//   - PoolBuilderOption: a function that sets the backend
func WithBackend(backend Backend) PoolBuilderOption {
	return func(p *poolImpl) {
		p.backend = backend
	}
}

// WithConfig replaces the whole configuration. Zero fields are filled with defaults. The category
// map is copied, so later options never write into the caller's map.
//
// Parameters:
//   - config: the pool configuration
//
// Returns:
//   - PoolBuilderOption: a function that sets the configuration
func WithConfig(config Config) PoolBuilderOption {
	return func(p *poolImpl) {
		p.config = config
		p.config.Categories = maps.Clone(config.Categories)
	}
}

// WithMemoryLimit sets the ceiling on bytes the pool may own.
//
// Parameters:
//   - limit: the memory limit in bytes
//
// Returns:
//   - PoolBuilderOption: a function that sets the memory limit
func WithMemoryLimit(limit uint64) PoolBuilderOption {
	return func(p *poolImpl) {
		p.config.MemoryLimit = limit
	}
}

// WithCategoryConfig overrides the settings of a single category.
//
// Parameters:
//   - category: the category to configure
//   - config: its settings
//
// Returns:
//   - PoolBuilderOption: a function that sets the category configuration
func WithCategoryConfig(category Category, config CategoryConfig) PoolBuilderOption {
	return func(p *poolImpl) {
		if p.config.Categories == nil {
			p.config.Categories = DefaultCategoryConfigs()
		}
		p.config.Categories[category] = config
	}
}
