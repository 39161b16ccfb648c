package pool

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	// DefaultMaxPoolSize is the default cap on free buffers kept per category.
	DefaultMaxPoolSize = 16

	// DefaultPreallocCount is the default number of buffers created per category by WarmUp.
	// Cleanup never shrinks a free list below it.
	DefaultPreallocCount = 2

	// DefaultMemoryLimit is the default ceiling on bytes owned by the pool.
	DefaultMemoryLimit uint64 = 256 << 20
)

// CategoryConfig controls how buffers of one category are created and retained.
type CategoryConfig struct {
	// DefaultSize is the minimum size of a newly created buffer.
	DefaultSize uint64
	// Usage is the GPU usage mask the buffer is created with.
	Usage wgpu.BufferUsage
	// MaxPoolSize caps the free list; buffers released past it are destroyed.
	MaxPoolSize int
	// PreallocCount is the warm-up count and the floor Cleanup shrinks toward.
	PreallocCount int
}

// Config is the pool configuration.
type Config struct {
	MemoryLimit uint64
	Categories  map[Category]CategoryConfig
}

// DefaultCategoryConfigs returns the default per-category settings.
//
// Returns:
//   - map[Category]CategoryConfig: a fresh map the caller may modify
func DefaultCategoryConfigs() map[Category]CategoryConfig {
	configs := map[Category]CategoryConfig{
		CategoryVertex: {
			DefaultSize: 1 << 20,
			Usage:       wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		},
		CategoryIndex: {
			DefaultSize: 512 << 10,
			Usage:       wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst,
		},
		CategoryUniform: {
			DefaultSize: 64 << 10,
			Usage:       wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
		},
		CategoryStorage: {
			DefaultSize: 2 << 20,
			Usage:       wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		},
		CategoryStaging: {
			DefaultSize: 4 << 20,
			Usage:       wgpu.BufferUsageMapWrite | wgpu.BufferUsageCopySrc,
		},
		CategoryInstance: {
			DefaultSize: 256 << 10,
			Usage:       wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst,
		},
		CategoryCompute: {
			DefaultSize: 1 << 20,
			Usage:       wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc,
		},
	}
	for category, cc := range configs {
		cc.MaxPoolSize = DefaultMaxPoolSize
		cc.PreallocCount = DefaultPreallocCount
		configs[category] = cc
	}
	return configs
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		MemoryLimit: DefaultMemoryLimit,
		Categories:  DefaultCategoryConfigs(),
	}
}

// normalize fills zero sizes, usages and caps with defaults. Missing categories get their
// default entry; a zero PreallocCount on a present entry is kept.
func (c Config) normalize() Config {
	defaults := DefaultCategoryConfigs()
	out := Config{
		MemoryLimit: common.Coalesce(c.MemoryLimit, DefaultMemoryLimit),
		Categories:  make(map[Category]CategoryConfig, len(defaults)),
	}
	for _, category := range Categories() {
		cc, ok := c.Categories[category]
		if !ok {
			cc = defaults[category]
		}
		cc.DefaultSize = common.Coalesce(cc.DefaultSize, defaults[category].DefaultSize)
		cc.Usage = common.Coalesce(cc.Usage, defaults[category].Usage)
		cc.MaxPoolSize = common.Coalesce(cc.MaxPoolSize, DefaultMaxPoolSize)
		if cc.PreallocCount < 0 {
			cc.PreallocCount = 0
		}
		out.Categories[category] = cc
	}
	return out
}
