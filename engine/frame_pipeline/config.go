package frame_pipeline

import (
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/cull"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
)

// DefaultMaxRenderDistance is the distance beyond which objects are culled.
const DefaultMaxRenderDistance = 1000

// Config is the plain-value configuration surface of a FramePipeline.
type Config struct {
	// Pool is the buffer category table and global memory limit.
	Pool pool.Config

	// MaxRenderDistance is the distance cull radius. Zero or negative disables distance culling.
	MaxRenderDistance float32

	// EnableOcclusionCulling turns on the occlusion stage when the occluder supports it.
	EnableOcclusionCulling bool

	// HierarchicalCullThreshold is the candidate count above which the octree stage runs.
	HierarchicalCullThreshold int

	// ParallelCullThreshold is the candidate count above which per-object tests are sharded.
	ParallelCullThreshold int

	// StatsWindow is the number of frames averaged for the frame rate.
	StatsWindow int

	// ReportInterval is how often frame rate and memory statistics are logged at info level.
	// Zero disables the report.
	ReportInterval time.Duration

	// Debug enables the debug pass.
	Debug bool
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Pool:                      pool.DefaultConfig(),
		MaxRenderDistance:         DefaultMaxRenderDistance,
		HierarchicalCullThreshold: cull.DefaultHierarchicalThreshold,
		ParallelCullThreshold:     cull.DefaultParallelThreshold,
		StatsWindow:               profiler.DefaultWindow,
		ReportInterval:            time.Second,
	}
}
