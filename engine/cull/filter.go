// Package cull reduces the scene's object set to the objects that can contribute to the frame.
// Objects pass through frustum, distance and occlusion stages in that order.
package cull

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/log"
	"github.com/go-gl/mathgl/mgl32"
)

var logger = log.New("cull")

const (
	// DefaultHierarchicalThreshold is the candidate count at which the octree replaces the
	// per-object frustum test.
	DefaultHierarchicalThreshold = 1024

	// DefaultParallelThreshold is the candidate count at which per-object tests are sharded.
	DefaultParallelThreshold = 4096
)

// Object is anything that can be culled.
type Object = frame.Drawable

// CameraView is the camera state culling is performed against.
type CameraView = frame.CameraData

// verdicts recorded per object
const (
	verdictVisible uint8 = iota
	verdictFrustum
	verdictDistance
	verdictOcclusion
)

// Stats describes the most recent Cull call.
type Stats struct {
	Input           int
	FrustumCulled   int
	DistanceCulled  int
	OcclusionCulled int
	Visible         int

	Hierarchical bool
	NodesVisited int
	Shards       int
	Duration     time.Duration
}

// Culled returns the number of objects removed by any stage.
func (s Stats) Culled() int {
	return s.FrustumCulled + s.DistanceCulled + s.OcclusionCulled
}

type filterImpl struct {
	mu *sync.Mutex

	hierarchicalThreshold int
	parallelThreshold     int
	workers               int
	pool                  worker.DynamicWorkerPool

	occluder         Occluder
	occlusionEnabled bool

	last Stats
}

// Filter is the geometry visibility filter.
type Filter interface {
	// Cull returns the objects that survive every enabled stage, in input order.
	//
	// Parameters:
	//   - objects: the candidates
	//   - cam: the camera to cull against
	//   - maxDistance: the render distance; zero or negative disables the distance stage
	//
	// Returns:
	//   - []Object: the visible objects
	Cull(objects []Object, cam CameraView, maxDistance float32) []Object

	// LastCulled returns how many objects the most recent Cull removed.
	LastCulled() int

	// LastStats returns the per-stage counts of the most recent Cull.
	LastStats() Stats

	// SetOcclusionEnabled toggles the occlusion stage.
	SetOcclusionEnabled(enabled bool)

	// SetOccluder replaces the occluder. A nil occluder restores NopOccluder.
	SetOccluder(o Occluder)
}

var _ Filter = &filterImpl{}

// NewFilter creates a Filter.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Filter: the new filter
func NewFilter(options ...FilterBuilderOption) Filter {
	f := &filterImpl{
		mu:                    &sync.Mutex{},
		hierarchicalThreshold: DefaultHierarchicalThreshold,
		parallelThreshold:     DefaultParallelThreshold,
		workers:               runtime.NumCPU(),
		occluder:              NopOccluder{},
	}
	for _, option := range options {
		option(f)
	}
	f.workers = max(f.workers, 1)

	// Workers are reused across frames. The queue holds one task per shard with headroom.
	f.pool = worker.NewDynamicWorkerPool(f.workers, 256, 1*time.Second)
	return f
}

func (f *filterImpl) Cull(objects []Object, cam CameraView, maxDistance float32) []Object {
	start := time.Now()

	f.mu.Lock()
	hierarchicalThreshold, parallelThreshold := f.hierarchicalThreshold, f.parallelThreshold
	occluder, occlusionEnabled := f.occluder, f.occlusionEnabled
	f.mu.Unlock()

	stats := Stats{Input: len(objects)}
	if len(objects) == 0 {
		stats.Duration = time.Since(start)
		f.record(stats)
		return []Object{}
	}

	frustum := common.ExtractFrustumFromMatrix(cam.ViewProjection)
	eye := cam.Position
	verdicts := make([]uint8, len(objects))
	boxes := make([]common.AABB, len(objects))
	for i, o := range objects {
		boxes[i] = o.Bounds()
	}

	parallel := parallelThreshold > 0 && len(objects) >= parallelThreshold
	hierarchical := hierarchicalThreshold > 0 && len(objects) >= hierarchicalThreshold
	stats.Hierarchical = hierarchical

	// frustum stage
	if hierarchical {
		visible := make([]bool, len(objects))
		stats.NodesVisited = buildOctree(boxes).query(&frustum, eye, boxes, visible)
		for i, ok := range visible {
			if !ok {
				verdicts[i] = verdictFrustum
			}
		}
	} else {
		stats.Shards = f.forEach(len(objects), parallel, func(i int) {
			if !frustumKeeps(&frustum, eye, boxes[i]) {
				verdicts[i] = verdictFrustum
			}
		})
	}

	// distance stage
	if maxDistance > 0 {
		maxDistSq := maxDistance * maxDistance
		shards := f.forEach(len(objects), parallel, func(i int) {
			if verdicts[i] != verdictVisible {
				return
			}
			if objects[i].Position().Sub(eye).LenSqr() > maxDistSq {
				verdicts[i] = verdictDistance
			}
		})
		stats.Shards = max(stats.Shards, shards)
	}

	// occlusion stage
	if occlusionEnabled && occluder != nil && occluder.Supported() {
		for i, o := range objects {
			if verdicts[i] == verdictVisible && occluder.Occluded(o, cam) {
				verdicts[i] = verdictOcclusion
			}
		}
	}

	out := make([]Object, 0, len(objects))
	for i, v := range verdicts {
		switch v {
		case verdictVisible:
			out = append(out, objects[i])
		case verdictFrustum:
			stats.FrustumCulled++
		case verdictDistance:
			stats.DistanceCulled++
		case verdictOcclusion:
			stats.OcclusionCulled++
		}
	}
	stats.Visible = len(out)
	stats.Duration = time.Since(start)
	f.record(stats)
	return out
}

func (f *filterImpl) LastCulled() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last.Culled()
}

func (f *filterImpl) LastStats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *filterImpl) SetOcclusionEnabled(enabled bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.occlusionEnabled = enabled
}

func (f *filterImpl) SetOccluder(o Occluder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o == nil {
		o = NopOccluder{}
	}
	f.occluder = o
}

func (f *filterImpl) record(stats Stats) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = stats
	logger.Debugf("culled %d of %d objects (frustum %d, distance %d, occlusion %d)",
		stats.Culled(), stats.Input, stats.FrustumCulled, stats.DistanceCulled, stats.OcclusionCulled)
}

// forEach calls fn for every index in [0, n). When parallel is set the range is split into one
// contiguous shard per worker and the call blocks until every shard has finished. It returns the
// number of shards used.
func (f *filterImpl) forEach(n int, parallel bool, fn func(i int)) int {
	if !parallel || f.workers == 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return 1
	}

	shardSize := (n + f.workers - 1) / f.workers
	var wg sync.WaitGroup
	shards := 0
	for lo := 0; lo < n; lo += shardSize {
		hi := min(lo+shardSize, n)
		wg.Add(1)
		f.pool.SubmitTask(worker.Task{
			ID: shards,
			Do: func() (any, error) {
				defer wg.Done()
				for i := lo; i < hi; i++ {
					fn(i)
				}
				return nil, nil
			},
		})
		shards++
	}
	wg.Wait()
	return shards
}

// frustumKeeps applies the inclusive positive-vertex test. A box containing the eye is always kept,
// since the near plane sits in front of the camera.
func frustumKeeps(f *common.Frustum, eye mgl32.Vec3, box common.AABB) bool {
	return box.ContainsPoint(eye) || f.IntersectsAABB(box)
}
