// Package profiler tracks frame timing over a rolling window and periodically logs runtime memory statistics.
package profiler

import (
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/log"
)

var logger = log.New("profiler")

// DefaultWindow is the number of frames averaged for the frame rate.
const DefaultWindow = 60

// Profiler keeps a ring of the most recent frame durations and reports frame rate and memory
// statistics to the log at a configurable interval.
type Profiler struct {
	mu *sync.Mutex

	samples []time.Duration
	next    int
	count   int
	sum     time.Duration

	lastReport     time.Time
	reportInterval time.Duration
	framesSince    int
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler averaging over window frames. A window of zero or less
// uses DefaultWindow. The report interval defaults to 1 second; zero disables reporting.
//
// Parameters:
//   - window: the number of frames in the rolling average
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(window int) *Profiler {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Profiler{
		mu:             &sync.Mutex{},
		samples:        make([]time.Duration, window),
		lastReport:     time.Now(),
		reportInterval: time.Second,
	}
}

// SetReportInterval changes how often Record logs statistics. Zero disables reporting.
func (p *Profiler) SetReportInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reportInterval = interval
}

// Record adds one frame duration to the window.
//
// Parameters:
//   - frameTime: how long the frame took
//
// Returns:
//   - float64: the rolling average frame rate after adding the sample
func (p *Profiler) Record(frameTime time.Duration) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.count == len(p.samples) {
		p.sum -= p.samples[p.next]
	} else {
		p.count++
	}
	p.samples[p.next] = frameTime
	p.sum += frameTime
	p.next = (p.next + 1) % len(p.samples)

	p.framesSince++
	if p.reportInterval > 0 {
		if now := time.Now(); now.Sub(p.lastReport) >= p.reportInterval {
			p.report(now)
		}
	}
	return p.averageFPS()
}

// AverageFPS returns the frame rate averaged over the window, or 0 before the first sample.
func (p *Profiler) AverageFPS() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.averageFPS()
}

// AverageFrameTime returns the mean frame duration over the window.
func (p *Profiler) AverageFrameTime() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.count == 0 {
		return 0
	}
	return p.sum / time.Duration(p.count)
}

// Samples returns the number of frames currently in the window.
func (p *Profiler) Samples() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Reset clears the window.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.samples)
	p.next, p.count, p.sum = 0, 0, 0
}

func (p *Profiler) averageFPS() float64 {
	if p.count == 0 || p.sum <= 0 {
		return 0
	}
	return float64(p.count) / p.sum.Seconds()
}

// report logs frame rate and memory statistics. Caller must hold the mutex.
func (p *Profiler) report(now time.Time) {
	elapsed := now.Sub(p.lastReport)

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc grows forever and tracks churn. Sys is the process footprint.
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024
	allocRateMB := float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			maxPauseUs = max(maxPauseUs, p.memStats.PauseNs[i%256]/1000)
		}
	}

	logger.Infof("FPS: %.2f (window %.2f) | Heap: %.2f MB | Alloc Rate: %.2f MB/s | GC: %d (last: %d µs, max: %d µs) | Sys: %.2f MB",
		float64(p.framesSince)/elapsed.Seconds(), p.averageFPS(), allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.framesSince = 0
	p.lastReport = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
}
