package profiler

import (
	"math"
	"testing"
	"time"
)

func TestProfiler_RollingAverage(t *testing.T) {
	p := NewProfiler(4)
	p.SetReportInterval(0)

	if p.AverageFPS() != 0 {
		t.Errorf("AverageFPS before samples = %f, want 0", p.AverageFPS())
	}

	for i := 0; i < 4; i++ {
		p.Record(10 * time.Millisecond)
	}
	if got := p.AverageFPS(); math.Abs(got-100) > 1e-9 {
		t.Errorf("AverageFPS = %f, want 100", got)
	}

	// four slow frames push every fast sample out of the window
	for i := 0; i < 4; i++ {
		p.Record(20 * time.Millisecond)
	}
	if got := p.AverageFPS(); math.Abs(got-50) > 1e-9 {
		t.Errorf("AverageFPS = %f, want 50", got)
	}
	if p.Samples() != 4 {
		t.Errorf("Samples = %d, want 4", p.Samples())
	}
	if p.AverageFrameTime() != 20*time.Millisecond {
		t.Errorf("AverageFrameTime = %v, want 20ms", p.AverageFrameTime())
	}
}

func TestProfiler_PartialWindowAndReset(t *testing.T) {
	p := NewProfiler(0)
	p.SetReportInterval(0)

	p.Record(10 * time.Millisecond)
	p.Record(30 * time.Millisecond)
	if got := p.AverageFPS(); math.Abs(got-50) > 1e-9 {
		t.Errorf("AverageFPS = %f, want 50", got)
	}

	p.Reset()
	if p.Samples() != 0 || p.AverageFPS() != 0 {
		t.Error("Reset should clear the window")
	}
}

func TestProfiler_ReportDoesNotDisturbWindow(t *testing.T) {
	p := NewProfiler(2)
	p.SetReportInterval(time.Nanosecond)

	p.Record(10 * time.Millisecond)
	time.Sleep(time.Millisecond)
	if got := p.Record(10 * time.Millisecond); math.Abs(got-100) > 1e-9 {
		t.Errorf("Record = %f, want 100", got)
	}
}
