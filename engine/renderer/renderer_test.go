package renderer

import (
	"sync"
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestPresentMode_Mapping(t *testing.T) {
	type spec struct {
		mode PresentMode
		want wgpu.PresentMode
	}
	specs := []spec{
		{PresentModeVSync, wgpu.PresentModeFifo},
		{PresentModeUncapped, wgpu.PresentModeImmediate},
	}
	for index, s := range specs {
		if got := s.mode.wgpuPresentMode(); got != s.want {
			t.Fatalf("[spec %d] wgpuPresentMode = %v, want %v", index, got, s.want)
		}
	}
}

func TestHeadlessRenderer_RejectsFrames(t *testing.T) {
	// a renderer without a surface never touches the device in the presenter methods
	r := &renderer{mu: &sync.Mutex{}}
	if err := r.BeginFrame(); err != ErrHeadless {
		t.Fatalf("BeginFrame error = %v, want ErrHeadless", err)
	}
	r.EndFrame()
	r.Present()
	if !r.Headless() {
		t.Error("renderer without a surface should report headless")
	}
}
