package renderer

import (
	"errors"

	"github.com/cogentcore/webgpu/wgpu"
)

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// wgpuPresentMode maps a PresentMode onto the wgpu value.
func (m PresentMode) wgpuPresentMode() wgpu.PresentMode {
	switch m {
	case PresentModeVSync:
		return wgpu.PresentModeFifo
	default:
		return wgpu.PresentModeImmediate
	}
}

var (
	// ErrHeadless is returned by the presenter methods of a renderer created without a surface.
	ErrHeadless = errors.New("renderer: no surface to present to")

	// ErrNoAdapter is returned when no GPU adapter matches the request.
	ErrNoAdapter = errors.New("renderer: no suitable adapter")
)
