// Package renderer owns the WebGPU device the buffer pool allocates from and, when a surface is
// attached, presents each frame to it.
package renderer

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/pool"
	"github.com/Carmen-Shannon/oxy-pipeline/log"
	"github.com/cogentcore/webgpu/wgpu"
)

var logger = log.New("renderer")

type renderer struct {
	mu *sync.Mutex

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue
	surface  *wgpu.Surface

	surfaceDescriptor    *wgpu.SurfaceDescriptor
	surfaceFormat        wgpu.TextureFormat
	width, height        int
	presentMode          PresentMode
	clearColor           wgpu.Color
	forceFallbackAdapter bool

	// frame state between BeginFrame and Present
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView
}

// Renderer holds the GPU device and queue. With a surface it also implements the frame
// pipeline's presenter: BeginFrame acquires and clears the next surface image, EndFrame submits
// and Present displays it.
type Renderer interface {
	// Device returns the WebGPU device.
	Device() *wgpu.Device

	// Queue returns the device queue.
	Queue() *wgpu.Queue

	// Headless reports whether the renderer was created without a surface.
	Headless() bool

	// PoolBackend returns a buffer pool backend creating GPU buffers on this device.
	//
	// Returns:
	//   - pool.Backend: the backend
	PoolBackend() pool.Backend

	// Resize reconfigures the surface for a new size. Ignored when headless or for empty sizes.
	//
	// Parameters:
	//   - width: the new width of the surface in pixels
	//   - height: the new height of the surface in pixels
	Resize(width, height int)

	// SetPresentMode changes the present mode and reconfigures the surface.
	//
	// Parameters:
	//   - mode: the PresentMode to use
	SetPresentMode(mode PresentMode)

	// SetClearColor sets the color the surface is cleared to each frame.
	SetClearColor(rgba [4]float64)

	// BeginFrame acquires the next surface texture and begins the render pass that clears it.
	// A surface image left unpresented by a dropped frame is released first.
	//
	// Returns:
	//   - error: ErrHeadless or a surface acquisition error
	BeginFrame() error

	// EndFrame ends the render pass and submits the recorded commands.
	EndFrame()

	// Present displays the submitted surface texture.
	Present()

	// Release frees the frame state, the surface and the device.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer requests an adapter and device. When a surface descriptor is supplied through
// WithSurface the surface is created, the adapter is chosen to be compatible with it and the
// surface is configured.
//
// Parameters:
//   - options: functional options applied before device creation
//
// Returns:
//   - Renderer: the renderer
//   - error: ErrNoAdapter or a device request failure
func NewRenderer(options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:          &sync.Mutex{},
		presentMode: PresentModeUncapped,
		clearColor:  wgpu.Color{R: 0.1, G: 0.1, B: 0.1, A: 1.0},
	}
	for _, option := range options {
		option(r)
	}

	if r.surfaceDescriptor != nil {
		// surface calls must stay on the thread that owns the window
		runtime.LockOSThread()
	}

	r.instance = wgpu.CreateInstance(nil)
	if r.surfaceDescriptor != nil {
		r.surface = r.instance.CreateSurface(r.surfaceDescriptor)
	}

	adapter, err := r.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: r.forceFallbackAdapter,
		CompatibleSurface:    r.surface,
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("%w: %v", ErrNoAdapter, err)
	}
	r.adapter = adapter

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
	})
	if err != nil {
		r.Release()
		return nil, fmt.Errorf("renderer: request device: %w", err)
	}
	r.device = device
	r.queue = device.GetQueue()

	if r.surface != nil {
		r.configureSurface()
	}
	logger.Infof("device ready (headless=%t)", r.surface == nil)
	return r, nil
}

func (r *renderer) Device() *wgpu.Device {
	return r.device
}

func (r *renderer) Queue() *wgpu.Queue {
	return r.queue
}

func (r *renderer) Headless() bool {
	return r.surface == nil
}

func (r *renderer) PoolBackend() pool.Backend {
	return pool.NewWGPUBackend(r.device, r.queue)
}

func (r *renderer) Resize(width, height int) {
	if r.surface == nil || width <= 0 || height <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.width, r.height = width, height
	r.configureSurface()
}

func (r *renderer) SetPresentMode(mode PresentMode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.presentMode = mode
	if r.surface != nil {
		r.configureSurface()
	}
}

func (r *renderer) SetClearColor(rgba [4]float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearColor = wgpu.Color{R: rgba[0], G: rgba[1], B: rgba[2], A: rgba[3]}
}

// configureSurface applies the size and present mode. Caller must hold the mutex or be constructing.
func (r *renderer) configureSurface() {
	capabilities := r.surface.GetCapabilities(r.adapter)
	r.surfaceFormat = capabilities.Formats[0]

	r.surface.Configure(r.adapter, r.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      r.surfaceFormat,
		Width:       uint32(max(r.width, 1)),
		Height:      uint32(max(r.height, 1)),
		PresentMode: r.presentMode.wgpuPresentMode(),
		AlphaMode:   capabilities.AlphaModes[0],
	})
}

func (r *renderer) BeginFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.surface == nil {
		return ErrHeadless
	}
	if r.frameSurface != nil {
		logger.Debug("releasing surface image of a dropped frame")
		r.releaseFrame()
	}

	surfaceTexture, err := r.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := r.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	r.framePass = encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     wgpu.LoadOpClear,
				StoreOp:    wgpu.StoreOpStore,
				ClearValue: r.clearColor,
			},
		},
	})
	r.frameEncoder = encoder
	r.frameSurface = surfaceTexture
	r.frameView = view
	return nil
}

func (r *renderer) EndFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameEncoder == nil {
		return
	}
	r.framePass.End()
	r.framePass = nil

	commandBuffer, err := r.frameEncoder.Finish(nil)
	r.frameEncoder.Release()
	r.frameEncoder = nil
	if err != nil {
		logger.Errorf("finish frame commands: %v", err)
		return
	}

	r.queue.Submit(commandBuffer)
	commandBuffer.Release()
}

func (r *renderer) Present() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frameSurface == nil {
		return
	}
	r.surface.Present()
	r.releaseFrame()
}

// releaseFrame drops the references held for the current surface image.
func (r *renderer) releaseFrame() {
	if r.framePass != nil {
		r.framePass.End()
		r.framePass = nil
	}
	if r.frameEncoder != nil {
		r.frameEncoder.Release()
		r.frameEncoder = nil
	}
	if r.frameView != nil {
		r.frameView.Release()
		r.frameView = nil
	}
	if r.frameSurface != nil {
		r.frameSurface.Release()
		r.frameSurface = nil
	}
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.releaseFrame()
	if r.queue != nil {
		r.queue.Release()
		r.queue = nil
	}
	if r.device != nil {
		r.device.Release()
		r.device = nil
	}
	if r.adapter != nil {
		r.adapter.Release()
		r.adapter = nil
	}
	if r.surface != nil {
		r.surface.Release()
		r.surface = nil
	}
	if r.instance != nil {
		r.instance.Release()
		r.instance = nil
	}
}
