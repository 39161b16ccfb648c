package pool

import (
	"fmt"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
)

type wgpuBackendImpl struct {
	device *wgpu.Device
	queue  *wgpu.Queue
}

var _ Backend = &wgpuBackendImpl{}

// NewWGPUBackend creates a Backend that allocates GPU buffers on device and uploads through queue.
//
// Parameters:
//   - device: the GPU device
//   - queue: the device queue used for writes
//
// Returns:
//   - Backend: the new backend
func NewWGPUBackend(device *wgpu.Device, queue *wgpu.Queue) Backend {
	return &wgpuBackendImpl{device: device, queue: queue}
}

func (b *wgpuBackendImpl) CreateBuffer(category Category, usage wgpu.BufferUsage, size uint64, label string) (Resource, error) {
	// WebGPU requires sizes to be a multiple of 4 for mapped and copied buffers
	if size > math.MaxUint64-3 {
		return nil, fmt.Errorf("pool: %s buffer of %d bytes cannot be aligned", category, size)
	}
	aligned := (size + 3) &^ 3
	buf, err := b.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            fmt.Sprintf("%s (%s pool)", label, category),
		Size:             aligned,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, fmt.Errorf("pool: create %s buffer: %w", category, err)
	}
	return buf, nil
}

func (b *wgpuBackendImpl) Write(res Resource, offset uint64, data []byte) error {
	buf, ok := res.(*wgpu.Buffer)
	if !ok {
		return fmt.Errorf("pool: wgpu backend cannot write %T", res)
	}
	if !inRange(buf.GetSize(), offset, len(data)) {
		return fmt.Errorf("%w: %d bytes at offset %d into %d", ErrOutOfRange, len(data), offset, buf.GetSize())
	}
	b.queue.WriteBuffer(buf, offset, data)
	return nil
}

func (b *wgpuBackendImpl) Destroy(res Resource) {
	buf, ok := res.(*wgpu.Buffer)
	if !ok {
		return
	}
	buf.Release()
}
