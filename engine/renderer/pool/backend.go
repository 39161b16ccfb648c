package pool

import (
	"fmt"
	"math"
	"sync"

	"github.com/cogentcore/webgpu/wgpu"
)

// Resource is the backend-specific object behind a Buffer.
type Resource interface{}

// Backend creates and destroys the memory behind pooled buffers.
type Backend interface {
	// CreateBuffer allocates a buffer of exactly size bytes.
	//
	// Parameters:
	//   - category: the buffer's category
	//   - usage: the usage mask from the category configuration
	//   - size: the size in bytes
	//   - label: a debug label
	//
	// Returns:
	//   - Resource: the created resource
	//   - error: an error if the backend could not allocate
	CreateBuffer(category Category, usage wgpu.BufferUsage, size uint64, label string) (Resource, error)

	// Write uploads data into the resource at offset.
	Write(res Resource, offset uint64, data []byte) error

	// Destroy frees the resource. It is called exactly once per created resource.
	Destroy(res Resource)
}

// hostBuffer is a buffer living in system memory.
type hostBuffer struct {
	data []byte
}

type hostBackendImpl struct {
	mu   *sync.Mutex
	live int
}

// HostBackend keeps buffers in system memory. It is used for headless runs and tests.
type HostBackend interface {
	Backend

	// Live returns the number of resources created and not yet destroyed.
	Live() int

	// Bytes returns a copy of the contents of a resource created by this backend.
	Bytes(res Resource) []byte
}

var _ HostBackend = &hostBackendImpl{}

// NewHostBackend creates a Backend that allocates Go byte slices.
//
// Returns:
//   - HostBackend: the new backend
func NewHostBackend() HostBackend {
	return &hostBackendImpl{mu: &sync.Mutex{}}
}

func (b *hostBackendImpl) CreateBuffer(_ Category, _ wgpu.BufferUsage, size uint64, _ string) (Resource, error) {
	if size > math.MaxInt {
		return nil, fmt.Errorf("pool: host buffer of %d bytes exceeds addressable memory", size)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live++
	return &hostBuffer{data: make([]byte, size)}, nil
}

func (b *hostBackendImpl) Write(res Resource, offset uint64, data []byte) error {
	hb, ok := res.(*hostBuffer)
	if !ok {
		return fmt.Errorf("pool: host backend cannot write %T", res)
	}
	if !inRange(uint64(len(hb.data)), offset, len(data)) {
		return fmt.Errorf("%w: %d bytes at offset %d into %d", ErrOutOfRange, len(data), offset, len(hb.data))
	}
	copy(hb.data[offset:], data)
	return nil
}

func (b *hostBackendImpl) Destroy(res Resource) {
	if _, ok := res.(*hostBuffer); !ok {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.live--
}

func (b *hostBackendImpl) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

func (b *hostBackendImpl) Bytes(res Resource) []byte {
	hb, ok := res.(*hostBuffer)
	if !ok {
		return nil
	}
	return append([]byte(nil), hb.data...)
}
