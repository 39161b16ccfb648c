package pool

import (
	"github.com/Carmen-Shannon/oxy-pipeline/common"
)

// AllocateTyped borrows a buffer large enough for data and uploads it immediately.
// The byte length is computed from the element stride of T.
//
// Parameters:
//   - p: the pool to allocate from
//   - category: the buffer category
//   - data: the elements to upload
//   - label: a debug label
//
// Returns:
//   - *Buffer: the borrowed buffer, already holding data
//   - error: an allocation or upload error; on upload failure the buffer is released
func AllocateTyped[T any](p Pool, category Category, data []T, label string) (*Buffer, error) {
	return allocateBytes(p, category, common.SliceToBytes(data), label)
}

// AllocateVertices uploads vertex data into a vertex buffer.
func AllocateVertices[T any](p Pool, vertices []T, label string) (*Buffer, error) {
	return AllocateTyped(p, CategoryVertex, vertices, label)
}

// AllocateIndices uploads 32-bit indices into an index buffer.
func AllocateIndices(p Pool, indices []uint32, label string) (*Buffer, error) {
	return AllocateTyped(p, CategoryIndex, indices, label)
}

// AllocateInstances uploads per-instance data into an instance buffer.
func AllocateInstances[T any](p Pool, instances []T, label string) (*Buffer, error) {
	return AllocateTyped(p, CategoryInstance, instances, label)
}

// AllocateUniform uploads a single uniform block.
func AllocateUniform[T any](p Pool, block *T, label string) (*Buffer, error) {
	return allocateBytes(p, CategoryUniform, common.StructToBytes(block), label)
}

func allocateBytes(p Pool, category Category, data []byte, label string) (*Buffer, error) {
	b, err := p.Allocate(category, uint64(len(data)), label)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return b, nil
	}
	if err := p.Write(b, 0, data); err != nil {
		p.Release(b)
		return nil, err
	}
	return b, nil
}
