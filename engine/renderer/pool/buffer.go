package pool

import "sync/atomic"

// Buffer is a handle to a pooled buffer. The pool owns the handle; callers borrow it between
// Allocate and Release and must not keep it after releasing.
type Buffer struct {
	id       uint64
	category Category
	size     uint64
	label    string
	resource Resource
	inUse    atomic.Bool
}

// ID returns the pool-unique buffer id.
func (b *Buffer) ID() uint64 {
	return b.id
}

// Category returns the category the buffer was created for.
func (b *Buffer) Category() Category {
	return b.category
}

// Size returns the real size of the buffer in bytes, which may exceed the requested size.
func (b *Buffer) Size() uint64 {
	return b.size
}

// Label returns the label the buffer was created with.
func (b *Buffer) Label() string {
	return b.label
}

// InUse reports whether the buffer is currently borrowed.
func (b *Buffer) InUse() bool {
	return b.inUse.Load()
}

// Resource returns the backend resource, for example a *wgpu.Buffer.
func (b *Buffer) Resource() Resource {
	return b.resource
}
