package pool

import "errors"

var (
	// ErrBudgetExceeded is returned when a new buffer would push the pool past its memory limit
	// even after Cleanup. Callers are expected to degrade rather than fail the frame.
	ErrBudgetExceeded = errors.New("pool: memory budget exceeded")

	// ErrPoolClosed is returned by Allocate after Close.
	ErrPoolClosed = errors.New("pool: closed")

	// ErrUnknownCategory is returned when a category has no configuration.
	ErrUnknownCategory = errors.New("pool: unknown buffer category")

	// ErrForeignBuffer is returned when a buffer not owned by the pool is passed to Write.
	ErrForeignBuffer = errors.New("pool: buffer not owned by this pool")

	// ErrOutOfRange is returned when a write does not fit inside the buffer.
	ErrOutOfRange = errors.New("pool: write out of range")
)
