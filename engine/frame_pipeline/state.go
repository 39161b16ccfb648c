package frame_pipeline

import (
	"errors"
)

// State is the lifecycle state of a FramePipeline.
type State int

const (
	// StateUninitialized is the state before Init and after a failed Init.
	StateUninitialized State = iota
	// StateInitializing is held while passes, shaders and the pool are being prepared.
	StateInitializing
	// StateRunning accepts RenderFrame calls.
	StateRunning
	// StatePaused keeps every resource alive but rejects RenderFrame.
	StatePaused
	// StateShuttingDown is held while pass resources and the pool are drained.
	StateShuttingDown
	// StateTerminated is final.
	StateTerminated
)

// String returns the lowercase name of the state.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateShuttingDown:
		return "shutting down"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

var (
	// ErrNotRunning is returned by RenderFrame outside the running state.
	ErrNotRunning = errors.New("frame_pipeline: pipeline is not running")

	// ErrInvalidState is returned when a lifecycle call is made from a state that does not allow it.
	ErrInvalidState = errors.New("frame_pipeline: invalid state transition")

	// ErrPresent wraps a presenter failure. The frame is dropped.
	ErrPresent = errors.New("frame_pipeline: presenter failed")
)
