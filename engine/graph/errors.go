package graph

import (
	"errors"
	"fmt"
)

var (
	// ErrPassNotFound is returned when an operation names a pass that is not registered.
	ErrPassNotFound = errors.New("graph: pass not found")

	// ErrInvalidPass is returned when registering a nil pass or a pass with an empty name.
	ErrInvalidPass = errors.New("graph: invalid pass")

	// ErrPipelineMissing is returned by InitAll when a pass asks for a pipeline the provider does not have.
	ErrPipelineMissing = errors.New("graph: pipeline missing")
)

// CycleError reports that the dependency relation contains a cycle. Node is the pass at which
// the back-edge was found. While a cycle exists the graph runs in degraded mode.
type CycleError struct {
	Node string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("graph: dependency cycle detected at pass %q", e.Node)
}

// PassError wraps the error returned by a pass's Execute.
type PassError struct {
	Pass string
	Err  error
}

func (e *PassError) Error() string {
	return fmt.Sprintf("graph: pass %q failed: %v", e.Pass, e.Err)
}

func (e *PassError) Unwrap() error {
	return e.Err
}
