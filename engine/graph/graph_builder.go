package graph

// PassGraphBuilderOption configures a PassGraph during construction.
type PassGraphBuilderOption func(*passGraphImpl)

// WithPass registers a pass at construction time. A cycle introduced here is reported through
// Cycle and Degraded like any other.
//
// Parameters:
//   - p: the pass to register
//   - dependsOn: names of passes that must run before p
//
// Returns:
//   - PassGraphBuilderOption: a function that registers the pass
func WithPass(p Pass, dependsOn ...string) PassGraphBuilderOption {
	return func(g *passGraphImpl) {
		if p == nil || p.Name() == "" {
			return
		}
		// cycles are logged by reorder and reported through Cycle
		_ = g.register(p, dependsOn)
	}
}
