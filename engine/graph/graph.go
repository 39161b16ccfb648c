// Package graph schedules render passes. Passes are registered by name together with the names
// they depend on, and the graph keeps a cached execution order that is recomputed eagerly on every
// structural change.
package graph

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/log"
	"golang.org/x/sync/errgroup"
)

var logger = log.New("graph")

// visit colours for the depth-first topological sort.
const (
	white = iota
	grey
	black
)

type node struct {
	pass    Pass
	enabled bool
	deps    []string
}

type passGraphImpl struct {
	mu *sync.Mutex

	nodes        map[string]*node
	registration []string
	order        []string
	cycle        *CycleError
}

// PassGraph holds named render passes and the dependency relation between them.
type PassGraph interface {
	// AddPass registers a pass, or replaces the registered pass with the same name, enabled by default.
	// The replacement keeps the original registration slot. The order is recomputed.
	//
	// Parameters:
	//   - p: the pass to register
	//   - dependsOn: names of passes that must run before p
	//
	// Returns:
	//   - error: ErrInvalidPass, or a *CycleError if the graph was acyclic and the new edges close a
	//     cycle (the pass is still registered)
	AddPass(p Pass, dependsOn ...string) error

	// RemovePass deletes a pass and scrubs it from every other pass's dependencies.
	// Unknown names are ignored.
	//
	// Parameters:
	//   - name: the pass to remove
	RemovePass(name string)

	// SetEnabled toggles whether a pass runs. Disabled passes are left out of the execution order.
	//
	// Parameters:
	//   - name: the pass to toggle
	//   - enabled: the new state
	//
	// Returns:
	//   - error: ErrPassNotFound if the pass is not registered
	SetEnabled(name string, enabled bool) error

	// AddDependency declares that pass must run after dependsOn. dependsOn does not need to be
	// registered yet; the edge is ignored for ordering until it is.
	//
	// Parameters:
	//   - pass: the dependent pass
	//   - dependsOn: the prerequisite pass
	//
	// Returns:
	//   - error: ErrPassNotFound if pass is unknown, or a *CycleError if the graph was acyclic and
	//     the edge closes a cycle
	AddDependency(pass, dependsOn string) error

	// RemoveDependency deletes a single edge. Missing edges are ignored.
	//
	// Parameters:
	//   - pass: the dependent pass
	//   - dependsOn: the prerequisite to drop
	RemoveDependency(pass, dependsOn string)

	// ExecutionOrder returns a copy of the cached order of enabled passes.
	//
	// Returns:
	//   - []string: pass names in the order they will execute
	ExecutionOrder() []string

	// ExecuteAll runs every enabled pass in execution order, timing each one. The first failing pass
	// stops the frame; the timings gathered so far are returned with a *PassError.
	//
	// Parameters:
	//   - ctx: the frame's context
	//   - fc: the per-frame snapshot handed to every pass
	//
	// Returns:
	//   - []frame.PassTiming: one entry per pass that ran, including the failing one
	//   - error: a *PassError when a pass failed
	ExecuteAll(ctx context.Context, fc *frame.Context) ([]frame.PassTiming, error)

	// InitAll runs the one-time setup of every registered pass concurrently and waits for all of them.
	// Passes that use a pipeline are checked against pipelines first; a nil provider skips the check.
	//
	// Parameters:
	//   - ctx: cancelled for the remaining tasks when one fails
	//   - pipelines: the compiled pipeline provider
	//
	// Returns:
	//   - error: the first setup failure
	InitAll(ctx context.Context, pipelines PipelineProvider) error

	// Pass returns the registered pass with the given name.
	Pass(name string) (Pass, bool)

	// Passes returns the registered pass names in registration order.
	Passes() []string

	// Enabled reports whether a registered pass is enabled. Unknown passes report false.
	Enabled(name string) bool

	// Dependencies returns a copy of the declared dependencies of a pass.
	Dependencies(name string) []string

	// Degraded reports whether the graph is running with a fallback order because of a cycle.
	Degraded() bool

	// Cycle returns the current *CycleError, or nil when the graph is acyclic.
	Cycle() error

	// Len returns the number of registered passes.
	Len() int

	// Validate reports a cycle or any dependency on an unregistered pass.
	Validate() error
}

var _ PassGraph = &passGraphImpl{}

// NewPassGraph creates an empty PassGraph.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - PassGraph: the new graph
func NewPassGraph(options ...PassGraphBuilderOption) PassGraph {
	g := &passGraphImpl{
		mu:    &sync.Mutex{},
		nodes: make(map[string]*node),
	}
	for _, option := range options {
		option(g)
	}
	return g
}

func (g *passGraphImpl) AddPass(p Pass, dependsOn ...string) error {
	if p == nil || p.Name() == "" {
		return ErrInvalidPass
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	return g.register(p, dependsOn)
}

// register inserts or replaces p with de-duplicated dependencies and reorders.
// Caller must hold the mutex.
func (g *passGraphImpl) register(p Pass, dependsOn []string) error {
	name := p.Name()
	if _, ok := g.nodes[name]; !ok {
		g.registration = append(g.registration, name)
	}
	n := &node{pass: p, enabled: true}
	for _, dep := range dependsOn {
		if !slices.Contains(n.deps, dep) {
			n.deps = append(n.deps, dep)
		}
	}
	g.nodes[name] = n

	return g.reorder()
}

func (g *passGraphImpl) RemovePass(name string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[name]; !ok {
		return
	}
	delete(g.nodes, name)
	g.registration = slices.DeleteFunc(g.registration, func(s string) bool { return s == name })
	for _, n := range g.nodes {
		n.deps = slices.DeleteFunc(n.deps, func(s string) bool { return s == name })
	}

	g.reorder()
}

func (g *passGraphImpl) SetEnabled(name string, enabled bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPassNotFound, name)
	}
	if n.enabled == enabled {
		return nil
	}
	n.enabled = enabled
	g.reorder()
	return nil
}

func (g *passGraphImpl) AddDependency(pass, dependsOn string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[pass]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPassNotFound, pass)
	}
	if !slices.Contains(n.deps, dependsOn) {
		n.deps = append(n.deps, dependsOn)
	}
	return g.reorder()
}

func (g *passGraphImpl) RemoveDependency(pass, dependsOn string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	n, ok := g.nodes[pass]
	if !ok {
		return
	}
	before := len(n.deps)
	n.deps = slices.DeleteFunc(n.deps, func(s string) bool { return s == dependsOn })
	if len(n.deps) != before {
		g.reorder()
	}
}

func (g *passGraphImpl) ExecutionOrder() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.order)
}

func (g *passGraphImpl) ExecuteAll(ctx context.Context, fc *frame.Context) ([]frame.PassTiming, error) {
	g.mu.Lock()
	passes := make([]Pass, 0, len(g.order))
	for _, name := range g.order {
		passes = append(passes, g.nodes[name].pass)
	}
	g.mu.Unlock()

	timings := make([]frame.PassTiming, 0, len(passes))
	for _, p := range passes {
		start := time.Now()
		err := p.Execute(ctx, fc)
		timings = append(timings, frame.PassTiming{Name: p.Name(), Duration: time.Since(start), Err: err})
		if err != nil {
			return timings, &PassError{Pass: p.Name(), Err: err}
		}
	}
	return timings, nil
}

func (g *passGraphImpl) InitAll(ctx context.Context, pipelines PipelineProvider) error {
	g.mu.Lock()
	passes := make([]Pass, 0, len(g.registration))
	for _, name := range g.registration {
		passes = append(passes, g.nodes[name].pass)
	}
	g.mu.Unlock()

	if pipelines != nil {
		for _, p := range passes {
			user, ok := p.(PipelineUser)
			if !ok {
				continue
			}
			if !pipelines.HasPipeline(user.PipelineKey()) {
				return fmt.Errorf("%w: pass %q needs %q", ErrPipelineMissing, p.Name(), user.PipelineKey())
			}
		}
	}

	eg, egCtx := errgroup.WithContext(ctx)
	for _, p := range passes {
		initializer, ok := p.(Initializer)
		if !ok {
			continue
		}
		eg.Go(func() error {
			if err := initializer.Init(egCtx); err != nil {
				return fmt.Errorf("graph: init pass %q: %w", p.Name(), err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (g *passGraphImpl) Pass(name string) (Pass, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	if !ok {
		return nil, false
	}
	return n.pass, true
}

func (g *passGraphImpl) Passes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.registration)
}

func (g *passGraphImpl) Enabled(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	return ok && n.enabled
}

func (g *passGraphImpl) Dependencies(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	return slices.Clone(n.deps)
}

func (g *passGraphImpl) Degraded() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cycle != nil
}

func (g *passGraphImpl) Cycle() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cycle == nil {
		return nil
	}
	return g.cycle
}

func (g *passGraphImpl) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

func (g *passGraphImpl) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cycle != nil {
		return g.cycle
	}
	for _, name := range g.registration {
		for _, dep := range g.nodes[name].deps {
			if _, ok := g.nodes[dep]; !ok {
				return fmt.Errorf("%w: %s depends on %s", ErrPassNotFound, name, dep)
			}
		}
	}
	return nil
}

// reorder recomputes the cached order. On a cycle the order falls back to the enabled passes in
// registration order. The cycle is returned only when the graph was acyclic before this call;
// an existing cycle stays available through Cycle.
// Caller must hold the mutex.
func (g *passGraphImpl) reorder() error {
	order, cycle := g.topoSort()
	if cycle != nil {
		previous := g.cycle
		if previous == nil || previous.Node != cycle.Node {
			logger.Warningf("%v; falling back to registration order", cycle)
		}
		g.cycle = cycle
		g.order = g.order[:0]
		for _, name := range g.registration {
			if g.nodes[name].enabled {
				g.order = append(g.order, name)
			}
		}
		if previous != nil {
			return nil
		}
		return cycle
	}

	if g.cycle != nil {
		logger.Noticef("dependency cycle at %q resolved", g.cycle.Node)
	}
	g.cycle = nil
	g.order = order
	return nil
}

// topoSort runs a depth-first three-colour sort over every registered pass. Roots are visited in
// registration order and dependencies in declaration order so the result is deterministic.
// Disabled passes are walked but not emitted.
// Caller must hold the mutex.
func (g *passGraphImpl) topoSort() ([]string, *CycleError) {
	colour := make(map[string]int, len(g.nodes))
	order := make([]string, 0, len(g.nodes))

	var visit func(name string) *CycleError
	visit = func(name string) *CycleError {
		colour[name] = grey
		n := g.nodes[name]
		for _, dep := range n.deps {
			if _, ok := g.nodes[dep]; !ok {
				continue
			}
			switch colour[dep] {
			case grey:
				return &CycleError{Node: dep}
			case white:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}
		colour[name] = black
		if n.enabled {
			order = append(order, name)
		}
		return nil
	}

	for _, name := range g.registration {
		if colour[name] != white {
			continue
		}
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return order, nil
}
