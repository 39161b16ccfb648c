package graph

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
)

// =============================================================================
// Helpers
// =============================================================================

type recordingPass struct {
	name string
	log  *[]string
	err  error
}

func (p *recordingPass) Name() string { return p.name }

func (p *recordingPass) Execute(_ context.Context, _ *frame.Context) error {
	*p.log = append(*p.log, p.name)
	return p.err
}

type initPass struct {
	name  string
	calls *atomic.Int32
	err   error
	key   string
}

func (p *initPass) Name() string                                  { return p.name }
func (p *initPass) Execute(context.Context, *frame.Context) error { return nil }
func (p *initPass) PipelineKey() string                           { return p.key }
func (p *initPass) Init(context.Context) error {
	p.calls.Add(1)
	return p.err
}

type pipelineSet map[string]bool

func (s pipelineSet) HasPipeline(key string) bool { return s[key] }

func named(name string) Pass {
	return PassFunc{PassName: name}
}

func indexOf(order []string, name string) int {
	return slices.Index(order, name)
}

// =============================================================================
// Ordering Tests
// =============================================================================

func TestExecutionOrder_Diamond(t *testing.T) {
	g := NewPassGraph()
	for _, name := range []string{"A", "B", "C", "D"} {
		if err := g.AddPass(named(name)); err != nil {
			t.Fatalf("AddPass(%s) error = %v", name, err)
		}
	}
	deps := [][2]string{{"B", "A"}, {"C", "A"}, {"D", "B"}, {"D", "C"}}
	for _, d := range deps {
		if err := g.AddDependency(d[0], d[1]); err != nil {
			t.Fatalf("AddDependency(%s, %s) error = %v", d[0], d[1], err)
		}
	}

	order := g.ExecutionOrder()
	if len(order) != 4 {
		t.Fatalf("order = %v, want 4 passes", order)
	}
	if order[0] != "A" || order[3] != "D" {
		t.Errorf("order = %v, want A first and D last", order)
	}
	if g.Degraded() {
		t.Error("acyclic graph should not be degraded")
	}
}

func TestExecutionOrder_TransitiveDependencies(t *testing.T) {
	type spec struct {
		deps map[string][]string
	}
	specs := []spec{
		{deps: map[string][]string{"composite": {"post"}, "post": {"lighting"}, "lighting": {"gbuffer", "shadow"}, "gbuffer": nil, "shadow": nil}},
		{deps: map[string][]string{"e": {"d"}, "d": {"c"}, "c": {"b"}, "b": {"a"}, "a": nil}},
		{deps: map[string][]string{"x": {"y", "z"}, "y": {"z"}, "z": nil, "w": nil}},
	}

	for index, s := range specs {
		g := NewPassGraph()
		// register dependents first so the sort has to reorder
		names := make([]string, 0, len(s.deps))
		for name := range s.deps {
			names = append(names, name)
		}
		slices.Sort(names)
		slices.Reverse(names)
		for _, name := range names {
			if err := g.AddPass(named(name), s.deps[name]...); err != nil {
				t.Fatalf("[spec %d] AddPass(%s) error = %v", index, name, err)
			}
		}

		order := g.ExecutionOrder()
		var check func(name string, before int)
		check = func(name string, before int) {
			for _, dep := range s.deps[name] {
				if indexOf(order, dep) >= before {
					t.Fatalf("[spec %d] %s should run before position %d in %v", index, dep, before, order)
				}
				check(dep, before)
			}
		}
		for _, name := range names {
			check(name, indexOf(order, name))
		}
	}
}

func TestExecutionOrder_UnregisteredDependencyIgnored(t *testing.T) {
	g := NewPassGraph()
	if err := g.AddPass(named("lighting"), "ssao"); err != nil {
		t.Fatalf("AddPass error = %v", err)
	}
	if got := g.ExecutionOrder(); !slices.Equal(got, []string{"lighting"}) {
		t.Fatalf("order = %v, want [lighting]", got)
	}
	if err := g.Validate(); !errors.Is(err, ErrPassNotFound) {
		t.Errorf("Validate() = %v, want ErrPassNotFound", err)
	}

	g.AddPass(named("ssao"))
	if got := g.ExecutionOrder(); !slices.Equal(got, []string{"ssao", "lighting"}) {
		t.Errorf("order = %v, want [ssao lighting]", got)
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestSetEnabled_DisabledPassSkippedButEdgesFollowed(t *testing.T) {
	g := NewPassGraph()
	g.AddPass(named("c"), "b")
	g.AddPass(named("b"), "a")
	g.AddPass(named("a"))

	if err := g.SetEnabled("b", false); err != nil {
		t.Fatalf("SetEnabled error = %v", err)
	}
	if got := g.ExecutionOrder(); !slices.Equal(got, []string{"a", "c"}) {
		t.Errorf("order = %v, want [a c]", got)
	}
	if g.Enabled("b") {
		t.Error("b should report disabled")
	}

	if err := g.SetEnabled("missing", true); !errors.Is(err, ErrPassNotFound) {
		t.Errorf("SetEnabled(missing) = %v, want ErrPassNotFound", err)
	}
}

// =============================================================================
// Mutation Tests
// =============================================================================

func TestRemovePass_ScrubsDependencies(t *testing.T) {
	g := NewPassGraph()
	g.AddPass(named("a"))
	g.AddPass(named("b"), "a")

	g.RemovePass("a")
	if g.Len() != 1 {
		t.Fatalf("Len = %d, want 1", g.Len())
	}
	if deps := g.Dependencies("b"); len(deps) != 0 {
		t.Errorf("Dependencies(b) = %v, want none", deps)
	}

	// removing an unknown pass is a no-op
	before := g.ExecutionOrder()
	g.RemovePass("missing")
	if got := g.ExecutionOrder(); !slices.Equal(got, before) {
		t.Errorf("order changed after removing unknown pass: %v -> %v", before, got)
	}
}

func TestAddPass_ReplaceKeepsSlot(t *testing.T) {
	var log []string
	g := NewPassGraph()
	g.AddPass(&recordingPass{name: "a", log: &log})
	g.AddPass(named("b"))
	g.AddPass(&recordingPass{name: "a", log: &log, err: errors.New("replaced")})

	if got := g.Passes(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("Passes = %v, want [a b]", got)
	}
	p, ok := g.Pass("a")
	if !ok || p.(*recordingPass).err == nil {
		t.Error("Pass(a) should return the replacement")
	}
}

func TestAddPass_Invalid(t *testing.T) {
	g := NewPassGraph()
	if err := g.AddPass(nil); !errors.Is(err, ErrInvalidPass) {
		t.Errorf("AddPass(nil) = %v, want ErrInvalidPass", err)
	}
	if err := g.AddPass(named("")); !errors.Is(err, ErrInvalidPass) {
		t.Errorf("AddPass(empty) = %v, want ErrInvalidPass", err)
	}
	if err := g.AddDependency("missing", "a"); !errors.Is(err, ErrPassNotFound) {
		t.Errorf("AddDependency(missing) = %v, want ErrPassNotFound", err)
	}
}

// =============================================================================
// Cycle Tests
// =============================================================================

func TestAddDependency_CycleFallsBack(t *testing.T) {
	g := NewPassGraph()
	g.AddPass(named("A"))
	g.AddPass(named("B"))

	if err := g.AddDependency("B", "A"); err != nil {
		t.Fatalf("AddDependency(B, A) error = %v", err)
	}
	err := g.AddDependency("A", "B")

	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("AddDependency(A, B) = %v, want *CycleError", err)
	}
	if !g.Degraded() || g.Cycle() == nil {
		t.Error("graph should be degraded after a cycle")
	}
	if got := g.ExecutionOrder(); !slices.Equal(got, []string{"A", "B"}) {
		t.Errorf("degraded order = %v, want registration order [A B]", got)
	}

	// both passes still run in degraded mode
	var ran []string
	g.AddPass(&recordingPass{name: "A", log: &ran}, "B")
	g.AddPass(&recordingPass{name: "B", log: &ran}, "A")
	if _, err := g.ExecuteAll(context.Background(), &frame.Context{}); err != nil {
		t.Fatalf("ExecuteAll error = %v", err)
	}
	if !slices.Equal(ran, []string{"A", "B"}) {
		t.Errorf("ran = %v, want [A B]", ran)
	}

	// dropping the back edge restores a valid order
	g.RemoveDependency("A", "B")
	if g.Degraded() {
		t.Error("graph should recover after the cycle is removed")
	}
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}

func TestAddPass_UnrelatedMutationDuringCycle(t *testing.T) {
	g := NewPassGraph()
	g.AddPass(named("A"), "B")

	var cycle *CycleError
	if err := g.AddPass(named("B"), "A"); !errors.As(err, &cycle) {
		t.Fatalf("AddPass(B -> A) = %v, want *CycleError", err)
	}

	if err := g.AddPass(named("C")); err != nil {
		t.Errorf("AddPass(C) during an existing cycle = %v, want nil", err)
	}
	if err := g.AddDependency("C", "A"); err != nil {
		t.Errorf("AddDependency(C, A) during an existing cycle = %v, want nil", err)
	}
	if !g.Degraded() || g.Cycle() == nil {
		t.Error("graph should still report the existing cycle")
	}
	if got := g.ExecutionOrder(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("degraded order = %v, want [A B C]", got)
	}
}

func TestWithPass_MatchesAddPass(t *testing.T) {
	g := NewPassGraph(
		WithPass(named("a")),
		WithPass(named("b"), "a", "a"),
		WithPass(nil),
	)

	if got := g.Dependencies("b"); !slices.Equal(got, []string{"a"}) {
		t.Errorf("Dependencies(b) = %v, want [a]", got)
	}
	if got := g.ExecutionOrder(); !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("order = %v, want [a b]", got)
	}

	cyclic := NewPassGraph(WithPass(named("x"), "y"), WithPass(named("y"), "x"))
	if !cyclic.Degraded() {
		t.Error("a cycle built through WithPass should degrade the graph")
	}
}

func TestAddDependency_SelfCycle(t *testing.T) {
	g := NewPassGraph()
	g.AddPass(named("A"))

	var cycle *CycleError
	if err := g.AddDependency("A", "A"); !errors.As(err, &cycle) || cycle.Node != "A" {
		t.Fatalf("AddDependency(A, A) = %v, want cycle at A", err)
	}
}

// =============================================================================
// Execution Tests
// =============================================================================

func TestExecuteAll_FailureStopsFrame(t *testing.T) {
	var ran []string
	boom := errors.New("boom")
	g := NewPassGraph(
		WithPass(&recordingPass{name: "a", log: &ran}),
		WithPass(&recordingPass{name: "b", log: &ran, err: boom}, "a"),
		WithPass(&recordingPass{name: "c", log: &ran}, "b"),
	)

	timings, err := g.ExecuteAll(context.Background(), &frame.Context{})

	var passErr *PassError
	if !errors.As(err, &passErr) || passErr.Pass != "b" {
		t.Fatalf("ExecuteAll error = %v, want *PassError for b", err)
	}
	if !errors.Is(err, boom) {
		t.Error("PassError should unwrap to the pass error")
	}
	if len(timings) != 2 || timings[0].Name != "a" || timings[1].Name != "b" {
		t.Fatalf("timings = %v, want entries for a and b", timings)
	}
	if timings[1].Err == nil {
		t.Error("failing pass timing should carry its error")
	}
	if slices.Contains(ran, "c") {
		t.Error("pass after the failure should not run")
	}
}

func TestInitAll(t *testing.T) {
	var calls atomic.Int32
	g := NewPassGraph(
		WithPass(&initPass{name: "a", calls: &calls, key: "a"}),
		WithPass(&initPass{name: "b", calls: &calls, key: "b"}),
		WithPass(named("plain")),
	)

	if err := g.InitAll(context.Background(), pipelineSet{"a": true, "b": true}); err != nil {
		t.Fatalf("InitAll error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("Init calls = %d, want 2", calls.Load())
	}

	if err := g.InitAll(context.Background(), pipelineSet{"a": true}); !errors.Is(err, ErrPipelineMissing) {
		t.Errorf("InitAll with missing pipeline = %v, want ErrPipelineMissing", err)
	}

	failing := errors.New("no target")
	g.AddPass(&initPass{name: "c", calls: &calls, err: failing})
	if err := g.InitAll(context.Background(), nil); !errors.Is(err, failing) {
		t.Errorf("InitAll = %v, want wrapped init failure", err)
	}
}
