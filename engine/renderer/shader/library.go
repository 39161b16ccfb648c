// Package shader holds WGSL shader modules and the library that compiles them into pipelines
// the render passes ask for by key.
package shader

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/log"
	"github.com/gogpu/naga"
	"golang.org/x/sync/errgroup"
)

var logger = log.New("shader")

var (
	// ErrDuplicatePipeline is returned when a pipeline key is registered twice.
	ErrDuplicatePipeline = errors.New("shader: pipeline already registered")

	// ErrEmptyPipeline is returned when a pipeline is registered without shaders.
	ErrEmptyPipeline = errors.New("shader: pipeline has no shaders")
)

type pipelineEntry struct {
	shaders  []Shader
	compiled bool
}

type libraryImpl struct {
	mu *sync.Mutex

	pipelines map[string]*pipelineEntry
	workers   int
}

// Library groups shaders into pipelines by key and compiles them. It satisfies the
// graph.PipelineProvider interface through HasPipeline.
type Library interface {
	// Register adds a pipeline made of the given shaders.
	//
	// Parameters:
	//   - key: the pipeline key passes ask for
	//   - shaders: the stage modules of the pipeline
	//
	// Returns:
	//   - error: ErrDuplicatePipeline or ErrEmptyPipeline
	Register(key string, shaders ...Shader) error

	// Compile compiles every pipeline not yet compiled, concurrently, and blocks until all finish.
	// A pipeline only becomes available when all its shaders compile.
	//
	// Parameters:
	//   - ctx: cancels the remaining compiles when one fails
	//
	// Returns:
	//   - error: the first compile failure
	Compile(ctx context.Context) error

	// HasPipeline reports whether key names a registered and compiled pipeline.
	HasPipeline(key string) bool

	// Pipeline returns the shaders of a registered pipeline.
	Pipeline(key string) ([]Shader, bool)

	// Keys returns the registered pipeline keys in sorted order.
	Keys() []string
}

var _ Library = &libraryImpl{}

// NewLibrary creates an empty Library.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Library: the new library
func NewLibrary(options ...LibraryBuilderOption) Library {
	l := &libraryImpl{
		mu:        &sync.Mutex{},
		pipelines: make(map[string]*pipelineEntry),
		workers:   runtime.NumCPU(),
	}
	for _, option := range options {
		option(l)
	}
	return l
}

func (l *libraryImpl) Register(key string, shaders ...Shader) error {
	if len(shaders) == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyPipeline, key)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.pipelines[key]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePipeline, key)
	}
	l.pipelines[key] = &pipelineEntry{shaders: shaders}
	return nil
}

func (l *libraryImpl) Compile(ctx context.Context) error {
	l.mu.Lock()
	pending := make(map[string][]Shader)
	for key, entry := range l.pipelines {
		if !entry.compiled {
			pending[key] = entry.shaders
		}
	}
	l.mu.Unlock()

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(max(l.workers, 1))
	for key, shaders := range pending {
		eg.Go(func() error {
			for _, s := range shaders {
				if err := egCtx.Err(); err != nil {
					return err
				}
				spirv, err := naga.Compile(s.Source())
				if err != nil {
					return fmt.Errorf("shader: compile %s %s shader %q: %w", key, s.ShaderType(), s.Key(), err)
				}
				s.setSPIRV(spirv)
			}

			l.mu.Lock()
			l.pipelines[key].compiled = true
			l.mu.Unlock()
			logger.Debugf("compiled pipeline %q (%d shaders)", key, len(shaders))
			return nil
		})
	}
	return eg.Wait()
}

func (l *libraryImpl) HasPipeline(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.pipelines[key]
	return ok && entry.compiled
}

func (l *libraryImpl) Pipeline(key string) ([]Shader, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entry, ok := l.pipelines[key]
	if !ok {
		return nil, false
	}
	return slices.Clone(entry.shaders), true
}

func (l *libraryImpl) Keys() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	keys := make([]string, 0, len(l.pipelines))
	for key := range l.pipelines {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}
