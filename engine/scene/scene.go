// Package scene is the scene provider the frame pipeline reads from each frame: the drawable objects,
// the lights, the camera and the environment settings.
package scene

import (
	"math"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/game_object"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
)

// Environment carries scene-wide render settings.
type Environment struct {
	ClearColor [4]float64
	Settings   frame.Settings
}

// DefaultEnvironment returns a 1280x720 environment with every optional effect enabled.
func DefaultEnvironment() Environment {
	return Environment{
		ClearColor: [4]float64{0.05, 0.05, 0.08, 1},
		Settings: frame.Settings{
			Width:               1280,
			Height:              720,
			ShadowMapResolution: light.ShadowMapResolution,
			SSAOEnabled:         true,
			PostProcessEnabled:  true,
		},
	}
}

type scene struct {
	mu *sync.Mutex

	name   string
	active bool

	cam         camera.Camera
	lights      []light.Light
	environment Environment

	nextID    uint64
	registry  map[uint64]game_object.GameObject
	order     []uint64
	ephemeral []game_object.GameObject
}

// Scene manages a registry of non-ephemeral GameObjects plus a list of ephemeral ones, the lights
// and the camera. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently active for rendering.
	Active() bool

	// SetActive sets whether this scene is active for rendering.
	SetActive(active bool)

	// Camera returns the scene's camera.
	Camera() camera.Camera

	// SetCamera replaces the scene's camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Count returns the number of persisted GameObjects in the scene's registry. Does not include ephemeral objects.
	//
	// Returns:
	//   - int: count of non-ephemeral GameObjects in the registry
	Count() int

	// CountEphemeral returns the number of ephemeral GameObjects held until ClearEphemeral.
	//
	// Returns:
	//   - int: count of ephemeral GameObjects
	CountEphemeral() int

	// Add adds a GameObject to the scene. Objects without an ID are assigned one. Non-ephemeral
	// objects are persisted in the registry for lookup and removal by ID.
	//
	// Parameters:
	//   - obj: the GameObject to add
	//
	// Returns:
	//   - uint64: the assigned object ID
	Add(obj game_object.GameObject) uint64

	// Get retrieves a non-ephemeral GameObject by its ID.
	// Returns nil if not found.
	//
	// Parameters:
	//   - id: the object's unique ID
	//
	// Returns:
	//   - game_object.GameObject: the object or nil
	Get(id uint64) game_object.GameObject

	// Remove removes a non-ephemeral GameObject from the registry by ID.
	//
	// Parameters:
	//   - id: the object's unique ID
	Remove(id uint64)

	// ClearEphemeral drops every ephemeral object.
	ClearEphemeral()

	// Clear removes all objects from the scene.
	Clear()

	// Objects returns the enabled objects in insertion order, registry objects first.
	//
	// Returns:
	//   - []frame.Drawable: the candidates for this frame
	Objects() []frame.Drawable

	// AddLight appends a light.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// Lights returns a copy of the scene's lights.
	//
	// Returns:
	//   - []light.Light: the lights
	Lights() []light.Light

	// Environment returns the scene-wide render settings.
	Environment() Environment

	// SetEnvironment replaces the scene-wide render settings.
	SetEnvironment(env Environment)
}

var _ Scene = &scene{}

// NewScene creates an active Scene with a default camera and environment.
//
// Parameters:
//   - options: functional options applied in order
//
// Returns:
//   - Scene: the new scene
func NewScene(options ...SceneBuilderOption) Scene {
	s := &scene{
		mu:          &sync.Mutex{},
		active:      true,
		nextID:      1,
		registry:    make(map[uint64]game_object.GameObject),
		environment: DefaultEnvironment(),
	}
	for _, option := range options {
		option(s)
	}
	if s.cam == nil {
		s.cam = camera.NewCamera()
	}
	return s
}

func (s *scene) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Camera() camera.Camera {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cam = cam
}

func (s *scene) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.registry)
}

func (s *scene) CountEphemeral() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ephemeral)
}

func (s *scene) Add(obj game_object.GameObject) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(obj)
}

func (s *scene) Get(id uint64) game_object.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry[id]
}

func (s *scene) Remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.registry[id]; !ok {
		return
	}
	delete(s.registry, id)
	s.order = slices.DeleteFunc(s.order, func(v uint64) bool { return v == id })
}

func (s *scene) ClearEphemeral() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ephemeral = nil
}

func (s *scene) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registry = make(map[uint64]game_object.GameObject)
	s.order = nil
	s.ephemeral = nil
}

func (s *scene) Objects() []frame.Drawable {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]frame.Drawable, 0, len(s.order)+len(s.ephemeral))
	for _, id := range s.order {
		if obj := s.registry[id]; obj.Enabled() {
			out = append(out, obj)
		}
	}
	for _, obj := range s.ephemeral {
		if obj.Enabled() {
			out = append(out, obj)
		}
	}
	return out
}

func (s *scene) AddLight(l light.Light) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lights = append(s.lights, l)
}

func (s *scene) Lights() []light.Light {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.lights)
}

func (s *scene) Environment() Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.environment
}

func (s *scene) SetEnvironment(env Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.environment = env
}

// add inserts obj. Caller must hold the mutex.
func (s *scene) add(obj game_object.GameObject) uint64 {
	if obj.ID() == 0 {
		obj.SetID(s.nextID)
		s.nextID++
	} else if obj.ID() >= s.nextID {
		s.nextID = obj.ID() + 1
	}

	if obj.Ephemeral() {
		s.ephemeral = append(s.ephemeral, obj)
		return obj.ID()
	}
	if _, ok := s.registry[obj.ID()]; !ok {
		s.order = append(s.order, obj.ID())
	}
	s.registry[obj.ID()] = obj
	return obj.ID()
}

// PopulateGrid fills s with a cube grid of roughly count objects centered on the origin, spaced
// spacing apart on the XZ plane over a few vertical layers. Every seventh object is transparent
// and every fiftieth is a UI marker.
//
// Parameters:
//   - s: the scene to fill
//   - count: the number of objects to add
//   - spacing: the distance between neighboring objects
func PopulateGrid(s Scene, count int, spacing float32) {
	if count <= 0 {
		return
	}
	const layers = 4
	side := int(math.Ceil(math.Sqrt(float64(count) / layers)))
	offset := float32(side-1) * spacing / 2

	for i := 0; i < count; i++ {
		x := i % side
		z := (i / side) % side
		y := i / (side * side)

		layer := frame.LayerOpaque
		switch {
		case i%50 == 49:
			layer = frame.LayerUI
		case i%7 == 6:
			layer = frame.LayerTransparent
		}

		s.Add(game_object.NewGameObject(
			game_object.WithPosition(float32(x)*spacing-offset, float32(y)*spacing, float32(z)*spacing-offset),
			game_object.WithHalfExtents(spacing/4, spacing/4, spacing/4),
			game_object.WithLayer(layer),
		))
	}
}
