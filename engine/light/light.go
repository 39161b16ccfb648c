package light

import (
	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightTypeDirectional represents a light with no position, only direction.
	// Used for large distant sources like the sun or moon. Affects all fragments
	// uniformly with no distance attenuation.
	LightTypeDirectional LightType = iota

	// LightTypePoint represents a light that emits in all directions from a position.
	// Attenuates with distance up to a configurable range.
	LightTypePoint

	// LightTypeSpot represents a light that emits in a cone from a position along a direction.
	LightTypeSpot
)

// Light is a plain value describing one light source for a frame. The scene owns the
// authoritative copy; the frame pipeline snapshots a slice of these into the frame context so
// passes only ever see immutable data.
type Light struct {
	Type      LightType
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
	// Range is the attenuation cutoff for point and spot lights.
	Range float32

	Enabled      bool
	CastsShadows bool
}

// NewLight creates a new Light of the specified type with sensible defaults and
// any provided options applied.
//
// Parameters:
//   - lightType: the kind of light to create (directional, point, or spot)
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: the configured light
func NewLight(lightType LightType, opts ...LightBuilderOption) Light {
	l := Light{
		Type:      lightType,
		Direction: mgl32.Vec3{0, -1, 0},
		Color:     mgl32.Vec3{1, 1, 1},
		Intensity: 1.0,
		Range:     10.0,
		Enabled:   true,
	}
	for _, opt := range opts {
		opt(&l)
	}
	return l
}

// ShadowCasters returns the enabled lights that cast shadows, preserving order.
func ShadowCasters(lights []Light) []Light {
	var out []Light
	for _, l := range lights {
		if l.Enabled && l.CastsShadows {
			out = append(out, l)
		}
	}
	return out
}

// Active returns the number of enabled lights.
func Active(lights []Light) int {
	n := 0
	for _, l := range lights {
		if l.Enabled {
			n++
		}
	}
	return n
}
