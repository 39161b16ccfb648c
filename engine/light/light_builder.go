package light

import "github.com/go-gl/mathgl/mgl32"

// LightBuilderOption is a function that configures a Light during construction.
type LightBuilderOption func(*Light)

// WithPosition sets the world-space position of the light.
//
// Parameters:
//   - x, y, z: the position components
//
// Returns:
//   - LightBuilderOption: a function that applies the position option
func WithPosition(x, y, z float32) LightBuilderOption {
	return func(l *Light) {
		l.Position = mgl32.Vec3{x, y, z}
	}
}

// WithDirection sets the direction of the light. The direction is normalized before storing;
// a zero vector keeps the default.
//
// Parameters:
//   - x, y, z: the direction components
//
// Returns:
//   - LightBuilderOption: a function that applies the direction option
func WithDirection(x, y, z float32) LightBuilderOption {
	return func(l *Light) {
		d := mgl32.Vec3{x, y, z}
		if d.Len() > 0 {
			l.Direction = d.Normalize()
		}
	}
}

// WithColor sets the RGB color of the light.
func WithColor(r, g, b float32) LightBuilderOption {
	return func(l *Light) {
		l.Color = mgl32.Vec3{r, g, b}
	}
}

// WithIntensity sets the scalar intensity multiplier.
func WithIntensity(intensity float32) LightBuilderOption {
	return func(l *Light) {
		l.Intensity = intensity
	}
}

// WithRange sets the attenuation cutoff distance.
func WithRange(lightRange float32) LightBuilderOption {
	return func(l *Light) {
		l.Range = lightRange
	}
}

// WithCastsShadows marks the light as eligible for the shadow map pass.
func WithCastsShadows(castsShadows bool) LightBuilderOption {
	return func(l *Light) {
		l.CastsShadows = castsShadows
	}
}

// WithEnabled enables or disables the light.
func WithEnabled(enabled bool) LightBuilderOption {
	return func(l *Light) {
		l.Enabled = enabled
	}
}
