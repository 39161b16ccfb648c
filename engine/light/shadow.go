package light

// ShadowMapResolution is the default width and height in texels of the shadow
// depth texture. The frame settings carry it so the shadow pass can size its buffers.
const ShadowMapResolution = 2048

// MaxShadowCasters caps how many lights get a shadow map in a single frame. Extra casters
// are ignored by the shadow pass.
const MaxShadowCasters = 4

// ShadowUniformSize is the size in bytes of one light's shadow uniform block
// (light view-projection matrix, bias and normal bias padded to 16 bytes).
const ShadowUniformSize = 64 + 16
