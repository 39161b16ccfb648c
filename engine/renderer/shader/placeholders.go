package shader

import (
	_ "embed"
)

//go:embed assets/placeholder_vertex.wgsl
var placeholderVertexSource string

//go:embed assets/placeholder_fragment.wgsl
var placeholderFragmentSource string

//go:embed assets/placeholder_compute.wgsl
var placeholderComputeSource string

// PlaceholderRenderShaders returns a minimal vertex and fragment module pair for a render pipeline.
//
// Parameters:
//   - key: the pipeline key, used as the shader key prefix
//
// Returns:
//   - []Shader: the vertex and fragment shaders
func PlaceholderRenderShaders(key string) []Shader {
	return []Shader{
		NewShader(key+"_vertex", ShaderTypeVertex, placeholderVertexSource),
		NewShader(key+"_fragment", ShaderTypeFragment, placeholderFragmentSource),
	}
}

// PlaceholderComputeShaders returns a minimal compute module.
//
// Parameters:
//   - key: the pipeline key, used as the shader key prefix
//
// Returns:
//   - []Shader: the compute shader
func PlaceholderComputeShaders(key string) []Shader {
	return []Shader{
		NewShader(key+"_compute", ShaderTypeCompute, placeholderComputeSource),
	}
}
