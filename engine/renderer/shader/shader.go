package shader

import (
	"fmt"
	"os"
	"sync"
)

// ShaderType identifies the pipeline stage a shader module feeds.
type ShaderType int

const (
	// ShaderTypeCompute indicates a shader containing a @compute entry point.
	ShaderTypeCompute ShaderType = iota

	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

// String returns the lowercase stage name.
func (t ShaderType) String() string {
	switch t {
	case ShaderTypeCompute:
		return "compute"
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	}
	return "unknown"
}

// shader is the implementation of the Shader interface.
type shader struct {
	mu *sync.Mutex

	key           string
	source        string
	shaderType    ShaderType
	entryPoint    string
	workGroupSize [3]uint32

	spirv []byte
}

// Shader is a WGSL shader module for one pipeline stage. The entry point and workgroup size are
// parsed from the source when the shader is created; SPIR-V is available once the owning Library
// has compiled it.
type Shader interface {
	// Key retrieves the unique identifier for this shader.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: the stage
	ShaderType() ShaderType

	// EntryPoint returns the entry point function for the shader's stage, or "" when none was found.
	//
	// Returns:
	//   - string: the entry point name
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size of a compute shader, [1, 1, 1] otherwise.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// SPIRV returns the compiled module, or nil before compilation.
	//
	// Returns:
	//   - []byte: little-endian SPIR-V words
	SPIRV() []byte

	// setSPIRV stores the compiled module.
	setSPIRV(spirv []byte)
}

var _ Shader = &shader{}

// NewShader creates a Shader from WGSL source held in memory.
//
// Parameters:
//   - key: the unique shader key
//   - shaderType: the pipeline stage
//   - source: the WGSL source code
//
// Returns:
//   - Shader: the parsed shader
func NewShader(key string, shaderType ShaderType, source string) Shader {
	return &shader{
		mu:            &sync.Mutex{},
		key:           key,
		source:        source,
		shaderType:    shaderType,
		entryPoint:    parseEntryPoint(source, shaderType),
		workGroupSize: parseWorkgroupSize(source),
	}
}

// NewShaderFromFile reads WGSL source from disk and creates a Shader.
//
// Parameters:
//   - key: the unique shader key
//   - shaderType: the pipeline stage
//   - sourcePath: path to the .wgsl file
//
// Returns:
//   - Shader: the parsed shader
//   - error: an error if the file cannot be read
func NewShaderFromFile(key string, shaderType ShaderType, sourcePath string) (Shader, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("shader: read %s: %w", sourcePath, err)
	}
	return NewShader(key, shaderType, string(data)), nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) SPIRV() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spirv
}

func (s *shader) setSPIRV(spirv []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spirv = spirv
}
