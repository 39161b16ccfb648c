package shader

import (
	"context"
	"errors"
	"testing"
)

func TestParseEntryPoint(t *testing.T) {
	type spec struct {
		source     string
		shaderType ShaderType
		want       string
	}
	specs := []spec{
		{placeholderVertexSource, ShaderTypeVertex, "vs_main"},
		{placeholderFragmentSource, ShaderTypeFragment, "fs_main"},
		{placeholderComputeSource, ShaderTypeCompute, "cs_main"},
		{placeholderComputeSource, ShaderTypeVertex, ""},
		{"// @vertex fn commented() {}\n@vertex fn real() {}", ShaderTypeVertex, "real"},
		{"/* @compute /* nested */ fn hidden() {} */ @compute @workgroup_size(1) fn shown() {}", ShaderTypeCompute, "shown"},
	}

	for index, s := range specs {
		if got := parseEntryPoint(s.source, s.shaderType); got != s.want {
			t.Fatalf("[spec %d] parseEntryPoint = %q, want %q", index, got, s.want)
		}
	}
}

func TestParseWorkgroupSize(t *testing.T) {
	type spec struct {
		source string
		want   [3]uint32
	}
	specs := []spec{
		{placeholderComputeSource, [3]uint32{8, 8, 1}},
		{"@compute @workgroup_size(64) fn main() {}", [3]uint32{64, 1, 1}},
		{"@compute @workgroup_size(4, 2) fn main() {}", [3]uint32{4, 2, 1}},
		{placeholderVertexSource, [3]uint32{1, 1, 1}},
	}

	for index, s := range specs {
		if got := parseWorkgroupSize(s.source); got != s.want {
			t.Fatalf("[spec %d] parseWorkgroupSize = %v, want %v", index, got, s.want)
		}
	}
}

func TestLibrary_CompilePlaceholders(t *testing.T) {
	lib := NewLibrary(WithPipeline("ssao", PlaceholderComputeShaders("ssao")...))
	if err := lib.Register("gbuffer", PlaceholderRenderShaders("gbuffer")...); err != nil {
		t.Fatalf("Register error = %v", err)
	}
	if lib.HasPipeline("gbuffer") {
		t.Error("pipeline should not be available before Compile")
	}

	if err := lib.Compile(context.Background()); err != nil {
		t.Fatalf("Compile error = %v", err)
	}
	for _, key := range []string{"gbuffer", "ssao"} {
		if !lib.HasPipeline(key) {
			t.Errorf("HasPipeline(%s) = false after Compile", key)
		}
		shaders, _ := lib.Pipeline(key)
		for _, s := range shaders {
			if len(s.SPIRV()) == 0 {
				t.Errorf("%s has no SPIR-V after Compile", s.Key())
			}
		}
	}
	if keys := lib.Keys(); len(keys) != 2 || keys[0] != "gbuffer" {
		t.Errorf("Keys = %v, want [gbuffer ssao]", keys)
	}
}

func TestLibrary_CompileFailure(t *testing.T) {
	lib := NewLibrary()
	lib.Register("broken", NewShader("broken", ShaderTypeCompute, "this is not wgsl"))

	if err := lib.Compile(context.Background()); err == nil {
		t.Fatal("Compile should fail on invalid source")
	}
	if lib.HasPipeline("broken") {
		t.Error("a pipeline that failed to compile should not be available")
	}
}

func TestLibrary_RegisterErrors(t *testing.T) {
	lib := NewLibrary()
	if err := lib.Register("empty"); !errors.Is(err, ErrEmptyPipeline) {
		t.Errorf("Register(empty) = %v, want ErrEmptyPipeline", err)
	}
	lib.Register("a", PlaceholderComputeShaders("a")...)
	if err := lib.Register("a", PlaceholderComputeShaders("a")...); !errors.Is(err, ErrDuplicatePipeline) {
		t.Errorf("Register(dup) = %v, want ErrDuplicatePipeline", err)
	}
}
