package main

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/frame_pipeline"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/urfave/cli"
)

// Flags shared by every command that builds a pipeline.
var pipelineFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "objects",
		Value: 2000,
		Usage: "number of generated scene objects",
	},
	cli.Float64Flag{
		Name:  "spacing",
		Value: 4,
		Usage: "distance between generated objects",
	},
	cli.Uint64Flag{
		Name:  "memory-limit",
		Value: 256,
		Usage: "buffer pool memory limit in MiB (0 = default 256)",
	},
	cli.Float64Flag{
		Name:  "max-distance",
		Value: frame_pipeline.DefaultMaxRenderDistance,
		Usage: "distance beyond which objects are culled (0 = disabled)",
	},
	cli.BoolFlag{
		Name:  "occlusion",
		Usage: "enable occlusion culling",
	},
	cli.BoolFlag{
		Name:  "debug-pass",
		Usage: "enable the debug pass",
	},
	cli.IntFlag{
		Name:  "stats-window",
		Value: 60,
		Usage: "number of frames averaged for the frame rate",
	},
}

// withPipelineFlags returns the shared flags followed by a command's own.
func withPipelineFlags(extra ...cli.Flag) []cli.Flag {
	flags := make([]cli.Flag, 0, len(pipelineFlags)+len(extra))
	flags = append(flags, pipelineFlags...)
	return append(flags, extra...)
}

// pipelineConfig builds the pipeline configuration from the shared flags.
func pipelineConfig(ctx *cli.Context) frame_pipeline.Config {
	cfg := frame_pipeline.DefaultConfig()
	cfg.Pool.MemoryLimit = ctx.Uint64("memory-limit") << 20
	cfg.MaxRenderDistance = float32(ctx.Float64("max-distance"))
	cfg.EnableOcclusionCulling = ctx.Bool("occlusion")
	cfg.Debug = ctx.Bool("debug-pass")
	if w := ctx.Int("stats-window"); w > 0 {
		cfg.StatsWindow = w
	}
	return cfg
}

// buildScene creates the generated grid scene, a camera looking at it from above and a sun.
func buildScene(ctx *cli.Context, aspect float32) scene.Scene {
	far := float32(ctx.Float64("max-distance"))
	if far <= 0 {
		far = 2 * frame_pipeline.DefaultMaxRenderDistance
	}
	s := scene.NewScene(
		scene.WithName("grid"),
		scene.WithCamera(camera.NewCamera(
			camera.WithPosition(0, 60, 160),
			camera.WithTarget(0, 0, 0),
			camera.WithAspect(aspect),
			camera.WithFar(far+100),
		)),
		scene.WithLights(
			light.NewLight(light.LightTypeDirectional,
				light.WithDirection(-0.3, -1, -0.2),
				light.WithIntensity(1.2),
				light.WithCastsShadows(true),
			),
			light.NewLight(light.LightTypePoint,
				light.WithPosition(0, 20, 0),
				light.WithRange(80),
			),
		),
	)
	scene.PopulateGrid(s, ctx.Int("objects"), float32(ctx.Float64("spacing")))
	logger.Infof("generated scene with %d objects", s.Count())
	return s
}
